package session

import (
	"crypto/sha256"
	"net/http"

	"github.com/gorilla/sessions"
)

const sessionName = "tollboard_session"

const (
	keyToken      = "authToken"
	keyOperatorID = "operatorID"
	keyUsername   = "username"
)

// Session is an immutable per-request snapshot of the three values the
// dashboard keeps between requests. A zero Session means logged out.
type Session struct {
	Token      string
	OperatorID string
	Username   string
}

// LoggedIn reports whether a token is stored.
func (s Session) LoggedIn() bool { return s.Token != "" }

// IsAdmin reports whether the stored operator id is the admin identifier.
func (s Session) IsAdmin(adminID string) bool {
	return s.OperatorID != "" && s.OperatorID == adminID
}

// Store keeps sessions in a signed and encrypted cookie scoped to the
// browser session (no MaxAge). There is no server-side session state.
type Store struct {
	cookies *sessions.CookieStore
}

// NewStore derives signing and encryption keys from the secret.
func NewStore(secret string, secure bool) *Store {
	h := sha256.Sum256([]byte("auth:" + secret))
	e := sha256.Sum256([]byte("enc:" + secret))

	cookies := sessions.NewCookieStore(h[:], e[:])
	cookies.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   0,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
	}
	return &Store{cookies: cookies}
}

// Get decodes the session cookie. A missing or undecodable cookie yields
// the zero (logged out) session.
func (st *Store) Get(r *http.Request) Session {
	s, err := st.cookies.Get(r, sessionName)
	if err != nil {
		return Session{}
	}
	return Session{
		Token:      str(s.Values[keyToken]),
		OperatorID: str(s.Values[keyOperatorID]),
		Username:   str(s.Values[keyUsername]),
	}
}

// Save writes all three values together.
func (st *Store) Save(w http.ResponseWriter, r *http.Request, sess Session) error {
	s, err := st.cookies.Get(r, sessionName)
	if err != nil {
		s, _ = st.cookies.New(r, sessionName)
	}
	s.Values[keyToken] = sess.Token
	s.Values[keyOperatorID] = sess.OperatorID
	s.Values[keyUsername] = sess.Username
	return s.Save(r, w)
}

// Clear drops all three values together.
func (st *Store) Clear(w http.ResponseWriter, r *http.Request) error {
	s, err := st.cookies.Get(r, sessionName)
	if err != nil {
		s, _ = st.cookies.New(r, sessionName)
	}
	delete(s.Values, keyToken)
	delete(s.Values, keyOperatorID)
	delete(s.Values, keyUsername)
	s.Options.MaxAge = -1
	return s.Save(r, w)
}

func str(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
