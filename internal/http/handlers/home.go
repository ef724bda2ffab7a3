package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"tollboard/internal/observatory"
	"tollboard/internal/session"
	"tollboard/internal/web"
)

// HomeHandlers renders the landing page and owns the login/logout flow.
type HomeHandlers struct {
	client   *observatory.Client
	sessions *session.Store
	renderer *web.Renderer
	logger   *zap.Logger
	adminID  string
}

// NewHomeHandlers returns handler struct.
func NewHomeHandlers(client *observatory.Client, sessions *session.Store, renderer *web.Renderer, logger *zap.Logger, adminID string) *HomeHandlers {
	return &HomeHandlers{client: client, sessions: sessions, renderer: renderer, logger: logger, adminID: adminID}
}

type homeData struct {
	web.PageData
}

// Show handles GET /.
func (h *HomeHandlers) Show(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Get(r)
	h.renderer.Render(w, http.StatusOK, "home", homeData{PageData: page("Home", r, sess, h.adminID)})
}

// Login handles POST /login. Authentication is atomic: the credential post
// and the operator-id lookup either both succeed and establish the session,
// or the token is discarded and the user stays logged out. A partially
// authenticated session is never stored.
func (h *HomeHandlers) Login(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Get(r)
	data := homeData{PageData: page("Home", r, sess, h.adminID)}

	if err := r.ParseForm(); err != nil {
		data.Error = "Invalid credentials"
		h.renderer.Render(w, http.StatusBadRequest, "home", data)
		return
	}
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	token, err := h.client.Login(r.Context(), username, password)
	if err != nil {
		h.logger.Warn("login failed", zap.String("username", username), zap.Error(err))
		data.Error = loginError(err)
		h.renderer.Render(w, http.StatusOK, "home", data)
		return
	}

	operatorID, err := h.client.OperatorID(r.Context(), token, username)
	if err != nil {
		h.logger.Warn("operator id lookup failed after login", zap.String("username", username), zap.Error(err))
		data.Error = "Failed to fetch operator details."
		h.renderer.Render(w, http.StatusOK, "home", data)
		return
	}

	if err := h.sessions.Save(w, r, session.Session{
		Token:      token,
		OperatorID: operatorID,
		Username:   username,
	}); err != nil {
		h.logger.Error("session save failed", zap.Error(err))
		data.Error = "An error occurred. Please try again."
		h.renderer.Render(w, http.StatusInternalServerError, "home", data)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout handles POST /logout. Session values are cleared only after the
// remote logout succeeds; on failure the session is left untouched.
func (h *HomeHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Get(r)
	data := homeData{PageData: page("Home", r, sess, h.adminID)}

	if !sess.LoggedIn() {
		data.Error = "No authentication token found. Please log in."
		h.renderer.Render(w, http.StatusOK, "home", data)
		return
	}

	if err := h.client.Logout(r.Context(), sess.Token); err != nil {
		h.logger.Warn("logout failed", zap.Error(err))
		data.Error = logoutError(err)
		h.renderer.Render(w, http.StatusOK, "home", data)
		return
	}

	if err := h.sessions.Clear(w, r); err != nil {
		h.logger.Error("session clear failed", zap.Error(err))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func loginError(err error) string {
	if errors.Is(err, observatory.ErrUnauthorized) {
		return "Invalid credentials"
	}
	var apiErr *observatory.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return "Invalid credentials"
	}
	return "Something went wrong. Please try again."
}

func logoutError(err error) string {
	var apiErr *observatory.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return "Logout failed: " + apiErr.Message
		}
		return "Logout failed: Unknown error"
	}
	if errors.Is(err, observatory.ErrUnauthorized) {
		return "Unauthorized: Invalid or missing auth key."
	}
	return "An error occurred. Please try again."
}
