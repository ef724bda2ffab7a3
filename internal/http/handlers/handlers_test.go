package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"tollboard/internal/observatory"
	"tollboard/internal/session"
	"tollboard/internal/web"
)

// backend is a scriptable stand-in for the remote observatory API.
type backend struct {
	mu       sync.Mutex
	mux      *http.ServeMux
	requests int
}

func newBackend() *backend {
	return &backend{mux: http.NewServeMux()}
}

func (b *backend) handle(pattern string, handler http.HandlerFunc) {
	b.mux.HandleFunc(pattern, handler)
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.requests++
	b.mu.Unlock()
	b.mux.ServeHTTP(w, r)
}

func (b *backend) requestCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.requests
}

type fixture struct {
	store *session.Store
	home  *HomeHandlers
	maps  *MapHandlers
	debts *DebtsHandlers
	admin *AdminHandlers
}

func newFixture(t *testing.T, b *backend) *fixture {
	t.Helper()

	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)

	logger := zap.NewNop()
	client := observatory.NewClient(srv.URL, srv.Client(), logger)
	store := session.NewStore("test-secret", false)
	renderer, err := web.NewRenderer(logger)
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}

	return &fixture{
		store: store,
		home:  NewHomeHandlers(client, store, renderer, logger, "admin"),
		maps:  NewMapHandlers(client, store, renderer, logger, "admin"),
		debts: NewDebtsHandlers(client, store, renderer, logger, "admin"),
		admin: NewAdminHandlers(client, store, renderer, logger, "admin"),
	}
}

// withSession attaches an established session cookie to the request.
func (f *fixture) withSession(t *testing.T, req *http.Request, sess session.Session) *http.Request {
	t.Helper()
	rec := httptest.NewRecorder()
	if err := f.store.Save(rec, httptest.NewRequest(http.MethodPost, "/login", nil), sess); err != nil {
		t.Fatalf("save session: %v", err)
	}
	for _, c := range (&http.Response{Header: rec.Header()}).Cookies() {
		req.AddCookie(c)
	}
	return req
}

func sessionFromResponse(store *session.Store, rec *httptest.ResponseRecorder) session.Session {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range (&http.Response{Header: rec.Header()}).Cookies() {
		req.AddCookie(c)
	}
	return store.Get(req)
}

func formRequest(target, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func operatorSession() session.Session {
	return session.Session{Token: "abc123", OperatorID: "op1", Username: "op1"}
}

func adminSession() session.Session {
	return session.Session{Token: "abc123", OperatorID: "admin", Username: "admin"}
}

// --- Login / logout ---

func TestLogin_Success_StoresThreeValuesAndRedirects(t *testing.T) {
	b := newBackend()
	b.handle("POST /api/login", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"token":"abc123"}`))
	})
	b.handle("GET /api/operatorID/op1", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-OBSERVATORY-AUTH") != "abc123" {
			t.Errorf("operatorID auth header = %q", r.Header.Get("X-OBSERVATORY-AUTH"))
		}
		w.Write([]byte(`{"OpID":"op1"}`))
	})
	f := newFixture(t, b)

	rec := httptest.NewRecorder()
	f.home.Login(rec, formRequest("/login", "username=op1&password=pw"))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}
	sess := sessionFromResponse(f.store, rec)
	if sess.Token != "abc123" || sess.OperatorID != "op1" || sess.Username != "op1" {
		t.Errorf("session = %+v", sess)
	}
}

func TestLogin_OperatorLookupFails_SessionNotEstablished(t *testing.T) {
	b := newBackend()
	b.handle("POST /api/login", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"token":"abc123"}`))
	})
	b.handle("GET /api/operatorID/op1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	f := newFixture(t, b)

	rec := httptest.NewRecorder()
	f.home.Login(rec, formRequest("/login", "username=op1&password=pw"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Failed to fetch operator details.") {
		t.Error("missing lookup failure message")
	}
	if sess := sessionFromResponse(f.store, rec); sess.LoggedIn() {
		t.Errorf("session established despite lookup failure: %+v", sess)
	}
}

func TestLogin_BadCredentials_ShowsInvalidCredentials(t *testing.T) {
	b := newBackend()
	b.handle("POST /api/login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	f := newFixture(t, b)

	rec := httptest.NewRecorder()
	f.home.Login(rec, formRequest("/login", "username=op1&password=bad"))

	if !strings.Contains(rec.Body.String(), "Invalid credentials") {
		t.Errorf("body: %s", rec.Body.String())
	}
	if sess := sessionFromResponse(f.store, rec); sess.LoggedIn() {
		t.Error("session established on bad credentials")
	}
}

func TestLogout_Success_ClearsSessionAndRedirects(t *testing.T) {
	b := newBackend()
	b.handle("POST /api/logout", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-OBSERVATORY-AUTH") != "abc123" {
			t.Errorf("logout auth header = %q", r.Header.Get("X-OBSERVATORY-AUTH"))
		}
	})
	f := newFixture(t, b)

	rec := httptest.NewRecorder()
	req := f.withSession(t, formRequest("/logout", ""), operatorSession())
	f.home.Logout(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}
	if sess := sessionFromResponse(f.store, rec); sess.LoggedIn() {
		t.Errorf("session not cleared: %+v", sess)
	}
}

func TestLogout_Failure_LeavesSessionUntouched(t *testing.T) {
	b := newBackend()
	b.handle("POST /api/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"boom"}`))
	})
	f := newFixture(t, b)

	rec := httptest.NewRecorder()
	req := f.withSession(t, formRequest("/logout", ""), operatorSession())
	f.home.Logout(rec, req)

	if !strings.Contains(rec.Body.String(), "Logout failed: boom") {
		t.Errorf("body: %s", rec.Body.String())
	}
	if len((&http.Response{Header: rec.Header()}).Cookies()) != 0 {
		t.Error("session cookie was rewritten on failed logout")
	}
}

func TestLogout_WithoutToken_IsLocalError(t *testing.T) {
	b := newBackend()
	f := newFixture(t, b)

	rec := httptest.NewRecorder()
	f.home.Logout(rec, formRequest("/logout", ""))

	if !strings.Contains(rec.Body.String(), "No authentication token found. Please log in.") {
		t.Errorf("body: %s", rec.Body.String())
	}
	if b.requestCount() != 0 {
		t.Errorf("backend saw %d requests, want 0", b.requestCount())
	}
}

// --- Home rendering ---

func TestHome_LoggedOut_ShowsLoginForm(t *testing.T) {
	f := newFixture(t, newBackend())

	rec := httptest.NewRecorder()
	f.home.Show(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	body := rec.Body.String()
	if !strings.Contains(body, `action="/login"`) {
		t.Error("login form not rendered")
	}
	if strings.Contains(body, "Welcome!") {
		t.Error("welcome shown while logged out")
	}
}

func TestHome_AdminCard_OnlyForAdmin(t *testing.T) {
	f := newFixture(t, newBackend())

	rec := httptest.NewRecorder()
	f.home.Show(rec, f.withSession(t, httptest.NewRequest(http.MethodGet, "/", nil), operatorSession()))
	if strings.Contains(rec.Body.String(), "Admin Dashboard") {
		t.Error("admin card rendered for non-admin")
	}

	rec = httptest.NewRecorder()
	f.home.Show(rec, f.withSession(t, httptest.NewRequest(http.MethodGet, "/", nil), adminSession()))
	if !strings.Contains(rec.Body.String(), "Admin Dashboard") {
		t.Error("admin card missing for admin")
	}
}

// --- Debts ---

func TestDebts_Load_RendersRowsAndTotal(t *testing.T) {
	b := newBackend()
	b.handle("GET /api/owedBy/op1/20240101/20240131", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tOpList":[{"tollOpID":"op2","passesCost":12.5},{"tollOpID":"op3","passesCost":7.5}]}`))
	})
	f := newFixture(t, b)

	rec := httptest.NewRecorder()
	req := f.withSession(t, httptest.NewRequest(http.MethodGet, "/debts?dateFrom=2024-01-01&dateTo=2024-01-31", nil), operatorSession())
	f.debts.Show(rec, req)

	body := rec.Body.String()
	for _, want := range []string{"op2", "op3", "€12.50", "€7.50", "Total: €20.00"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestDebts_NoContent_RendersEmptyListAndZeroTotal(t *testing.T) {
	b := newBackend()
	b.handle("GET /api/owedBy/op1/20240101/20240131", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	f := newFixture(t, b)

	rec := httptest.NewRecorder()
	req := f.withSession(t, httptest.NewRequest(http.MethodGet, "/debts?dateFrom=2024-01-01&dateTo=2024-01-31", nil), operatorSession())
	f.debts.Show(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "No data found for the selected period.") {
		t.Error("missing no-data notice")
	}
	if !strings.Contains(body, "Total: €0.00") {
		t.Error("missing zero total")
	}
}

func TestDebts_MissingDate_BlocksCallLocally(t *testing.T) {
	b := newBackend()
	f := newFixture(t, b)

	rec := httptest.NewRecorder()
	req := f.withSession(t, httptest.NewRequest(http.MethodGet, "/debts?dateFrom=&dateTo=2024-01-31", nil), operatorSession())
	f.debts.Show(rec, req)

	if !strings.Contains(rec.Body.String(), `Please select a &#34;Date From&#34;.`) {
		t.Errorf("body: %s", rec.Body.String())
	}
	if b.requestCount() != 0 {
		t.Errorf("backend saw %d requests, want 0", b.requestCount())
	}
}

func TestDebts_AdminMustProvideOperator(t *testing.T) {
	b := newBackend()
	f := newFixture(t, b)

	rec := httptest.NewRecorder()
	req := f.withSession(t, httptest.NewRequest(http.MethodGet, "/debts?dateFrom=2024-01-01&dateTo=2024-01-31", nil), adminSession())
	f.debts.Show(rec, req)

	if !strings.Contains(rec.Body.String(), `Please provide an &#34;Operator ID&#34;.`) {
		t.Errorf("body: %s", rec.Body.String())
	}
	if b.requestCount() != 0 {
		t.Errorf("backend saw %d requests, want 0", b.requestCount())
	}
}

func TestDebts_NonAdminCannotOverrideOperator(t *testing.T) {
	b := newBackend()
	var gotPath string
	b.handle("GET /api/owedBy/", func(w http.ResponseWriter, r *http.Request) {})
	b.handle("GET /api/owedBy/op1/20240101/20240131", func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"tOpList":[]}`))
	})
	f := newFixture(t, b)

	rec := httptest.NewRecorder()
	req := f.withSession(t, httptest.NewRequest(http.MethodGet, "/debts?dateFrom=2024-01-01&dateTo=2024-01-31&operator=op9", nil), operatorSession())
	f.debts.Show(rec, req)

	if gotPath != "/api/owedBy/op1/20240101/20240131" {
		t.Errorf("backend path = %q", gotPath)
	}
}

func TestDebts_Settle_RemovesExactlyOneRowWithoutRefetch(t *testing.T) {
	b := newBackend()
	settleCalls := 0
	b.handle("POST /api/settleDebts/op1/op2/20240101/20240131", func(w http.ResponseWriter, r *http.Request) {
		settleCalls++
	})
	f := newFixture(t, b)

	form := "dateFrom=2024-01-01&dateTo=2024-01-31&operator=op1" +
		"&row=1%7Cop2%7C12.5&row=2%7Cop3%7C7.5&settle=1"
	rec := httptest.NewRecorder()
	req := f.withSession(t, formRequest("/debts/settle", form), operatorSession())
	f.debts.Settle(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "Debt successfully settled!") {
		t.Errorf("body: %s", body)
	}
	if !strings.Contains(body, "Total: €7.50") {
		t.Error("total not recomputed after settlement")
	}
	if strings.Contains(body, "op2") {
		t.Error("settled row still rendered")
	}
	if !strings.Contains(body, "op3") {
		t.Error("unrelated row dropped")
	}
	if settleCalls != 1 || b.requestCount() != 1 {
		t.Errorf("settle calls = %d, total backend requests = %d", settleCalls, b.requestCount())
	}
}

func TestDebts_SettleNothingToSettle_KeepsRows(t *testing.T) {
	b := newBackend()
	b.handle("POST /api/settleDebts/op1/op2/20240101/20240131", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	f := newFixture(t, b)

	form := "dateFrom=2024-01-01&dateTo=2024-01-31&operator=op1" +
		"&row=1%7Cop2%7C12.5&row=2%7Cop3%7C7.5&settle=1"
	rec := httptest.NewRecorder()
	req := f.withSession(t, formRequest("/debts/settle", form), operatorSession())
	f.debts.Settle(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "No debts were found to settle.") {
		t.Errorf("body: %s", body)
	}
	if !strings.Contains(body, "Total: €20.00") {
		t.Error("total changed although nothing was settled")
	}
}

// --- Map ---

func TestMap_Load_RendersStations(t *testing.T) {
	b := newBackend()
	b.handle("GET /api/operatorPassSummary/op1/20240101/20240131", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tollStations":[{"stationName":"AM01","lat":38.1,"long":23.5,` +
			`"stationOperator":"op1","Price1":1.5,"Price2":2.5,"Price3":5.0,"Price4":7.0,` +
			`"nPasses":42,"totalPassCharge":105.5}]}`))
	})
	f := newFixture(t, b)

	rec := httptest.NewRecorder()
	req := f.withSession(t, httptest.NewRequest(http.MethodGet, "/map?fromDate=2024-01-01&toDate=2024-01-31", nil), operatorSession())
	f.maps.Show(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "AM01") {
		t.Errorf("station missing from body: %s", body)
	}
}

func TestMap_NoData_ShowsNotice(t *testing.T) {
	b := newBackend()
	b.handle("GET /api/operatorPassSummary/op1/20240101/20240131", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	f := newFixture(t, b)

	rec := httptest.NewRecorder()
	req := f.withSession(t, httptest.NewRequest(http.MethodGet, "/map?fromDate=2024-01-01&toDate=2024-01-31", nil), operatorSession())
	f.maps.Show(rec, req)

	if !strings.Contains(rec.Body.String(), "No data available for the selected filters.") {
		t.Errorf("body: %s", rec.Body.String())
	}
}

func TestMap_WithoutToken_NoRequestSent(t *testing.T) {
	b := newBackend()
	f := newFixture(t, b)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/map?fromDate=2024-01-01&toDate=2024-01-31&operator=op1", nil)
	f.maps.Show(rec, req)

	if !strings.Contains(rec.Body.String(), `Please provide an &#34;Operator ID&#34;.`) {
		// Without a session there is no operator id either; the operator
		// check fires first for non-admins.
		t.Errorf("body: %s", rec.Body.String())
	}
	if b.requestCount() != 0 {
		t.Errorf("backend saw %d requests, want 0", b.requestCount())
	}
}

func TestMap_AdminOverridesOperator(t *testing.T) {
	b := newBackend()
	var gotPath string
	b.handle("GET /api/operatorPassSummary/op5/20240101/20240131", func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"tollStations":[{"stationName":"X","lat":1,"long":2,"stationOperator":"op5"}]}`))
	})
	f := newFixture(t, b)

	rec := httptest.NewRecorder()
	req := f.withSession(t, httptest.NewRequest(http.MethodGet, "/map?fromDate=2024-01-01&toDate=2024-01-31&operator=op5", nil), adminSession())
	f.maps.Show(rec, req)

	if gotPath != "/api/operatorPassSummary/op5/20240101/20240131" {
		t.Errorf("backend path = %q", gotPath)
	}
}

// --- Admin ---

func TestAdmin_HealthCheck_FormatsCounters(t *testing.T) {
	b := newBackend()
	b.handle("GET /api/admin/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"OK","n_stations":5,"n_tags":10,"n_passes":100}`))
	})
	f := newFixture(t, b)

	rec := httptest.NewRecorder()
	req := f.withSession(t, formRequest("/admin/healthcheck", ""), adminSession())
	f.admin.HealthCheck(rec, req)

	if !strings.Contains(rec.Body.String(), "Healthy: Stations - 5, Tags - 10, Passes - 100") {
		t.Errorf("body: %s", rec.Body.String())
	}
}

func TestAdmin_HealthCheck_NonOKStatusIsFailure(t *testing.T) {
	b := newBackend()
	b.handle("GET /api/admin/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"failed","n_stations":0,"n_tags":0,"n_passes":0}`))
	})
	f := newFixture(t, b)

	rec := httptest.NewRecorder()
	req := f.withSession(t, formRequest("/admin/healthcheck", ""), adminSession())
	f.admin.HealthCheck(rec, req)

	if !strings.Contains(rec.Body.String(), "Health check failed: Database issue detected.") {
		t.Errorf("body: %s", rec.Body.String())
	}
}

func TestAdmin_ResetStations_SuccessAndPayloadFailure(t *testing.T) {
	b := newBackend()
	status := `{"status":"OK"}`
	b.handle("POST /api/admin/resetstations", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(status))
	})
	f := newFixture(t, b)

	rec := httptest.NewRecorder()
	f.admin.ResetStations(rec, f.withSession(t, formRequest("/admin/resetstations", ""), adminSession()))
	if !strings.Contains(rec.Body.String(), "Stations reset successful.") {
		t.Errorf("body: %s", rec.Body.String())
	}

	status = `{"status":"failed","info":"db locked"}`
	rec = httptest.NewRecorder()
	f.admin.ResetStations(rec, f.withSession(t, formRequest("/admin/resetstations", ""), adminSession()))
	if !strings.Contains(rec.Body.String(), "Error: db locked") {
		t.Errorf("body: %s", rec.Body.String())
	}
}

func TestAdmin_AddPasses_NoFileRejectedLocally(t *testing.T) {
	b := newBackend()
	f := newFixture(t, b)

	rec := httptest.NewRecorder()
	req := f.withSession(t, formRequest("/admin/addpasses", ""), adminSession())
	f.admin.AddPasses(rec, req)

	if !strings.Contains(rec.Body.String(), "Please select a CSV file to upload.") {
		t.Errorf("body: %s", rec.Body.String())
	}
	if b.requestCount() != 0 {
		t.Errorf("backend saw %d requests, want 0", b.requestCount())
	}
}
