package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"paga/internal/auth"
	"paga/internal/log"
	"paga/internal/services"
	"paga/internal/storage"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type fixture struct {
	server  *Server
	repo    *storage.MemoryRepository
	pending *auth.PendingTable
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := log.New(log.Config{
		Handler:   slog.NewTextHandler(io.Discard, nil),
		Component: "test",
	})

	repo := storage.NewMemoryRepository()
	pending := auth.NewPendingTable(10 * time.Minute)

	authSvc := services.NewAuthService(repo, pending, nil, "boss", testSecret, time.Hour, logger)
	adminSvc := services.NewAdminService(repo, logger)
	profileSvc := services.NewProfileService(repo, nil, logger)
	sessions := services.NewSessionManager(profileSvc, logger, time.Hour)
	t.Cleanup(sessions.Shutdown)

	srv := NewServer(":0", Deps{
		Auth:         authSvc,
		Admin:        adminSvc,
		Sessions:     sessions,
		Profiles:     profileSvc,
		ExchangeRate: 0.23,
		Logger:       logger,
	})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	return &fixture{server: srv, repo: repo, pending: pending}
}

// do performs a request against the full middleware chain and decodes
// the JSON body, if any.
func (f *fixture) do(t *testing.T, method, path, token, body string) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.server.Server.Handler.ServeHTTP(rec, req)

	var decoded map[string]any
	raw := rec.Body.Bytes()
	if len(raw) > 0 && raw[0] == '{' {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("%s %s: decode response %q: %v", method, path, raw, err)
		}
	}
	return rec.Code, decoded
}

// register creates and verifies an account, returning its uid.
func (f *fixture) register(t *testing.T, username, password string) string {
	t.Helper()

	status, _ := f.do(t, http.MethodPost, "/api/auth/register", "",
		`{"username":"`+username+`","password":"`+password+`"}`)
	if status != http.StatusAccepted {
		t.Fatalf("register %s: status = %d, want %d", username, status, http.StatusAccepted)
	}

	// The code travels by mail; stage a known one for the test.
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	code, err := f.pending.Put(username, hash)
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	status, body := f.do(t, http.MethodPost, "/api/auth/verify", "",
		`{"username":"`+username+`","code":"`+code+`"}`)
	if status != http.StatusCreated {
		t.Fatalf("verify %s: status = %d, want %d", username, status, http.StatusCreated)
	}
	uid, _ := body["uid"].(string)
	if uid == "" {
		t.Fatalf("verify %s: no uid in response %v", username, body)
	}
	return uid
}

func (f *fixture) login(t *testing.T, username, password string) string {
	t.Helper()
	status, body := f.do(t, http.MethodPost, "/api/auth/login", "",
		`{"username":"`+username+`","password":"`+password+`"}`)
	if status != http.StatusOK {
		t.Fatalf("login %s: status = %d, body %v", username, status, body)
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatalf("login %s: empty token", username)
	}
	return token
}

func TestServer_RegistrationAndApprovalFlow(t *testing.T) {
	f := newFixture(t)

	uid := f.register(t, "alice", "password1")

	// Pending accounts cannot sign in.
	status, _ := f.do(t, http.MethodPost, "/api/auth/login", "",
		`{"username":"alice","password":"password1"}`)
	if status != http.StatusForbidden {
		t.Errorf("pending login status = %d, want %d", status, http.StatusForbidden)
	}

	// The configured admin is approved on registration.
	f.register(t, "boss", "password1")
	adminToken := f.login(t, "boss", "password1")

	status, body := f.do(t, http.MethodGet, "/api/admin/users", adminToken, "")
	if status != http.StatusOK {
		t.Fatalf("list users status = %d", status)
	}
	users, _ := body["users"].([]any)
	if len(users) != 2 {
		t.Errorf("listed %d users, want 2", len(users))
	}

	status, _ = f.do(t, http.MethodPost, "/api/admin/users/"+uid+"/approve", adminToken, "")
	if status != http.StatusOK {
		t.Fatalf("approve status = %d", status)
	}

	f.login(t, "alice", "password1")
}

func TestServer_AdminRoutesRequireAdmin(t *testing.T) {
	f := newFixture(t)

	uid := f.register(t, "alice", "password1")
	f.register(t, "boss", "password1")
	adminToken := f.login(t, "boss", "password1")
	f.do(t, http.MethodPost, "/api/admin/users/"+uid+"/approve", adminToken, "")
	aliceToken := f.login(t, "alice", "password1")

	status, _ := f.do(t, http.MethodGet, "/api/admin/users", aliceToken, "")
	if status != http.StatusForbidden {
		t.Errorf("non-admin list status = %d, want %d", status, http.StatusForbidden)
	}

	status, _ = f.do(t, http.MethodGet, "/api/admin/users", "", "")
	if status != http.StatusUnauthorized {
		t.Errorf("anonymous list status = %d, want %d", status, http.StatusUnauthorized)
	}
}

// approvedUser registers and approves a user, returning their token.
func approvedUser(t *testing.T, f *fixture, username string) string {
	t.Helper()
	uid := f.register(t, username, "password1")
	f.register(t, "boss", "password1")
	adminToken := f.login(t, "boss", "password1")
	f.do(t, http.MethodPost, "/api/admin/users/"+uid+"/approve", adminToken, "")
	return f.login(t, username, "password1")
}

func TestServer_ProfileAndSettings(t *testing.T) {
	f := newFixture(t)
	token := approvedUser(t, f, "alice")

	status, body := f.do(t, http.MethodGet, "/api/profile", token, "")
	if status != http.StatusOK {
		t.Fatalf("get profile status = %d", status)
	}
	if body["hourly"].(float64) != 0 {
		t.Errorf("default hourly = %v, want 0", body["hourly"])
	}
	if body["taxPct"].(float64) != 33.5 {
		t.Errorf("default taxPct = %v, want 33.5", body["taxPct"])
	}
	if body["exchangeRate"].(float64) != 0.23 {
		t.Errorf("exchangeRate = %v, want 0.23", body["exchangeRate"])
	}

	status, body = f.do(t, http.MethodPut, "/api/profile", token,
		`{"hourly":"2000","year":2025,"month":2,"currency":"converted"}`)
	if status != http.StatusOK {
		t.Fatalf("put profile status = %d, body %v", status, body)
	}
	if body["hourly"].(float64) != 2000 {
		t.Errorf("hourly after update = %v, want 2000", body["hourly"])
	}
	if body["month"].(float64) != 2 {
		t.Errorf("month after update = %v, want 2", body["month"])
	}
	if body["currency"].(string) != "converted" {
		t.Errorf("currency after update = %v, want converted", body["currency"])
	}

	status, _ = f.do(t, http.MethodPut, "/api/profile", token, `{"month":12}`)
	if status != http.StatusUnprocessableEntity {
		t.Errorf("month 12 status = %d, want %d", status, http.StatusUnprocessableEntity)
	}
}

func TestServer_DayEditFlow(t *testing.T) {
	f := newFixture(t)
	token := approvedUser(t, f, "alice")

	// Pin wage and month so the totals are known.
	f.do(t, http.MethodPut, "/api/profile", token, `{"hourly":2000,"year":2025,"month":2}`)

	status, body := f.do(t, http.MethodPost, "/api/day/open", token, `{"day":5}`)
	if status != http.StatusOK {
		t.Fatalf("open day status = %d, body %v", status, body)
	}
	if body["day"].(float64) != 5 {
		t.Errorf("open day = %v, want 5", body["day"])
	}

	// Only one day can be open at a time.
	status, _ = f.do(t, http.MethodPost, "/api/day/open", token, `{"day":6}`)
	if status != http.StatusConflict {
		t.Errorf("second open status = %d, want %d", status, http.StatusConflict)
	}

	status, body = f.do(t, http.MethodPost, "/api/day/entries", token, "")
	if status != http.StatusOK {
		t.Fatalf("add entry status = %d", status)
	}
	entries, _ := body["entries"].([]any)
	if len(entries) != 1 {
		t.Fatalf("entries after add = %v, want one", body["entries"])
	}

	// Decimal comma input is accepted.
	status, body = f.do(t, http.MethodPut, "/api/day/entries/0", token, `{"hours":"7,5","bonus":"0.3"}`)
	if status != http.StatusOK {
		t.Fatalf("update entry status = %d, body %v", status, body)
	}
	entry := body["entries"].([]any)[0].(map[string]any)
	if entry["hours"].(float64) != 7.5 || entry["bonus"].(float64) != 0.3 {
		t.Errorf("entry after update = %v, want 7.5h at 0.3", entry)
	}

	status, _ = f.do(t, http.MethodPut, "/api/day/entries/5", token, `{"hours":"1","bonus":"0"}`)
	if status != http.StatusNotFound {
		t.Errorf("out-of-range update status = %d, want %d", status, http.StatusNotFound)
	}

	// The weekend rate is rejected on a weekday (2025-03-05 is a
	// Wednesday).
	status, _ = f.do(t, http.MethodPut, "/api/day/entries/0", token, `{"hours":"8","bonus":"2"}`)
	if status != http.StatusUnprocessableEntity {
		t.Errorf("weekend bonus on weekday status = %d, want %d", status, http.StatusUnprocessableEntity)
	}

	status, body = f.do(t, http.MethodPost, "/api/day/save", token, "")
	if status != http.StatusOK {
		t.Fatalf("save day status = %d", status)
	}
	days, _ := body["days"].(map[string]any)
	if _, ok := days["5"]; !ok {
		t.Errorf("saved days = %v, want day 5 present", days)
	}

	// After save the editor is closed again.
	status, _ = f.do(t, http.MethodGet, "/api/day", token, "")
	if status != http.StatusConflict {
		t.Errorf("get day after save status = %d, want %d", status, http.StatusConflict)
	}

	// Cancel discards instead of committing.
	f.do(t, http.MethodPost, "/api/day/open", token, `{"day":6}`)
	f.do(t, http.MethodPost, "/api/day/entries", token, "")
	f.do(t, http.MethodPut, "/api/day/entries/0", token, `{"hours":"4","bonus":"0"}`)
	status, _ = f.do(t, http.MethodPost, "/api/day/cancel", token, "")
	if status != http.StatusOK {
		t.Fatalf("cancel status = %d", status)
	}
	_, body = f.do(t, http.MethodGet, "/api/calendar", token, "")
	days, _ = body["days"].(map[string]any)
	if _, ok := days["6"]; ok {
		t.Errorf("cancelled day 6 present in calendar %v", days)
	}
}

func TestServer_SalaryTotal(t *testing.T) {
	f := newFixture(t)
	token := approvedUser(t, f, "alice")

	f.do(t, http.MethodPut, "/api/profile", token, `{"hourly":2000,"year":2025,"month":2}`)
	f.do(t, http.MethodPost, "/api/day/open", token, `{"day":5}`)
	f.do(t, http.MethodPost, "/api/day/entries", token, "")
	f.do(t, http.MethodPut, "/api/day/entries/0", token, `{"hours":"8","bonus":"0"}`)
	f.do(t, http.MethodPost, "/api/day/save", token, "")

	status, body := f.do(t, http.MethodGet, "/api/salary/total", token, "")
	if status != http.StatusOK {
		t.Fatalf("total status = %d", status)
	}
	if got := body["total"].(float64); got != 16000 {
		t.Errorf("total = %v, want 16000", got)
	}
	if body["currency"].(string) != "native" {
		t.Errorf("currency = %v, want native", body["currency"])
	}

	// Second read comes from the cache and must agree.
	_, body = f.do(t, http.MethodGet, "/api/salary/total", token, "")
	if got := body["total"].(float64); got != 16000 {
		t.Errorf("cached total = %v, want 16000", got)
	}

	// Tax override.
	_, body = f.do(t, http.MethodGet, "/api/salary/total?tax=true&taxPct=33.5", token, "")
	if got := body["total"].(float64); math.Abs(got-10640) > 1e-9 {
		t.Errorf("taxed total = %v, want 10640", got)
	}

	// Conversion override.
	_, body = f.do(t, http.MethodGet, "/api/salary/total?convert=true", token, "")
	if got := body["total"].(float64); math.Abs(got-3680) > 1e-9 {
		t.Errorf("converted total = %v, want 3680", got)
	}
	if body["currency"].(string) != "converted" {
		t.Errorf("override currency = %v, want converted", body["currency"])
	}

	// A new commit invalidates the cached total.
	f.do(t, http.MethodPost, "/api/day/open", token, `{"day":6}`)
	f.do(t, http.MethodPost, "/api/day/entries", token, "")
	f.do(t, http.MethodPut, "/api/day/entries/0", token, `{"hours":"2","bonus":"0"}`)
	f.do(t, http.MethodPost, "/api/day/save", token, "")

	_, body = f.do(t, http.MethodGet, "/api/salary/total", token, "")
	if got := body["total"].(float64); got != 20000 {
		t.Errorf("total after second day = %v, want 20000", got)
	}

	// Empty months total zero.
	_, body = f.do(t, http.MethodGet, "/api/salary/total?year=2024&month=0", token, "")
	if got := body["total"].(float64); got != 0 {
		t.Errorf("empty month total = %v, want 0", got)
	}

	status, _ = f.do(t, http.MethodGet, "/api/salary/total?month=12", token, "")
	if status != http.StatusUnprocessableEntity {
		t.Errorf("month 12 status = %d, want %d", status, http.StatusUnprocessableEntity)
	}
}

func TestServer_HealthAndMetrics(t *testing.T) {
	f := newFixture(t)

	status, _ := f.do(t, http.MethodGet, "/healthz", "", "")
	if status != http.StatusOK {
		t.Errorf("healthz status = %d", status)
	}
	status, _ = f.do(t, http.MethodGet, "/readyz", "", "")
	if status != http.StatusOK {
		t.Errorf("readyz status = %d", status)
	}
	status, body := f.do(t, http.MethodGet, "/metrics", "", "")
	if status != http.StatusOK {
		t.Errorf("metrics status = %d", status)
	}
	if body["total_requests"].(float64) < 2 {
		t.Errorf("total_requests = %v, want at least 2", body["total_requests"])
	}
}

func TestServer_SecurityHeaders(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	f.server.Server.Handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Error("Content-Security-Policy header missing")
	}
}

func TestServer_Logout(t *testing.T) {
	f := newFixture(t)
	token := approvedUser(t, f, "alice")

	// Stage but do not save; logout drops the staged edits.
	f.do(t, http.MethodPost, "/api/day/open", token, `{"day":5}`)
	f.do(t, http.MethodPost, "/api/day/entries", token, "")

	status, _ := f.do(t, http.MethodPost, "/api/auth/logout", token, "")
	if status != http.StatusOK {
		t.Fatalf("logout status = %d", status)
	}

	// The token is still valid; a fresh session comes up hydrated with
	// no open day.
	status, _ = f.do(t, http.MethodGet, "/api/day", token, "")
	if status != http.StatusConflict {
		t.Errorf("day after logout status = %d, want %d", status, http.StatusConflict)
	}
}
