package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guanw/ReviewMate/internal/ir"
	"github.com/guanw/ReviewMate/internal/metrics"
	"github.com/guanw/ReviewMate/internal/rules"
	"github.com/guanw/ReviewMate/internal/security"
	"github.com/guanw/ReviewMate/internal/storage"
)

type fixture struct {
	db  *storage.DB
	srv http.Handler
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.CreateSchema())

	for _, u := range []struct{ name, role string }{{"admin", "admin"}, {"viewer", "viewer"}} {
		h, err := security.HashPassword("password-" + u.name)
		require.NoError(t, err)
		_, err = db.CreateUser(u.name, h, u.role)
		require.NoError(t, err)
	}

	s := &Server{
		DB:              db,
		UserStore:       db,
		Rules:           rules.Defaults(rules.Settings{}),
		Metrics:         metrics.New(),
		AllowedOrigins:  []string{"http://localhost:3000"},
		SessionDuration: time.Hour,
	}
	return fixture{db: db, srv: s.Routes()}
}

func (f fixture) do(t *testing.T, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)
	return rec
}

func (f fixture) login(t *testing.T, user string) *http.Cookie {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/v1/auth/login", loginReq{Username: user, Password: "password-" + user}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie {
			return c
		}
	}
	t.Fatal("no session cookie")
	return nil
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/v1/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["ok"])
}

func TestRunsEndpoints(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/runs/latest", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	run := &ir.Run{ID: "run-1", StartedAt: time.Now().UTC(), Violations: []ir.Violation{
		{File: "a.js", Line: 5, RuleName: "TODO-MARKER", Message: "// TODO fix this"},
	}}
	require.NoError(t, f.db.SaveRun(run))

	rec = f.do(t, http.MethodGet, "/api/v1/runs?limit=500", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, float64(200), body["limit"])
	assert.Len(t, body["items"], 1)

	rec = f.do(t, http.MethodGet, "/api/v1/runs/latest", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "run-1", decode(t, rec)["id"])

	rec = f.do(t, http.MethodGet, "/api/v1/runs/run-1/violations?rule=todo-marker", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decode(t, rec)["count"])

	rec = f.do(t, http.MethodGet, "/api/v1/runs/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRulesAndMetrics(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/v1/rules", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decode(t, rec)["count"])

	rec = f.do(t, http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginFailures(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/v1/auth/login", loginReq{Username: "admin", Password: "nope"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = f.do(t, http.MethodPost, "/api/v1/auth/login", loginReq{Username: "ghost", Password: "whatever1"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMeAndLogout(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/v1/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	c := f.login(t, "viewer")
	rec = f.do(t, http.MethodGet, "/api/v1/me", nil, c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "viewer", decode(t, rec)["role"])

	rec = f.do(t, http.MethodPost, "/api/v1/auth/logout", nil, c)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = f.do(t, http.MethodGet, "/api/v1/me", nil, c)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWaiverAdminFlow(t *testing.T) {
	f := newFixture(t)
	viewer := f.login(t, "viewer")
	admin := f.login(t, "admin")
	req := waiverCreateReq{
		RuleID: "TODO-MARKER", File: "legacy/*.js", Reason: "backlog",
		ExpiresAt: time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339),
	}

	rec := f.do(t, http.MethodPost, "/api/v1/waivers", req, viewer)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/waivers", waiverCreateReq{RuleID: "X"}, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/waivers", req, admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decode(t, rec)["id"].(float64)

	rec = f.do(t, http.MethodGet, "/api/v1/waivers?active=1", nil, viewer)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["items"], 1)

	path := "/api/v1/waivers/" + strconv.FormatInt(int64(id), 10) + "/revoke"
	rec = f.do(t, http.MethodPost, path, nil, admin)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = f.do(t, http.MethodPost, path, nil, admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/waivers/abc/revoke", nil, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORS(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/runs", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestNotFound(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type failingAudit struct{ *storage.DB }

func (failingAudit) LogAudit(string, string, string, map[string]any) error {
	return errors.New("audit table locked")
}

func TestAuditFailureIsLoggedNotFatal(t *testing.T) {
	f := newFixture(t)
	var logs bytes.Buffer
	s := &Server{
		DB:        f.db,
		UserStore: failingAudit{f.db},
		Logger:    slog.New(slog.NewTextHandler(&logs, nil)),
	}
	f.srv = s.Routes()

	cookie := f.login(t, "admin")
	rec := f.do(t, http.MethodGet, "/api/v1/me", nil, cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, logs.String(), "audit write failed")
	assert.Contains(t, logs.String(), "audit table locked")
}

func TestMetricsExportStoreTotals(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.SaveRun(&ir.Run{
		ID: "r1", StartedAt: time.Now(), IRVersion: ir.Version,
		Violations: []ir.Violation{{File: "a.js", Line: 1, RuleName: "TODO-MARKER", Message: "// TODO"}},
	}))
	m := metrics.New()
	m.WatchStore(f.db)
	f.srv = (&Server{DB: f.db, UserStore: f.db, Metrics: m}).Routes()

	rec := f.do(t, http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "reviewmate_stored_runs 1")
	assert.Contains(t, rec.Body.String(), "reviewmate_stored_violations 1")
}
