package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"sqadmin/backend"
	"sqadmin/cache"
	"sqadmin/config"
	"sqadmin/database"
	"sqadmin/models"
	"sqadmin/session"
)

// MockApplication holds dependencies for handler tests.
type MockApplication struct {
	backendClient *backend.Client
	sessions      *session.Manager
	cookies       *session.CookieCodec
	cacheStore    *cache.Store
	rateLimiter   *models.RateLimiter
	logger        *slog.Logger
	cfg           *config.Config
}

func (a *MockApplication) Backend() *backend.Client         { return a.backendClient }
func (a *MockApplication) Sessions() *session.Manager       { return a.sessions }
func (a *MockApplication) Cookies() *session.CookieCodec    { return a.cookies }
func (a *MockApplication) Cache() *cache.Store              { return a.cacheStore }
func (a *MockApplication) RateLimiter() *models.RateLimiter { return a.rateLimiter }
func (a *MockApplication) Logger() *slog.Logger             { return a.logger }
func (a *MockApplication) Config() *config.Config           { return a.cfg }

// fakeUpstream is a scriptable stand-in for the platform API. Handlers are
// registered per path; every request's path and query are recorded.
type fakeUpstream struct {
	srv *httptest.Server
	mux *http.ServeMux

	mu       sync.Mutex
	requests []string
}

func newFakeUpstream(t *testing.T) *fakeUpstream {
	fu := &fakeUpstream{mux: http.NewServeMux()}
	fu.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fu.mu.Lock()
		fu.requests = append(fu.requests, r.Method+" "+r.URL.Path+"?"+r.URL.RawQuery)
		fu.mu.Unlock()
		fu.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(fu.srv.Close)
	return fu
}

func (fu *fakeUpstream) handle(pattern string, fn http.HandlerFunc) {
	fu.mux.HandleFunc(pattern, fn)
}

// callsTo counts recorded requests whose "METHOD /path" string contains frag.
func (fu *fakeUpstream) callsTo(frag string) int {
	fu.mu.Lock()
	defer fu.mu.Unlock()
	n := 0
	for _, req := range fu.requests {
		if strings.Contains(req, frag) {
			n++
		}
	}
	return n
}

func (fu *fakeUpstream) serveProfile(profile models.Profile) {
	fu.handle("/api/identity/me", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, profile)
	})
}

func writeEnvelope(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"code": 200, "message": "success", "data": data})
}

func writeAPIError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"code": code, "message": message, "data": nil})
}

func adminProfile() models.Profile {
	return models.Profile{ID: 1, Username: "root", Nickname: "站长", Role: "admin", Status: 0}
}

type testEnv struct {
	app      *MockApplication
	router   http.Handler
	upstream *fakeUpstream
	session  *http.Cookie
}

const testCSRFToken = "test-csrf-token"

// setupTestEnv wires the full stack against a fake upstream: real router,
// real session store on a temp database, real cache.
func setupTestEnv(t *testing.T) *testEnv {
	if err := os.Chdir(".."); err != nil {
		t.Fatalf("Failed to change directory to project root: %v", err)
	}
	if err := LoadTemplates(); err != nil {
		t.Fatalf("Failed to load templates: %v", err)
	}
	if err := os.Chdir("handlers"); err != nil {
		t.Fatalf("Failed to change back to handlers directory: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	upstream := newFakeUpstream(t)

	dbDir, err := os.MkdirTemp("", "sqadmin_test_db_*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dbDir) })
	dbService, err := database.InitDB(filepath.Join(dbDir, "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { dbService.DB.Close() })

	cfg := &config.Config{
		Listen:          ":0",
		UpstreamURL:     upstream.srv.URL,
		DBPath:          "unused",
		SessionTTL:      time.Hour,
		CacheTTL:        time.Minute,
		PageSize:        10,
		LoginRateEvery:  time.Millisecond,
		LoginRateBurst:  100,
		LoginRatePrune:  time.Hour,
		LoginRateExpire: time.Hour,
	}

	sessions := session.NewManager(dbService, cfg.SessionTTL, logger)
	client := backend.NewClient(cfg.UpstreamURL, sessions, logger)
	sessions.SetClient(client)
	require.NoError(t, sessions.Hydrate())

	app := &MockApplication{
		backendClient: client,
		sessions:      sessions,
		cookies:       session.NewCookieCodec([]byte("0123456789abcdef0123456789abcdef"), cfg.SessionTTL),
		cacheStore:    cache.New(cfg.CacheTTL),
		rateLimiter:   models.NewRateLimiter(cfg.LoginRateEvery, cfg.LoginRateBurst, cfg.LoginRatePrune, cfg.LoginRateExpire),
		logger:        logger,
		cfg:           cfg,
	}

	return &testEnv{app: app, router: NewRouter(app), upstream: upstream}
}

// loginAsAdmin creates a live admin session and keeps its signed cookie for
// subsequent requests. The fake upstream must already serve /api/identity/me.
func (env *testEnv) loginAsAdmin(t *testing.T) {
	sess, err := env.app.sessions.Login(context.Background(), "test-bearer-token")
	require.NoError(t, err)

	// The post-login refresh is asynchronous; wait for the profile to land
	// so tests see a settled session.
	deadline := time.Now().Add(2 * time.Second)
	for sess.User() == nil && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	require.NotNil(t, sess.User(), "profile refresh did not complete")

	cookie, err := env.app.cookies.Issue(sess)
	require.NoError(t, err)
	env.session = cookie
}

// newGet builds a GET request with the session cookie attached.
func (env *testEnv) newGet(path string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if env.session != nil {
		req.AddCookie(env.session)
	}
	return req
}

// newPost builds a form POST with a matching CSRF cookie and field.
func (env *testEnv) newPost(path string, form url.Values) *http.Request {
	if form == nil {
		form = url.Values{}
	}
	form.Set("csrf_token", testCSRFToken)
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: testCSRFToken})
	if env.session != nil {
		req.AddCookie(env.session)
	}
	return req
}

func (env *testEnv) serve(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	return rr
}

func (env *testEnv) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	return env.serve(env.newGet(path))
}

func (env *testEnv) post(t *testing.T, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	return env.serve(env.newPost(path, form))
}
