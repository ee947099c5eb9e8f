package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/manage-pm/manage-admin/internal/session"
	"github.com/manage-pm/manage-admin/internal/testing/apitest"
	"github.com/manage-pm/manage-admin/jobs"
)

func testConfig(apiURL string) *Config {
	return &Config{
		AppEnv:            "test",
		APIURL:            apiURL,
		APITimeout:        5 * time.Second,
		LogLevel:          "info",
		TokenStore:        TokenStoreFile,
		WorkerConcurrency: 1,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewContainerRejectsNilConfig(t *testing.T) {
	_, err := NewContainer(nil, discardLogger())
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestContainerFileStoreSignIn(t *testing.T) {
	api := apitest.New(t)
	cfg := testConfig(api.URL)
	cfg.TokenFile = filepath.Join(t.TempDir(), "token.json")

	c, err := NewContainer(cfg, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, c.Close()) })
	require.IsType(t, &session.FileStore{}, c.Store)

	res, err := c.Bootstrap.SignIn(context.Background(), "manager", apitest.Password)
	require.NoError(t, err)
	require.True(t, res.Ready())

	reopened := session.NewFileStore(cfg.TokenFile)
	token, err := reopened.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, apitest.Token("manager"), token)
}

func TestContainerRedisStore(t *testing.T) {
	api := apitest.New(t)
	mr := miniredis.RunT(t)
	cfg := testConfig(api.URL)
	cfg.TokenStore = TokenStoreRedis
	cfg.RedisAddr = mr.Addr()
	cfg.TokenTTL = time.Hour

	c, err := NewContainer(cfg, discardLogger())
	require.NoError(t, err)

	_, err = c.Bootstrap.SignIn(context.Background(), "admin", apitest.Password)
	require.NoError(t, err)
	stored, err := mr.Get("manage-admin:" + session.StorageKey)
	require.NoError(t, err)
	require.Equal(t, apitest.Token("admin"), stored)
	require.Equal(t, time.Hour, mr.TTL("manage-admin:"+session.StorageKey))
	require.NoError(t, c.Close())
}

func TestContainerUnknownStore(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.TokenStore = "etcd"
	_, err := NewContainer(cfg, discardLogger())
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestContainerWithTokenStore(t *testing.T) {
	api := apitest.New(t)
	store := session.NewMemoryStore(apitest.Token("member"))
	c, err := NewContainer(testConfig(api.URL), discardLogger(), WithTokenStore(store))
	require.NoError(t, err)

	res, err := c.Bootstrap.Init(context.Background())
	require.NoError(t, err)
	require.Equal(t, "成员", string(res.Role))

	nav, err := c.Navigator.Navigate(context.Background(), "/index/users")
	require.NoError(t, err)
	require.Equal(t, "/unauthorized", nav.Path)
	token, err := store.Token(context.Background())
	require.NoError(t, err)
	require.Empty(t, token)
}

func TestConsoleServerRoutes(t *testing.T) {
	api := apitest.New(t)
	cfg := testConfig(api.URL)
	cfg.ConsoleAddr = "127.0.0.1:0"
	c, err := NewContainer(cfg, discardLogger(), WithTokenStore(session.NewMemoryStore(apitest.Token("admin"))))
	require.NoError(t, err)
	_, err = c.Bootstrap.Init(context.Background())
	require.NoError(t, err)

	srv := c.NewConsoleServer(jobs.NewHandler(nil, c.Logger))
	require.Equal(t, cfg.ConsoleAddr, srv.Addr)
	handler := srv.Handler

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	require.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	require.NotEmpty(t, rec.Header().Get("X-RateLimit-Limit"))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/index/users", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var page map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Equal(t, "UserList", page["route"])

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "manage_navigation_decisions_total")
	require.Contains(t, body, "manage_api_requests_total")
}

func TestLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	NewLoggerTo(&buf, &Config{LogFormat: "json", LogLevel: "warn"}).Info("hidden")
	require.Empty(t, buf.String())

	NewLoggerTo(&buf, &Config{LogFormat: "json", LogLevel: "warn"}).Warn("shown", slog.String("k", "v"))
	line := strings.TrimSpace(buf.String())
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	require.Equal(t, "shown", entry["msg"])
	require.Equal(t, "v", entry["k"])

	buf.Reset()
	NewLoggerTo(&buf, nil).Info("plain")
	require.Contains(t, buf.String(), "msg=plain")
}
