package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

type staticTokens struct {
	mu    sync.Mutex
	token string
	err   error
}

func (s *staticTokens) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.err
}

func (s *staticTokens) set(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

type headerLog struct {
	mu      sync.Mutex
	headers []http.Header
}

func (h *headerLog) add(hdr http.Header) {
	h.mu.Lock()
	h.headers = append(h.headers, hdr.Clone())
	h.mu.Unlock()
}

func newEchoServer(t *testing.T, log *headerLog) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			log.add(req.Header)
			next.ServeHTTP(w, req)
		})
	})
	r.Get("/api/ok", func(w http.ResponseWriter, r *http.Request) {
		JSON(w, http.StatusOK, map[string]string{"role": "经理"})
	})
	r.Post("/api/echo", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = DecodeJSON(r, &body)
		JSON(w, http.StatusCreated, body)
	})
	r.Get("/api/denied", func(w http.ResponseWriter, r *http.Request) {
		JSON(w, http.StatusUnauthorized, map[string]string{"message": "Token 已过期"})
	})
	r.Get("/api/forbidden", func(w http.ResponseWriter, r *http.Request) {
		JSON(w, http.StatusForbidden, map[string]string{"error": "no permission"})
	})
	r.Post("/api/export", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename*=UTF-8''%E7%94%A8%E6%88%B7.xlsx`)
		_, _ = w.Write([]byte("PK\x03\x04"))
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientAttachesStoredBearerToken(t *testing.T) {
	log := &headerLog{}
	srv := newEchoServer(t, log)
	tokens := &staticTokens{token: "tok-123"}
	client := NewClient(srv.URL+"/", tokens)

	var out map[string]string
	require.NoError(t, client.Do(context.Background(), http.MethodGet, "/api/ok", nil, &out))
	require.Equal(t, "经理", out["role"])

	tokens.set("tok-456")
	require.NoError(t, client.Do(context.Background(), http.MethodPost, "/api/echo", map[string]int{"a": 1}, nil))

	require.Len(t, log.headers, 2)
	require.Equal(t, "Bearer tok-123", log.headers[0].Get("Authorization"))
	require.Equal(t, "Bearer tok-456", log.headers[1].Get("Authorization"))
	require.NotEmpty(t, log.headers[0].Get(RequestIDHeader))
	require.NotEqual(t, log.headers[0].Get(RequestIDHeader), log.headers[1].Get(RequestIDHeader))
	require.Equal(t, "application/json", log.headers[1].Get("Content-Type"))
}

func TestClientOmitsHeaderWithoutToken(t *testing.T) {
	log := &headerLog{}
	srv := newEchoServer(t, log)
	client := NewClient(srv.URL, &staticTokens{})

	require.NoError(t, client.Do(context.Background(), http.MethodGet, "/api/ok", nil, nil))
	require.Len(t, log.headers, 1)
	require.Empty(t, log.headers[0].Get("Authorization"))
}

func TestClientTokenLoadFailureSendsNothing(t *testing.T) {
	log := &headerLog{}
	srv := newEchoServer(t, log)
	boom := errors.New("disk gone")
	client := NewClient(srv.URL, &staticTokens{err: boom})

	err := client.Do(context.Background(), http.MethodGet, "/api/ok", nil, nil)
	require.ErrorIs(t, err, boom)
	require.Empty(t, log.headers)
}

func TestClientStatusErrors(t *testing.T) {
	srv := newEchoServer(t, &headerLog{})
	client := NewClient(srv.URL, &staticTokens{token: "x"})

	err := client.Do(context.Background(), http.MethodGet, "/api/denied", nil, nil)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	require.Equal(t, "Token 已过期", statusErr.Message)
	require.ErrorIs(t, err, ErrUnauthorized)
	require.NotErrorIs(t, err, ErrForbidden)

	err = client.Do(context.Background(), http.MethodGet, "/api/forbidden", nil, nil)
	require.ErrorIs(t, err, ErrForbidden)
	require.Contains(t, err.Error(), "no permission")

	err = client.Do(context.Background(), http.MethodGet, "/api/missing", nil, nil)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestClientPassesTransportErrorsThrough(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	client := NewClient(base, &staticTokens{token: "x"})
	err := client.Do(context.Background(), http.MethodGet, "/api/ok", nil, nil)
	var urlErr *url.Error
	require.ErrorAs(t, err, &urlErr)
	var statusErr *StatusError
	require.False(t, errors.As(err, &statusErr))
}

func TestClientTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL, nil, WithTimeout(20*time.Millisecond))
	err := client.Do(context.Background(), http.MethodGet, "/slow", nil, nil)
	var urlErr *url.Error
	require.ErrorAs(t, err, &urlErr)
	require.True(t, urlErr.Timeout())
}

func TestClientDownload(t *testing.T) {
	srv := newEchoServer(t, &headerLog{})
	client := NewClient(srv.URL, &staticTokens{token: "x"})

	blob, err := client.Download(context.Background(), http.MethodPost, "/api/export", map[string][]string{"ids": {"1"}})
	require.NoError(t, err)
	require.Equal(t, []byte("PK\x03\x04"), blob.Data)
	require.Equal(t, "用户.xlsx", blob.Filename)
	require.Contains(t, blob.ContentType, "spreadsheetml")
}

type recordingObserver struct {
	mu     sync.Mutex
	routes []string
	codes  []int
}

func (r *recordingObserver) ObserveRequest(method, route string, code int, elapsed time.Duration) {
	r.mu.Lock()
	r.routes = append(r.routes, method+" "+route)
	r.codes = append(r.codes, code)
	r.mu.Unlock()
}

func TestClientObserver(t *testing.T) {
	srv := newEchoServer(t, &headerLog{})
	obs := &recordingObserver{}
	client := NewClient(srv.URL, nil, WithObserver(obs))

	require.NoError(t, client.Do(context.Background(), http.MethodGet, "/api/ok", nil, nil))
	require.Error(t, client.Do(context.Background(), http.MethodGet, "/api/denied", nil, nil))
	require.Equal(t, []string{"GET /api/ok", "GET /api/denied"}, obs.routes)
	require.Equal(t, []int{http.StatusOK, http.StatusUnauthorized}, obs.codes)
}

func TestRouteLabel(t *testing.T) {
	require.Equal(t, "/api/users/{id}/info", RouteLabel("/api/users/12/info"))
	require.Equal(t, "/api/tasks/{id}/comments", RouteLabel("/api/tasks/7/comments"))
	require.Equal(t, "/api/download/{filename}", RouteLabel("/api/download/static/uploads/a.pdf"))
	require.Equal(t, "/api/projects", RouteLabel("/api/projects"))
}
