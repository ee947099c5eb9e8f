package console

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/manage-pm/manage-admin/internal/auth"
	"github.com/manage-pm/manage-admin/internal/bootstrap"
	"github.com/manage-pm/manage-admin/internal/navigation"
	"github.com/manage-pm/manage-admin/internal/platform/httpx"
	"github.com/manage-pm/manage-admin/internal/projects"
	"github.com/manage-pm/manage-admin/internal/session"
	"github.com/manage-pm/manage-admin/internal/tasks"
	"github.com/manage-pm/manage-admin/internal/testing/apitest"
	"github.com/manage-pm/manage-admin/internal/users"
)

type fixture struct {
	router  http.Handler
	api     *apitest.Server
	store   *session.MemoryStore
	session *session.Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	api := apitest.New(t)
	store := session.NewMemoryStore("")
	sess := session.New()
	client := httpx.NewClient(api.URL, store)
	nav := navigation.NewNavigator(navigation.DefaultRouter(), sess, store, nil, logger)
	boot := bootstrap.New(auth.NewService(client), sess, store, logger)
	views := NewViews(users.NewService(client), projects.NewService(client), tasks.NewService(client))

	r := chi.NewRouter()
	NewHandler(nav, boot, sess, views, logger).MountRoutes(r)
	return &fixture{router: r, api: api, store: store, session: sess}
}

func (f *fixture) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func (f *fixture) login(t *testing.T, account, password string) *httptest.ResponseRecorder {
	t.Helper()
	body := `{"account":"` + account + `","password":"` + password + `"}`
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodePage(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var page map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	return page
}

func TestAnonymousRedirectsToLogin(t *testing.T) {
	f := newFixture(t)
	for _, path := range []string{"/index/users", "/index/tasks/detail/1", "/index/reset-password"} {
		rec := f.get(t, path)
		require.Equal(t, http.StatusSeeOther, rec.Code, path)
		require.Equal(t, "/login", rec.Header().Get("Location"), path)
	}

	rec := f.get(t, "/")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/login", rec.Header().Get("Location"))

	page := decodePage(t, f.get(t, "/login"))
	require.Equal(t, "Index", page["route"])
}

func TestUnknownPathRedirectsToUnauthorized(t *testing.T) {
	f := newFixture(t)
	rec := f.get(t, "/somewhere/else")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/unauthorized", rec.Header().Get("Location"))
}

func TestLoginThenBrowse(t *testing.T) {
	f := newFixture(t)
	rec := f.login(t, "manager", apitest.Password)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/index", rec.Header().Get("Location"))

	page := decodePage(t, f.get(t, "/index/projects"))
	require.Equal(t, "ProjectList", page["route"])
	require.Equal(t, "经理", page["role"])
	data := page["data"].(map[string]any)
	require.EqualValues(t, 1, data["total"])

	page = decodePage(t, f.get(t, "/index/projects/edit/1"))
	require.Equal(t, "1", page["params"].(map[string]any)["id"])
	require.Equal(t, "Apollo", page["data"].(map[string]any)["name"])

	page = decodePage(t, f.get(t, "/session"))
	require.Equal(t, true, page["authenticated"])
}

func TestWrongRoleClearsSession(t *testing.T) {
	f := newFixture(t)
	f.login(t, "manager", apitest.Password)

	rec := f.get(t, "/index/users")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/unauthorized", rec.Header().Get("Location"))

	require.Equal(t, session.State{}, f.session.Snapshot())
	token, err := f.store.Token(context.Background())
	require.NoError(t, err)
	require.Empty(t, token)

	rec = f.get(t, "/index/projects")
	require.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestMemberViews(t *testing.T) {
	f := newFixture(t)
	f.login(t, "member", apitest.Password)

	page := decodePage(t, f.get(t, "/index/tasks"))
	require.EqualValues(t, 1, page["data"].(map[string]any)["total"])
	require.Len(t, f.api.RequestsTo("/api/tasks/member"), 1)

	page = decodePage(t, f.get(t, "/index/tasks/detail/1"))
	detail := page["data"].(map[string]any)
	require.Equal(t, "Draft plan", detail["task"].(map[string]any)["title"])
	require.Len(t, detail["comments"], 1)

	page = decodePage(t, f.get(t, "/index/tasks/add"))
	require.Nil(t, page["data"])
}

func TestBadIDIsValidationProblem(t *testing.T) {
	f := newFixture(t)
	f.login(t, "admin", apitest.Password)
	rec := f.get(t, "/index/users/edit/abc")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestUpstreamErrorsPassThrough(t *testing.T) {
	f := newFixture(t)
	f.login(t, "admin", apitest.Password)
	rec := f.get(t, "/index/users/edit/999")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLoginFailures(t *testing.T) {
	f := newFixture(t)
	rec := f.login(t, "manager", "wrong")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	f.api.FailRole(true)
	rec = f.login(t, "manager", apitest.Password)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestFormLoginWithNext(t *testing.T) {
	f := newFixture(t)
	form := url.Values{"account": {"admin"}, "password": {apitest.Password}, "next": {"/index/users"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/index/users", rec.Header().Get("Location"))
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	f.login(t, "admin", apitest.Password)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/logout", nil))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/login", rec.Header().Get("Location"))
	require.Empty(t, f.session.Token())
}

func TestSafeNext(t *testing.T) {
	require.Equal(t, "/index", safeNext(""))
	require.Equal(t, "/index", safeNext("https://evil.example/x"))
	require.Equal(t, "/index", safeNext("//evil.example/x"))
	require.Equal(t, "/index/tasks", safeNext("/index/tasks"))
}
