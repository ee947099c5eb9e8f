package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/manage-pm/manage-admin/internal/auth"
	"github.com/manage-pm/manage-admin/internal/navigation"
	"github.com/manage-pm/manage-admin/internal/platform/httpx"
	"github.com/manage-pm/manage-admin/internal/roles"
	"github.com/manage-pm/manage-admin/internal/session"
	"github.com/manage-pm/manage-admin/internal/testing/apitest"
)

type brokenStore struct{ session.MemoryStore }

func (*brokenStore) Token(ctx context.Context) (string, error) {
	return "", session.ErrStoreUnavailable
}

func setup(t *testing.T, token string) (*Bootstrapper, *session.Session, *session.MemoryStore, *apitest.Server) {
	t.Helper()
	api := apitest.New(t)
	store := session.NewMemoryStore(token)
	sess := session.New()
	client := httpx.NewClient(api.URL, store)
	return New(auth.NewService(client), sess, store, nil), sess, store, api
}

func TestInitWithoutTokenRedirectsToLogin(t *testing.T) {
	b, sess, _, api := setup(t, "")
	res, err := b.Init(context.Background())
	require.NoError(t, err)
	require.Equal(t, "/login", res.Redirect)
	require.False(t, res.Ready())
	require.Equal(t, session.State{}, sess.Snapshot())
	require.Empty(t, api.Requests())
}

func TestInitSeedsTokenAndRole(t *testing.T) {
	b, sess, _, api := setup(t, apitest.Token("manager"))
	res, err := b.Init(context.Background())
	require.NoError(t, err)
	require.True(t, res.Ready())
	require.Equal(t, roles.Manager, res.Role)
	require.Equal(t, "manager", res.UserName)
	require.Equal(t, session.State{Token: apitest.Token("manager"), Role: roles.Manager}, sess.Snapshot())

	reqs := api.RequestsTo("/api/user-role")
	require.Len(t, reqs, 1)
	require.Equal(t, "Bearer "+apitest.Token("manager"), reqs[0].Authorization)
}

func TestInitRoleFailureRedirectsWithoutError(t *testing.T) {
	b, sess, _, api := setup(t, apitest.Token("admin"))
	api.FailRole(true)
	res, err := b.Init(context.Background())
	require.NoError(t, err)
	require.Equal(t, "/login", res.Redirect)
	require.Equal(t, apitest.Token("admin"), sess.Token())
	require.Empty(t, sess.Role())
}

func TestReinitFailedRoleDropsPreviousRole(t *testing.T) {
	b, sess, store, api := setup(t, apitest.Token("admin"))
	ctx := context.Background()
	res, err := b.Init(ctx)
	require.NoError(t, err)
	require.Equal(t, roles.Admin, res.Role)

	require.NoError(t, store.SetToken(ctx, apitest.Token("member")))
	api.FailRole(true)
	res, err = b.Init(ctx)
	require.NoError(t, err)
	require.Equal(t, "/login", res.Redirect)
	require.Equal(t, session.State{Token: apitest.Token("member")}, sess.Snapshot())

	nav := navigation.NewNavigator(navigation.DefaultRouter(), sess, store, nil, nil)
	got, err := nav.Navigate(ctx, "/index/users")
	require.NoError(t, err)
	require.False(t, got.Allowed())
	require.Equal(t, "/unauthorized", got.Path)
}

func TestReinitWithoutTokenClearsSession(t *testing.T) {
	b, sess, store, _ := setup(t, apitest.Token("manager"))
	ctx := context.Background()
	_, err := b.Init(ctx)
	require.NoError(t, err)
	require.Equal(t, roles.Manager, sess.Role())

	require.NoError(t, store.RemoveToken(ctx))
	res, err := b.Init(ctx)
	require.NoError(t, err)
	require.Equal(t, "/login", res.Redirect)
	require.Equal(t, session.State{}, sess.Snapshot())
}

func TestInitEmptyRoleRedirects(t *testing.T) {
	b, sess, _, api := setup(t, apitest.Token("member"))
	api.SetRole("member", "")
	res, err := b.Init(context.Background())
	require.NoError(t, err)
	require.Equal(t, "/login", res.Redirect)
	require.Empty(t, sess.Role())
}

func TestInitRejectedTokenRedirects(t *testing.T) {
	b, _, _, _ := setup(t, "token-ghost")
	res, err := b.Init(context.Background())
	require.NoError(t, err)
	require.Equal(t, "/login", res.Redirect)
}

func TestInitUnknownRoleIsStored(t *testing.T) {
	b, sess, _, api := setup(t, apitest.Token("user"))
	api.SetRole("user", " 访客 ")
	res, err := b.Init(context.Background())
	require.NoError(t, err)
	require.True(t, res.Ready())
	require.Equal(t, roles.Role("访客"), sess.Role())
}

func TestInitStoreFailure(t *testing.T) {
	api := apitest.New(t)
	store := &brokenStore{}
	b := New(auth.NewService(httpx.NewClient(api.URL, store)), session.New(), store, nil)
	res, err := b.Init(context.Background())
	require.ErrorIs(t, err, session.ErrStoreUnavailable)
	require.Equal(t, "/login", res.Redirect)
}

func TestSignInAndOut(t *testing.T) {
	b, sess, store, _ := setup(t, "")
	ctx := context.Background()

	res, err := b.SignIn(ctx, "member", apitest.Password)
	require.NoError(t, err)
	require.Equal(t, roles.Member, res.Role)
	token, _ := store.Token(ctx)
	require.Equal(t, apitest.Token("member"), token)
	require.Equal(t, roles.Member, sess.Role())

	require.NoError(t, b.SignOut(ctx))
	token, _ = store.Token(ctx)
	require.Empty(t, token)
	require.Equal(t, session.State{}, sess.Snapshot())
}

func TestSignInWrongPassword(t *testing.T) {
	b, sess, store, _ := setup(t, "")
	_, err := b.SignIn(context.Background(), "member", "nope")
	require.ErrorIs(t, err, httpx.ErrUnauthorized)
	token, _ := store.Token(context.Background())
	require.Empty(t, token)
	require.Empty(t, sess.Token())
}

type tokenless struct{}

func (tokenless) Login(ctx context.Context, account, password string) (auth.LoginResult, error) {
	return auth.LoginResult{Message: "ok"}, nil
}

func (tokenless) FetchUserRole(ctx context.Context) (string, error) {
	return "", errors.New("unused")
}

func (tokenless) FetchCurrentUserName(ctx context.Context) (string, error) {
	return "", errors.New("unused")
}

func TestSignInWithoutIssuedToken(t *testing.T) {
	b := New(tokenless{}, session.New(), session.NewMemoryStore(""), nil)
	_, err := b.SignIn(context.Background(), "a", "b")
	require.ErrorIs(t, err, ErrNoToken)
}
