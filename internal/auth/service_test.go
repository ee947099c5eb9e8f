package auth_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/manage-pm/manage-admin/internal/auth"
	"github.com/manage-pm/manage-admin/internal/platform/httpx"
	"github.com/manage-pm/manage-admin/internal/session"
	"github.com/manage-pm/manage-admin/internal/testing/apitest"
)

func newService(t *testing.T, token string) (*auth.Service, *apitest.Server) {
	t.Helper()
	api := apitest.New(t)
	client := httpx.NewClient(api.URL, session.NewMemoryStore(token))
	return auth.NewService(client), api
}

func TestLoginReturnsToken(t *testing.T) {
	svc, _ := newService(t, "")
	res, err := svc.Login(context.Background(), "manager", apitest.Password)
	require.NoError(t, err)
	require.Equal(t, apitest.Token("manager"), res.Token)

	_, err = svc.Login(context.Background(), "manager", "wrong")
	require.ErrorIs(t, err, httpx.ErrUnauthorized)
	var status *httpx.StatusError
	require.True(t, errors.As(err, &status))
	require.Equal(t, "账号或密码错误", status.Message)
}

func TestLoginValidatesBeforeSending(t *testing.T) {
	svc, api := newService(t, "")
	_, err := svc.Login(context.Background(), "", "x")
	require.ErrorIs(t, err, httpx.ErrValidation)
	require.Empty(t, api.Requests())
}

func TestFetchUserRole(t *testing.T) {
	svc, api := newService(t, apitest.Token("member"))
	role, err := svc.FetchUserRole(context.Background())
	require.NoError(t, err)
	require.Equal(t, "成员", role)

	api.SetRole("member", "")
	_, err = svc.FetchUserRole(context.Background())
	require.ErrorIs(t, err, auth.ErrNoRole)

	api.FailRole(true)
	_, err = svc.FetchUserRole(context.Background())
	var status *httpx.StatusError
	require.True(t, errors.As(err, &status))
	require.Equal(t, http.StatusInternalServerError, status.StatusCode)
}

func TestFetchUserRoleWithoutToken(t *testing.T) {
	svc, _ := newService(t, "")
	_, err := svc.FetchUserRole(context.Background())
	require.ErrorIs(t, err, httpx.ErrUnauthorized)
}

func TestFetchCurrentUserName(t *testing.T) {
	svc, _ := newService(t, apitest.Token("admin"))
	name, err := svc.FetchCurrentUserName(context.Background())
	require.NoError(t, err)
	require.Equal(t, "admin", name)
}

func TestRegistrationFlow(t *testing.T) {
	svc, _ := newService(t, "")
	ctx := context.Background()

	check, err := svc.CheckEmailRegistered(ctx, "new@example.com")
	require.NoError(t, err)
	require.False(t, check.Registered)

	code, err := svc.SendVerificationCode(ctx, "new@example.com")
	require.NoError(t, err)
	require.Equal(t, "123456", code.Code)

	_, err = svc.Register(ctx, auth.Registration{Email: "new@example.com", Password: "pw"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, auth.Registration{Email: "new@example.com", Password: "pw"})
	require.ErrorIs(t, err, httpx.ErrDuplicate)

	_, err = svc.RecoverAccount(ctx, auth.Recovery{Email: "new@example.com", NewPassword: "pw2"})
	require.NoError(t, err)
	res, err := svc.Login(ctx, "new@example.com", "pw2")
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)

	_, err = svc.RecoverAccount(ctx, auth.Recovery{Email: "ghost@example.com", NewPassword: "pw"})
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestRegisterRejectsBadEmail(t *testing.T) {
	svc, _ := newService(t, "")
	_, err := svc.Register(context.Background(), auth.Registration{Email: "not-an-email", Password: "pw"})
	require.ErrorIs(t, err, httpx.ErrValidation)
}
