// Package bootstrap seeds the session from persisted state when a front end
// starts, and handles sign-in and sign-out.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/manage-pm/manage-admin/internal/auth"
	"github.com/manage-pm/manage-admin/internal/navigation"
	"github.com/manage-pm/manage-admin/internal/roles"
	"github.com/manage-pm/manage-admin/internal/session"
)

// ErrNoToken is returned when a sign-in succeeds without issuing a token.
var ErrNoToken = errors.New("bootstrap: login returned no token")

// Identity is the part of auth.Service the bootstrapper needs.
type Identity interface {
	Login(ctx context.Context, account, password string) (auth.LoginResult, error)
	FetchUserRole(ctx context.Context) (string, error)
	FetchCurrentUserName(ctx context.Context) (string, error)
}

// Result describes the session after start-up.
type Result struct {
	// Redirect is set when the caller must be sent elsewhere, always the
	// login page.
	Redirect string
	Role     roles.Role
	UserName string
}

// Ready reports whether the session holds a token and a role.
func (r Result) Ready() bool {
	return r.Redirect == ""
}

// Bootstrapper prepares the session.
type Bootstrapper struct {
	identity Identity
	session  *session.Session
	store    session.TokenStore
	logger   *slog.Logger
}

// New constructs a Bootstrapper.
func New(identity Identity, sess *session.Session, store session.TokenStore, logger *slog.Logger) *Bootstrapper {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Bootstrapper{identity: identity, session: sess, store: store, logger: logger}
}

// Init loads the persisted token into the session and resolves its role.
// A missing token, a failed role lookup or an empty role all end in a
// redirect to the login page without an error. A missing token empties the
// session; otherwise the token replaces the previous one and the role stays
// unset until the lookup succeeds. Only a token store failure is returned.
func (b *Bootstrapper) Init(ctx context.Context) (Result, error) {
	login := Result{Redirect: navigation.PathLogin}

	token, err := b.store.Token(ctx)
	if err != nil {
		return login, fmt.Errorf("bootstrap: read token: %w", err)
	}
	if token == "" {
		b.session.Clear()
		return login, nil
	}
	b.session.Update(func(st *session.State) {
		*st = session.State{Token: token}
	})

	var raw, name string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := b.identity.FetchUserRole(gctx)
		raw = r
		return err
	})
	g.Go(func() error {
		n, err := b.identity.FetchCurrentUserName(gctx)
		if err != nil {
			b.logger.Debug("display name unavailable", slog.Any("error", err))
			return nil
		}
		name = n
		return nil
	})
	if err := g.Wait(); err != nil {
		b.logger.Warn("fetch user role", slog.Any("error", err))
		return login, nil
	}

	role := roles.Normalize(raw)
	if role == "" {
		return login, nil
	}
	if !role.Valid() {
		b.logger.Warn("unrecognised role", slog.String("role", raw))
	}
	b.session.SetRole(role)
	return Result{Role: role, UserName: name}, nil
}

// SignIn exchanges credentials for a token, persists it and runs Init.
func (b *Bootstrapper) SignIn(ctx context.Context, account, password string) (Result, error) {
	res, err := b.identity.Login(ctx, account, password)
	if err != nil {
		return Result{Redirect: navigation.PathLogin}, err
	}
	if res.Token == "" {
		return Result{Redirect: navigation.PathLogin}, ErrNoToken
	}
	if err := b.store.SetToken(ctx, res.Token); err != nil {
		return Result{Redirect: navigation.PathLogin}, fmt.Errorf("bootstrap: persist token: %w", err)
	}
	b.logger.Info("signed in", slog.String("account", account))
	return b.Init(ctx)
}

// SignOut forgets the session and the persisted token.
func (b *Bootstrapper) SignOut(ctx context.Context) error {
	b.session.Clear()
	if err := b.store.RemoveToken(ctx); err != nil {
		return fmt.Errorf("bootstrap: remove token: %w", err)
	}
	return nil
}
