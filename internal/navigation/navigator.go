package navigation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/manage-pm/manage-admin/internal/session"
)

// MaxHops bounds how many redirects one navigation may follow.
const MaxHops = 8

// ErrTooManyRedirects is returned when a navigation does not settle.
var ErrTooManyRedirects = errors.New("navigation: too many redirects")

// Observer records guard outcomes.
type Observer interface {
	ObserveNavigation(route, decision string)
}

// Result is where a navigation ended up.
type Result struct {
	Match
	// Requested is the path the navigation started from.
	Requested string
	// Decision is the first guard redirect taken, or Proceed.
	Decision Decision
	// Hops lists every path visited after the requested one.
	Hops []string
}

// Allowed reports whether the requested location was reached without a
// guard redirect.
func (r Result) Allowed() bool {
	return r.Decision == Proceed
}

// Navigator runs the guard against the live session and follows redirects.
type Navigator struct {
	router   *Router
	session  *session.Session
	store    session.TokenStore
	observer Observer
	logger   *slog.Logger
}

// NewNavigator wires a navigator. store may be nil when nothing is persisted.
func NewNavigator(router *Router, sess *session.Session, store session.TokenStore, observer Observer, logger *slog.Logger) *Navigator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Navigator{router: router, session: sess, store: store, observer: observer, logger: logger}
}

// Router exposes the route table.
func (n *Navigator) Router() *Router {
	return n.router
}

// Navigate resolves location, follows static redirects and applies the guard
// on every route reached. A guard redirect starts a new navigation.
func (n *Navigator) Navigate(ctx context.Context, location string) (Result, error) {
	result := Result{Requested: location, Decision: Proceed}
	current := location
	for hop := 0; hop <= MaxHops; hop++ {
		if hop > 0 {
			result.Hops = append(result.Hops, current)
		}
		match, err := n.router.Resolve(current)
		if err != nil {
			return result, err
		}
		if match.Route.Redirect != "" {
			current = match.Route.Redirect
			continue
		}

		decision := n.guard(ctx, match.Route)
		if n.observer != nil {
			n.observer.ObserveNavigation(routeLabel(match.Route), decision.String())
		}
		if decision == Proceed {
			result.Match = match
			return result, nil
		}
		if result.Decision == Proceed {
			result.Decision = decision
		}
		n.logger.Info("navigation redirected",
			slog.String("path", match.Path),
			slog.String("route", match.Route.Name),
			slog.String("decision", decision.String()))
		current = decision.Target()
	}
	return result, fmt.Errorf("%w: %s", ErrTooManyRedirects, location)
}

// guard evaluates and, for RedirectUnauthorized, clears the session in the
// same critical section.
func (n *Navigator) guard(ctx context.Context, route Route) Decision {
	var decision Decision
	n.session.Update(func(st *session.State) {
		decision = Guard(route, *st)
		if decision == RedirectUnauthorized {
			*st = session.State{}
		}
	})
	if decision == RedirectUnauthorized && n.store != nil {
		if err := n.store.RemoveToken(ctx); err != nil {
			n.logger.Warn("remove persisted token", slog.Any("error", err))
		}
	}
	return decision
}

func routeLabel(r Route) string {
	if r.Name != "" {
		return r.Name
	}
	return r.Path
}
