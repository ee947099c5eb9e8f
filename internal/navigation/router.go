package navigation

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
)

// ErrNoRoute is returned when a path matches nothing, which only happens for
// tables without a catch-all.
var ErrNoRoute = errors.New("navigation: no route matches path")

// Match is a resolved route together with its path parameters.
type Match struct {
	Route  Route
	Path   string
	Params map[string]string
}

// Param returns a path parameter or "".
func (m Match) Param(key string) string {
	return m.Params[key]
}

// Router resolves paths against the route table using chi's radix tree, so a
// static segment wins over a parameter and a parameter over a catch-all.
type Router struct {
	mux    *chi.Mux
	routes map[string]Route
	table  []Route
}

// NewRouter indexes table. Duplicate paths are rejected.
func NewRouter(table []Route) (*Router, error) {
	r := &Router{
		mux:    chi.NewRouter(),
		routes: make(map[string]Route, len(table)),
		table:  table,
	}
	noop := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	for _, route := range table {
		if _, dup := r.routes[route.Path]; dup {
			return nil, fmt.Errorf("navigation: duplicate route %q", route.Path)
		}
		r.routes[route.Path] = route
		r.mux.Get(route.Path, noop)
	}
	return r, nil
}

// DefaultRouter resolves the built-in table.
func DefaultRouter() *Router {
	r, err := NewRouter(Routes())
	if err != nil {
		panic(err)
	}
	return r
}

// Routes returns the table in declaration order.
func (r *Router) Routes() []Route {
	out := make([]Route, len(r.table))
	copy(out, r.table)
	return out
}

// Lookup returns the route registered under name.
func (r *Router) Lookup(name string) (Route, bool) {
	for _, route := range r.table {
		if route.Name != "" && route.Name == name {
			return route, true
		}
	}
	return Route{}, false
}

// Resolve finds the route for location. Query and fragment are ignored and a
// trailing slash is dropped.
func (r *Router) Resolve(location string) (Match, error) {
	p := cleanPath(location)
	rctx := chi.NewRouteContext()
	if !r.mux.Match(rctx, http.MethodGet, p) {
		return Match{}, fmt.Errorf("%w: %s", ErrNoRoute, p)
	}
	route, ok := r.routes[rctx.RoutePattern()]
	if !ok {
		return Match{}, fmt.Errorf("%w: %s", ErrNoRoute, p)
	}
	params := make(map[string]string, len(rctx.URLParams.Keys))
	for i, key := range rctx.URLParams.Keys {
		if key == "*" {
			continue
		}
		params[key] = rctx.URLParams.Values[i]
	}
	return Match{Route: route, Path: p, Params: params}, nil
}

func cleanPath(location string) string {
	if i := strings.IndexAny(location, "?#"); i >= 0 {
		location = location[:i]
	}
	if unescaped, err := url.PathUnescape(location); err == nil {
		location = unescaped
	}
	if !strings.HasPrefix(location, "/") {
		location = "/" + location
	}
	return path.Clean(location)
}
