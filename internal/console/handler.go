// Package console serves the route table over HTTP for a single local
// operator. Every GET navigates: a guard redirect becomes a 303 and an
// allowed route renders its view as JSON.
package console

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/manage-pm/manage-admin/internal/bootstrap"
	"github.com/manage-pm/manage-admin/internal/navigation"
	"github.com/manage-pm/manage-admin/internal/platform/httpx"
	"github.com/manage-pm/manage-admin/internal/session"
)

// Navigator is the part of navigation.Navigator the console needs.
type Navigator interface {
	Navigate(ctx context.Context, location string) (navigation.Result, error)
}

// Auth signs the operator in and out.
type Auth interface {
	SignIn(ctx context.Context, account, password string) (bootstrap.Result, error)
	SignOut(ctx context.Context) error
}

// Page is the JSON document rendered for an allowed route.
type Page struct {
	Route  string            `json:"route"`
	View   string            `json:"view"`
	Title  string            `json:"title"`
	Path   string            `json:"path"`
	Params map[string]string `json:"params,omitempty"`
	Role   string            `json:"role,omitempty"`
	Data   any               `json:"data,omitempty"`
}

// Handler serves the console.
type Handler struct {
	nav     Navigator
	auth    Auth
	session *session.Session
	views   *Views
	logger  *slog.Logger
}

// NewHandler constructs the console handler.
func NewHandler(nav Navigator, auth Auth, sess *session.Session, views *Views, logger *slog.Logger) *Handler {
	return &Handler{nav: nav, auth: auth, session: sess, views: views, logger: logger}
}

// MountRoutes attaches the console routes. The catch-all must be mounted
// last on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.login)
	r.Post("/logout", h.logout)
	r.Get("/session", h.currentSession)
	r.Get("/*", h.navigate)
}

type loginRequest struct {
	Account  string `json:"account"`
	Password string `json:"password"`
	Next     string `json:"next"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid request", "body must be JSON")
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid request", err.Error())
			return
		}
		req = loginRequest{Account: r.PostFormValue("account"), Password: r.PostFormValue("password"), Next: r.PostFormValue("next")}
	}

	res, err := h.auth.SignIn(r.Context(), req.Account, req.Password)
	if err != nil {
		h.logger.Warn("console sign-in failed", slog.String("account", req.Account), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if !res.Ready() {
		http.Redirect(w, r, res.Redirect, http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, safeNext(req.Next), http.StatusSeeOther)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.SignOut(r.Context()); err != nil {
		h.logger.Error("console sign-out", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	http.Redirect(w, r, navigation.PathLogin, http.StatusSeeOther)
}

func (h *Handler) currentSession(w http.ResponseWriter, r *http.Request) {
	st := h.session.Snapshot()
	httpx.JSON(w, http.StatusOK, map[string]any{
		"authenticated": st.HasToken(),
		"role":          string(st.Role),
	})
}

func (h *Handler) navigate(w http.ResponseWriter, r *http.Request) {
	res, err := h.nav.Navigate(r.Context(), r.URL.Path)
	if err != nil {
		h.logger.Error("navigate", slog.String("path", r.URL.Path), slog.Any("error", err))
		httpx.Problem(w, http.StatusLoopDetected, "Navigation failed", err.Error())
		return
	}
	if len(res.Hops) > 0 {
		http.Redirect(w, r, res.Path, http.StatusSeeOther)
		return
	}

	role := h.session.Role()
	data, err := h.views.Load(r.Context(), res.Match, role)
	if err != nil {
		if !errors.Is(err, httpx.ErrValidation) {
			h.logger.Warn("load view", slog.String("view", res.Route.View), slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, Page{
		Route:  res.Route.Name,
		View:   res.Route.View,
		Title:  res.Route.Title,
		Path:   res.Path,
		Params: res.Params,
		Role:   string(role),
		Data:   data,
	})
}

// safeNext keeps post-login redirects on the console itself.
func safeNext(next string) string {
	if next == "" {
		return navigation.PathLayout
	}
	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(next, "//") {
		return navigation.PathLayout
	}
	return u.Path
}
