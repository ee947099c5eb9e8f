package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/manage-pm/manage-admin/internal/console"
	"github.com/manage-pm/manage-admin/internal/observability"
	"github.com/manage-pm/manage-admin/jobs"
)

// RouterParams groups dependencies for building the console router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics
	Console *console.Handler
	Jobs    *jobs.Handler
}

// NewRouter constructs the console chi.Router.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.Jobs != nil {
		r.Route("/jobs", params.Jobs.MountRoutes)
	}
	if params.Console != nil {
		params.Console.MountRoutes(r)
	}
	return r
}

// NewConsoleHandler builds the console handler from the container.
func (c *Container) NewConsoleHandler() *console.Handler {
	views := console.NewViews(c.Users, c.Projects, c.Tasks)
	return console.NewHandler(c.Navigator, c.Bootstrap, c.Session, views, c.Logger)
}

// NewConsoleServer returns the http.Server for the console.
func (c *Container) NewConsoleServer(jobsHandler *jobs.Handler) *http.Server {
	return &http.Server{
		Addr: c.Config.ConsoleAddr,
		Handler: NewRouter(RouterParams{
			Logger:  c.Logger,
			Config:  c.Config,
			Metrics: c.Metrics,
			Console: c.NewConsoleHandler(),
			Jobs:    jobsHandler,
		}),
		ReadTimeout:  c.Config.ConsoleReadTimeout,
		WriteTimeout: c.Config.ConsoleWriteTimeout,
	}
}
