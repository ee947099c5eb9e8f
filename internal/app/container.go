package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/manage-pm/manage-admin/internal/auth"
	"github.com/manage-pm/manage-admin/internal/bootstrap"
	"github.com/manage-pm/manage-admin/internal/navigation"
	"github.com/manage-pm/manage-admin/internal/observability"
	"github.com/manage-pm/manage-admin/internal/platform/httpx"
	"github.com/manage-pm/manage-admin/internal/platform/redisx"
	"github.com/manage-pm/manage-admin/internal/projects"
	"github.com/manage-pm/manage-admin/internal/session"
	"github.com/manage-pm/manage-admin/internal/tasks"
	"github.com/manage-pm/manage-admin/internal/users"
)

// Container wires the services shared by every front end.
type Container struct {
	Config  *Config
	Logger  *slog.Logger
	Metrics *observability.Metrics

	Store     session.TokenStore
	Session   *session.Session
	Client    *httpx.Client
	Auth      *auth.Service
	Users     *users.Service
	Projects  *projects.Service
	Tasks     *tasks.Service
	Navigator *navigation.Navigator
	Bootstrap *bootstrap.Bootstrapper

	closers []func() error
}

// ContainerOption customises the container before services are built.
type ContainerOption func(*containerOptions)

type containerOptions struct {
	store   session.TokenStore
	options []httpx.Option
}

// WithTokenStore bypasses the configured token backend.
func WithTokenStore(store session.TokenStore) ContainerOption {
	return func(o *containerOptions) {
		o.store = store
	}
}

// WithClientOptions forwards options to the API client.
func WithClientOptions(opts ...httpx.Option) ContainerOption {
	return func(o *containerOptions) {
		o.options = append(o.options, opts...)
	}
}

// NewContainer builds the client stack described by cfg.
func NewContainer(cfg *Config, logger *slog.Logger, opts ...ContainerOption) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", ErrInvalidConfig)
	}
	if logger == nil {
		logger = NewLogger(cfg)
	}
	var o containerOptions
	for _, opt := range opts {
		opt(&o)
	}

	c := &Container{Config: cfg, Logger: logger, Metrics: observability.NewMetrics(), Session: session.New()}
	c.Store = o.store
	if c.Store == nil {
		store, closer, err := newTokenStore(cfg)
		if err != nil {
			return nil, err
		}
		c.Store = store
		if closer != nil {
			c.closers = append(c.closers, closer)
		}
	}

	clientOpts := append([]httpx.Option{
		httpx.WithTimeout(cfg.APITimeout),
		httpx.WithObserver(c.Metrics),
		httpx.WithLogger(logger),
	}, o.options...)
	c.Client = httpx.NewClient(cfg.APIURL, c.Store, clientOpts...)

	c.Auth = auth.NewService(c.Client)
	c.Users = users.NewService(c.Client)
	c.Projects = projects.NewService(c.Client)
	c.Tasks = tasks.NewService(c.Client)
	c.Navigator = navigation.NewNavigator(navigation.DefaultRouter(), c.Session, c.Store, c.Metrics, logger)
	c.Bootstrap = bootstrap.New(c.Auth, c.Session, c.Store, logger)
	return c, nil
}

// Close releases backend connections.
func (c *Container) Close() error {
	var errs []error
	for _, closer := range c.closers {
		errs = append(errs, closer())
	}
	c.closers = nil
	return errors.Join(errs...)
}

func newTokenStore(cfg *Config) (session.TokenStore, func() error, error) {
	switch cfg.TokenStore {
	case TokenStoreRedis:
		client, err := redisx.Connect(context.Background(), cfg.Redis())
		if err != nil {
			return nil, nil, err
		}
		return session.NewRedisStore(client, "", cfg.TokenTTL), client.Close, nil
	case TokenStoreFile, "":
		path := cfg.TokenFile
		if path == "" {
			p, err := session.DefaultFilePath()
			if err != nil {
				return nil, nil, fmt.Errorf("app: resolve token file: %w", err)
			}
			path = p
		}
		return session.NewFileStore(path), nil, nil
	}
	return nil, nil, fmt.Errorf("%w: TOKEN_STORE %q", ErrInvalidConfig, cfg.TokenStore)
}
