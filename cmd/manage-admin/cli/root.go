// Package cli implements the manage-admin command tree. Every command that
// touches the API first bootstraps the session and navigates to the route the
// web client would show for it; a guard redirect ends the command with
// ExitRedirect before any API call is made.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/manage-pm/manage-admin/internal/app"
	"github.com/manage-pm/manage-admin/internal/navigation"
)

// Exit codes.
const (
	ExitOK       = 0
	ExitError    = 1
	ExitRedirect = 2
)

var errRedirected = errors.New("cli: navigation redirected")

// Options configures Execute. Zero values fall back to the process
// environment and standard streams.
type Options struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Config *app.Config
	Logger *slog.Logger

	ContainerOptions []app.ContainerOption
	// Queue opens the export queue; defaults to Redis at Config.RedisAddr.
	Queue func(cfg *app.Config) (JobQueue, error)
}

type runner struct {
	opts      Options
	container *app.Container
}

// Execute runs the command line in args and returns the exit code.
func Execute(ctx context.Context, args []string, opts Options) int {
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Queue == nil {
		opts.Queue = redisQueue
	}
	r := &runner{opts: opts}
	defer r.close()

	root := r.rootCommand()
	root.SetArgs(args)
	root.SetOut(opts.Stdout)
	root.SetErr(opts.Stderr)
	err := root.ExecuteContext(ctx)
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, errRedirected):
		return ExitRedirect
	default:
		_, _ = fmt.Fprintf(opts.Stderr, "manage-admin: %v\n", err)
		return ExitError
	}
}

func (r *runner) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "manage-admin",
		Short:         "Administration client for the project management service",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.AddCommand(
		r.loginCommand(),
		r.logoutCommand(),
		r.registerCommand(),
		r.sendCodeCommand(),
		r.recoverCommand(),
		r.statusCommand(),
		r.navigateCommand(),
		r.routesCommand(),
		r.usersCommand(),
		r.projectsCommand(),
		r.processesCommand(),
		r.tasksCommand(),
		r.consoleCommand(),
		r.jobsCommand(),
	)
	return root
}

func (r *runner) app() (*app.Container, error) {
	if r.container != nil {
		return r.container, nil
	}
	cfg := r.opts.Config
	if cfg == nil {
		loaded, err := app.LoadConfig()
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	logger := r.opts.Logger
	if logger == nil {
		logger = app.NewLoggerTo(r.opts.Stderr, cfg)
	}
	c, err := app.NewContainer(cfg, logger, r.opts.ContainerOptions...)
	if err != nil {
		return nil, err
	}
	r.container = c
	return c, nil
}

func (r *runner) close() {
	if r.container == nil {
		return
	}
	if err := r.container.Close(); err != nil {
		r.container.Logger.Warn("close container", slog.Any("error", err))
	}
}

// enter bootstraps the session and navigates to location. It fails with
// errRedirected, after reporting where the navigation ended, unless the route
// was reached directly.
func (r *runner) enter(ctx context.Context, location string) (*app.Container, navigation.Result, error) {
	c, err := r.app()
	if err != nil {
		return nil, navigation.Result{}, err
	}
	boot, err := c.Bootstrap.Init(ctx)
	if err != nil {
		return nil, navigation.Result{}, err
	}
	target := location
	if !boot.Ready() {
		target = boot.Redirect
	}
	res, err := c.Navigator.Navigate(ctx, target)
	if err != nil {
		return nil, res, err
	}
	if target == location && res.Allowed() && len(res.Hops) == 0 {
		return c, res, nil
	}

	reason := res.Decision.String()
	switch {
	case target != location:
		reason = "not signed in"
	case res.Allowed():
		reason = "redirect"
	}
	_, _ = fmt.Fprintf(r.opts.Stderr, "%s: redirected to %s (%s)\n", location, res.Path, reason)
	return nil, res, errRedirected
}

// guarded adapts a command body that runs only once location is reached.
func (r *runner) guarded(location func(args []string) string, run func(ctx context.Context, c *app.Container, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, _, err := r.enter(ctx, location(args))
		if err != nil {
			return err
		}
		return run(ctx, c, args)
	}
}

func at(path string) func([]string) string {
	return func([]string) string { return path }
}

func atID(format string) func([]string) string {
	return func(args []string) string {
		if len(args) == 0 {
			return fmt.Sprintf(format, "")
		}
		return fmt.Sprintf(format, args[0])
	}
}
