package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/manage-pm/manage-admin/jobs"
)

const shutdownTimeout = 10 * time.Second

func (r *runner) consoleCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "console",
		Short: "Serve the operator console over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			c, err := r.app()
			if err != nil {
				return err
			}
			boot, err := c.Bootstrap.Init(ctx)
			if err != nil {
				return err
			}
			if !boot.Ready() {
				c.Logger.Warn("no usable session; console requests will redirect to login")
			}

			q, done, err := r.queue(c)
			if err != nil {
				return err
			}
			defer done()

			srv := c.NewConsoleServer(jobs.NewHandler(q.Inspector(), c.Logger))
			if addr != "" {
				srv.Addr = addr
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				c.Logger.Info("console listening", slog.String("addr", srv.Addr), slog.String("role", string(boot.Role)))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to CONSOLE_ADDR)")
	return cmd
}
