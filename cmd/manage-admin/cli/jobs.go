package cli

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/manage-pm/manage-admin/internal/app"
	"github.com/manage-pm/manage-admin/jobs"
)

// JobQueue is the part of the export queue the CLI drives.
type JobQueue interface {
	EnqueueExportUsers(ctx context.Context, payload jobs.ExportPayload) (*asynq.TaskInfo, error)
	EnqueueExportProjects(ctx context.Context, payload jobs.ExportPayload) (*asynq.TaskInfo, error)
	// Inspector may be nil when the queue cannot be inspected.
	Inspector() jobs.QueueInspector
	Close() error
}

type redisJobQueue struct {
	*jobs.Client
	inspector *asynq.Inspector
}

func redisQueue(cfg *app.Config) (JobQueue, error) {
	opts := cfg.Redis().Asynq()
	return &redisJobQueue{Client: jobs.NewClient(opts), inspector: asynq.NewInspector(opts)}, nil
}

func (q *redisJobQueue) Inspector() jobs.QueueInspector { return q.inspector }

func (q *redisJobQueue) Close() error {
	err := q.Client.Close()
	if ierr := q.inspector.Close(); err == nil {
		err = ierr
	}
	return err
}

func (r *runner) queue(c *app.Container) (JobQueue, func(), error) {
	q, err := r.opts.Queue(c.Config)
	if err != nil {
		return nil, nil, fmt.Errorf("open job queue: %w", err)
	}
	return q, func() {
		if err := q.Close(); err != nil {
			c.Logger.Warn("close job queue", "error", err)
		}
	}, nil
}

func (r *runner) jobsCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "jobs", Short: "Queue background exports"}
	cmd.AddCommand(
		r.enqueueCommand("export-users", "Queue a user export", "/index/users",
			func(ctx context.Context, q JobQueue, p jobs.ExportPayload) (*asynq.TaskInfo, error) {
				return q.EnqueueExportUsers(ctx, p)
			}),
		r.enqueueCommand("export-projects", "Queue a project export", "/index/projects",
			func(ctx context.Context, q JobQueue, p jobs.ExportPayload) (*asynq.TaskInfo, error) {
				return q.EnqueueExportProjects(ctx, p)
			}),
		&cobra.Command{
			Use:   "stats",
			Short: "Show export queue statistics",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				c, err := r.app()
				if err != nil {
					return err
				}
				q, done, err := r.queue(c)
				if err != nil {
					return err
				}
				defer done()
				stats, err := jobs.Stats(q.Inspector())
				if err != nil {
					return err
				}
				return printJSON(r.opts.Stdout, stats)
			},
		},
	)
	return cmd
}

type enqueueFunc func(ctx context.Context, q JobQueue, p jobs.ExportPayload) (*asynq.TaskInfo, error)

func (r *runner) enqueueCommand(use, short, route string, enqueue enqueueFunc) *cobra.Command {
	var ids []string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: r.guarded(at(route), func(ctx context.Context, c *app.Container, _ []string) error {
			selected, err := parseIDs(ids)
			if err != nil {
				return err
			}
			q, done, err := r.queue(c)
			if err != nil {
				return err
			}
			defer done()
			info, err := enqueue(ctx, q, jobs.ExportPayload{IDs: selected, RequestedBy: string(c.Session.Role())})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(r.opts.Stdout, "queued %s on %s\n", info.ID, info.Queue)
			return nil
		}),
	}
	cmd.Flags().StringSliceVar(&ids, "ids", nil, "record ids, comma separated")
	return cmd
}
