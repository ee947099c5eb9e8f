package cli

import (
	"context"
	"fmt"
	"path"

	"github.com/spf13/cobra"

	"github.com/manage-pm/manage-admin/internal/app"
	"github.com/manage-pm/manage-admin/internal/roles"
	"github.com/manage-pm/manage-admin/internal/tasks"
)

type taskFlags struct {
	in       tasks.Input
	assignee int64
	project  int64
}

func (f *taskFlags) bind(c *cobra.Command) {
	c.Flags().StringVar(&f.in.Title, "title", "", "task title")
	c.Flags().StringVar(&f.in.Description, "description", "", "description")
	c.Flags().StringVar(&f.in.DueDate, "due", "", "due date (2006-01-02 15:04:05)")
	c.Flags().Int64Var(&f.assignee, "assignee", 0, "assignee user id")
	c.Flags().Int64Var(&f.project, "project", 0, "project id")
	c.Flags().StringVar((*string)(&f.in.Status), "status", "", "进行中 or 已完成")
}

// input leaves assignee and project unset unless their flags were given.
func (f *taskFlags) input() tasks.Input {
	in := f.in
	if f.assignee != 0 {
		in.AssigneeID = &f.assignee
	}
	if f.project != 0 {
		in.ProjectID = &f.project
	}
	return in
}

func (r *runner) tasksCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "tasks", Short: "Manage tasks"}

	var form taskFlags
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a task",
		Args:  cobra.NoArgs,
		RunE: r.guarded(at("/index/tasks/add"), func(ctx context.Context, c *app.Container, _ []string) error {
			ack, err := c.Tasks.Create(ctx, form.input())
			if err != nil {
				return err
			}
			printAck(r.opts.Stdout, ack)
			return nil
		}),
	}
	form.bind(create)

	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace the fields of a task",
		Args:  cobra.ExactArgs(1),
		RunE: r.guarded(atID("/index/tasks/edit/%s"), func(ctx context.Context, c *app.Container, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ack, err := c.Tasks.Update(ctx, id, form.input())
			if err != nil {
				return err
			}
			printAck(r.opts.Stdout, ack)
			return nil
		}),
	}
	form.bind(update)

	var out string
	download := &cobra.Command{
		Use:   "download <id>",
		Short: "Download the attachment of a task",
		Args:  cobra.ExactArgs(1),
		RunE: r.guarded(atID("/index/tasks/detail/%s"), func(ctx context.Context, c *app.Container, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			task, err := c.Tasks.Get(ctx, id)
			if err != nil {
				return err
			}
			if task.AttachmentURL == "" {
				return fmt.Errorf("tasks: %d has no attachment", id)
			}
			blob, err := c.Tasks.Download(ctx, task.AttachmentURL)
			if err != nil {
				return err
			}
			return saveBlob(r.opts.Stdout, blob, out, path.Base(task.AttachmentURL))
		}),
	}
	download.Flags().StringVarP(&out, "out", "o", "", "output file")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List tasks visible to the signed in user",
			Args:  cobra.NoArgs,
			RunE: r.guarded(at("/index/tasks"), func(ctx context.Context, c *app.Container, _ []string) error {
				load := c.Tasks.List
				if c.Session.Role() == roles.Member {
					load = c.Tasks.Member
				}
				list, err := load(ctx)
				if err != nil {
					return err
				}
				return printJSON(r.opts.Stdout, list)
			}),
		},
		&cobra.Command{
			Use:   "mine",
			Short: "List tasks assigned to the signed in user",
			Args:  cobra.NoArgs,
			RunE: r.guarded(at("/index/tasks"), func(ctx context.Context, c *app.Container, _ []string) error {
				list, err := c.Tasks.Member(ctx)
				if err != nil {
					return err
				}
				return printJSON(r.opts.Stdout, list)
			}),
		},
		&cobra.Command{
			Use:   "get <id>",
			Short: "Show one task",
			Args:  cobra.ExactArgs(1),
			RunE: r.guarded(atID("/index/tasks/detail/%s"), func(ctx context.Context, c *app.Container, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				t, err := c.Tasks.Get(ctx, id)
				if err != nil {
					return err
				}
				return printJSON(r.opts.Stdout, t)
			}),
		},
		create,
		update,
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a task",
			Args:  cobra.ExactArgs(1),
			RunE: r.guarded(at("/index/tasks"), func(ctx context.Context, c *app.Container, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				ack, err := c.Tasks.Delete(ctx, id)
				if err != nil {
					return err
				}
				printAck(r.opts.Stdout, ack)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "status <id> <status>",
			Short: "Change the status of a task",
			Args:  cobra.ExactArgs(2),
			RunE: r.guarded(at("/index/tasks"), func(ctx context.Context, c *app.Container, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				ack, err := c.Tasks.UpdateStatus(ctx, id, tasks.Status(args[1]))
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(r.opts.Stdout, "ok: %s (task %d is %s)\n", ack.Message, ack.TaskID, ack.Status)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "comments <id>",
			Short: "List the comments on a task",
			Args:  cobra.ExactArgs(1),
			RunE: r.guarded(atID("/index/tasks/detail/%s"), func(ctx context.Context, c *app.Container, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				list, err := c.Tasks.Comments(ctx, id)
				if err != nil {
					return err
				}
				return printJSON(r.opts.Stdout, list.Comments)
			}),
		},
		&cobra.Command{
			Use:   "comment <id> <text>",
			Short: "Comment on a task",
			Args:  cobra.ExactArgs(2),
			RunE: r.guarded(atID("/index/tasks/detail/%s"), func(ctx context.Context, c *app.Container, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				ack, err := c.Tasks.SubmitComment(ctx, id, args[1])
				if err != nil {
					return err
				}
				return printJSON(r.opts.Stdout, ack.Comment)
			}),
		},
		download,
	)
	return cmd
}
