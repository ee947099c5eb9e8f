package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/manage-pm/manage-admin/internal/app"
	"github.com/manage-pm/manage-admin/internal/projects"
)

func bindProjectFlags(c *cobra.Command, in *projects.Input) {
	c.Flags().StringVar(&in.Name, "name", "", "project name")
	c.Flags().StringVar(&in.Description, "description", "", "description")
	c.Flags().StringVar(&in.StartDate, "start", "", "start date (2006-01-02 15:04:05)")
	c.Flags().StringVar(&in.EndDate, "end", "", "end date (2006-01-02 15:04:05)")
	c.Flags().StringVar((*string)(&in.Status), "status", "", "进行中, 已完成 or 已归档")
	c.Flags().StringVar((*string)(&in.Priority), "priority", "", "低, 正常 or 高")
}

func (r *runner) projectsCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "projects", Short: "Manage projects"}

	var in projects.Input
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a project managed by the signed in user",
		Args:  cobra.NoArgs,
		RunE: r.guarded(at("/index/projects/add"), func(ctx context.Context, c *app.Container, _ []string) error {
			ack, err := c.Projects.Create(ctx, in)
			if err != nil {
				return err
			}
			printAck(r.opts.Stdout, ack)
			return nil
		}),
	}
	bindProjectFlags(create, &in)

	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace the fields of a project",
		Args:  cobra.ExactArgs(1),
		RunE: r.guarded(atID("/index/projects/edit/%s"), func(ctx context.Context, c *app.Container, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ack, err := c.Projects.Update(ctx, id, in)
			if err != nil {
				return err
			}
			printAck(r.opts.Stdout, ack)
			return nil
		}),
	}
	bindProjectFlags(update, &in)

	var ids []string
	var out string
	export := &cobra.Command{
		Use:   "export",
		Short: "Download the selected projects as a spreadsheet",
		Args:  cobra.NoArgs,
		RunE: r.guarded(at("/index/projects"), func(ctx context.Context, c *app.Container, _ []string) error {
			selected, err := parseIDs(ids)
			if err != nil {
				return err
			}
			blob, err := c.Projects.Export(ctx, selected)
			if err != nil {
				return err
			}
			return saveBlob(r.opts.Stdout, blob, out, "projects.xlsx")
		}),
	}
	export.Flags().StringSliceVar(&ids, "ids", nil, "project ids, comma separated")
	export.Flags().StringVarP(&out, "out", "o", "", "output file")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List projects",
			Args:  cobra.NoArgs,
			RunE: r.guarded(at("/index/projects"), func(ctx context.Context, c *app.Container, _ []string) error {
				list, err := c.Projects.List(ctx)
				if err != nil {
					return err
				}
				return printJSON(r.opts.Stdout, list)
			}),
		},
		&cobra.Command{
			Use:   "get <id>",
			Short: "Show one project",
			Args:  cobra.ExactArgs(1),
			RunE: r.guarded(atID("/index/projects/edit/%s"), func(ctx context.Context, c *app.Container, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				p, err := c.Projects.Get(ctx, id)
				if err != nil {
					return err
				}
				return printJSON(r.opts.Stdout, p)
			}),
		},
		create,
		update,
		&cobra.Command{
			Use:   "archive <id>",
			Short: "Move a project to the archive",
			Args:  cobra.ExactArgs(1),
			RunE: r.guarded(at("/index/projects"), func(ctx context.Context, c *app.Container, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				p, err := c.Projects.Get(ctx, id)
				if err != nil {
					return err
				}
				if p.Status == projects.StatusArchived {
					return fmt.Errorf("projects: %d is already archived", id)
				}
				ack, err := c.Projects.Update(ctx, id, projects.Input{
					Name:        p.Name,
					Description: p.Description,
					StartDate:   p.StartDate,
					EndDate:     p.EndDate,
					Status:      projects.StatusArchived,
					Priority:    p.Priority,
				})
				if err != nil {
					return err
				}
				printAck(r.opts.Stdout, ack)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "archived",
			Short: "List archived projects",
			Args:  cobra.NoArgs,
			RunE: r.guarded(at("/index/archived-projects"), func(ctx context.Context, c *app.Container, _ []string) error {
				list, err := c.Projects.Archived(ctx)
				if err != nil {
					return err
				}
				return printJSON(r.opts.Stdout, list)
			}),
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a project with its progress and tasks",
			Args:  cobra.ExactArgs(1),
			RunE: r.guarded(at("/index/projects"), func(ctx context.Context, c *app.Container, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				ack, err := c.Projects.Delete(ctx, id)
				if err != nil {
					return err
				}
				printAck(r.opts.Stdout, ack)
				return nil
			}),
		},
		export,
	)
	return cmd
}

func (r *runner) processesCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "processes", Short: "Track project progress"}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List progress records",
			Args:  cobra.NoArgs,
			RunE: r.guarded(at("/index/processes"), func(ctx context.Context, c *app.Container, _ []string) error {
				list, err := c.Projects.Processes(ctx)
				if err != nil {
					return err
				}
				return printJSON(r.opts.Stdout, list)
			}),
		},
		&cobra.Command{
			Use:   "get <id>",
			Short: "Show one progress record",
			Args:  cobra.ExactArgs(1),
			RunE: r.guarded(at("/index/processes"), func(ctx context.Context, c *app.Container, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				p, err := c.Projects.Process(ctx, id)
				if err != nil {
					return err
				}
				return printJSON(r.opts.Stdout, p)
			}),
		},
		&cobra.Command{
			Use:   "set <id> <rate>",
			Short: "Set the completion rate (0 to 100)",
			Args:  cobra.ExactArgs(2),
			RunE: r.guarded(at("/index/processes"), func(ctx context.Context, c *app.Container, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				rate, err := strconv.ParseFloat(args[1], 64)
				if err != nil {
					return fmt.Errorf("invalid rate %q", args[1])
				}
				ack, err := c.Projects.UpdateProcess(ctx, id, rate)
				if err != nil {
					return err
				}
				printAck(r.opts.Stdout, ack)
				return nil
			}),
		},
	)
	return cmd
}
