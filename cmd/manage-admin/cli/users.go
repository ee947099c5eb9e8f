package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/manage-pm/manage-admin/internal/app"
	"github.com/manage-pm/manage-admin/internal/roles"
	"github.com/manage-pm/manage-admin/internal/users"
)

func (r *runner) usersCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "users", Short: "Manage user accounts"}

	var in users.Input
	var role string
	bindUserFlags := func(c *cobra.Command) {
		c.Flags().StringVar(&in.Username, "username", "", "login name")
		c.Flags().StringVar(&in.Name, "name", "", "display name")
		c.Flags().StringVar(&in.Gender, "gender", "", "gender")
		c.Flags().StringVar(&in.Birthday, "birthday", "", "birthday (2006-01-02)")
		c.Flags().StringVar(&role, "role", "", "role: admin, manager, member or user")
	}
	input := func() (users.Input, error) {
		if role != "" {
			parsed, err := roles.Parse(role)
			if err != nil {
				return users.Input{}, err
			}
			in.Role = parsed
		}
		return in, nil
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		Args:  cobra.NoArgs,
		RunE: r.guarded(at("/index/users/add"), func(ctx context.Context, c *app.Container, _ []string) error {
			body, err := input()
			if err != nil {
				return err
			}
			ack, err := c.Users.Create(ctx, body)
			if err != nil {
				return err
			}
			printAck(r.opts.Stdout, ack)
			return nil
		}),
	}
	bindUserFlags(create)

	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Update the profile of a user",
		Args:  cobra.ExactArgs(1),
		RunE: r.guarded(atID("/index/users/edit/%s"), func(ctx context.Context, c *app.Container, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			body, err := input()
			if err != nil {
				return err
			}
			ack, err := c.Users.UpdateInfo(ctx, id, body)
			if err != nil {
				return err
			}
			printAck(r.opts.Stdout, ack)
			return nil
		}),
	}
	bindUserFlags(update)

	var ids []string
	var out string
	export := &cobra.Command{
		Use:   "export",
		Short: "Download the selected users as a spreadsheet",
		Args:  cobra.NoArgs,
		RunE: r.guarded(at("/index/users"), func(ctx context.Context, c *app.Container, _ []string) error {
			selected, err := parseIDs(ids)
			if err != nil {
				return err
			}
			blob, err := c.Users.Export(ctx, selected)
			if err != nil {
				return err
			}
			return saveBlob(r.opts.Stdout, blob, out, "users.xlsx")
		}),
	}
	export.Flags().StringSliceVar(&ids, "ids", nil, "user ids, comma separated")
	export.Flags().StringVarP(&out, "out", "o", "", "output file")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List users",
			Args:  cobra.NoArgs,
			RunE: r.guarded(at("/index/users"), func(ctx context.Context, c *app.Container, _ []string) error {
				list, err := c.Users.List(ctx)
				if err != nil {
					return err
				}
				return printJSON(r.opts.Stdout, list)
			}),
		},
		&cobra.Command{
			Use:   "get <id>",
			Short: "Show one user",
			Args:  cobra.ExactArgs(1),
			RunE: r.guarded(atID("/index/users/edit/%s"), func(ctx context.Context, c *app.Container, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				u, err := c.Users.Get(ctx, id)
				if err != nil {
					return err
				}
				return printJSON(r.opts.Stdout, u)
			}),
		},
		create,
		update,
		r.userStatusCommand("enable", true),
		r.userStatusCommand("disable", false),
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a user",
			Args:  cobra.ExactArgs(1),
			RunE: r.guarded(at("/index/users"), func(ctx context.Context, c *app.Container, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				ack, err := c.Users.Delete(ctx, id)
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

func (r *runner) userStatusCommand(verb string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <id>",
		Short: verb + " a user account",
		Args:  cobra.ExactArgs(1),
		RunE: r.guarded(at("/index/users"), func(ctx context.Context, c *app.Container, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ack, err := c.Users.UpdateStatus(ctx, id, active)
			if err != nil {
				return err
			}
			printAck(r.opts.Stdout, ack)
			return nil
		}),
	}
}
