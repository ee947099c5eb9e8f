package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/manage-pm/manage-admin/internal/navigation"
)

type location struct {
	Route  string            `json:"route"`
	View   string            `json:"view"`
	Title  string            `json:"title"`
	Path   string            `json:"path"`
	Params map[string]string `json:"params,omitempty"`
	Role   string            `json:"role,omitempty"`
}

func (r *runner) navigateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "navigate <path>",
		Short: "Resolve a console path the way the guard would",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, res, err := r.enter(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(r.opts.Stdout, location{
				Route:  res.Route.Name,
				View:   res.Route.View,
				Title:  res.Route.Title,
				Path:   res.Path,
				Params: res.Params,
				Role:   string(c.Session.Role()),
			})
		},
	}
}

func (r *runner) routesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List the console routes and the roles allowed on each",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			tw := tabwriter.NewWriter(r.opts.Stdout, 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "PATH\tNAME\tTITLE\tACCESS")
			for _, rt := range navigation.DefaultRouter().Routes() {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", rt.Path, rt.Name, rt.Title, access(rt))
			}
			return tw.Flush()
		},
	}
}

func access(rt navigation.Route) string {
	switch {
	case rt.Redirect != "":
		return "-> " + rt.Redirect
	case rt.Restricted():
		return rt.Roles.String()
	case rt.RequiresAuth:
		return "signed in"
	default:
		return "public"
	}
}
