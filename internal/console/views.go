package console

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/manage-pm/manage-admin/internal/navigation"
	"github.com/manage-pm/manage-admin/internal/platform/httpx"
	"github.com/manage-pm/manage-admin/internal/projects"
	"github.com/manage-pm/manage-admin/internal/roles"
	"github.com/manage-pm/manage-admin/internal/tasks"
	"github.com/manage-pm/manage-admin/internal/users"
)

// UserReader lists and loads accounts.
type UserReader interface {
	List(ctx context.Context) (users.List, error)
	Members(ctx context.Context) (users.MemberList, error)
	Get(ctx context.Context, id int64) (users.User, error)
}

// ProjectReader lists and loads projects and their progress.
type ProjectReader interface {
	List(ctx context.Context) (projects.List, error)
	Get(ctx context.Context, id int64) (projects.Project, error)
	Processes(ctx context.Context) (projects.ProcessList, error)
	Archived(ctx context.Context) (projects.ArchivedList, error)
}

// TaskReader lists and loads tasks.
type TaskReader interface {
	List(ctx context.Context) (tasks.List, error)
	Member(ctx context.Context) (tasks.List, error)
	Get(ctx context.Context, id int64) (tasks.Task, error)
	Comments(ctx context.Context, id int64) (tasks.CommentList, error)
}

// loader fetches the data a view shows. role is the session role at render
// time.
type loader func(ctx context.Context, m navigation.Match, role roles.Role) (any, error)

// Views maps view names to their data loaders.
type Views struct {
	loaders map[string]loader
}

// NewViews builds the loaders for every view in the route table.
func NewViews(u UserReader, p ProjectReader, t TaskReader) *Views {
	v := &Views{loaders: map[string]loader{}}
	v.loaders["user-list"] = func(ctx context.Context, _ navigation.Match, _ roles.Role) (any, error) {
		return u.List(ctx)
	}
	v.loaders["user-form"] = func(ctx context.Context, m navigation.Match, _ roles.Role) (any, error) {
		return loadByID(ctx, m, u.Get)
	}
	v.loaders["project-list"] = func(ctx context.Context, _ navigation.Match, _ roles.Role) (any, error) {
		return p.List(ctx)
	}
	v.loaders["project-form"] = func(ctx context.Context, m navigation.Match, _ roles.Role) (any, error) {
		return loadByID(ctx, m, p.Get)
	}
	v.loaders["process-list"] = func(ctx context.Context, _ navigation.Match, _ roles.Role) (any, error) {
		return p.Processes(ctx)
	}
	v.loaders["archived-projects"] = func(ctx context.Context, _ navigation.Match, _ roles.Role) (any, error) {
		return p.Archived(ctx)
	}
	v.loaders["task-list"] = func(ctx context.Context, _ navigation.Match, role roles.Role) (any, error) {
		if role == roles.Member {
			return t.Member(ctx)
		}
		return t.List(ctx)
	}
	v.loaders["task-form"] = func(ctx context.Context, m navigation.Match, role roles.Role) (any, error) {
		if _, ok := m.Params["id"]; ok {
			return loadByID(ctx, m, t.Get)
		}
		// Assignees are picked from the member list, which members cannot read.
		if role == roles.Member {
			return nil, nil
		}
		return u.Members(ctx)
	}
	v.loaders["task-detail"] = func(ctx context.Context, m navigation.Match, _ roles.Role) (any, error) {
		id, err := matchID(m)
		if err != nil {
			return nil, err
		}
		var detail TaskDetail
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			task, err := t.Get(gctx, id)
			detail.Task = task
			return err
		})
		g.Go(func() error {
			list, err := t.Comments(gctx, id)
			detail.Comments = list.Comments
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return detail, nil
	}
	return v
}

// TaskDetail is the task-detail view payload.
type TaskDetail struct {
	Task     tasks.Task      `json:"task"`
	Comments []tasks.Comment `json:"comments"`
}

// Load runs the loader for the matched view. Views without a loader have no
// data.
func (v *Views) Load(ctx context.Context, m navigation.Match, role roles.Role) (any, error) {
	fn, ok := v.loaders[m.Route.View]
	if !ok {
		return nil, nil
	}
	return fn(ctx, m, role)
}

func loadByID[T any](ctx context.Context, m navigation.Match, get func(context.Context, int64) (T, error)) (any, error) {
	if _, ok := m.Params["id"]; !ok {
		return nil, nil
	}
	id, err := matchID(m)
	if err != nil {
		return nil, err
	}
	return get(ctx, id)
}

func matchID(m navigation.Match) (int64, error) {
	id, err := strconv.ParseInt(m.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("console: %w: id %q", httpx.ErrValidation, m.Param("id"))
	}
	return id, nil
}
