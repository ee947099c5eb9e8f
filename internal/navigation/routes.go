// Package navigation holds the route table of the admin client and the
// role-gated guard that runs before every navigation.
package navigation

import "github.com/manage-pm/manage-admin/internal/roles"

// Well-known paths.
const (
	PathRoot         = "/"
	PathLogin        = "/login"
	PathUnauthorized = "/unauthorized"
	PathLayout       = "/index"
)

// Route describes one navigable location. Routes are immutable once built.
type Route struct {
	Path         string
	Name         string
	View         string
	Title        string
	RequiresAuth bool
	// Roles restricts access when non-empty.
	Roles roles.Set
	// Redirect sends the navigation elsewhere before any guarding.
	Redirect string
}

// Restricted reports whether the route declares an allowed role set.
func (r Route) Restricted() bool {
	return !r.Roles.Empty()
}

var (
	adminOnly   = roles.NewSet(roles.Admin)
	management  = roles.NewSet(roles.Admin, roles.Manager)
	contributor = roles.NewSet(roles.Admin, roles.Manager, roles.Member)
	everyone    = roles.NewSet(roles.All()...)
)

// Routes returns the route table. Paths use chi pattern syntax.
func Routes() []Route {
	return []Route{
		{Path: PathRoot, Redirect: PathLogin},
		{Path: PathLayout, Name: "Layout", View: "layout", Title: "首页"},
		{Path: "/index/users", Name: "UserList", View: "user-list", Title: "用户列表", RequiresAuth: true, Roles: adminOnly},
		{Path: "/index/users/add", Name: "UserAdd", View: "user-form", Title: "添加用户", RequiresAuth: true, Roles: adminOnly},
		{Path: "/index/users/edit/{id}", Name: "UserEdit", View: "user-form", Title: "编辑用户", RequiresAuth: true, Roles: adminOnly},
		{Path: "/index/projects", Name: "ProjectList", View: "project-list", Title: "项目列表", RequiresAuth: true, Roles: management},
		{Path: "/index/projects/add", Name: "ProjectAdd", View: "project-form", Title: "添加项目", RequiresAuth: true, Roles: management},
		{Path: "/index/projects/edit/{id}", Name: "ProjectEdit", View: "project-form", Title: "编辑项目", RequiresAuth: true, Roles: management},
		{Path: "/index/processes", Name: "ProcessList", View: "process-list", Title: "进度列表", RequiresAuth: true, Roles: management},
		{Path: "/index/archived-projects", Name: "ArchivedProject", View: "archived-projects", Title: "项目归档列表", RequiresAuth: true, Roles: management},
		{Path: "/index/tasks", Name: "TaskList", View: "task-list", Title: "任务列表", RequiresAuth: true, Roles: contributor},
		{Path: "/index/tasks/add", Name: "TaskAdd", View: "task-form", Title: "添加任务", RequiresAuth: true, Roles: contributor},
		{Path: "/index/tasks/edit/{id}", Name: "TaskEdit", View: "task-form", Title: "编辑任务", RequiresAuth: true, Roles: contributor},
		{Path: "/index/tasks/detail/{id}", Name: "TaskDetail", View: "task-detail", Title: "查看任务", RequiresAuth: true, Roles: contributor},
		{Path: "/index/reset-password", Name: "ResetPassword", View: "reset-password", Title: "找回密码", RequiresAuth: true, Roles: everyone},
		{Path: PathLogin, Name: "Index", View: "login", Title: "登录"},
		{Path: PathUnauthorized, Name: "Unauthorized", View: "unauthorized", Title: "无权访问"},
		{Path: "/*", Redirect: PathUnauthorized},
	}
}
