// Package apitest runs an in-memory management API for tests. Accounts are
// seeded as admin, manager, member and user, each holding the role of the
// same name, with Password as password and Token(account) as bearer token.
package apitest

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/manage-pm/manage-admin/internal/auth"
	"github.com/manage-pm/manage-admin/internal/platform/httpx"
	"github.com/manage-pm/manage-admin/internal/projects"
	"github.com/manage-pm/manage-admin/internal/roles"
	"github.com/manage-pm/manage-admin/internal/tasks"
	"github.com/manage-pm/manage-admin/internal/users"
)

// Password is the password of every seeded account.
const Password = "secret"

// Token returns the bearer token issued to account.
func Token(account string) string {
	return "token-" + account
}

// Request is one call received by the server.
type Request struct {
	Method        string
	Path          string
	Authorization string
}

// Server is a fake management API.
type Server struct {
	URL string

	srv *httptest.Server

	mu        sync.Mutex
	failRole  bool
	requests  []Request
	passwords map[string]string
	users     []users.User
	projects  []projects.Project
	processes []projects.Process
	archived  []projects.Archived
	tasks     []tasks.Task
	comments  []tasks.Comment
	files     map[string][]byte
	nextID    int64
}

type callerKey struct{}

// New starts a seeded server that is closed when t finishes.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		passwords: map[string]string{},
		files:     map[string][]byte{},
		nextID:    100,
	}
	s.seed()
	s.srv = httptest.NewServer(s.routes())
	s.URL = s.srv.URL
	t.Cleanup(s.srv.Close)
	return s
}

// Close stops the server early.
func (s *Server) Close() {
	s.srv.Close()
}

func (s *Server) seed() {
	for i, role := range roles.All() {
		account := role.Alias()
		s.users = append(s.users, users.User{
			ID:        int64(i + 1),
			Username:  account,
			Role:      role,
			Name:      strings.ToUpper(account[:1]) + account[1:],
			Active:    true,
			CreatedAt: "2024-01-02 09:00:00",
		})
		s.passwords[account] = Password
	}
	s.projects = []projects.Project{{
		ID: 1, Name: "Apollo", Description: "launch", StartDate: "2024-01-01 00:00:00",
		EndDate: "2024-06-30 00:00:00", Status: projects.StatusInProgress,
		Priority: projects.PriorityHigh, ManagerID: 2, ManagerName: "manager",
	}}
	s.processes = []projects.Process{{
		ID: 1, ProjectID: 1, ProjectName: "Apollo", CompletionRate: 40, UpdateTime: "2024-02-01 10:00:00",
	}}
	s.archived = []projects.Archived{{
		ID: 1, ProjectID: 9, ManagerName: "manager", ProjectName: "Gemini", ArchivedDate: "2023-12-31 18:00:00",
	}}
	s.tasks = []tasks.Task{{
		ID: 1, Title: "Draft plan", DueDate: "2024-03-01 00:00:00", AssigneeID: 3, AssigneeName: "member",
		ProjectID: 1, ProjectName: "Apollo", ProjectManagerName: "manager",
		AttachmentURL: "uploads/plan 1.pdf", Status: tasks.StatusInProgress,
	}}
	s.comments = []tasks.Comment{{
		ID: 1, TaskID: 1, AuthorName: "manager", Content: "looks good", CreatedAt: "2024-02-02 08:00:00",
	}}
	s.files["uploads/plan 1.pdf"] = []byte("%PDF-1.4")
}

// FailRole makes GET /api/user-role answer 500 while fail is true.
func (s *Server) FailRole(fail bool) {
	s.mu.Lock()
	s.failRole = fail
	s.mu.Unlock()
}

// SetRole overwrites the stored role of account, which may be any string.
func (s *Server) SetRole(account string, role roles.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].Username == account {
			s.users[i].Role = role
		}
	}
}

// Requests returns the calls received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.requests)
}

// RequestsTo returns the calls whose path equals path.
func (s *Server) RequestsTo(path string) []Request {
	var out []Request
	for _, req := range s.Requests() {
		if req.Path == path {
			out = append(out, req)
		}
	}
	return out
}

// Users returns the current accounts.
func (s *Server) Users() []users.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.users)
}

// Projects returns the active projects.
func (s *Server) Projects() []projects.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.projects)
}

// Tasks returns the current tasks.
func (s *Server) Tasks() []tasks.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.tasks)
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", s.login)
		r.Post("/check-email-registered", s.checkEmail)
		r.Post("/send-verification-code", s.sendCode)
		r.Post("/register", s.register)
		r.Post("/recover-account", s.recover)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)
			r.Get("/user-role", s.userRole)
			r.Get("/current-user-name", s.currentUserName)

			admin := r.With(s.require(roles.Admin))
			admin.Get("/users", s.listUsers)
			admin.Post("/users", s.createUser)
			admin.Post("/users/export", s.exportUsers)
			admin.Get("/users/{id}", s.getUser)
			admin.Put("/users/{id}/info", s.updateUserInfo)
			admin.Put("/users/{id}/status", s.updateUserStatus)
			admin.Delete("/users/{id}", s.deleteUser)
			r.With(s.require(roles.Admin, roles.Manager)).Get("/users/members", s.listMembers)

			r.Group(func(r chi.Router) {
				r.Use(s.require(roles.Admin, roles.Manager))
				r.Get("/projects", s.listProjects)
				r.Post("/projects", s.createProject)
				r.Post("/projects/export", s.exportProjects)
				r.Get("/projects/{id}", s.getProject)
				r.Put("/projects/{id}", s.updateProject)
				r.Delete("/projects/{id}", s.deleteProject)
				r.Get("/archived-project", s.listArchived)
				r.Get("/processes", s.listProcesses)
				r.Get("/processes/{id}", s.getProcess)
				r.Put("/processes/{id}", s.updateProcess)
			})

			r.Group(func(r chi.Router) {
				r.Use(s.require(roles.Admin, roles.Manager, roles.Member))
				r.Get("/tasks", s.listTasks)
				r.Get("/tasks/member", s.memberTasks)
				r.Post("/tasks", s.createTask)
				r.Get("/tasks/{id}", s.getTask)
				r.Put("/tasks/{id}", s.updateTask)
				r.Delete("/tasks/{id}", s.deleteTask)
				r.Put("/tasks/{id}/status", s.updateTaskStatus)
				r.Get("/tasks/{id}/comments", s.listComments)
				r.Post("/tasks/{id}/comments", s.createComment)
				r.Get("/download/*", s.download)
			})
		})
	})
	return r
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			message(w, http.StatusUnauthorized, "Token 缺失")
			return
		}
		caller, found := s.userByToken(token)
		if !found {
			message(w, http.StatusUnauthorized, "Token 无效")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), callerKey{}, caller)))
	})
}

func (s *Server) require(allowed ...roles.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !slices.Contains(allowed, callerFrom(r).Role) {
				message(w, http.StatusForbidden, "权限不足")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) userByToken(token string) (users.User, bool) {
	account, ok := strings.CutPrefix(token, "token-")
	if !ok {
		return users.User{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == account && u.Active {
			return u, true
		}
	}
	return users.User{}, false
}

func callerFrom(r *http.Request) users.User {
	u, _ := r.Context().Value(callerKey{}).(users.User)
	return u
}

func message(w http.ResponseWriter, status int, text string) {
	httpx.JSON(w, status, map[string]string{"message": text})
}

func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		message(w, http.StatusBadRequest, "无效的 ID")
		return 0, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		message(w, http.StatusBadRequest, "请求格式错误")
		return false
	}
	return true
}

func attachment(w http.ResponseWriter, contentType, name string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	_, _ = w.Write(data)
}

// id hands out the next record id, starting at 100.
func (s *Server) id() int64 {
	id := s.nextID
	s.nextID++
	return id
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Account  string `json:"account"`
		Password string `json:"password"`
	}
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	pw, ok := s.passwords[in.Account]
	s.mu.Unlock()
	if !ok || pw != in.Password {
		message(w, http.StatusUnauthorized, "账号或密码错误")
		return
	}
	httpx.JSON(w, http.StatusOK, auth.LoginResult{Message: "登录成功", Token: Token(in.Account)})
}

func (s *Server) checkEmail(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
	}
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	_, ok := s.passwords[in.Email]
	s.mu.Unlock()
	httpx.JSON(w, http.StatusOK, auth.EmailCheck{Message: "ok", Registered: ok})
}

func (s *Server) sendCode(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, auth.VerificationCode{Message: "验证码已发送", Code: "123456"})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var in auth.Registration
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.passwords[in.Email]; ok {
		message(w, http.StatusConflict, "邮箱已注册")
		return
	}
	id := s.id()
	s.passwords[in.Email] = in.Password
	s.users = append(s.users, users.User{ID: id, Username: in.Email, Role: roles.User, Active: true})
	httpx.JSON(w, http.StatusCreated, httpx.Ack{Message: "注册成功", ID: id})
}

func (s *Server) recover(w http.ResponseWriter, r *http.Request) {
	var in auth.Recovery
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.passwords[in.Email]; !ok {
		message(w, http.StatusNotFound, "账号不存在")
		return
	}
	s.passwords[in.Email] = in.NewPassword
	httpx.JSON(w, http.StatusOK, httpx.Ack{Message: "密码已重置"})
}

func (s *Server) userRole(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	fail := s.failRole
	s.mu.Unlock()
	if fail {
		message(w, http.StatusInternalServerError, "服务器错误")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"role": string(callerFrom(r).Role)})
}

func (s *Server) currentUserName(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]string{"username": callerFrom(r).Username})
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	list := s.Users()
	httpx.JSON(w, http.StatusOK, users.List{Total: len(list), Users: list})
}

func (s *Server) listMembers(w http.ResponseWriter, r *http.Request) {
	var members []users.User
	for _, u := range s.Users() {
		if u.Role == roles.Member {
			members = append(members, u)
		}
	}
	httpx.JSON(w, http.StatusOK, users.MemberList{Total: len(members), Members: members})
}

func (s *Server) findUser(id int64) int {
	return slices.IndexFunc(s.users, func(u users.User) bool { return u.ID == id })
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findUser(id)
	if i < 0 {
		message(w, http.StatusNotFound, "用户不存在")
		return
	}
	httpx.JSON(w, http.StatusOK, s.users[i])
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var in users.Input
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.passwords[in.Username]; ok {
		message(w, http.StatusConflict, "用户名已存在")
		return
	}
	role := in.Role
	if role == "" {
		role = roles.User
	}
	id := s.id()
	s.passwords[in.Username] = "123456"
	s.users = append(s.users, users.User{
		ID: id, Username: in.Username, Role: role, Name: in.Name,
		Gender: in.Gender, Birthday: in.Birthday, Active: true,
	})
	httpx.JSON(w, http.StatusCreated, httpx.Ack{Message: "用户创建成功", ID: id})
}

func (s *Server) updateUserInfo(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var in users.Input
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findUser(id)
	if i < 0 {
		message(w, http.StatusNotFound, "用户不存在")
		return
	}
	u := &s.users[i]
	u.Name, u.Gender, u.Birthday = in.Name, in.Gender, in.Birthday
	if in.Role != "" {
		u.Role = in.Role
	}
	httpx.JSON(w, http.StatusOK, httpx.Ack{Message: "用户信息已更新"})
}

func (s *Server) updateUserStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var in struct {
		Active bool `json:"account_status"`
	}
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findUser(id)
	if i < 0 {
		message(w, http.StatusNotFound, "用户不存在")
		return
	}
	s.users[i].Active = in.Active
	httpx.JSON(w, http.StatusOK, httpx.Ack{Message: "状态已更新", Result: true})
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findUser(id)
	if i < 0 {
		message(w, http.StatusNotFound, "用户不存在")
		return
	}
	delete(s.passwords, s.users[i].Username)
	s.users = slices.Delete(s.users, i, i+1)
	httpx.JSON(w, http.StatusOK, httpx.Ack{Message: "用户已删除"})
}

func (s *Server) exportUsers(w http.ResponseWriter, r *http.Request) {
	var in struct {
		UserIDs []int64 `json:"userIds"`
	}
	if !decode(w, r, &in) {
		return
	}
	if len(in.UserIDs) == 0 {
		message(w, http.StatusBadRequest, "未选择用户")
		return
	}
	attachment(w, spreadsheet, "用户列表.xlsx", exportBody(in.UserIDs))
}

const spreadsheet = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func exportBody(ids []int64) []byte {
	var b strings.Builder
	b.WriteString("PK\x03\x04")
	for _, id := range ids {
		fmt.Fprintf(&b, "%d;", id)
	}
	return []byte(b.String())
}

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	list := s.Projects()
	httpx.JSON(w, http.StatusOK, projects.List{Total: len(list), Projects: list})
}

func (s *Server) findProject(id int64) int {
	return slices.IndexFunc(s.projects, func(p projects.Project) bool { return p.ID == id })
}

func (s *Server) getProject(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findProject(id)
	if i < 0 {
		message(w, http.StatusNotFound, "项目不存在")
		return
	}
	httpx.JSON(w, http.StatusOK, s.projects[i])
}

func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	var in projects.Input
	if !decode(w, r, &in) {
		return
	}
	caller := callerFrom(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	status := in.Status
	if status == "" {
		status = projects.StatusInProgress
	}
	s.projects = append(s.projects, projects.Project{
		ID: id, Name: in.Name, Description: in.Description, StartDate: in.StartDate,
		EndDate: in.EndDate, Status: status, Priority: in.Priority,
		ManagerID: caller.ID, ManagerName: caller.Username,
	})
	s.processes = append(s.processes, projects.Process{ID: s.id(), ProjectID: id, ProjectName: in.Name})
	httpx.JSON(w, http.StatusCreated, httpx.Ack{Message: "项目创建成功", ID: id})
}

func (s *Server) updateProject(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var in projects.Input
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findProject(id)
	if i < 0 {
		message(w, http.StatusNotFound, "项目不存在")
		return
	}
	p := &s.projects[i]
	p.Name, p.Description, p.StartDate, p.EndDate = in.Name, in.Description, in.StartDate, in.EndDate
	if in.Priority != "" {
		p.Priority = in.Priority
	}
	if in.Status == projects.StatusArchived {
		s.archived = append(s.archived, projects.Archived{
			ID: s.id(), ProjectID: p.ID, ManagerName: p.ManagerName, ProjectName: p.Name,
			ArchivedDate: "2024-07-01 00:00:00",
		})
		s.projects = slices.Delete(s.projects, i, i+1)
	} else if in.Status != "" {
		p.Status = in.Status
	}
	httpx.JSON(w, http.StatusOK, httpx.Ack{Message: "项目已更新"})
}

func (s *Server) deleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findProject(id)
	if i < 0 {
		message(w, http.StatusNotFound, "项目不存在")
		return
	}
	s.projects = slices.Delete(s.projects, i, i+1)
	s.processes = slices.DeleteFunc(s.processes, func(p projects.Process) bool { return p.ProjectID == id })
	s.tasks = slices.DeleteFunc(s.tasks, func(t tasks.Task) bool { return t.ProjectID == id })
	httpx.JSON(w, http.StatusOK, httpx.Ack{Message: "项目已删除"})
}

func (s *Server) exportProjects(w http.ResponseWriter, r *http.Request) {
	var in struct {
		IDs []int64 `json:"ids"`
	}
	if !decode(w, r, &in) {
		return
	}
	if len(in.IDs) == 0 {
		message(w, http.StatusBadRequest, "未选择项目")
		return
	}
	attachment(w, spreadsheet, "项目列表.xlsx", exportBody(in.IDs))
}

func (s *Server) listArchived(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	list := slices.Clone(s.archived)
	s.mu.Unlock()
	httpx.JSON(w, http.StatusOK, projects.ArchivedList{Total: len(list), Projects: list})
}

func (s *Server) listProcesses(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	list := slices.Clone(s.processes)
	s.mu.Unlock()
	httpx.JSON(w, http.StatusOK, projects.ProcessList{Total: len(list), Processes: list})
}

func (s *Server) findProcess(id int64) int {
	return slices.IndexFunc(s.processes, func(p projects.Process) bool { return p.ID == id })
}

func (s *Server) getProcess(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findProcess(id)
	if i < 0 {
		message(w, http.StatusNotFound, "进度不存在")
		return
	}
	httpx.JSON(w, http.StatusOK, s.processes[i])
}

func (s *Server) updateProcess(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var in struct {
		CompletionRate float64 `json:"completion_rate"`
	}
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findProcess(id)
	if i < 0 {
		message(w, http.StatusNotFound, "进度不存在")
		return
	}
	s.processes[i].CompletionRate = in.CompletionRate
	httpx.JSON(w, http.StatusOK, httpx.Ack{Message: "进度已更新"})
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	list := s.Tasks()
	httpx.JSON(w, http.StatusOK, tasks.List{Total: len(list), Tasks: list})
}

func (s *Server) memberTasks(w http.ResponseWriter, r *http.Request) {
	caller := callerFrom(r)
	var mine []tasks.Task
	for _, t := range s.Tasks() {
		if t.AssigneeID == caller.ID {
			mine = append(mine, t)
		}
	}
	httpx.JSON(w, http.StatusOK, tasks.List{Total: len(mine), Tasks: mine})
}

func (s *Server) findTask(id int64) int {
	return slices.IndexFunc(s.tasks, func(t tasks.Task) bool { return t.ID == id })
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findTask(id)
	if i < 0 {
		message(w, http.StatusNotFound, "任务不存在")
		return
	}
	httpx.JSON(w, http.StatusOK, s.tasks[i])
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var in tasks.Input
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t := tasks.Task{ID: s.id(), Title: in.Title, Description: in.Description, DueDate: in.DueDate, Status: tasks.StatusInProgress}
	if in.Status != "" {
		t.Status = in.Status
	}
	if in.ProjectID != nil {
		t.ProjectID = *in.ProjectID
	}
	if in.AssigneeID != nil {
		t.AssigneeID = *in.AssigneeID
	}
	s.tasks = append(s.tasks, t)
	httpx.JSON(w, http.StatusCreated, httpx.Ack{Message: "任务创建成功", ID: t.ID})
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var in tasks.Input
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findTask(id)
	if i < 0 {
		message(w, http.StatusNotFound, "任务不存在")
		return
	}
	t := &s.tasks[i]
	t.Title, t.Description, t.DueDate = in.Title, in.Description, in.DueDate
	if in.Status != "" {
		t.Status = in.Status
	}
	if in.AssigneeID != nil {
		t.AssigneeID = *in.AssigneeID
	}
	httpx.JSON(w, http.StatusOK, httpx.Ack{Message: "任务已更新"})
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findTask(id)
	if i < 0 {
		message(w, http.StatusNotFound, "任务不存在")
		return
	}
	s.tasks = slices.Delete(s.tasks, i, i+1)
	httpx.JSON(w, http.StatusOK, httpx.Ack{Message: "任务已删除"})
}

func (s *Server) updateTaskStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var in struct {
		Status tasks.Status `json:"status"`
	}
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findTask(id)
	if i < 0 {
		message(w, http.StatusNotFound, "任务不存在")
		return
	}
	s.tasks[i].Status = in.Status
	httpx.JSON(w, http.StatusOK, tasks.StatusAck{Message: "任务状态已更新", TaskID: id, Status: in.Status})
}

func (s *Server) listComments(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findTask(id) < 0 {
		message(w, http.StatusNotFound, "任务不存在")
		return
	}
	list := []tasks.Comment{}
	for _, c := range s.comments {
		if c.TaskID == id {
			list = append(list, c)
		}
	}
	httpx.JSON(w, http.StatusOK, tasks.CommentList{Message: "ok", Comments: list})
}

func (s *Server) createComment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var in struct {
		Content string `json:"content"`
	}
	if !decode(w, r, &in) {
		return
	}
	caller := callerFrom(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findTask(id) < 0 {
		message(w, http.StatusNotFound, "任务不存在")
		return
	}
	c := tasks.Comment{ID: s.id(), TaskID: id, AuthorName: caller.Username, Content: in.Content, CreatedAt: "2024-02-03 12:00:00"}
	s.comments = append(s.comments, c)
	httpx.JSON(w, http.StatusCreated, tasks.CommentAck{Message: "评论成功", Comment: c})
}

func (s *Server) download(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	s.mu.Lock()
	data, ok := s.files[name]
	s.mu.Unlock()
	if !ok {
		message(w, http.StatusNotFound, "文件不存在")
		return
	}
	base := name[strings.LastIndex(name, "/")+1:]
	attachment(w, "application/pdf", base, data)
}
