package users

import "github.com/manage-pm/manage-admin/internal/roles"

// User represents a managed account as returned by the API.
type User struct {
	ID          int64      `json:"id"`
	Username    string     `json:"username"`
	Role        roles.Role `json:"role"`
	Name        string     `json:"name"`
	Gender      string     `json:"gender"`
	Birthday    string     `json:"birthday"`
	Active      bool       `json:"account_status"`
	CreatedAt   string     `json:"created_at"`
	LastLoginAt string     `json:"last_login_at"`
	LastLoginIP string     `json:"last_login_ip"`
}

// List is the envelope of GET /api/users.
type List struct {
	Total int    `json:"total"`
	Users []User `json:"users"`
}

// MemberList is the envelope of GET /api/users/members.
type MemberList struct {
	Total   int    `json:"total"`
	Members []User `json:"members"`
}

// Input carries the editable profile fields of an account.
type Input struct {
	Username string     `json:"username" validate:"required"`
	Name     string     `json:"name"`
	Gender   string     `json:"gender"`
	Birthday string     `json:"birthday,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Role     roles.Role `json:"role,omitempty" validate:"omitempty,oneof=管理员 经理 成员 用户"`
}

type statusUpdate struct {
	Active bool `json:"account_status"`
}

type exportRequest struct {
	UserIDs []int64 `json:"userIds" validate:"min=1,dive,gt=0"`
}
