package roles

import (
	"errors"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Role is the account role name as served by the backend.
type Role string

const (
	// Admin manages users and sees every project.
	Admin Role = "管理员"
	// Manager owns projects and their progress.
	Manager Role = "经理"
	// Member works on assigned tasks.
	Member Role = "成员"
	// User is the default role of a self-registered account.
	User Role = "用户"
)

// ErrUnknown indicates a role outside the closed set.
var ErrUnknown = errors.New("roles: unknown role")

var aliases = map[string]Role{
	"admin":   Admin,
	"manager": Manager,
	"member":  Member,
	"user":    User,
}

// All returns the closed set of roles from most to least privileged.
func All() []Role {
	return []Role{Admin, Manager, Member, User}
}

// Valid reports whether r belongs to the closed set.
func (r Role) Valid() bool {
	switch r {
	case Admin, Manager, Member, User:
		return true
	}
	return false
}

// Alias returns the ASCII name used on the command line.
func (r Role) Alias() string {
	for alias, role := range aliases {
		if role == r {
			return alias
		}
	}
	return string(r)
}

func (r Role) String() string {
	return string(r)
}

// Normalize canonicalises a raw role string. Known aliases map onto their
// role; anything else is returned NFC-normalised and trimmed.
func Normalize(raw string) Role {
	value := norm.NFC.String(strings.TrimSpace(raw))
	if role, ok := aliases[cases.Fold().String(value)]; ok {
		return role
	}
	return Role(value)
}

// Parse normalises raw and rejects roles outside the closed set.
func Parse(raw string) (Role, error) {
	role := Normalize(raw)
	if !role.Valid() {
		return "", ErrUnknown
	}
	return role, nil
}
