package roles

import "strings"

// Set is an immutable collection of allowed roles.
type Set struct {
	members map[Role]struct{}
}

// NewSet builds a set from the given roles.
func NewSet(rs ...Role) Set {
	members := make(map[Role]struct{}, len(rs))
	for _, r := range rs {
		members[r] = struct{}{}
	}
	return Set{members: members}
}

// Has reports membership. The empty role is never a member.
func (s Set) Has(r Role) bool {
	if r == "" {
		return false
	}
	_, ok := s.members[r]
	return ok
}

// Empty reports whether the set declares no roles.
func (s Set) Empty() bool {
	return len(s.members) == 0
}

// Roles lists the members in privilege order.
func (s Set) Roles() []Role {
	out := make([]Role, 0, len(s.members))
	for _, r := range All() {
		if _, ok := s.members[r]; ok {
			out = append(out, r)
		}
	}
	return out
}

func (s Set) String() string {
	names := make([]string, 0, len(s.members))
	for _, r := range s.Roles() {
		names = append(names, r.Alias())
	}
	return strings.Join(names, ",")
}
