package roles

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAcceptsBackendNamesAndAliases(t *testing.T) {
	cases := map[string]Role{
		"管理员":     Admin,
		" 经理 ":    Manager,
		"Member":  Member,
		"USER":    User,
		"admin\n": Admin,
	}
	for raw, want := range cases {
		got, err := Parse(raw)
		require.NoError(t, err, raw)
		require.Equal(t, want, got, raw)
	}
}

func TestParseRejectsUnknown(t *testing.T) {
	_, err := Parse("root")
	require.ErrorIs(t, err, ErrUnknown)

	_, err = Parse("")
	require.ErrorIs(t, err, ErrUnknown)
}

func TestNormalizeKeepsUnknownValue(t *testing.T) {
	require.Equal(t, Role("auditor"), Normalize("  auditor "))
	require.False(t, Normalize("auditor").Valid())
}

func TestSetMembership(t *testing.T) {
	set := NewSet(Admin, Manager)
	require.True(t, set.Has(Admin))
	require.True(t, set.Has(Manager))
	require.False(t, set.Has(Member))
	require.False(t, set.Has(""))
	require.False(t, set.Empty())
	require.True(t, NewSet().Empty())
	require.Equal(t, []Role{Admin, Manager}, NewSet(Manager, Admin).Roles())
	require.Equal(t, "admin,manager", set.String())
}

func TestAliasRoundTrip(t *testing.T) {
	for _, r := range All() {
		require.Equal(t, r, Normalize(r.Alias()))
	}
}
