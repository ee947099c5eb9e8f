package navigation

import "github.com/manage-pm/manage-admin/internal/session"

// Decision is the outcome of the guard.
type Decision int

const (
	// Proceed lets the navigation through.
	Proceed Decision = iota
	// RedirectLogin sends an anonymous caller to the login page.
	RedirectLogin
	// RedirectUnauthorized sends a caller without the required role away
	// and clears its session.
	RedirectUnauthorized
)

func (d Decision) String() string {
	switch d {
	case Proceed:
		return "proceed"
	case RedirectLogin:
		return "redirect-login"
	case RedirectUnauthorized:
		return "redirect-unauthorized"
	}
	return "unknown"
}

// Target is the path a redirecting decision leads to.
func (d Decision) Target() string {
	switch d {
	case RedirectLogin:
		return PathLogin
	case RedirectUnauthorized:
		return PathUnauthorized
	}
	return ""
}

// Guard decides whether st may enter route. It has no side effects; clearing
// the session on RedirectUnauthorized is up to the caller.
func Guard(route Route, st session.State) Decision {
	if !route.RequiresAuth {
		return Proceed
	}
	if !st.HasToken() {
		return RedirectLogin
	}
	if route.Restricted() && !route.Roles.Has(st.Role) {
		return RedirectUnauthorized
	}
	return Proceed
}
