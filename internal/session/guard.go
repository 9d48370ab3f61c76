package session

import "github.com/aihelper/aihelper-cli/internal/router"

type Decision int

const (
	GuardLoading Decision = iota
	GuardRedirect
	GuardRender
)

// Evaluate decides what a protected view shows for the current store state.
func Evaluate(s *Store) Decision {
	snap := s.Snapshot()
	switch {
	case !snap.Ready:
		return GuardLoading
	case snap.User == nil:
		return GuardRedirect
	default:
		return GuardRender
	}
}

// Guard is Evaluate plus the redirect to the login view.
func Guard(s *Store, nav router.Navigator) Decision {
	d := Evaluate(s)
	if d == GuardRedirect && nav.Current() != router.RouteLogin {
		nav.Push(router.RouteLogin)
	}
	return d
}
