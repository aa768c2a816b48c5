package session

import "strings"

// RouteKind classifies a client route for gating.
type RouteKind int

const (
	// RoutePublic renders for everyone.
	RoutePublic RouteKind = iota
	// RouteProtected needs a session.
	RouteProtected
	// RouteGuestOnly is for signed-out users: login, registration, password reset.
	RouteGuestOnly
)

// Action is what the client should do with a navigation.
type Action int

const (
	ActionLoading Action = iota
	ActionRender
	ActionRedirect
)

func (a Action) String() string {
	switch a {
	case ActionLoading:
		return "loading"
	case ActionRender:
		return "render"
	case ActionRedirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Decision is the gate's answer for one route.
type Decision struct {
	Action Action
	// Target is set for ActionRedirect.
	Target string
}

// Routes describes the client's route table. Paths match exactly or as a
// prefix followed by "/".
type Routes struct {
	Protected []string
	GuestOnly []string
	LoginPath string
	HomePath  string
}

// DefaultRoutes is the route table of the TaskHub web client.
var DefaultRoutes = Routes{
	Protected: []string{"/dashboard", "/projects", "/profile", "/settings"},
	GuestOnly: []string{"/login", "/register", "/forgot", "/reset"},
	LoginPath: "/login",
	HomePath:  "/dashboard",
}

// Kind classifies path against the table.
func (r Routes) Kind(path string) RouteKind {
	if matchAny(r.Protected, path) {
		return RouteProtected
	}
	if matchAny(r.GuestOnly, path) {
		return RouteGuestOnly
	}
	return RoutePublic
}

// Decide maps a state and a path to a navigation decision. Nothing redirects
// until the state has settled.
func (r Routes) Decide(state State, path string) Decision {
	if !state.Settled() {
		return Decision{Action: ActionLoading}
	}

	switch r.Kind(path) {
	case RouteProtected:
		if state == StateAnonymous {
			return Decision{Action: ActionRedirect, Target: r.LoginPath}
		}
	case RouteGuestOnly:
		if state == StateAuthenticated {
			return Decision{Action: ActionRedirect, Target: r.HomePath}
		}
	}
	return Decision{Action: ActionRender}
}

// Gate decides path for the provider's current state.
func (p *Provider) Gate(routes Routes, path string) Decision {
	return routes.Decide(p.State(), path)
}

func matchAny(prefixes []string, path string) bool {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	for _, prefix := range prefixes {
		if path == prefix || strings.HasPrefix(path, strings.TrimSuffix(prefix, "/")+"/") {
			return true
		}
	}
	return false
}
