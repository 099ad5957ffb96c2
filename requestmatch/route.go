package requestmatch

import "github.com/redirectionio/routecore/rule"

// RouteMatcher is the terminal leaf of the pipeline (C3): it holds a set of
// routes keyed by id and returns all of them unconditionally, since every
// filtering decision has already happened in the stages above it.
type RouteMatcher struct {
	routes map[string]*rule.Route
}

// NewRouteMatcher returns an empty RouteMatcher.
func NewRouteMatcher() *RouteMatcher {
	return &RouteMatcher{routes: make(map[string]*rule.Route)}
}

func (m *RouteMatcher) Insert(route *rule.Route) error {
	m.routes[route.Id] = route
	return nil
}

func (m *RouteMatcher) Remove(id string) bool {
	if _, ok := m.routes[id]; !ok {
		return false
	}
	delete(m.routes, id)
	return true
}

func (m *RouteMatcher) MatchRequest(_ *Request) []*rule.Route {
	out := make([]*rule.Route, 0, len(m.routes))
	for _, r := range m.routes {
		out = append(out, r)
	}
	return out
}

func (m *RouteMatcher) Trace(req *Request) *Trace {
	routes := m.MatchRequest(req)
	return &Trace{
		Description:   "Route leaf",
		Matched:       len(routes) > 0,
		Evaluated:     true,
		Count:         uint64(len(routes)),
		MatchedRoutes: routes,
	}
}

func (m *RouteMatcher) Len() int { return len(m.routes) }
