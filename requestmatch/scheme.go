package requestmatch

import (
	"strings"

	"github.com/redirectionio/routecore/rule"
)

// SchemeMatcher (C8) is the top of the pipeline. Unlike HostMatcher, the
// any_scheme lane is always unioned with the specific scheme lane: "any
// scheme" semantically includes every scheme, it never defers to it.
type SchemeMatcher struct {
	anyScheme *HostMatcher
	schemes   map[string]*HostMatcher
	opts      Options
}

// NewSchemeMatcher returns an empty SchemeMatcher, the entry point of the
// matcher pipeline.
func NewSchemeMatcher(opts Options) *SchemeMatcher {
	return &SchemeMatcher{
		anyScheme: NewHostMatcher(opts),
		schemes:   make(map[string]*HostMatcher),
		opts:      opts,
	}
}

func (m *SchemeMatcher) Insert(route *rule.Route) error {
	if route.Scheme == "" {
		return m.anyScheme.Insert(route)
	}
	sub, ok := m.schemes[route.Scheme]
	if !ok {
		sub = NewHostMatcher(m.opts)
		m.schemes[route.Scheme] = sub
	}
	return sub.Insert(route)
}

func (m *SchemeMatcher) Remove(id string) bool {
	removed := m.anyScheme.Remove(id)
	for _, sub := range m.schemes {
		if sub.Remove(id) {
			removed = true
		}
	}
	return removed
}

func (m *SchemeMatcher) MatchRequest(req *Request) []*rule.Route {
	out := m.anyScheme.MatchRequest(req)
	scheme := strings.ToLower(req.Scheme)
	if sub, ok := m.schemes[scheme]; ok {
		out = append(out, sub.MatchRequest(req)...)
	}
	return out
}

func (m *SchemeMatcher) Trace(req *Request) *Trace {
	anyTrace := m.anyScheme.Trace(req)
	anyTrace.Description = "Any scheme"
	children := []*Trace{anyTrace}

	scheme := strings.ToLower(req.Scheme)
	if sub, ok := m.schemes[scheme]; ok {
		t := sub.Trace(req)
		t.Description = "Scheme " + scheme
		children = append(children, t)
	} else {
		children = append(children, &Trace{
			Description: "Scheme " + scheme,
			Matched:     false,
			Evaluated:   true,
		})
	}

	routes := m.MatchRequest(req)
	return &Trace{
		Description:   "Scheme matcher",
		Matched:       len(routes) > 0,
		Evaluated:     true,
		Count:         uint64(len(routes)),
		Children:      children,
		MatchedRoutes: routes,
	}
}

func (m *SchemeMatcher) Len() int {
	n := m.anyScheme.Len()
	for _, sub := range m.schemes {
		n += sub.Len()
	}
	return n
}
