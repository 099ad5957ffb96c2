package requestmatch

import (
	"strings"

	"github.com/redirectionio/routecore/regexradix"
	"github.com/redirectionio/routecore/rule"
)

// HostMatcher (C7) has three lanes: static hosts, dynamic (regex) hosts,
// and any_host. Policy: if the request carries a host and the static or
// dynamic lanes produce any match, those are returned and any_host is
// skipped; otherwise any_host's matches are returned. Preserved verbatim
// from the upstream engine this was distilled from (see SPEC_FULL.md §9).
type HostMatcher struct {
	anyHost    *PathAndQueryMatcher
	static     map[string]*PathAndQueryMatcher
	dynamic    *regexradix.Tree[*PathAndQueryMatcher]
	patternsOf map[string]*rule.Pattern
	count      int
	opts       Options
}

// NewHostMatcher returns an empty HostMatcher.
func NewHostMatcher(opts Options) *HostMatcher {
	return &HostMatcher{
		anyHost:    NewPathAndQueryMatcher(opts),
		static:     make(map[string]*PathAndQueryMatcher),
		dynamic:    regexradix.New[*PathAndQueryMatcher](),
		patternsOf: make(map[string]*rule.Pattern),
		opts:       opts,
	}
}

func (m *HostMatcher) foldHost(host string) string {
	if m.opts.IgnoreHostCase {
		return strings.ToLower(host)
	}
	return host
}

func (m *HostMatcher) Insert(route *rule.Route) error {
	m.patternsOf[route.Id] = route.Host
	m.count++

	if route.Host == nil {
		return m.anyHost.Insert(route)
	}
	p := *route.Host
	if p.Kind == rule.Static {
		key := m.foldHost(p.Literal)
		mm, ok := m.static[key]
		if !ok {
			mm = NewPathAndQueryMatcher(m.opts)
			m.static[key] = mm
		}
		return mm.Insert(route)
	}
	mm := m.dynamic.GetOrCreate(p.Source, func() *PathAndQueryMatcher { return NewPathAndQueryMatcher(m.opts) })
	return mm.Insert(route)
}

func (m *HostMatcher) Remove(id string) bool {
	p, ok := m.patternsOf[id]
	if !ok {
		return false
	}
	delete(m.patternsOf, id)

	var removed bool
	switch {
	case p == nil:
		removed = m.anyHost.Remove(id)
	case p.Kind == rule.Static:
		key := m.foldHost(p.Literal)
		if mm, ok := m.static[key]; ok {
			removed = mm.Remove(id)
			if mm.Len() == 0 {
				delete(m.static, key)
			}
		}
	default:
		removed = m.dynamic.Remove(p.Source, func(mm *PathAndQueryMatcher) bool {
			mm.Remove(id)
			return mm.Len() == 0
		})
	}
	if removed {
		m.count--
	}
	return removed
}

func (m *HostMatcher) MatchRequest(req *Request) []*rule.Route {
	if req.Host != "" {
		host := m.foldHost(req.Host)
		var out []*rule.Route
		if mm, ok := m.static[host]; ok {
			out = append(out, mm.MatchRequest(req)...)
		}
		for _, mm := range m.dynamic.Find(host) {
			out = append(out, mm.MatchRequest(req)...)
		}
		if len(out) > 0 {
			return out
		}
	}
	return m.anyHost.MatchRequest(req)
}

func (m *HostMatcher) Trace(req *Request) *Trace {
	var children []*Trace
	var staticDynRoutes []*rule.Route
	host := m.foldHost(req.Host)

	if req.Host != "" {
		var staticRoutes []*rule.Route
		if mm, ok := m.static[host]; ok {
			staticRoutes = mm.MatchRequest(req)
		}
		children = append(children, &Trace{
			Description:   "Host " + host,
			Matched:       len(staticRoutes) > 0,
			Evaluated:     true,
			Count:         uint64(len(staticRoutes)),
			MatchedRoutes: staticRoutes,
		})

		dynValues, treeTrace := m.dynamic.FindTrace(host)
		var dynRoutes []*rule.Route
		for _, mm := range dynValues {
			dynRoutes = append(dynRoutes, mm.MatchRequest(req)...)
		}
		children = append(children, regexTreeTrace(treeTrace, dynRoutes))

		staticDynRoutes = append(append([]*rule.Route{}, staticRoutes...), dynRoutes...)
	}

	if len(staticDynRoutes) == 0 {
		anyTrace := m.anyHost.Trace(req)
		anyTrace.Description = "Any host"
		children = append(children, anyTrace)
	}

	routes := m.MatchRequest(req)
	return &Trace{
		Description:   "Host matcher",
		Matched:       len(routes) > 0,
		Evaluated:     true,
		Count:         uint64(len(routes)),
		Children:      children,
		MatchedRoutes: routes,
	}
}

func (m *HostMatcher) Len() int { return m.count }
