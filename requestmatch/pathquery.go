package requestmatch

import (
	"github.com/redirectionio/routecore/regexradix"
	"github.com/redirectionio/routecore/rule"
)

// PathAndQueryMatcher (C6) holds a static canonical-path hash map plus a
// RegexRadixTree keyed on each route's path regex. It sits directly below
// HostMatcher and forwards its survivors into MethodMatcher.
type PathAndQueryMatcher struct {
	static     map[string]*MethodMatcher
	dynamic    *regexradix.Tree[*MethodMatcher]
	patternsOf map[string]rule.Pattern // route id -> pattern, for Remove
	count      int
	opts       Options
}

// NewPathAndQueryMatcher returns an empty PathAndQueryMatcher.
func NewPathAndQueryMatcher(opts Options) *PathAndQueryMatcher {
	return &PathAndQueryMatcher{
		static:     make(map[string]*MethodMatcher),
		dynamic:    regexradix.New[*MethodMatcher](),
		patternsOf: make(map[string]rule.Pattern),
		opts:       opts,
	}
}

func (m *PathAndQueryMatcher) Insert(route *rule.Route) error {
	p := route.PathAndQuery
	m.patternsOf[route.Id] = p
	m.count++
	if p.Kind == rule.Static {
		rm, ok := m.static[p.Literal]
		if !ok {
			rm = NewMethodMatcher(m.opts)
			m.static[p.Literal] = rm
		}
		return rm.Insert(route)
	}
	rm := m.dynamic.GetOrCreate(p.Source, func() *MethodMatcher { return NewMethodMatcher(m.opts) })
	return rm.Insert(route)
}

func (m *PathAndQueryMatcher) Remove(id string) bool {
	p, ok := m.patternsOf[id]
	if !ok {
		return false
	}
	delete(m.patternsOf, id)
	var removed bool
	if p.Kind == rule.Static {
		rm, ok := m.static[p.Literal]
		if ok {
			removed = rm.Remove(id)
			if rm.Len() == 0 {
				delete(m.static, p.Literal)
			}
		}
	} else {
		removed = m.dynamic.Remove(p.Source, func(rm *MethodMatcher) bool {
			rm.Remove(id)
			return rm.Len() == 0
		})
	}
	if removed {
		m.count--
	}
	return removed
}

func (m *PathAndQueryMatcher) MatchRequest(req *Request) []*rule.Route {
	canon := req.CanonicalPath()
	var out []*rule.Route
	if rm, ok := m.static[canon]; ok {
		out = append(out, rm.MatchRequest(req)...)
	}
	for _, rm := range m.dynamic.Find(canon) {
		out = append(out, rm.MatchRequest(req)...)
	}
	return out
}

func (m *PathAndQueryMatcher) Trace(req *Request) *Trace {
	canon := req.CanonicalPath()
	var children []*Trace

	staticMatched := false
	var staticRoutes []*rule.Route
	if rm, ok := m.static[canon]; ok {
		staticRoutes = rm.MatchRequest(req)
		staticMatched = len(staticRoutes) > 0
	}
	children = append(children, &Trace{
		Description:   "Static path",
		Matched:       staticMatched,
		Evaluated:     true,
		Count:         uint64(len(staticRoutes)),
		MatchedRoutes: staticRoutes,
	})

	dynRoutes, treeTrace := m.dynamic.FindTrace(canon)
	var flatDynRoutes []*rule.Route
	for _, rm := range dynRoutes {
		flatDynRoutes = append(flatDynRoutes, rm.MatchRequest(req)...)
	}
	children = append(children, regexTreeTrace(treeTrace, flatDynRoutes))

	routes := append(append([]*rule.Route{}, staticRoutes...), flatDynRoutes...)
	return &Trace{
		Description:   "Path and query matcher",
		Matched:       len(routes) > 0,
		Evaluated:     true,
		Count:         uint64(len(routes)),
		Children:      children,
		MatchedRoutes: routes,
	}
}

// regexTreeTrace converts a regexradix.TraceNode shadow tree into the
// engine's Trace shape.
func regexTreeTrace(n regexradix.TraceNode, matchedRoutes []*rule.Route) *Trace {
	t := &Trace{
		Description: "Regex tree prefix " + n.Prefix,
		Matched:      n.Matched,
		Evaluated:    true,
		Count:        uint64(n.Count),
	}
	if len(n.Children) == 0 {
		t.MatchedRoutes = matchedRoutes
	}
	for _, c := range n.Children {
		t.Children = append(t.Children, regexTreeTrace(c, nil))
	}
	if len(n.Children) > 0 {
		t.MatchedRoutes = matchedRoutes
	}
	return t
}

func (m *PathAndQueryMatcher) Len() int { return m.count }
