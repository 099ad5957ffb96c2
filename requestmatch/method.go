package requestmatch

import (
	"strings"

	"github.com/redirectionio/routecore/rule"
)

// MethodMatcher (C5) buckets routes per HTTP method, plus an "any method"
// bucket for routes with no declared methods.
type MethodMatcher struct {
	anyMethod *HeaderMatcher
	methods   map[string]*HeaderMatcher
	opts      Options
}

// NewMethodMatcher returns an empty MethodMatcher.
func NewMethodMatcher(opts Options) *MethodMatcher {
	return &MethodMatcher{
		anyMethod: NewHeaderMatcher(opts),
		methods:   make(map[string]*HeaderMatcher),
		opts:      opts,
	}
}

func (m *MethodMatcher) Insert(route *rule.Route) error {
	if len(route.Methods) == 0 {
		return m.anyMethod.Insert(route)
	}
	for method := range route.Methods {
		method = strings.ToUpper(method)
		sub, ok := m.methods[method]
		if !ok {
			sub = NewHeaderMatcher(m.opts)
			m.methods[method] = sub
		}
		if err := sub.Insert(route); err != nil {
			return err
		}
	}
	return nil
}

func (m *MethodMatcher) Remove(id string) bool {
	removed := m.anyMethod.Remove(id)
	for _, sub := range m.methods {
		if sub.Remove(id) {
			removed = true
		}
	}
	return removed
}

func (m *MethodMatcher) MatchRequest(req *Request) []*rule.Route {
	out := m.anyMethod.MatchRequest(req)
	if sub, ok := m.methods[strings.ToUpper(req.Method)]; ok {
		out = append(out, sub.MatchRequest(req)...)
	}
	return out
}

func (m *MethodMatcher) Trace(req *Request) *Trace {
	anyTrace := m.anyMethod.Trace(req)
	anyTrace.Description = "Any method"
	children := []*Trace{anyTrace}

	method := strings.ToUpper(req.Method)
	if sub, ok := m.methods[method]; ok {
		t := sub.Trace(req)
		t.Description = "Method " + method
		children = append(children, t)
	}

	routes := m.MatchRequest(req)
	return &Trace{
		Description:   "Method matcher",
		Matched:       len(routes) > 0,
		Evaluated:     true,
		Count:         uint64(len(routes)),
		Children:      children,
		MatchedRoutes: routes,
	}
}

func (m *MethodMatcher) Len() int {
	n := m.anyMethod.Len()
	for _, sub := range m.methods {
		n += sub.Len()
	}
	return n
}
