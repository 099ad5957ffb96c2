package requestmatch

import (
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/redirectionio/routecore/rule"
)

// HeaderMatcher (C4) holds conjunctive header predicates, grouped so that
// routes sharing the exact same condition set are evaluated together: the
// group's conditions are tested once per request, and its sub-matcher is
// shared by every route attached under it. It is the last stage of the
// pipeline before the RouteMatcher leaf.
type HeaderMatcher struct {
	anyHeader *RouteMatcher
	groups    map[uint64]*headerGroup
	order     []uint64
	opts      Options
}

type headerGroup struct {
	conditions []rule.HeaderCondition
	next       *RouteMatcher
}

// NewHeaderMatcher returns an empty HeaderMatcher.
func NewHeaderMatcher(opts Options) *HeaderMatcher {
	return &HeaderMatcher{
		anyHeader: NewRouteMatcher(),
		groups:    make(map[uint64]*headerGroup),
		opts:      opts,
	}
}

// sortedConditions returns a copy of conditions sorted by their canonical
// key, giving the condition set a stable identity regardless of the order
// headers were declared on the rule.
func sortedConditions(conditions []rule.HeaderCondition) []rule.HeaderCondition {
	out := make([]rule.HeaderCondition, len(conditions))
	copy(out, conditions)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Key() < out[j-1].Key(); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func groupKey(conditions []rule.HeaderCondition) uint64 {
	h := xxhash.New()
	for i, c := range conditions {
		if i > 0 {
			_, _ = h.WriteString("\x00")
		}
		_, _ = h.WriteString(c.Key())
	}
	return h.Sum64()
}

func (m *HeaderMatcher) Insert(route *rule.Route) error {
	if len(route.Headers) == 0 {
		return m.anyHeader.Insert(route)
	}
	conditions := sortedConditions(route.Headers)
	key := groupKey(conditions)
	g, ok := m.groups[key]
	if !ok {
		g = &headerGroup{conditions: conditions, next: NewRouteMatcher()}
		m.groups[key] = g
		m.order = append(m.order, key)
	}
	return g.next.Insert(route)
}

func (m *HeaderMatcher) Remove(id string) bool {
	removed := m.anyHeader.Remove(id)
	for _, g := range m.groups {
		if g.next.Remove(id) {
			removed = true
		}
	}
	return removed
}

// memo caches a condition's evaluation for the duration of one request so
// that identical conditions shared by multiple groups are evaluated only
// once. It is request-local: never shared across requests.
type memo map[string]bool

func (m *HeaderMatcher) MatchRequest(req *Request) []*rule.Route {
	out := m.anyHeader.MatchRequest(req)
	mm := make(memo)
groupLoop:
	for _, key := range m.order {
		g := m.groups[key]
		for _, c := range g.conditions {
			if !m.evalCached(mm, req, c) {
				continue groupLoop
			}
		}
		out = append(out, g.next.MatchRequest(req)...)
	}
	return out
}

func (m *HeaderMatcher) evalCached(mm memo, req *Request, c rule.HeaderCondition) bool {
	if v, ok := mm[c.Key()]; ok {
		return v
	}
	v := evalCondition(req, c, m.opts)
	mm[c.Key()] = v
	return v
}

func evalCondition(req *Request, c rule.HeaderCondition, opts Options) bool {
	switch c.Kind {
	case rule.CondNotExist:
		return !req.HeaderExists(c.Name)
	case rule.CondRegex:
		for _, v := range req.HeaderValues(c.Name) {
			if c.Regex.MatchString(v) {
				return true
			}
		}
		return false
	default: // rule.CondStatic
		for _, v := range req.HeaderValues(c.Name) {
			if opts.IgnoreHeaderValueCase {
				if strings.EqualFold(v, c.Value) {
					return true
				}
			} else if v == c.Value {
				return true
			}
		}
		return false
	}
}

func (m *HeaderMatcher) Trace(req *Request) *Trace {
	anyTrace := m.anyHeader.Trace(req)
	anyTrace.Description = "Any header"
	children := []*Trace{anyTrace}

	mm := make(memo)
	for _, key := range m.order {
		g := m.groups[key]
		var condChildren []*Trace
		allMatched := true
		for _, c := range g.conditions {
			ok := m.evalCached(mm, req, c)
			if !ok {
				allMatched = false
			}
			condChildren = append(condChildren, &Trace{
				Description: "Header condition " + c.Key(),
				Matched:     ok,
				Evaluated:   true,
			})
		}
		var groupRoutes []*rule.Route
		if allMatched {
			groupRoutes = g.next.MatchRequest(req)
		}
		condChildren = append(condChildren, &Trace{
			Description: "Header condition group result",
			Matched:     allMatched,
			Evaluated:   true,
			Count:       uint64(len(groupRoutes)),
		})
		children = append(children, &Trace{
			Description:   "Header condition group",
			Matched:       allMatched,
			Evaluated:     true,
			Children:      condChildren,
			MatchedRoutes: groupRoutes,
		})
	}

	routes := m.MatchRequest(req)
	return &Trace{
		Description:   "Header matcher",
		Matched:       len(routes) > 0,
		Evaluated:     true,
		Count:         uint64(len(routes)),
		Children:      children,
		MatchedRoutes: routes,
	}
}

func (m *HeaderMatcher) Len() int {
	n := m.anyHeader.Len()
	for _, g := range m.groups {
		n += g.next.Len()
	}
	return n
}
