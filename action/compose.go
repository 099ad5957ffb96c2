package action

import (
	"github.com/redirectionio/routecore/requestmatch"
	"github.com/redirectionio/routecore/rule"
)

// FromRoutes sorts the given Routes descending by priority (ties broken by
// id lex order) and merges them in that order into one Action, per the
// action composer's deterministic priority rule.
func FromRoutes(routes []*rule.Route, req *requestmatch.Request) *Action {
	sorted := make([]*rule.Route, len(routes))
	copy(sorted, routes)
	sortRoutesByPriority(sorted)

	acc := &Action{}
	for _, route := range sorted {
		merge(acc, fromRoute(route, req))
	}
	return acc
}

func sortRoutesByPriority(routes []*rule.Route) {
	for i := 1; i < len(routes); i++ {
		for j := i; j > 0 && less(routes[j], routes[j-1]); j-- {
			routes[j], routes[j-1] = routes[j-1], routes[j]
		}
	}
}

// less reports whether a sorts before b under "descending priority, ties
// broken by id lex order".
func less(a, b *rule.Route) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	return a.Id < b.Id
}

// fromRoute builds the per-route contribution to an Action.
func fromRoute(route *rule.Route, req *requestmatch.Request) *Action {
	r := route.Rule
	a := &Action{RuleIds: []string{route.Id}}
	onResp := r.MatchOnResponseStatus

	if r.RedirectCode != 0 {
		a.StatusCodeUpdate = &StatusCodeUpdate{
			StatusCode:           r.RedirectCode,
			OnResponseStatusCode: onResp,
			FallbackStatusCode:   0,
		}
	}

	if r.Target != "" {
		captures := captureValues(route, req)
		location, err := RenderTemplate(r.Target, captures)
		if err == nil {
			chosen := uint16(0)
			if onResp != 0 {
				if r.RedirectCode != 0 {
					chosen = r.RedirectCode
				} else {
					chosen = onResp
				}
			}
			a.HeaderFilters = append(a.HeaderFilters, HeaderFilterAction{
				Filter:               rule.HeaderFilter{Action: "override", Header: "Location", Value: location},
				OnResponseStatusCode: chosen,
			})
		}
	}

	for _, hf := range r.HeaderFilters {
		a.HeaderFilters = append(a.HeaderFilters, HeaderFilterAction{Filter: hf, OnResponseStatusCode: onResp})
	}
	for _, bf := range r.BodyFilters {
		a.BodyFilters = append(a.BodyFilters, BodyFilterAction{Filter: bf, OnResponseStatusCode: onResp})
	}

	return a
}

// merge folds incoming into acc in place, per the fallback-chain rule: an
// unconditional status update is demoted to a fallback when a later,
// conditional one is merged on top of it.
func merge(acc, incoming *Action) {
	acc.StatusCodeUpdate = mergeStatusCodeUpdate(acc.StatusCodeUpdate, incoming.StatusCodeUpdate)
	acc.HeaderFilters = append(acc.HeaderFilters, incoming.HeaderFilters...)
	acc.BodyFilters = append(acc.BodyFilters, incoming.BodyFilters...)
	acc.RuleIds = append(acc.RuleIds, incoming.RuleIds...)
}

func mergeStatusCodeUpdate(old, new *StatusCodeUpdate) *StatusCodeUpdate {
	if new == nil {
		return old
	}
	if old == nil {
		return new
	}
	if old.OnResponseStatusCode != 0 || new.OnResponseStatusCode == 0 {
		return new
	}
	return &StatusCodeUpdate{
		StatusCode:           new.StatusCode,
		OnResponseStatusCode: new.OnResponseStatusCode,
		FallbackStatusCode:   old.StatusCode,
	}
}

// captureValues re-evaluates a Route's dynamic patterns against the
// request to recover the named captures used to render its target
// template. Path/query and host (when host is Dynamic) both contribute to
// the same capture namespace.
func captureValues(route *rule.Route, req *requestmatch.Request) map[string]string {
	out := make(map[string]string)
	fillCaptures(route.PathAndQuery, req.CanonicalPath(), out)
	if route.Host != nil {
		fillCaptures(*route.Host, req.Host, out)
	}
	return out
}

func fillCaptures(pattern rule.Pattern, matchAgainst string, out map[string]string) {
	if pattern.Kind != rule.Dynamic || pattern.Regex == nil {
		return
	}
	m := pattern.Regex.FindStringSubmatch(matchAgainst)
	if m == nil {
		return
	}

	transformerOf := make(map[string]string, len(pattern.Captures))
	for _, c := range pattern.Captures {
		transformerOf[c.Name] = c.Transformer
	}

	for i, name := range pattern.Regex.SubexpNames() {
		if name == "" || i >= len(m) {
			continue
		}
		v := m[i]
		if tname := transformerOf[name]; tname != "" {
			if f, ok := Transformers[tname]; ok {
				v = f(v)
			}
		}
		out[name] = v
	}
}
