package requestmatch

import "github.com/redirectionio/routecore/rule"

// Trace is one node of the explanation tree produced by a matcher's Trace
// method. It mirrors the structure of the match pipeline: Aggregating
// MatchedRoutes across a Trace tree yields the same set MatchRequest
// returns for the same request.
type Trace struct {
	Description   string
	Matched       bool
	Evaluated     bool
	Count         uint64
	Children      []*Trace
	MatchedRoutes []*rule.Route
}

// CollectMatchedRoutes walks the tree and returns the union of every
// node's MatchedRoutes, in encounter order, without duplicates by id.
func (t *Trace) CollectMatchedRoutes() []*rule.Route {
	seen := make(map[string]struct{})
	var out []*rule.Route
	var walk func(*Trace)
	walk = func(n *Trace) {
		if n == nil {
			return
		}
		for _, r := range n.MatchedRoutes {
			if _, ok := seen[r.Id]; ok {
				continue
			}
			seen[r.Id] = struct{}{}
			out = append(out, r)
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(t)
	return out
}
