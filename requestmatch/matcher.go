package requestmatch

import "github.com/redirectionio/routecore/rule"

// Matcher is the capability set every stage of the pipeline implements: a
// small virtual interface rather than a class hierarchy, per the engine's
// "polymorphic matcher chain" design. Insert/Remove mutate the stage in
// place; MatchRequest/Trace are pure reads.
type Matcher interface {
	Insert(route *rule.Route) error
	Remove(id string) bool
	MatchRequest(req *Request) []*rule.Route
	Trace(req *Request) *Trace
	Len() int
}

// Options configures router-wide case-sensitivity policy, threaded through
// every matcher stage that compares strings.
type Options struct {
	IgnoreHostCase bool
	// IgnoreHeaderValueCase relaxes Static header-value comparison to be
	// case-insensitive. Header names are always compared
	// case-insensitively regardless of this setting.
	IgnoreHeaderValueCase bool
}
