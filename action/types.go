// Package action implements the action composer (C9): it merges the set
// of Routes a request matched into one deterministic Action describing the
// status code update, header filters and body filters to apply to the
// response.
package action

import "github.com/redirectionio/routecore/rule"

// StatusCodeUpdate describes a response status code rewrite. A zero
// OnResponseStatusCode means "applies to any response status"; otherwise
// the update only applies when the upstream response carries that status,
// falling back to FallbackStatusCode when it doesn't.
type StatusCodeUpdate struct {
	StatusCode           uint16
	OnResponseStatusCode uint16
	FallbackStatusCode   uint16
}

// HeaderFilterAction pairs a declared header filter with the response
// status code it is conditioned on (0 = unconditional).
type HeaderFilterAction struct {
	Filter               rule.HeaderFilter
	OnResponseStatusCode uint16
}

// BodyFilterAction pairs a declared body filter with the response status
// code it is conditioned on (0 = unconditional).
type BodyFilterAction struct {
	Filter               rule.BodyFilter
	OnResponseStatusCode uint16
}

// Action is the composed outcome of every Route that matched a request.
// HeaderFilters and BodyFilters preserve insertion order, which determines
// application order on the response; RuleIds lists contributing rules
// highest priority first.
type Action struct {
	StatusCodeUpdate *StatusCodeUpdate
	HeaderFilters    []HeaderFilterAction
	BodyFilters      []BodyFilterAction
	RuleIds          []string
}
