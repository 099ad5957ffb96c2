package action_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/redirectionio/routecore/action"
	"github.com/redirectionio/routecore/requestmatch"
	"github.com/redirectionio/routecore/rule"
)

func routeWithRule(id string, priority int64, r *rule.Rule) *rule.Route {
	r.Id = id
	r.Priority = priority
	return &rule.Route{
		Id:           id,
		Priority:     priority,
		PathAndQuery: rule.Pattern{Kind: rule.Static, Literal: "/p"},
		Rule:         r,
	}
}

func TestFromRoutesOrdersByDescendingPriorityTiesById(t *testing.T) {
	req := &requestmatch.Request{PathAndQuery: "/p"}
	routes := []*rule.Route{
		routeWithRule("b", 5, &rule.Rule{}),
		routeWithRule("a", 5, &rule.Rule{}),
		routeWithRule("high", 10, &rule.Rule{}),
	}

	act := action.FromRoutes(routes, req)
	assert.Equal(t, []string{"high", "a", "b"}, act.RuleIds)
}

func TestFromRoutesUnconditionalStatusUpdateDemotedToFallback(t *testing.T) {
	req := &requestmatch.Request{PathAndQuery: "/p"}
	routes := []*rule.Route{
		routeWithRule("low", 1, &rule.Rule{RedirectCode: 302, MatchOnResponseStatus: 404}),
		routeWithRule("high", 2, &rule.Rule{RedirectCode: 404}),
	}

	act := action.FromRoutes(routes, req)
	assert := assert.New(t)
	if assert.NotNil(act.StatusCodeUpdate) {
		assert.EqualValues(302, act.StatusCodeUpdate.StatusCode)
		assert.EqualValues(404, act.StatusCodeUpdate.OnResponseStatusCode)
		assert.EqualValues(404, act.StatusCodeUpdate.FallbackStatusCode)
	}
}

func TestFromRoutesTwoUnconditionalUpdatesLastWriterWinsNoFallback(t *testing.T) {
	req := &requestmatch.Request{PathAndQuery: "/p"}
	routes := []*rule.Route{
		routeWithRule("low", 1, &rule.Rule{RedirectCode: 301}),
		routeWithRule("high", 2, &rule.Rule{RedirectCode: 302}),
	}

	act := action.FromRoutes(routes, req)
	assert := assert.New(t)
	if assert.NotNil(act.StatusCodeUpdate) {
		assert.EqualValues(301, act.StatusCodeUpdate.StatusCode)
		assert.EqualValues(0, act.StatusCodeUpdate.OnResponseStatusCode)
		assert.EqualValues(0, act.StatusCodeUpdate.FallbackStatusCode)
	}
}

func TestFromRoutesRendersTargetWithCaptures(t *testing.T) {
	re := rule.Pattern{
		Kind:     rule.Dynamic,
		Source:   "^/old/(?P<id>[0-9]+)$",
		Captures: []rule.Capture{{Name: "id"}},
	}
	re.Regex = regexp.MustCompile(re.Source)

	req := &requestmatch.Request{PathAndQuery: "/old/42"}
	routes := []*rule.Route{
		{
			Id:           "r1",
			Priority:     1,
			PathAndQuery: re,
			Rule:         &rule.Rule{Id: "r1", Target: "/new/{id}"},
		},
	}

	act := action.FromRoutes(routes, req)
	if len(act.HeaderFilters) != 1 {
		t.Fatalf("HeaderFilters = %v, want one Location override", act.HeaderFilters)
	}
	got := act.HeaderFilters[0]
	assert.Equal(t, "Location", got.Filter.Header)
	assert.Equal(t, "/new/42", got.Filter.Value)
}

func TestFromRoutesHeaderAndBodyFiltersPreserveInsertionOrder(t *testing.T) {
	req := &requestmatch.Request{PathAndQuery: "/p"}
	routes := []*rule.Route{
		routeWithRule("first", 2, &rule.Rule{HeaderFilters: []rule.HeaderFilter{{Action: "set", Header: "X-A", Value: "1"}}}),
		routeWithRule("second", 1, &rule.Rule{HeaderFilters: []rule.HeaderFilter{{Action: "set", Header: "X-B", Value: "2"}}}),
	}

	act := action.FromRoutes(routes, req)
	if len(act.HeaderFilters) != 2 {
		t.Fatalf("HeaderFilters = %v, want 2", act.HeaderFilters)
	}
	assert.Equal(t, "X-A", act.HeaderFilters[0].Filter.Header)
	assert.Equal(t, "X-B", act.HeaderFilters[1].Filter.Header)
}
