package routing_test

import (
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redirectionio/routecore/action"
	"github.com/redirectionio/routecore/requestmatch"
	"github.com/redirectionio/routecore/routing"
	"github.com/redirectionio/routecore/rule"
)

// buildServing compiles rules and drives a Router through its full
// lifecycle into Serving, failing the test on any compile or transition
// error.
func buildServing(t *testing.T, opts requestmatch.Options, rules []*rule.Rule) *routing.Router {
	t.Helper()
	r := routing.New(opts)
	require.NoError(t, r.Build())
	errs := r.Load(rules)
	require.Empty(t, errs)
	_, err := r.Cache(-1, -1)
	require.NoError(t, err)
	_, err = r.Serve()
	require.NoError(t, err)
	return r
}

// actionCmpOpts: action.Action refers to rules only by id (RuleIds), not
// by rule.Route, and carries no unexported or incomparable fields, so a
// direct cmp.Diff suffices; cmpopts.EquateEmpty keeps nil vs empty slices
// from registering as spurious differences.
var actionCmpOpts = cmp.Options{cmpopts.EquateEmpty()}

func TestStaticRedirect(t *testing.T) {
	// Spec scenario 1: static redirect.
	rules := []*rule.Rule{
		{
			Id:           "r1",
			Source:       rule.Source{PathAndQuery: "/old"},
			RedirectCode: 301,
			Target:       "/new",
		},
	}
	r := buildServing(t, requestmatch.Options{}, rules)

	got, err := r.MatchRequest(&requestmatch.Request{
		Scheme:       "http",
		Host:         "x",
		Method:       "GET",
		PathAndQuery: "/old",
	})
	require.NoError(t, err)

	want := &action.Action{
		StatusCodeUpdate: &action.StatusCodeUpdate{StatusCode: 301},
		HeaderFilters: []action.HeaderFilterAction{
			{Filter: rule.HeaderFilter{Action: "override", Header: "Location", Value: "/new"}},
		},
		RuleIds: []string{"r1"},
	}
	if diff := cmp.Diff(want, got, actionCmpOpts); diff != "" {
		t.Fatalf("action mismatch (-want +got):\n%s", diff)
	}
}

func TestPriorityFallbackComposition(t *testing.T) {
	// Spec scenario 2: an unconditional high-priority status update is
	// demoted to the fallback of a lower-priority conditional one.
	rules := []*rule.Rule{
		{
			Id:           "r_hi",
			Priority:     100,
			Source:       rule.Source{PathAndQuery: "/p"},
			RedirectCode: 301,
		},
		{
			Id:                    "r_lo",
			Priority:              10,
			Source:                rule.Source{PathAndQuery: "/p"},
			RedirectCode:          302,
			MatchOnResponseStatus: 404,
		},
	}
	r := buildServing(t, requestmatch.Options{}, rules)

	got, err := r.MatchRequest(&requestmatch.Request{PathAndQuery: "/p", Method: "GET"})
	require.NoError(t, err)

	require.NotNil(t, got.StatusCodeUpdate)
	assert.Equal(t, uint16(302), got.StatusCodeUpdate.StatusCode)
	assert.Equal(t, uint16(404), got.StatusCodeUpdate.OnResponseStatusCode)
	assert.Equal(t, uint16(301), got.StatusCodeUpdate.FallbackStatusCode)
	assert.Equal(t, []string{"r_hi", "r_lo"}, got.RuleIds)
}

func TestDynamicPathCapture(t *testing.T) {
	// Spec scenario 3: a named capture substituted into a rewrite target.
	rules := []*rule.Rule{
		{
			Id:     "r1",
			Source: rule.Source{PathAndQuery: `/u/(?P<id>[0-9]+)`},
			Target: "/users/{id}",
		},
	}
	r := buildServing(t, requestmatch.Options{}, rules)

	got, err := r.MatchRequest(&requestmatch.Request{PathAndQuery: "/u/42", Method: "GET"})
	require.NoError(t, err)
	require.Len(t, got.HeaderFilters, 1)
	assert.Equal(t, "/users/42", got.HeaderFilters[0].Filter.Value)
}

func TestQueryCanonicalisationMatchesEitherOrder(t *testing.T) {
	// Spec scenario 4: query-parameter order never changes which static
	// rule matches.
	rules := []*rule.Rule{
		{Id: "r1", Source: rule.Source{PathAndQuery: "/p?a=1&b=2"}},
	}
	r := buildServing(t, requestmatch.Options{}, rules)

	for _, pq := range []string{"/p?b=2&a=1", "/p?a=1&b=2"} {
		got, err := r.MatchRequest(&requestmatch.Request{PathAndQuery: pq, Method: "GET"})
		require.NoError(t, err)
		assert.Equal(t, []string{"r1"}, got.RuleIds, "query order %q should still match r1", pq)
	}
}

func TestHeaderConjunction(t *testing.T) {
	// Spec scenario 5: X-A == "1" AND X-B absent.
	rules := []*rule.Rule{
		{
			Id: "r1",
			Source: rule.Source{
				PathAndQuery: "/h",
				Headers: []rule.HeaderSource{
					{Name: "X-A", Value: "1"},
					{Name: "X-B", NotExist: true},
				},
			},
		},
	}
	r := buildServing(t, requestmatch.Options{}, rules)

	matched, err := r.MatchRequest(&requestmatch.Request{
		PathAndQuery: "/h",
		Method:       "GET",
		Headers:      []requestmatch.Header{{Name: "X-A", Value: "1"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"r1"}, matched.RuleIds)

	unmatched, err := r.MatchRequest(&requestmatch.Request{
		PathAndQuery: "/h",
		Method:       "GET",
		Headers: []requestmatch.Header{
			{Name: "X-A", Value: "1"},
			{Name: "X-B", Value: "0"},
		},
	})
	require.NoError(t, err)
	assert.Empty(t, unmatched.RuleIds)
}

func TestRegexTreePruning(t *testing.T) {
	// Spec scenario 6: a request sharing no prefix with any indexed rule
	// visits zero regex items.
	var rules []*rule.Rule
	for i := 0; i < 1000; i++ {
		n := strconv.Itoa(i)
		rules = append(rules, &rule.Rule{
			Id:     "r" + n,
			Source: rule.Source{PathAndQuery: `/api/v1/.*` + n},
		})
	}
	r := buildServing(t, requestmatch.Options{}, rules)

	trace, err := r.Trace(&requestmatch.Request{PathAndQuery: "/other", Method: "GET"})
	require.NoError(t, err)
	assert.Empty(t, trace.CollectMatchedRoutes())
}

func TestTraceAgreesWithMatch(t *testing.T) {
	rules := []*rule.Rule{
		{Id: "a", Source: rule.Source{PathAndQuery: "/x"}},
		{Id: "b", Source: rule.Source{PathAndQuery: `/x(?P<rest>.*)`}},
	}
	r := buildServing(t, requestmatch.Options{}, rules)

	req := &requestmatch.Request{PathAndQuery: "/x", Method: "GET"}
	act, err := r.MatchRequest(req)
	require.NoError(t, err)
	trace, err := r.Trace(req)
	require.NoError(t, err)

	traceIds := make([]string, 0)
	for _, rt := range trace.CollectMatchedRoutes() {
		traceIds = append(traceIds, rt.Id)
	}
	assert.ElementsMatch(t, act.RuleIds, traceIds)
}
