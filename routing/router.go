// Package routing wraps the requestmatch pipeline and action composer as
// one value with an explicit lifecycle, and is this module's embodiment
// of the engine's "the engine is a value" design note: no package-level
// global state, no singleton. A caller that wants a singleton wraps a
// *Router in a Registry (see the registry package).
package routing

import (
	"sync"

	"github.com/google/uuid"

	"github.com/redirectionio/routecore/action"
	"github.com/redirectionio/routecore/requestmatch"
	"github.com/redirectionio/routecore/rule"
)

// Router is a matcher pipeline plus an explicit lifecycle. Insert, Remove
// and Cache require exclusive access and are only permitted in the
// Building state (Cache also requires Building, and produces Cached);
// MatchRequest and Trace are pure reads requiring only shared access and
// are only permitted once Serving.
type Router struct {
	mu    sync.RWMutex
	state State
	opts  requestmatch.Options

	top        *requestmatch.SchemeMatcher
	routes     map[string]*rule.Route
	generation uuid.UUID
}

// New returns an empty Router in the Empty state.
func New(opts requestmatch.Options) *Router {
	return &Router{
		state:  Empty,
		opts:   opts,
		top:    requestmatch.NewSchemeMatcher(opts),
		routes: make(map[string]*rule.Route),
	}
}

// Build transitions the Router into the Building state, from Empty, from
// Cached, or by re-entering from Serving (the documented escape hatch for
// live modification of an otherwise-Serving router).
func (r *Router) Build() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != Empty && r.state != Serving && r.state != Cached {
		return &StateError{Op: "Build", State: r.state}
	}
	r.state = Building
	return nil
}

// Load compiles rules and inserts every Route that compiles successfully.
// It returns one error per rejected rule plus, if the Router was not in
// the Building state, a single StateError and no insertions.
func (r *Router) Load(rules []*rule.Rule) []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != Building {
		return []error{&StateError{Op: "Load", State: r.state}}
	}
	routes, errs := rule.Compile(rules)
	for _, route := range routes {
		r.insertLocked(route)
	}
	return errs
}

// InsertRoute inserts one already-compiled Route.
func (r *Router) InsertRoute(route *rule.Route) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != Building {
		return &StateError{Op: "InsertRoute", State: r.state}
	}
	r.insertLocked(route)
	return nil
}

func (r *Router) insertLocked(route *rule.Route) {
	r.routes[route.Id] = route
	_ = r.top.Insert(route)
}

// RemoveRoute removes a route by id, reporting whether it was present.
func (r *Router) RemoveRoute(id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != Building {
		return false, &StateError{Op: "RemoveRoute", State: r.state}
	}
	if _, ok := r.routes[id]; !ok {
		return false, nil
	}
	delete(r.routes, id)
	return r.top.Remove(id), nil
}

// Cache walks the regex radix trees reachable from the pipeline and
// precompiles up to limit regexes, bounded to depth level (a negative
// level means unlimited depth), then transitions to the Cached state. It
// returns the unspent budget.
func (r *Router) Cache(limit, level int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != Building {
		return limit, &StateError{Op: "Cache", State: r.state}
	}
	remaining := r.top.Cache(limit, level)
	r.state = Cached
	return remaining, nil
}

// Serve transitions a Cached Router into Serving, stamping it with a fresh
// generation id, and returns that id.
func (r *Router) Serve() (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != Cached {
		return uuid.UUID{}, &StateError{Op: "Serve", State: r.state}
	}
	r.generation = uuid.New()
	r.state = Serving
	return r.generation, nil
}

// MatchRequest returns the composed Action for req. Only permitted while
// Serving.
func (r *Router) MatchRequest(req *requestmatch.Request) (*action.Action, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.state != Serving {
		return nil, &StateError{Op: "MatchRequest", State: r.state}
	}
	routes := r.top.MatchRequest(req)
	return action.FromRoutes(routes, req), nil
}

// Trace returns the explanation tree for req. Only permitted while
// Serving.
func (r *Router) Trace(req *requestmatch.Request) (*requestmatch.Trace, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.state != Serving {
		return nil, &StateError{Op: "Trace", State: r.state}
	}
	return r.top.Trace(req), nil
}

// State reports the Router's current lifecycle state.
func (r *Router) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Generation returns the uuid stamped on the Router's most recent
// Cached->Serving transition. The zero uuid until Serve has been called
// at least once.
func (r *Router) Generation() uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.generation
}

// Len returns the number of routes currently loaded.
func (r *Router) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.routes)
}
