// Package registry holds the currently Serving *routing.Router behind a
// lock-free read path, and publishes each new generation to interested
// subscribers. It is the concurrency-safe front door a long-running process
// keeps a reference to, swapping in a freshly built Router whenever rules
// change without blocking in-flight MatchRequest/Trace calls against the
// outgoing one.
package registry

import (
	"sync/atomic"

	"github.com/redirectionio/routecore/dispatch"
	"github.com/redirectionio/routecore/routing"
)

// Registry holds the current Serving Router and broadcasts replacements.
// The zero value is not usable; call New.
type Registry struct {
	current atomic.Value // *routing.Router

	dispatcher dispatch.Dispatcher[*routing.Router]
}

// New returns a Registry with no Router loaded yet. Current returns nil
// until the first Swap.
func New() *Registry {
	reg := &Registry{}
	reg.dispatcher.Start()
	return reg
}

// Current returns the most recently Swapped Router, or nil if none has
// been published yet. Safe to call concurrently with Swap, never blocks.
func (reg *Registry) Current() *routing.Router {
	r, _ := reg.current.Load().(*routing.Router)
	return r
}

// Swap publishes r as the current Router and notifies subscribers. r is
// expected to already be in the Serving state; Swap does not check this.
func (reg *Registry) Swap(r *routing.Router) {
	reg.current.Store(r)
	reg.dispatcher.Push <- r
}

// Subscribe registers ch to receive the current Router immediately and
// every subsequent generation published through Swap. ch never blocks the
// dispatcher: it always holds the latest value offered, not a queue of
// every value ever pushed.
func (reg *Registry) Subscribe(ch chan<- *routing.Router) {
	reg.dispatcher.AddSubscriber <- ch
}
