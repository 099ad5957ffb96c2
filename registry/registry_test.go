package registry

import (
	"testing"
	"time"

	"github.com/redirectionio/routecore/requestmatch"
	"github.com/redirectionio/routecore/routing"
)

func newServingRouter(t *testing.T) *routing.Router {
	t.Helper()
	r := routing.New(requestmatch.Options{})
	if err := r.Build(); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Cache(0, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Serve(); err != nil {
		t.Fatal(err)
	}
	return r
}

func TestCurrentNilBeforeSwap(t *testing.T) {
	reg := New()
	if reg.Current() != nil {
		t.Fatal("expected nil Router before first Swap")
	}
}

func TestSwapUpdatesCurrent(t *testing.T) {
	reg := New()
	r := newServingRouter(t)
	reg.Swap(r)

	if reg.Current() != r {
		t.Fatal("Current did not reflect the Swapped Router")
	}
}

func TestSubscribeReceivesLatestGeneration(t *testing.T) {
	reg := New()
	r1 := newServingRouter(t)
	reg.Swap(r1)

	ch := make(chan *routing.Router)
	reg.Subscribe(ch)

	select {
	case got := <-ch:
		if got != r1 {
			t.Fatal("expected first generation on subscribe")
		}
	case <-time.After(50 * time.Millisecond):
		t.Fatal("timeout waiting for initial generation")
	}

	r2 := newServingRouter(t)
	reg.Swap(r2)

	for {
		select {
		case got := <-ch:
			if got == r2 {
				return
			}
		case <-time.After(50 * time.Millisecond):
			t.Fatal("timeout waiting for second generation")
		}
	}
}
