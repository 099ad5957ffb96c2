// Package dispatch provides a generic dispatcher between goroutines. It
// sends the latest available value to any goroutine without blocking,
// through the channels passed to AddSubscriber. This means that whenever a
// goroutine reads from its subscriber channel, it receives the most recent
// value pushed. The next value is published to subscribers through the
// Push channel. It backs registry.Registry's router-generation broadcast.
package dispatch

type fan[T any] struct {
	in  chan T
	out chan<- T
}

// Dispatcher broadcasts values of type T to any number of subscribers. Use
// Start to begin dispatching.
type Dispatcher[T any] struct {
	Push          chan T
	AddSubscriber chan chan<- T
}

// makeFan constantly feeds the 'out' channel with the current value.
func makeFan[T any](data T, out chan<- T) *fan[T] {
	f := &fan[T]{make(chan T), out}
	go func() {
		for {
			select {
			case data = <-f.in:
			case f.out <- data:
			}
		}
	}()

	return f
}

// Start initializes the dispatcher and begins dispatching in the
// background.
func (d *Dispatcher[T]) Start() {
	if d.Push == nil {
		d.Push = make(chan T)
	}

	if d.AddSubscriber == nil {
		d.AddSubscriber = make(chan chan<- T)
	}

	go func() {
		var data T
		var fans []*fan[T]

		for {
			select {
			case data = <-d.Push:
				for _, f := range fans {
					f.in <- data
				}
			case c := <-d.AddSubscriber:
				fans = append(fans, makeFan(data, c))
			}
		}
	}()
}
