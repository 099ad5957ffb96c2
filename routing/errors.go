package routing

import "fmt"

// StateError reports that an operation was attempted from a lifecycle
// state that does not permit it, e.g. inserting a route while Serving.
type StateError struct {
	Op    string
	State State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("routing: %s not permitted in state %s", e.Op, e.State)
}
