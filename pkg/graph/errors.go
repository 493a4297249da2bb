package graph

import "fmt"

// GraphError is returned for invariant violations on a Graph: a missing or
// duplicated node/edge, or a relabel collision.
type GraphError struct {
	Op      string
	Message string
}

func (e *GraphError) Error() string {
	return fmt.Sprintf("graph: %s: %s", e.Op, e.Message)
}

func newGraphErr(op, format string, args ...any) error {
	return &GraphError{Op: op, Message: fmt.Sprintf(format, args...)}
}

// HomomorphismError is returned when a proposed mapping fails totality,
// edge preservation, or attribute subsumption.
type HomomorphismError struct {
	Op      string
	Message string
}

func (e *HomomorphismError) Error() string {
	return fmt.Sprintf("homomorphism: %s: %s", e.Op, e.Message)
}

func newHomErr(op, format string, args ...any) error {
	return &HomomorphismError{Op: op, Message: fmt.Sprintf(format, args...)}
}
