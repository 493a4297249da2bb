package rewrite

import "fmt"

// RewritingError reports a match that is not a valid monomorphism, an
// attribute difference that would yield a negative (inexpressible) set on
// a preserved element, or a strict-mode propagation denial.
type RewritingError struct {
	Op      string
	Message string
}

func (e *RewritingError) Error() string {
	return fmt.Sprintf("rewrite: %s: %s", e.Op, e.Message)
}

func newErr(op, format string, args ...any) error {
	return &RewritingError{Op: op, Message: fmt.Sprintf(format, args...)}
}
