package hierarchy

import "fmt"

// HierarchyError reports a cycle, a commutativity violation, or a missing
// graph or typing. Hierarchy.Rewrite reports a strict-mode propagation
// denial as a rewrite.RewritingError with Op "strict_violation".
type HierarchyError struct {
	Op      string
	Message string
}

func (e *HierarchyError) Error() string {
	return fmt.Sprintf("hierarchy: %s: %s", e.Op, e.Message)
}

func newErr(op, format string, args ...any) error {
	return &HierarchyError{Op: op, Message: fmt.Sprintf(format, args...)}
}
