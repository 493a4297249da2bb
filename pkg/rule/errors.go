package rule

import "fmt"

// RuleError reports an invalid rule construction or injection: a merge of
// nodes that are already distinct images of distinct P-classes, an
// injection referencing a node that does not exist where it is required
// to, and similar invariant violations.
type RuleError struct {
	Op      string
	Message string
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("rule: %s: %s", e.Op, e.Message)
}

func newErr(op, format string, args ...any) error {
	return &RuleError{Op: op, Message: fmt.Sprintf(format, args...)}
}
