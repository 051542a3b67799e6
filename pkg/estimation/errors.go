package estimation

import "fmt"

// ValidationError reports malformed input to one of the public entry points.
// Never retried; handlers map it to a 400.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
	}
	return "validation: " + e.Message
}

// FormulaError reports a single line-item formula that could not be evaluated.
// Callers recover locally: the line degrades to quantity 0 and the condition is
// reported as a warning on the estimate, not as a failure of the whole call.
type FormulaError struct {
	Formula string
	Message string
}

func (e *FormulaError) Error() string {
	return fmt.Sprintf("formula %q: %s", e.Formula, e.Message)
}

// NotFoundError reports a referenced catalog entity that does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ConflictError reports a lost optimistic-concurrency race, e.g. accepting an
// estimate whose status already reached a terminal state. Handlers map it to a
// 409 and the UI refreshes; the core never retries.
type ConflictError struct {
	Resource string
	Message  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s", e.Resource, e.Message)
}
