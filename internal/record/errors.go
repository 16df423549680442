package record

import "fmt"

// MissingFieldError reports a required parameter or contributor field that is
// absent or blank. Index is the contributor position, or -1 for document
// parameters.
type MissingFieldError struct {
	Field string
	Index int
}

func (e *MissingFieldError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("contributor %d: %s is required", e.Index, e.Field)
	}
	return fmt.Sprintf("%s is required", e.Field)
}
