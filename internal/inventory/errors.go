package inventory

import (
	"errors"
	"fmt"
)

// ErrMalformedInventory matches every *MalformedError.
var ErrMalformedInventory = errors.New("malformed inventory")

// MalformedError identifies the offending line item. Line is 1-based and
// counts ITEM elements for XML and data rows for CSV.
type MalformedError struct {
	Line   int
	Reason string
}

func (e *MalformedError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: item %d: %s", ErrMalformedInventory, e.Line, e.Reason)
	}
	return fmt.Sprintf("%s: %s", ErrMalformedInventory, e.Reason)
}

func (e *MalformedError) Is(target error) bool {
	return target == ErrMalformedInventory
}

func malformed(line int, format string, args ...any) error {
	return &MalformedError{Line: line, Reason: fmt.Sprintf(format, args...)}
}
