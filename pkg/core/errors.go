package core

import (
	"errors"
	"fmt"
)

// MalformedInputError is returned when an input is not well formed.
// It is the only fatal error the analysis and adaptation stages raise.
type MalformedInputError struct {
	Stage  string // pipeline stage that rejected the input
	Input  string // which input, e.g. a file path or descriptor id
	Reason string
}

func (e *MalformedInputError) Error() string {
	if e.Input != "" {
		return fmt.Sprintf("%s: malformed input %s: %s", e.Stage, e.Input, e.Reason)
	}
	return fmt.Sprintf("%s: malformed input: %s", e.Stage, e.Reason)
}

// IsMalformedInput reports whether err wraps a MalformedInputError.
func IsMalformedInput(err error) bool {
	var mie *MalformedInputError
	return errors.As(err, &mie)
}
