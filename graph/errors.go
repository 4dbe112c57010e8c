package graph

import (
	"errors"
	"fmt"
)

// MissingFieldError reports that a block's configuration requires a
// GraphData field that is absent from its input. It is raised when the
// block is applied, never deferred into the tensor math.
type MissingFieldError struct {
	Block string
	Field Field
}

// Error implements the error interface.
func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s requires graph field %q, which is absent", e.Block, e.Field)
}

// InvalidConfigurationError reports a block constructed with an option
// set that cannot compute anything, such as every input flag disabled
// or mutually inconsistent flag/reducer combinations. It is raised at
// construction, not at call time.
type InvalidConfigurationError struct {
	Block  string
	Reason string
}

// Error implements the error interface.
func (e *InvalidConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s configuration: %s", e.Block, e.Reason)
}

// IsMissingField reports whether err is, or wraps, a MissingFieldError.
func IsMissingField(err error) bool {
	var mfe *MissingFieldError
	return errors.As(err, &mfe)
}

// IsInvalidConfiguration reports whether err is, or wraps, an
// InvalidConfigurationError.
func IsInvalidConfiguration(err error) bool {
	var ice *InvalidConfigurationError
	return errors.As(err, &ice)
}
