package tensor

import (
	"errors"
	"fmt"
)

// ShapeMismatchError reports an operation applied to tensors whose
// shapes are incompatible. It is returned unwrapped by every package in
// this module: graph-network blocks never mask or reinterpret it.
type ShapeMismatchError struct {
	Op     string
	Want   []int
	Got    []int
	GotLen int
}

// Error implements the error interface.
func (e *ShapeMismatchError) Error() string {
	if e.Got == nil {
		return fmt.Sprintf("%s: data length %d does not match shape %v", e.Op, e.GotLen, e.Want)
	}
	return fmt.Sprintf("%s: shape %v incompatible with %v", e.Op, e.Got, e.Want)
}

// IsShapeMismatch reports whether err is, or wraps, a ShapeMismatchError.
func IsShapeMismatch(err error) bool {
	var sme *ShapeMismatchError
	return errors.As(err, &sme)
}
