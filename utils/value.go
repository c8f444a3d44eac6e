package utils

import (
	"math"

	"github.com/pkg/errors"
)

// AssertType attempts to assert that the given interface argument is
// the given type parameter.
func AssertType[T any](from interface{}) (T, error) {
	var zero T
	asserted, ok := from.(T)
	if !ok {
		return zero, NewUnexpectedTypeError[T](from)
	}
	return asserted, nil
}

// CheckFinite fails when an optional number is NaN or infinite.
func CheckFinite(field string, f *float64) error {
	if f == nil || (!math.IsNaN(*f) && !math.IsInf(*f, 0)) {
		return nil
	}
	return errors.Errorf("%s must be a finite number, got %v", field, *f)
}
