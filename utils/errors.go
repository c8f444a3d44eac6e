package utils

import (
	"github.com/pkg/errors"
)

// NewUnexpectedTypeError is used when there is a type mismatch.
func NewUnexpectedTypeError[ExpectedT any](actual interface{}) error {
	return errors.Errorf("expected %T but got %T", *new(ExpectedT), actual)
}

// NewInvalidOptionError is used when a configuration contains a key its schema does not know.
func NewInvalidOptionError(key string) error {
	return errors.Errorf("[%s] is an invalid option", key)
}

// NewOneOfError is used when a value falls outside a closed set of accepted values.
func NewOneOfError(field string, got interface{}, valid ...interface{}) error {
	return errors.Errorf("unknown value %v for %q, valid options are %v", got, field, valid)
}
