package config

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// ValidationError is a setting with an unacceptable value.
type ValidationError struct {
	Setting string
	Value   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %s = %q", ErrInvalidConfig, e.Setting, e.Value)
}

// Is reports ErrInvalidConfig as a match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidConfig
}
