package lua

import "errors"

// Errors for Lua state operations.
var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrExecutionTimeout is returned when a script or function runs too
	// long.
	ErrExecutionTimeout = errors.New("lua execution timeout")

	// ErrBadDefinition is returned when a script defines a function or
	// constant with invalid arguments.
	ErrBadDefinition = errors.New("invalid definition")

	// ErrBadReturn is returned when a Lua function does not return a
	// number.
	ErrBadReturn = errors.New("lua function did not return a number")
)
