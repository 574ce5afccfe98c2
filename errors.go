package declo

import "errors"

// Common errors used throughout the declo package
var (
	// ErrConfigValidation is returned when configuration validation fails
	ErrConfigValidation = errors.New("configuration validation failed")
	// ErrEmptyProgram is returned when there is nothing to compile or decompile.
	ErrEmptyProgram = errors.New("empty program")
)
