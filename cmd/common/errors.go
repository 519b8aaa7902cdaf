package common

import "errors"

var (
	// ErrLoggerRequired is returned when Deps.Logger is nil.
	ErrLoggerRequired = errors.New("logger is required")

	// ErrConfigRequired is returned when Deps.Config is nil.
	ErrConfigRequired = errors.New("config is required")
)
