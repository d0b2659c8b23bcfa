package config

import "errors"

var (
	// ErrInvalidConfig is returned when a loaded configuration fails validation
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConfigNotFound is returned when the configuration file does not exist
	ErrConfigNotFound = errors.New("configuration file not found")
)
