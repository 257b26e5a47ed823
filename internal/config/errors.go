package config

import "errors"

// Load wraps file, environment and decode failures in ErrLoadConfig and
// rejected values in ErrInvalidConfig.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)
