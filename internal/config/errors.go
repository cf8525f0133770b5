package config

import (
	"errors"
)

// Sentinel error kinds for config loading and validation. Callers branch
// with errors.Is.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)
