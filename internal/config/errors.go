package config

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is from callers.
var (
	ErrMissingCredentials = errors.New("you must provide a twitter username and password")
	ErrInvalidConfig      = errors.New("invalid config")
	ErrLoadConfig         = errors.New("load config failed")
)
