package domain

import "errors"

var (
	ErrMissingParameter   = errors.New("missing parameter")
	ErrTargetNotAllowed   = errors.New("target not allowed")
	ErrTargetNotFound     = errors.New("server name not found")
	ErrRegistryUnreadable = errors.New("failed to read servers registry")
	ErrNoPortsToProbe     = errors.New("no ports to probe")
)
