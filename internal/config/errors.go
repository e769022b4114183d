package config

import "errors"

// ErrInvalidConfig marks any configuration the engine refuses to start with:
// malformed threshold tables, non-positive capital parameters, bad bin edges.
var ErrInvalidConfig = errors.New("invalid configuration")
