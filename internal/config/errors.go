package config

import "errors"

// ErrConfig is the sentinel wrapped by every configuration resolution
// failure (missing environment variable, malformed TOML, invalid knob).
// Fatal at startup — callers should exit non-zero on ErrConfig.
var ErrConfig = errors.New("config: invalid configuration")
