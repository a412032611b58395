package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Environment variable names, per the system's external interface contract.
const (
	EnvSiteID       = "SITE_ID"
	EnvLocalRoot    = "LOCAL_ROOT"
	EnvTenantID     = "TENANT_ID"
	EnvClientID     = "CLIENT_ID"
	EnvClientSecret = "CLIENT_SECRET"
	EnvDrives       = "DRIVES"
	EnvEnableLog    = "ENABLE_LOGGING"
	EnvLogLevel     = "LOG_LEVEL"
	EnvConfigFile   = "MIRROR_CONFIG"
)

// requiredEnvVars lists the environment variables that must be set for a
// mirror run to start. Missing any of these is a fatal ConfigError.
var requiredEnvVars = []string{
	EnvSiteID, EnvLocalRoot, EnvTenantID, EnvClientID, EnvClientSecret, EnvDrives,
}

// applyEnv overlays environment variables onto cfg, mutating it in place.
// Environment variables take precedence over the TOML file and defaults.
func applyEnv(cfg *Config) error {
	for _, name := range requiredEnvVars {
		if os.Getenv(name) == "" {
			return fmt.Errorf("%w: missing required environment variable %s", ErrConfig, name)
		}
	}

	cfg.SiteID = os.Getenv(EnvSiteID)
	cfg.LocalRoot = os.Getenv(EnvLocalRoot)
	cfg.TenantID = os.Getenv(EnvTenantID)
	cfg.ClientID = os.Getenv(EnvClientID)
	cfg.ClientSecret = os.Getenv(EnvClientSecret)

	var drives []string
	if err := json.Unmarshal([]byte(os.Getenv(EnvDrives)), &drives); err != nil {
		return fmt.Errorf("%w: %s must be a JSON array of drive names: %w", ErrConfig, EnvDrives, err)
	}

	cfg.Drives = drives

	if raw := os.Getenv(EnvEnableLog); raw != "" {
		cfg.EnableLogging = isTruthy(raw)
	}

	if raw := os.Getenv(EnvLogLevel); raw != "" {
		cfg.LogLevel = raw
	}

	return nil
}

// isTruthy reports whether a boolean-ish environment value should be
// treated as true. Anything but an explicit falsy token counts as truthy,
// matching ENABLE_LOGGING's documented default of true.
func isTruthy(raw string) bool {
	switch raw {
	case "0", "false", "False", "FALSE", "no", "No", "NO", "":
		return false
	default:
		return true
	}
}
