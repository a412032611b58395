package config

// Load resolves a Config through the full precedence chain: built-in
// defaults, then the optional TOML file at tomlPath (tuning knobs only —
// never credentials), then environment variables (required connection
// parameters, plus logging overrides). Returns ErrConfig on any failure;
// callers should treat that as fatal at startup.
func Load(tomlPath string) (*Config, error) {
	cfg := DefaultConfig()

	fc, err := loadFileConfig(tomlPath)
	if err != nil {
		return nil, err
	}

	if err := applyFileConfig(cfg, fc); err != nil {
		return nil, err
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
