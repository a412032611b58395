package config

import "fmt"

// validate checks invariants that neither applyEnv nor applyFileConfig can
// enforce on their own (cross-field, range, and emptiness checks).
func validate(cfg *Config) error {
	if len(cfg.Drives) == 0 {
		return fmt.Errorf("%w: DRIVES must name at least one drive", ErrConfig)
	}

	if cfg.BatchLimit <= 0 {
		return fmt.Errorf("%w: batch_limit must be positive, got %d", ErrConfig, cfg.BatchLimit)
	}

	if cfg.WorkerLimit <= 0 {
		return fmt.Errorf("%w: worker_limit must be positive, got %d", ErrConfig, cfg.WorkerLimit)
	}

	if cfg.ChunkSizeBytes <= 0 {
		return fmt.Errorf("%w: chunk_size_kib must be positive, got %d bytes", ErrConfig, cfg.ChunkSizeBytes)
	}

	return nil
}
