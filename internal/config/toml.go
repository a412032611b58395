package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// loadFileConfig decodes the optional TOML tuning-knob file at path. A
// missing file is not an error — callers run with built-in defaults.
func loadFileConfig(path string) (*FileConfig, error) {
	if path == "" {
		return &FileConfig{}, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &FileConfig{}, nil
	}

	var fc FileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %w", ErrConfig, path, err)
	}

	return &fc, nil
}

// applyFileConfig overlays non-nil fields from fc onto cfg.
func applyFileConfig(cfg *Config, fc *FileConfig) error {
	if fc.BatchLimit != nil {
		cfg.BatchLimit = *fc.BatchLimit
	}

	if fc.WorkerLimit != nil {
		cfg.WorkerLimit = *fc.WorkerLimit
	}

	if fc.ChunkSizeKiB != nil {
		cfg.ChunkSizeBytes = int64(*fc.ChunkSizeKiB) * 1024
	}

	if fc.Prune != nil {
		cfg.Prune = *fc.Prune
	}

	if fc.StrictHashMode != nil {
		cfg.StrictHashMode = *fc.StrictHashMode
	}

	if fc.RequeueOnBatch != nil {
		cfg.RequeueOnBatch = *fc.RequeueOnBatch
	}

	if fc.PollInterval != nil {
		d, err := time.ParseDuration(*fc.PollInterval)
		if err != nil {
			return fmt.Errorf("%w: poll_interval %q: %w", ErrConfig, *fc.PollInterval, err)
		}

		cfg.PollInterval = d
	}

	return nil
}
