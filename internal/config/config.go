// Package config implements environment and TOML configuration resolution
// for the drive mirror: required connection parameters come from the
// environment (credentials never touch a file), tuning knobs may optionally
// be overridden from a TOML file.
package config

import "time"

// Config is the fully resolved configuration for one mirror run.
type Config struct {
	// Required, environment-only (credentials never live in a config file).
	SiteID       string
	LocalRoot    string
	TenantID     string
	ClientID     string
	ClientSecret string
	Drives       []string

	// Logging.
	EnableLogging bool
	LogLevel      string

	// Tuning knobs, overridable from TOML (see Load). BatchLimit and
	// ChunkSizeBytes are resolved and validated only: the sync engine always
	// resolves batches of mirror.BatchLimit (20) entries and copies downloads
	// in mirror.ChunkSize (64 KiB) buffers.
	BatchLimit      int
	WorkerLimit     int
	ChunkSizeBytes  int64
	Prune           bool
	StrictHashMode  bool
	RequeueOnBatch  bool
	PollInterval    time.Duration
}

// FileConfig mirrors the optional TOML tuning-knob file. Every field is a
// pointer so an absent key leaves the corresponding default untouched.
type FileConfig struct {
	BatchLimit     *int    `toml:"batch_limit"`
	WorkerLimit    *int    `toml:"worker_limit"`
	ChunkSizeKiB   *int    `toml:"chunk_size_kib"`
	Prune          *bool   `toml:"prune"`
	StrictHashMode *bool   `toml:"strict_hash_mode"`
	RequeueOnBatch *bool   `toml:"requeue_on_batch_failure"`
	PollInterval   *string `toml:"poll_interval"`
}
