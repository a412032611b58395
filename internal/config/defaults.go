package config

import "time"

// Default values for configuration knobs not supplied by environment or
// TOML file. These match the constants the source system hard-codes.
const (
	DefaultBatchLimit     = 20
	DefaultWorkerLimit    = 4
	DefaultChunkSizeBytes = 64 * 1024
	DefaultPrune          = false
	DefaultStrictHashMode = false
	DefaultRequeueOnBatch = false
	DefaultLogLevel       = "INFO"
	DefaultPollInterval   = 15 * time.Minute
)

// DefaultConfig returns a Config populated with every built-in default.
// Load starts from this and layers the TOML file, then the environment,
// on top.
func DefaultConfig() *Config {
	return &Config{
		EnableLogging:  true,
		LogLevel:       DefaultLogLevel,
		BatchLimit:     DefaultBatchLimit,
		WorkerLimit:    DefaultWorkerLimit,
		ChunkSizeBytes: DefaultChunkSizeBytes,
		Prune:          DefaultPrune,
		StrictHashMode: DefaultStrictHashMode,
		RequeueOnBatch: DefaultRequeueOnBatch,
		PollInterval:   DefaultPollInterval,
	}
}
