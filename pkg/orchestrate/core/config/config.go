package config

// Package config provides structures and utilities for managing engine configuration.

// EmbeddedConfig holds the content of the configuration file, typically passed from main.go.
// This is used when loading configuration from an embedded source (e.g., a compiled binary).
type EmbeddedConfig []byte

// WorkerConfig holds the remote worker API connection settings.
type WorkerConfig struct {
	// APIEndpoint is the base URL of the remote worker service.
	APIEndpoint string `yaml:"api_endpoint"`
	// APIKey is the bearer token sent with worker requests, if any.
	APIKey string `yaml:"api_key"`
	// SubmitPath is the path of the batch submission endpoint.
	SubmitPath string `yaml:"submit_path"`
	// StatusPathFormat is the printf-style path of the status endpoint,
	// with one %s placeholder for the task ID.
	StatusPathFormat string `yaml:"status_path_format"`
	// ReconcilePath is the path of the authoritative state endpoint fetched
	// after a task vanished server-side.
	ReconcilePath string `yaml:"reconcile_path"`
	// TimeoutSeconds is the per-request HTTP timeout.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// BatchConfig holds the default orchestration settings applied to jobs that
// do not override them.
type BatchConfig struct {
	// JobName is the default job name if not specified elsewhere.
	JobName string `yaml:"job_name"`
	// BatchSize is the default number of items per batch. Zero means a
	// single batch containing all items.
	BatchSize int `yaml:"batch_size"`
	// ConcurrencyLimit is the default ceiling on simultaneously submitted batches.
	ConcurrencyLimit int `yaml:"concurrency_limit"`
	// PollIntervalMs is the default fixed delay between a status response and
	// the next poll, in milliseconds.
	PollIntervalMs int `yaml:"poll_interval_ms"`
	// MaxPollAttempts is the default job-level poll attempt ceiling.
	MaxPollAttempts int `yaml:"max_poll_attempts"`
	// ProgressCapPercent caps reported progress while any batch is non-terminal.
	ProgressCapPercent int `yaml:"progress_cap_percent"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the logging level (e.g., "INFO", "DEBUG").
	Level string `yaml:"level"`
}

// TracingConfig holds OTLP trace export settings.
type TracingConfig struct {
	// Enabled toggles trace export. Spans are no-ops when disabled.
	Enabled bool `yaml:"enabled"`
	// ServiceName identifies this process in the tracing backend.
	ServiceName string `yaml:"service_name"`
	// Endpoint is the OTLP collector endpoint (host:port).
	Endpoint string `yaml:"endpoint"`
	// Protocol is the OTLP transport, "http" or "grpc".
	Protocol string `yaml:"protocol"`
}

// SystemConfig holds system-wide settings.
type SystemConfig struct {
	// Timezone is the application timezone (e.g., "UTC").
	Timezone string `yaml:"timezone"`
	// Logging is the logging configuration.
	Logging LoggingConfig `yaml:"logging"`
	// Tracing is the trace export configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// InfrastructureConfig holds logical dependency settings for infrastructure components.
type InfrastructureConfig struct {
	// JobRepositoryDBRef is the name of the database connection used by the
	// JobRepository (e.g., "metadata").
	JobRepositoryDBRef string `yaml:"job_repository_db_ref"`
}

// PushConfig holds settings for the websocket progress push hub.
type PushConfig struct {
	// Enabled toggles the hub.
	Enabled bool `yaml:"enabled"`
	// ListenAddr is the address the hub's HTTP endpoint binds to.
	ListenAddr string `yaml:"listen_addr"`
}

// DarkroomConfig holds all configuration under the "darkroom" top-level key.
type DarkroomConfig struct {
	// Worker contains remote worker API settings.
	Worker WorkerConfig `yaml:"worker"`
	// Batch contains orchestration defaults.
	Batch BatchConfig `yaml:"batch"`
	// System contains system-wide configurations.
	System SystemConfig `yaml:"system"`
	// Infrastructure contains infrastructure-related configurations.
	Infrastructure InfrastructureConfig `yaml:"infrastructure"`
	// Push contains websocket progress push settings.
	Push PushConfig `yaml:"push"`
	// AdapterConfigs holds configurations for database connections, keyed by name.
	AdapterConfigs map[string]interface{} `yaml:"database"`
}

// Config is the root structure for the entire engine configuration.
type Config struct {
	// Darkroom contains the top-level configuration for the orchestration engine.
	Darkroom DarkroomConfig `yaml:"darkroom"`
	// EmbeddedConfig holds configuration loaded from an embedded source, not from YAML.
	EmbeddedConfig EmbeddedConfig `yaml:"-"`
}

// NewConfig returns a new instance of Config with default values.
func NewConfig() *Config {
	cfg := &Config{
		Darkroom: DarkroomConfig{
			Worker: WorkerConfig{
				SubmitPath:       "/api/tasks",
				StatusPathFormat: "/api/tasks/%s/status",
				ReconcilePath:    "/api/library/state",
				TimeoutSeconds:   30,
			},
			Batch: BatchConfig{
				JobName: "",
				// Sequential by default; callers opt in to concurrency.
				ConcurrencyLimit:   1,
				PollIntervalMs:     2000,
				MaxPollAttempts:    150,
				ProgressCapPercent: 95,
			},
			System: SystemConfig{
				Timezone: "UTC",
				Logging:  LoggingConfig{Level: "INFO"},
				Tracing: TracingConfig{
					Enabled:     false,
					ServiceName: "darkroom",
					Endpoint:    "localhost:4318",
					Protocol:    "http",
				},
			},
			Infrastructure: InfrastructureConfig{
				JobRepositoryDBRef: "metadata",
			},
			Push: PushConfig{
				Enabled:    false,
				ListenAddr: ":8750",
			},
		},
	}

	// Initialized as an empty map, to be populated by YAML or by mergeConfig.
	cfg.Darkroom.AdapterConfigs = map[string]interface{}{}
	return cfg
}
