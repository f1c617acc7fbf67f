// Package config provides core configuration structures and utilities for the orchestration engine.
// This module defines Fx providers for configuration-related components.
package config

import "go.uber.org/fx"

// NewLoggingConfigProvider extracts and provides *LoggingConfig from *Config.
// This allows other Fx components to depend only on the logging configuration.
func NewLoggingConfigProvider(cfg *Config) *LoggingConfig {
	return &cfg.Darkroom.System.Logging
}

// NewBatchConfigProvider extracts and provides *BatchConfig from *Config.
func NewBatchConfigProvider(cfg *Config) *BatchConfig {
	return &cfg.Darkroom.Batch
}

// NewWorkerConfigProvider extracts and provides *WorkerConfig from *Config.
func NewWorkerConfigProvider(cfg *Config) *WorkerConfig {
	return &cfg.Darkroom.Worker
}

// Module provides configuration-related components to Fx.
// It includes providers for the main configuration, its commonly used
// sub-sections, and the EnvironmentExpander.
var Module = fx.Options(
	fx.Provide(NewConfigProvider),
	fx.Provide(NewLoggingConfigProvider),
	fx.Provide(NewBatchConfigProvider),
	fx.Provide(NewWorkerConfigProvider),
	// Provides an instance of EnvironmentExpander (specifically OsEnvironmentExpander)
	// as the EnvironmentExpander interface, making it available for dependency injection.
	fx.Provide(func() EnvironmentExpander {
		return NewOsEnvironmentExpander()
	}),
)
