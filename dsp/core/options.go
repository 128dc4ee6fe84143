package core

import "go.uber.org/zap"

// ProcessorConfig holds settings shared by every processing stage.
type ProcessorConfig struct {
	Logger *zap.Logger
}

// ProcessorOption mutates a ProcessorConfig.
type ProcessorOption func(*ProcessorConfig)

// DefaultProcessorConfig returns a config that discards diagnostics.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		Logger: zap.NewNop(),
	}
}

// WithLogger routes diagnostics (dropped windows, skipped bins, degenerate
// segments) to logger. A nil logger is ignored.
func WithLogger(logger *zap.Logger) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if logger != nil {
			cfg.Logger = logger
		}
	}
}

// ApplyProcessorOptions applies zero or more options to the default config.
func ApplyProcessorOptions(opts ...ProcessorOption) ProcessorConfig {
	cfg := DefaultProcessorConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
