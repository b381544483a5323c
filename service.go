package flystorage

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gobeaver/beaver-kit/config"
)

// Global instance
var (
	defaultStorage *FileStorage
	defaultOnce    sync.Once
	defaultErr     error
)

// Builder creates FileStorage instances from environment configuration with
// a custom environment prefix.
type Builder struct {
	prefix string
}

// WithEnvPrefix creates a Builder reading configuration under the given
// environment variable prefix.
func WithEnvPrefix(prefix string) *Builder {
	return &Builder{prefix: prefix}
}

// Init initializes the global FileStorage using the builder's prefix.
func (b *Builder) Init() error {
	cfg := &Config{}
	if err := config.Load(cfg, config.LoadOptions{Prefix: b.prefix}); err != nil {
		return err
	}
	return Init(cfg)
}

// New creates a FileStorage using the builder's prefix.
func (b *Builder) New() (*FileStorage, error) {
	cfg := &Config{}
	if err := config.Load(cfg, config.LoadOptions{Prefix: b.prefix}); err != nil {
		return nil, err
	}
	return New(cfg)
}

// Init initializes the global storage instance.
func Init(configs ...*Config) error {
	defaultOnce.Do(func() {
		var cfg *Config
		if len(configs) > 0 {
			cfg = configs[0]
		} else {
			cfg, defaultErr = GetConfig()
			if defaultErr != nil {
				return
			}
		}

		defaultStorage, defaultErr = New(cfg)
	})

	return defaultErr
}

// New creates a FileStorage with a given config: the configured driver is
// built through the factory registry and wrapped in a façade carrying the
// configured per-category defaults.
func New(cfg *Config) (*FileStorage, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	adapter, err := CreateDriver(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create driver: %w", err)
	}

	return NewFileStorage(adapter, storageOptionsFromConfig(cfg)...), nil
}

// validateConfig checks configuration validity.
func validateConfig(cfg *Config) error {
	if cfg.Driver == "" {
		return errors.New("driver is required")
	}
	switch cfg.VisibilityFallback {
	case "", "staged", "unsupported":
	default:
		return fmt.Errorf("unknown visibility fallback: %s", cfg.VisibilityFallback)
	}
	if cfg.OperationTimeoutMS < 0 {
		return errors.New("operation timeout must not be negative")
	}
	return nil
}

// storageOptionsFromConfig maps config defaults onto façade options.
func storageOptionsFromConfig(cfg *Config) []StorageOption {
	var opts []StorageOption

	var writeDefaults []Option
	if cfg.DefaultVisibility != "" {
		writeDefaults = append(writeDefaults, WithVisibility(Visibility(cfg.DefaultVisibility)))
	}
	if cfg.DefaultDirectoryVisibility != "" {
		writeDefaults = append(writeDefaults, WithDirectoryVisibility(Visibility(cfg.DefaultDirectoryVisibility)))
	}
	if cfg.DefaultCacheControl != "" {
		writeDefaults = append(writeDefaults, WithCacheControl(cfg.DefaultCacheControl))
	}
	if len(writeDefaults) > 0 {
		opts = append(opts, WithWriteDefaults(writeDefaults...))
	}

	if cfg.DefaultChecksumAlgo != "" {
		opts = append(opts, WithChecksumDefaults(WithChecksumAlgorithm(ChecksumAlgorithm(cfg.DefaultChecksumAlgo))))
	}

	if cfg.OperationTimeoutMS > 0 {
		opts = append(opts, WithOperationTimeout(time.Duration(cfg.OperationTimeoutMS)*time.Millisecond))
	}

	switch cfg.VisibilityFallback {
	case "staged":
		opts = append(opts, WithStagedVisibility(Visibility(cfg.StagedVisibility)))
	case "unsupported":
		opts = append(opts, WithUnsupportedVisibility())
	}

	return opts
}

// Storage returns the global storage instance.
func Storage() *FileStorage {
	if defaultStorage == nil {
		_ = Init()
	}
	return defaultStorage
}

// Default returns the global instance, initializing if needed with error
// handling.
func Default() (*FileStorage, error) {
	if defaultStorage == nil {
		if err := Init(); err != nil {
			return nil, err
		}
	}
	return defaultStorage, nil
}

// NewFromEnv creates an instance from environment variables.
func NewFromEnv() (*FileStorage, error) {
	cfg, err := GetConfig()
	if err != nil {
		return nil, err
	}
	return New(cfg)
}

// Reset clears the global instance (for testing).
func Reset() {
	defaultStorage = nil
	defaultOnce = sync.Once{}
	defaultErr = nil
}
