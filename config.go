package flystorage

import (
	"github.com/gobeaver/beaver-kit/config"
)

// Config is the environment-driven configuration for building a storage
// instance. Driver specific sections are read by the matching driver
// factory; the defaults section feeds the façade's per-category option
// defaults.
type Config struct {
	// Driver selects the registered backend (memory, ...).
	Driver string `env:"FLYSTORAGE_DRIVER,default:memory"`

	// Prefix roots every path inside the backend namespace.
	Prefix string `env:"FLYSTORAGE_PREFIX"`

	// Memory driver configuration.
	MemoryMaxSize int64 `env:"FLYSTORAGE_MEMORY_MAX_SIZE,default:0"`

	// PublicURLBase is the base URL public URLs are joined onto.
	PublicURLBase string `env:"FLYSTORAGE_PUBLIC_URL_BASE"`

	// TemporaryURLSecret signs temporary URLs on drivers without native
	// signing support.
	TemporaryURLSecret string `env:"FLYSTORAGE_TEMPORARY_URL_SECRET"`

	// Default operation options.
	DefaultVisibility          string `env:"FLYSTORAGE_DEFAULT_VISIBILITY"`
	DefaultDirectoryVisibility string `env:"FLYSTORAGE_DEFAULT_DIRECTORY_VISIBILITY"`
	DefaultCacheControl        string `env:"FLYSTORAGE_DEFAULT_CACHE_CONTROL"`
	DefaultChecksumAlgo        string `env:"FLYSTORAGE_DEFAULT_CHECKSUM_ALGO"`

	// OperationTimeoutMS bounds every operation in milliseconds. Zero means
	// no deadline beyond the caller's context.
	OperationTimeoutMS int64 `env:"FLYSTORAGE_OPERATION_TIMEOUT_MS,default:0"`

	// Visibility fallback for backends with no permission concept:
	// "" (native), "staged" (return StagedVisibility without calling the
	// backend) or "unsupported" (fail without calling the backend).
	VisibilityFallback string `env:"FLYSTORAGE_VISIBILITY_FALLBACK"`
	StagedVisibility   string `env:"FLYSTORAGE_STAGED_VISIBILITY,default:public"`
}

// GetConfig returns config loaded from environment.
func GetConfig() (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
