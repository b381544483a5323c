package memory

import (
	"github.com/duna-oss/flystorage"
)

func init() {
	flystorage.RegisterDriver("memory", func(cfg *flystorage.Config) (flystorage.StorageAdapter, error) {
		return New(Config{
			MaxSize:            cfg.MemoryMaxSize,
			Prefix:             cfg.Prefix,
			PublicURLBase:      cfg.PublicURLBase,
			TemporaryURLSecret: cfg.TemporaryURLSecret,
			DefaultVisibility:  flystorage.Visibility(cfg.DefaultVisibility),
		}), nil
	})
}
