package flystorage

import (
	"fmt"
	"sync"
)

// DriverFactory creates a StorageAdapter from a config.
type DriverFactory func(cfg *Config) (StorageAdapter, error)

var (
	driverFactories = make(map[string]DriverFactory)
	factoryMutex    sync.RWMutex
)

// RegisterDriver registers a driver factory. Driver packages call this from
// init so that importing them is enough to make the driver available.
func RegisterDriver(name string, factory DriverFactory) {
	factoryMutex.Lock()
	defer factoryMutex.Unlock()
	driverFactories[name] = factory
}

// CreateDriver creates an adapter instance from config.
func CreateDriver(cfg *Config) (StorageAdapter, error) {
	factoryMutex.RLock()
	factory, exists := driverFactories[cfg.Driver]
	factoryMutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("driver %s not registered", cfg.Driver)
	}

	return factory(cfg)
}
