package backend

import (
	"fmt"
	"slices"
	"sync"
)

// Factory opens a new device instance.
type Factory func(cfg Config) (Device, error)

// registry holds registered backends.
var (
	registryMu sync.RWMutex
	backends   = make(map[string]Factory)
	// Priority order for backend selection (first available wins).
	// Native > Software (Software is the fallback).
	backendPriority = []string{Native, Software}
)

// Register registers a backend factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it will be replaced.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// Available returns the sorted names of registered backends.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := backends[name]
	return ok
}

// Open opens a device from the named backend.
func Open(name string, cfg Config) (Device, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %dx%d", err, cfg.Width, cfg.Height)
	}

	registryMu.RLock()
	factory, ok := backends[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBackendNotAvailable, name)
	}
	return factory(cfg)
}

// OpenDefault opens the best available backend based on priority.
// A backend whose factory fails is skipped. The error of the last
// failure is returned when no backend opens.
func OpenDefault(cfg Config) (Device, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %dx%d", err, cfg.Width, cfg.Height)
	}

	registryMu.RLock()
	order := make([]Factory, 0, len(backends))
	for _, name := range backendPriority {
		if f, ok := backends[name]; ok {
			order = append(order, f)
		}
	}
	// Fallback: remaining backends in name order.
	rest := make([]string, 0, len(backends))
	for name := range backends {
		if !slices.Contains(backendPriority, name) {
			rest = append(rest, name)
		}
	}
	slices.Sort(rest)
	for _, name := range rest {
		order = append(order, backends[name])
	}
	registryMu.RUnlock()

	lastErr := ErrBackendNotAvailable
	for _, factory := range order {
		dev, err := factory(cfg)
		if err == nil && dev != nil {
			return dev, nil
		}
		if err != nil {
			lastErr = err
		}
	}
	return nil, lastErr
}
