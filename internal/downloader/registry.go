package downloader

import (
	"fmt"
	"sort"
	"sync"

	"github.com/arroyo-downloader/arroyo/internal/config"
)

// Factory builds a backend from settings.
type Factory func(settings *config.Settings) (Downloader, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a backend available under name. It is called from the
// backend package's init.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[name]; exists {
		// Developer error during setup.
		panic(fmt.Sprintf("downloader backend '%s' is already registered", name))
	}
	registry[name] = f
}

// New builds the backend registered under name.
func New(name string, settings *config.Settings) (Downloader, error) {
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownBackend, name, Names())
	}
	if settings == nil {
		settings = config.DefaultSettings()
	}
	d, err := f(settings)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise %s backend: %w", name, err)
	}
	return d, nil
}

// Names returns the registered backend names, sorted.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
