package strategy

import (
	"sort"
	"sync"

	"github.com/yourusername/alphalab/internal/models"
)

var (
	registryMu sync.RWMutex
	registry   = map[string]func() Strategy{}
)

// Register adds a strategy constructor under its name. Called from init()
// in each strategy file; duplicate names are a programming defect.
func Register(name string, constructor func() Strategy) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[name]; exists {
		panic("strategy already registered: " + name)
	}
	registry[name] = constructor
}

// Resolve returns a fresh strategy instance by name.
func Resolve(name string) (Strategy, error) {
	registryMu.RLock()
	constructor, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, models.NewStrategyError("unknown strategy %q (registered: %v)", name, Names())
	}
	return constructor(), nil
}

// Names lists registered strategy names in sorted order.
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
