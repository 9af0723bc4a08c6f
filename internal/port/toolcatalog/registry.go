package toolcatalog

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Strob0t/Warden/internal/domain/capability"
)

// Factory constructs a fresh implementation of a builtin capability.
type Factory func() capability.Func

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

// Register makes a builtin capability factory available by name.
// It is typically called from an init() function in the tool package.
func Register(name string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := factories[name]; exists {
		panic(fmt.Sprintf("toolcatalog: duplicate registration for %q", name))
	}
	factories[name] = factory
}

// BuiltinNames returns the names of all registered builtin capabilities.
func BuiltinNames() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builtins is a Loader over the registered builtin factories.
type Builtins struct{}

// Load materializes the builtin capability registered under name.
func (Builtins) Load(name string) (capability.Func, bool) {
	mu.RLock()
	factory, ok := factories[name]
	mu.RUnlock()

	if !ok {
		return nil, false
	}
	return factory(), true
}
