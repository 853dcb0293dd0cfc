package filter

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/s0up4200/tmdbfav/tmdb"
)

// Manager holds named filters compiled from configuration
type Manager struct {
	compiler Compiler
	filters  map[string]CompiledFilter
	mu       sync.RWMutex
}

// ManagerOption configures a filter manager
type ManagerOption func(*Manager)

// WithCompiler sets a custom compiler
func WithCompiler(compiler Compiler) ManagerOption {
	return func(m *Manager) {
		m.compiler = compiler
	}
}

// NewManager creates a new filter manager
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		compiler: NewExprCompiler(WithCache(DefaultCacheSize)),
		filters:  make(map[string]CompiledFilter),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// RegisterFilter registers a new filter or updates an existing one
func (m *Manager) RegisterFilter(name, expression string) error {
	filter, err := m.compiler.Compile(expression)
	if err != nil {
		return fmt.Errorf("failed to compile filter '%s': %w", name, err)
	}

	m.mu.Lock()
	m.filters[name] = filter
	m.mu.Unlock()

	return nil
}

// RegisterFilters registers multiple filters at once. Nothing is registered if any fails to compile.
func (m *Manager) RegisterFilters(filters map[string]string) error {
	compiled := make(map[string]CompiledFilter, len(filters))

	// Sorted so the reported error is deterministic
	for _, name := range slices.Sorted(maps.Keys(filters)) {
		filter, err := m.compiler.Compile(filters[name])
		if err != nil {
			return fmt.Errorf("failed to compile filter '%s': %w", name, err)
		}
		compiled[name] = filter
	}

	m.mu.Lock()
	maps.Copy(m.filters, compiled)
	m.mu.Unlock()

	return nil
}

// UnregisterFilter removes a filter
func (m *Manager) UnregisterFilter(name string) {
	m.mu.Lock()
	delete(m.filters, name)
	m.mu.Unlock()
}

// GetFilter returns a compiled filter by name
func (m *Manager) GetFilter(name string) (CompiledFilter, bool) {
	m.mu.RLock()
	filter, exists := m.filters[name]
	m.mu.RUnlock()
	return filter, exists
}

// ListFilters returns all registered filter names, sorted
func (m *Manager) ListFilters() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Sorted(maps.Keys(m.filters))
}

// Resolve returns the named filter when name is set, otherwise compiles expression.
// Both empty means no filter.
func (m *Manager) Resolve(name, expression string) (CompiledFilter, error) {
	switch {
	case name != "" && expression != "":
		return nil, fmt.Errorf("use either a saved filter or an expression, not both")
	case name != "":
		filter, ok := m.GetFilter(name)
		if !ok {
			return nil, fmt.Errorf("filter '%s' not found", name)
		}
		return filter, nil
	case expression != "":
		return m.compiler.Compile(expression)
	default:
		return nil, nil
	}
}

// Apply returns the movies matched by the named filter, in their original order
func (m *Manager) Apply(name string, movies []tmdb.Movie) ([]tmdb.Movie, error) {
	filter, exists := m.GetFilter(name)
	if !exists {
		return nil, fmt.Errorf("filter '%s' not found", name)
	}

	matches := make([]tmdb.Movie, 0, len(movies))
	for _, movie := range movies {
		if filter.Evaluate(movie) {
			matches = append(matches, movie)
		}
	}
	return matches, nil
}
