package filter

import "github.com/s0up4200/tmdbfav/tmdb"

// Filter defines the basic interface for movie filters
type Filter interface {
	// Evaluate checks if a movie matches the filter criteria
	Evaluate(movie tmdb.Movie) bool
}

// CompiledFilter represents a pre-compiled filter ready for evaluation
type CompiledFilter interface {
	Filter

	// Match is Evaluate with the runtime error surfaced
	Match(movie tmdb.Movie) (bool, error)

	// Expression returns the original filter expression
	Expression() string
}

// Compiler compiles filter expressions into executable filters
type Compiler interface {
	// Compile parses and compiles a filter expression
	Compile(expression string) (CompiledFilter, error)
}

// CachingCompiler provides caching for compiled filters
type CachingCompiler interface {
	Compiler

	// Clear removes all cached filters
	Clear()

	// Size returns the number of cached filters
	Size() int
}

// Keep adapts f to the keep callback taken by tmdb.Operations.ListFavorites.
// A nil filter keeps every movie.
func Keep(f Filter) func(tmdb.Movie) bool {
	if f == nil {
		return nil
	}
	return f.Evaluate
}
