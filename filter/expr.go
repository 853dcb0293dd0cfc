package filter

import (
	"errors"
	"fmt"
	"maps"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/file"
	"github.com/expr-lang/expr/vm"

	"github.com/s0up4200/tmdbfav/tmdb"
)

// DefaultCacheSize is the number of compiled expressions kept by CompileFilter
const DefaultCacheSize = 100

var defaultCompiler = NewExprCompiler(WithCache(DefaultCacheSize))

// CompileFilter compiles expression with the shared caching compiler
func CompileFilter(expression string) (CompiledFilter, error) {
	return defaultCompiler.Compile(expression)
}

// exprFilter implements CompiledFilter using the expr language
type exprFilter struct {
	expression string
	program    *vm.Program
	helpers    map[string]any
}

// ExprCompilerOption configures an expr compiler
type ExprCompilerOption func(*exprCompiler)

// WithCache enables filter caching with the specified size
func WithCache(size int) ExprCompilerOption {
	return func(c *exprCompiler) {
		if size > 0 {
			c.cache = newLRUCache[CompiledFilter](size)
		}
	}
}

// WithCustomFunctions adds custom helper functions
func WithCustomFunctions(funcs map[string]any) ExprCompilerOption {
	return func(c *exprCompiler) {
		maps.Copy(c.helperFuncs, funcs)
	}
}

// NewExprCompiler creates a new expr-based filter compiler
func NewExprCompiler(opts ...ExprCompilerOption) CachingCompiler {
	c := &exprCompiler{
		helperFuncs: createHelperFunctions(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// exprCompiler implements Compiler for expr-based filters
type exprCompiler struct {
	helperFuncs map[string]any
	cache       *lruCache[CompiledFilter]
}

// Compile compiles an expression into an executable filter
func (c *exprCompiler) Compile(expression string) (CompiledFilter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "empty expression",
			Position:   -1,
		}
	}

	if c.cache != nil {
		if cached, ok := c.cache.Get(expression); ok {
			return cached, nil
		}
	}

	// Typed sample environment so unknown names and type mismatches fail here
	program, err := expr.Compile(expression,
		expr.Env(c.compileEnvironment()),
		expr.AsBool(),
	)
	if err != nil {
		compErr := &CompilationError{
			Expression: expression,
			Reason:     "failed to compile expression",
			Position:   -1,
			Err:        err,
		}
		var fileErr *file.Error
		if errors.As(err, &fileErr) {
			compErr.Reason = fileErr.Message
			compErr.Position = fileErr.Column
		}
		return nil, compErr
	}

	filter := &exprFilter{
		expression: expression,
		program:    program,
		helpers:    c.helperFuncs,
	}

	if c.cache != nil {
		c.cache.Put(expression, filter)
	}

	return filter, nil
}

// Clear removes all cached filters
func (c *exprCompiler) Clear() {
	if c.cache != nil {
		c.cache.Clear()
	}
}

// Size returns the number of cached filters
func (c *exprCompiler) Size() int {
	if c.cache != nil {
		return c.cache.Size()
	}
	return 0
}

func (c *exprCompiler) compileEnvironment() map[string]any {
	env := createRuntimeEnvironment(tmdb.Movie{})
	maps.Copy(env, c.helperFuncs)
	return env
}

// Evaluate reports whether movie matches. Runtime errors count as no match.
func (f *exprFilter) Evaluate(movie tmdb.Movie) bool {
	ok, err := f.Match(movie)
	return err == nil && ok
}

// Match evaluates the filter against a movie
func (f *exprFilter) Match(movie tmdb.Movie) (bool, error) {
	env := createRuntimeEnvironment(movie)
	maps.Copy(env, f.helpers)

	result, err := expr.Run(f.program, env)
	if err != nil {
		return false, &EvaluationError{
			Expression: f.expression,
			MovieID:    movie.ID,
			Err:        err,
		}
	}

	// AsBool at compile time guarantees the type
	return result.(bool), nil
}

// Expression returns the original expression
func (f *exprFilter) Expression() string {
	return f.expression
}

func (f *exprFilter) String() string {
	return fmt.Sprintf("filter(%s)", f.expression)
}

func createHelperFunctions() map[string]any {
	funcs := make(map[string]any, 8)
	addHelperFunctions(funcs)
	return funcs
}

// addHelperFunctions adds the movie independent helpers to env.
// contains, startsWith and endsWith are expr operators and stay case sensitive;
// the has* helpers are their case insensitive counterparts.
func addHelperFunctions(env map[string]any) {
	env["hasText"] = func(str, substr string) bool {
		return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
	}
	env["hasPrefix"] = func(str, prefix string) bool {
		return strings.HasPrefix(strings.ToLower(str), strings.ToLower(prefix))
	}
	env["hasSuffix"] = func(str, suffix string) bool {
		return strings.HasSuffix(strings.ToLower(str), strings.ToLower(suffix))
	}
	env["lower"] = strings.ToLower
	env["upper"] = strings.ToUpper
}

// createRuntimeEnvironment creates the environment a filter is evaluated in
func createRuntimeEnvironment(movie tmdb.Movie) map[string]any {
	env := make(map[string]any, 12)

	env["Movie"] = movie
	env["Title"] = movie.Title
	env["ID"] = movie.ID
	env["PosterPath"] = movie.PosterPath

	env["hasPoster"] = func() bool {
		return movie.HasPoster()
	}

	return env
}
