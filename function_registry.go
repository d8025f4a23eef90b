package opts

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

var (
	// ErrFunctionExists indicates a name was registered twice.
	ErrFunctionExists = errors.New("opts: function already registered")
	// ErrFunctionMissing indicates a call to an unregistered function.
	ErrFunctionMissing = errors.New("opts: function not registered")
	// ErrFunctionReserved indicates a name that expressions already use for a
	// builtin variable.
	ErrFunctionReserved = errors.New("opts: function name is reserved")
)

// reservedNames are the globals every evaluator defines for Expr defaults.
var reservedNames = []string{"args", "call", "metadata", "now", "scope"}

// Function is a helper callable from Expr defaults.
type Function func(args ...any) (any, error)

// FunctionRegistry maps lower-cased names to helpers for Expr defaults. It
// is safe for concurrent use, so one registry can serve every container a
// program builds.
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]Function
}

// NewFunctionRegistry constructs an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{functions: map[string]Function{}}
}

// Register adds fn under name. Names are matched case-insensitively; a
// repeated or reserved name is rejected.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	key := strings.ToLower(strings.TrimSpace(name))
	switch {
	case key == "":
		return fmt.Errorf("opts: function name must not be empty")
	case fn == nil:
		return fmt.Errorf("opts: function %q is nil", name)
	case slices.Contains(reservedNames, key):
		return fmt.Errorf("%w: %q", ErrFunctionReserved, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.functions[key]; exists {
		return fmt.Errorf("%w: %q", ErrFunctionExists, name)
	}
	if r.functions == nil {
		r.functions = map[string]Function{}
	}
	r.functions[key] = fn
	return nil
}

// Has reports whether name is registered.
func (r *FunctionRegistry) Has(name string) bool {
	return r.lookup(name) != nil
}

// Clone copies the registry so later registrations on r are not visible to
// the clone.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return &FunctionRegistry{functions: maps.Clone(r.functions)}
}

// Call runs the function registered for name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	fn := r.lookup(name)
	if fn == nil {
		return nil, fmt.Errorf("%w: %q", ErrFunctionMissing, name)
	}
	return fn(args...)
}

// Names returns the registered names, lower-cased and sorted.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.functions))
}

func (r *FunctionRegistry) lookup(name string) Function {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.functions[strings.ToLower(strings.TrimSpace(name))]
}

// WithFunctionRegistry makes the registry's functions available to Expr
// defaults. The registry is cloned, so later registrations are not seen.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(cfg *optionsConfig) {
		if registry == nil {
			return
		}
		cfg.functions = registry.Clone()
	}
}

// WithCustomFunction registers fn under name for Expr defaults. A duplicate
// or invalid registration makes New fail.
func WithCustomFunction(name string, fn Function) Option {
	return func(cfg *optionsConfig) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		if err := cfg.functions.Register(name, fn); err != nil {
			cfg.errs = append(cfg.errs, err)
		}
	}
}
