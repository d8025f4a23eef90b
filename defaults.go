package opts

import (
	"errors"
	"fmt"
)

var (
	// ErrBindingMissing indicates Lookup asked for a name that is not bound.
	ErrBindingMissing = errors.New("opts: name not bound")
	// ErrBindingType indicates Lookup found a value of another type.
	ErrBindingType = errors.New("opts: bound value has unexpected type")
)

// Default computes the value of a declared name when the container does not
// hold it. It only sees names declared before it in the same Bind call.
type Default func(*Bindings) (any, error)

// Declaration pairs a name with its default.
type Declaration struct {
	Name    string
	Default Default
}

// Decl declares name with fallback. A nil fallback binds nil.
func Decl(name string, fallback Default) Declaration {
	return Declaration{Name: name, Default: fallback}
}

// Value returns a Default that always yields v.
func Value(v any) Default {
	return func(*Bindings) (any, error) {
		return v, nil
	}
}

// Func adapts a plain function to a Default.
func Func(fn func(*Bindings) (any, error)) Default {
	return Default(fn)
}

// Expr returns a Default evaluated by the container's Evaluator, with the
// names bound so far as variables. Expr("2*a + 1") reads the value bound for
// a earlier in the same declaration list.
func Expr(expression string) Default {
	return func(b *Bindings) (any, error) {
		return b.evaluate(expression)
	}
}

// Bindings holds the values bound by one Bind call, in declaration order.
type Bindings struct {
	names     []string
	values    map[string]any
	container *Container
	scope     string
}

func newBindings(c *Container, scope string, capacity int) *Bindings {
	return &Bindings{
		names:     make([]string, 0, capacity),
		values:    make(map[string]any, capacity),
		container: c,
		scope:     scope,
	}
}

func (b *Bindings) bind(name string, value any) {
	if _, exists := b.values[name]; !exists {
		b.names = append(b.names, name)
	}
	b.values[name] = value
}

// Get returns the value bound for name.
func (b *Bindings) Get(name string) (any, bool) {
	if b == nil {
		return nil, false
	}
	value, ok := b.values[name]
	return value, ok
}

// Value returns the value bound for name or nil.
func (b *Bindings) Value(name string) any {
	value, _ := b.Get(name)
	return value
}

// Names returns the bound names in declaration order.
func (b *Bindings) Names() []string {
	if b == nil || len(b.names) == 0 {
		return nil
	}
	return append([]string(nil), b.names...)
}

// Len returns the number of bound names.
func (b *Bindings) Len() int {
	if b == nil {
		return 0
	}
	return len(b.names)
}

// Map returns a copy of the bound values.
func (b *Bindings) Map() map[string]any {
	out := make(map[string]any, b.Len())
	if b == nil {
		return out
	}
	for name, value := range b.values {
		out[name] = value
	}
	return out
}

// Scope returns the frame name the bindings were resolved in.
func (b *Bindings) Scope() string {
	if b == nil {
		return ""
	}
	return b.scope
}

func (b *Bindings) evaluate(expression string) (any, error) {
	return b.container.evaluate(RuleContext{Snapshot: b.Map(), Scope: b.scope}, expression)
}

// Lookup returns the value bound for name as T.
func Lookup[T any](b *Bindings, name string) (T, error) {
	var zero T
	value, ok := b.Get(name)
	if !ok {
		return zero, fmt.Errorf("%w: %q", ErrBindingMissing, name)
	}
	typed, ok := value.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %q is %T, want %T", ErrBindingType, name, value, zero)
	}
	return typed, nil
}

// Bind resolves decls against c in order. A name present in c takes the
// stored value and is marked used and claimed; any other name takes its
// default and leaves c untouched. A nil c binds every default.
func Bind(c *Container, decls ...Declaration) (*Bindings, error) {
	return bind(c, "", decls)
}

func bind(c *Container, scope string, decls []Declaration) (*Bindings, error) {
	bindings := newBindings(c, scope, len(decls))
	for _, decl := range decls {
		value, err := resolve(c, bindings, decl)
		if err != nil {
			return nil, err
		}
		bindings.bind(decl.Name, value)
	}
	return bindings, nil
}

func resolve(c *Container, bindings *Bindings, decl Declaration) (any, error) {
	if c.Has(decl.Name) {
		value, err := c.Raw(decl.Name)
		if err != nil {
			return nil, err
		}
		if err := c.MarkUsed(decl.Name); err != nil {
			return nil, err
		}
		if err := c.MarkClaimed(decl.Name); err != nil {
			return nil, err
		}
		return value, nil
	}
	if decl.Default == nil {
		return nil, nil
	}
	value, err := decl.Default(bindings)
	if err != nil {
		return nil, &DefaultError{Name: decl.Name, Scope: bindings.scope, Err: err}
	}
	return value, nil
}
