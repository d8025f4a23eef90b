package opts

import (
	"context"
	"errors"
	"sync"
	"testing"
)

var evaluatorFactories = []struct {
	name string
	new  func(cache ProgramCache, registry *FunctionRegistry) Evaluator
}{
	{
		name: "expr",
		new: func(cache ProgramCache, registry *FunctionRegistry) Evaluator {
			opts := []ExprEvaluatorOption{}
			if cache != nil {
				opts = append(opts, ExprWithProgramCache(cache))
			}
			if registry != nil {
				opts = append(opts, ExprWithFunctionRegistry(registry))
			}
			return NewExprEvaluator(opts...)
		},
	},
	{
		name: "cel",
		new: func(cache ProgramCache, registry *FunctionRegistry) Evaluator {
			opts := []CELEvaluatorOption{}
			if cache != nil {
				opts = append(opts, CELWithProgramCache(cache))
			}
			if registry != nil {
				opts = append(opts, CELWithFunctionRegistry(registry))
			}
			return NewCELEvaluator(opts...)
		},
	},
	{
		name: "js",
		new: func(cache ProgramCache, registry *FunctionRegistry) Evaluator {
			opts := []JSEvaluatorOption{}
			if cache != nil {
				opts = append(opts, JSWithProgramCache(cache))
			}
			if registry != nil {
				opts = append(opts, JSWithFunctionRegistry(registry))
			}
			return NewJSEvaluator(opts...)
		},
	},
}

type fakeProgramCache struct {
	mu       sync.Mutex
	programs map[string]any
	hits     int
	misses   int
}

func (c *fakeProgramCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.programs[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return value, ok
}

func (c *fakeProgramCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.programs == nil {
		c.programs = make(map[string]any)
	}
	c.programs[key] = value
}

func toInt64(t *testing.T, value any) int64 {
	t.Helper()
	switch v := value.(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	default:
		t.Fatalf("expected numeric value, got %T", value)
		return 0
	}
}

func TestExprDefaultsAcrossEvaluators(t *testing.T) {
	for _, factory := range evaluatorFactories {
		factory := factory
		t.Run(factory.name, func(t *testing.T) {
			c, err := Build([]Entry{KV("base", 4)}, WithEvaluator(factory.new(nil, nil)))
			if err != nil {
				t.Fatalf("build: %v", err)
			}
			vals, err := Bind(c,
				Decl("base", Value(1)),
				Decl("area", Expr("base * base")),
			)
			if err != nil {
				t.Fatalf("bind: %v", err)
			}
			if got := toInt64(t, vals.Value("area")); got != 16 {
				t.Fatalf("expected area 16, got %d", got)
			}
			if err := Check(c); err != nil {
				t.Fatalf("expected clean audit, got %v", err)
			}
		})
	}
}

func TestExprDefaultsReuseCachedPrograms(t *testing.T) {
	for _, factory := range evaluatorFactories {
		factory := factory
		t.Run(factory.name, func(t *testing.T) {
			cache := &fakeProgramCache{}
			c, err := Build(nil,
				WithEvaluator(factory.new(cache, nil)),
				WithProgramCache(cache),
			)
			if err != nil {
				t.Fatalf("build: %v", err)
			}
			for i := 0; i < 3; i++ {
				if _, err := Bind(c, Decl("x", Value(2)), Decl("y", Expr("x * 3"))); err != nil {
					t.Fatalf("unexpected error on iteration %d: %v", i, err)
				}
			}
			if cache.misses != 1 {
				t.Fatalf("cache misses mismatch, expected 1, got %d", cache.misses)
			}
			if cache.hits != 2 {
				t.Fatalf("cache hits mismatch, expected 2, got %d", cache.hits)
			}
		})
	}
}

func TestExprDefaultsCallRegisteredFunctions(t *testing.T) {
	registry := NewFunctionRegistry()
	if err := registry.Register("double", func(args ...any) (any, error) {
		if len(args) != 1 {
			return nil, errors.New("double expects one argument")
		}
		switch v := args[0].(type) {
		case int:
			return v * 2, nil
		case int64:
			return v * 2, nil
		case float64:
			return v * 2, nil
		default:
			return nil, errors.New("double expects a number")
		}
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	// CEL only exposes registered functions through call(name, [args]).
	expressions := map[string]string{
		"expr": `double(n)`,
		"cel":  `call("double", [n])`,
		"js":   `call("double", n)`,
	}
	for _, factory := range evaluatorFactories {
		factory := factory
		t.Run(factory.name, func(t *testing.T) {
			c, err := Build(nil,
				WithEvaluator(factory.new(nil, registry)),
				WithFunctionRegistry(registry),
			)
			if err != nil {
				t.Fatalf("build: %v", err)
			}
			expression := expressions[factory.name]
			if !jsEvaluatorAvailable() && factory.name == "js" {
				// falls back to the expr engine
				expression = expressions["expr"]
			}
			vals, err := Bind(c,
				Decl("n", Value(21)),
				Decl("twice", Expr(expression)),
			)
			if err != nil {
				t.Fatalf("bind: %v", err)
			}
			if got := toInt64(t, vals.Value("twice")); got != 42 {
				t.Fatalf("expected 42, got %d", got)
			}
		})
	}
}

func TestExprDefaultsSeeScope(t *testing.T) {
	for _, factory := range evaluatorFactories {
		factory := factory
		t.Run(factory.name, func(t *testing.T) {
			c, err := Build(nil, WithEvaluator(factory.new(nil, nil)))
			if err != nil {
				t.Fatalf("build: %v", err)
			}
			vals, err := c.Frame(context.Background(), "render").Bind(Decl("label", Expr(`scope + "!"`)))
			if err != nil {
				t.Fatalf("bind: %v", err)
			}
			if vals.Value("label") != "render!" {
				t.Fatalf("expected scope in expression, got %v", vals.Value("label"))
			}
		})
	}
}

func TestCompiledRulesEvaluateAgainstContext(t *testing.T) {
	for _, factory := range evaluatorFactories {
		factory := factory
		t.Run(factory.name, func(t *testing.T) {
			evaluator := factory.new(nil, nil)
			if evaluator == nil {
				if jsEvaluatorAvailable() {
					t.Fatalf("expected evaluator when js_eval is enabled")
				}
				t.Skip("js evaluator requires the js_eval build tag")
			}
			rule, err := evaluator.Compile("w + 1")
			if err != nil {
				t.Fatalf("compile: %v", err)
			}
			for _, w := range []int{1, 41} {
				got, err := rule.Evaluate(RuleContext{Snapshot: map[string]any{"w": w}})
				if err != nil {
					t.Fatalf("evaluate: %v", err)
				}
				if toInt64(t, got) != int64(w+1) {
					t.Fatalf("expected %d, got %v", w+1, got)
				}
			}
			if _, err := evaluator.Compile(""); err == nil {
				t.Fatalf("expected empty expression to fail")
			}
		})
	}
}

func TestEmptyExprDefaultFails(t *testing.T) {
	_, err := Bind(nil, Decl("x", Expr("")))
	if err == nil {
		t.Fatalf("expected error for empty expression")
	}
	var defErr *DefaultError
	if !errors.As(err, &defErr) || defErr.Name != "x" {
		t.Fatalf("expected DefaultError for x, got %v", err)
	}
}
