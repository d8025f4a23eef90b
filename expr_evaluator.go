package opts

import (
	"fmt"
	"sort"
	"strings"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// ExprEvaluatorOption configures an expr evaluator instance.
type ExprEvaluatorOption func(*exprEvaluator)

// ExprWithProgramCache shares compiled programs across evaluations.
func ExprWithProgramCache(cache ProgramCache) ExprEvaluatorOption {
	return func(e *exprEvaluator) {
		e.cache = cache
	}
}

// ExprWithFunctionRegistry exposes registered functions by name and through
// call(name, args...).
func ExprWithFunctionRegistry(registry *FunctionRegistry) ExprEvaluatorOption {
	return func(e *exprEvaluator) {
		if registry != nil {
			e.registry = registry.Clone()
		}
	}
}

// exprEvaluator runs Expr defaults on github.com/expr-lang/expr. It is the
// engine a container falls back to when none is configured.
type exprEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewExprEvaluator constructs an Evaluator backed by expr-lang/expr.
func NewExprEvaluator(opts ...ExprEvaluatorOption) Evaluator {
	e := &exprEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Evaluate compiles expression against the names in ctx.Snapshot and runs
// it. A name that is not bound yet fails compilation.
func (e *exprEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	if expression == "" {
		return nil, wrapEvaluatorError("expr", fmt.Errorf("expression must not be empty"))
	}
	return e.run(ctx.withDefaults(), expression)
}

// Compile defers compilation to each evaluation, because the bound names
// are only known then.
func (e *exprEvaluator) Compile(expression string, _ ...CompileOption) (CompiledRule, error) {
	if expression == "" {
		return nil, wrapEvaluatorError("expr", fmt.Errorf("expression must not be empty"))
	}
	return exprCompiledRule{evaluator: e, expression: expression}, nil
}

func (e *exprEvaluator) run(ctx RuleContext, expression string) (any, error) {
	env := ruleGlobals(ctx, e.registry)
	program, err := e.program(expression, env)
	if err == nil {
		var out any
		if out, err = exprlang.Run(program, env); err == nil {
			return out, nil
		}
	}
	return nil, wrapEvaluationError("expr", expression, ctx.scopeLabel(), err)
}

func (e *exprEvaluator) program(expression string, env map[string]any) (*exprvm.Program, error) {
	key := exprCacheKey(expression, env)
	if e.cache != nil {
		if program, ok := cachedAs[*exprvm.Program](e.cache, key); ok {
			return program, nil
		}
	}
	program, err := exprlang.Compile(expression, exprlang.Env(env))
	if err != nil {
		return nil, err
	}
	if e.cache != nil {
		e.cache.Set(key, program)
	}
	return program, nil
}

// exprCacheKey includes every variable with its Go type, since the checker
// specialises a program on the environment it compiled against.
func exprCacheKey(expression string, env map[string]any) string {
	vars := make([]string, 0, len(env))
	for name, value := range env {
		vars = append(vars, fmt.Sprintf("%s:%T", name, value))
	}
	sort.Strings(vars)
	return "expr:" + strings.Join(vars, ",") + ":" + expression
}

type exprCompiledRule struct {
	evaluator  *exprEvaluator
	expression string
}

func (r exprCompiledRule) Evaluate(ctx RuleContext) (any, error) {
	return r.evaluator.Evaluate(ctx, r.expression)
}
