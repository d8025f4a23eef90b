package opts

import (
	"errors"
	"fmt"
	"time"
)

var ErrNoEvaluator = errors.New("opts: evaluator not configured")

// evaluate runs expr against ctx with the container's evaluator, logging the
// attempt. A nil container uses a throwaway expr evaluator.
func (c *Container) evaluate(ctx RuleContext, expr string) (any, error) {
	if expr == "" {
		return nil, fmt.Errorf("opts: expression must not be empty")
	}
	evaluator, err := c.resolveEvaluator()
	if err != nil {
		return nil, err
	}
	ctx = ctx.withDefaults()
	engine := evaluatorEngineName(evaluator)
	start := time.Now()
	value, evalErr := evaluator.Evaluate(ctx, expr)
	duration := time.Since(start)
	evalErr = wrapEvaluationError(engine, expr, ctx.scopeLabel(), evalErr)
	c.evaluatorLogger().LogEvaluation(EvaluatorLogEvent{
		Engine:   engine,
		Expr:     expr,
		Scope:    ctx.scopeLabel(),
		Duration: duration,
		Err:      evalErr,
	})
	if evalErr != nil {
		return nil, evalErr
	}
	return value, nil
}

func (c *Container) resolveEvaluator() (Evaluator, error) {
	if evaluator := c.evaluator(); evaluator != nil {
		return evaluator, nil
	}
	var exprOpts []ExprEvaluatorOption
	if cache := c.programCache(); cache != nil {
		exprOpts = append(exprOpts, ExprWithProgramCache(cache))
	}
	if registry := c.functionRegistry(); registry != nil {
		exprOpts = append(exprOpts, ExprWithFunctionRegistry(registry))
	}
	defaultEvaluator := NewExprEvaluator(exprOpts...)
	if defaultEvaluator == nil {
		return nil, ErrNoEvaluator
	}
	c.withEvaluator(defaultEvaluator)
	return defaultEvaluator, nil
}

func evaluatorEngineName(e Evaluator) string {
	switch e.(type) {
	case nil:
		return "unknown"
	case *exprEvaluator:
		return "expr"
	case *celEvaluator:
		return "cel"
	default:
		if name := fmt.Sprintf("%T", e); name == "*opts.jsEvaluator" {
			return "js"
		}
		return "custom"
	}
}

// ruleGlobals is the variable set an Expr default sees: the builtins, the
// registry's functions by name and through call, then the bound names, which
// shadow anything before them.
func ruleGlobals(ctx RuleContext, registry *FunctionRegistry) map[string]any {
	snapshot := snapshotAsMap(ctx.Snapshot)
	globals := make(map[string]any, len(reservedNames)+len(snapshot))
	globals["now"] = ctx.timestamp()
	globals["args"] = ctx.Args
	globals["metadata"] = ctx.Metadata
	globals["scope"] = ctx.Scope
	if registry != nil {
		globals["call"] = func(name string, arguments ...any) (any, error) {
			return registry.Call(name, arguments...)
		}
		for _, name := range registry.Names() {
			globals[name] = func(arguments ...any) (any, error) {
				return registry.Call(name, arguments...)
			}
		}
	}
	for name, value := range snapshot {
		globals[name] = value
	}
	return globals
}

func snapshotAsMap(value any) map[string]any {
	if m, ok := value.(map[string]any); ok && m != nil {
		return m
	}
	return map[string]any{}
}
