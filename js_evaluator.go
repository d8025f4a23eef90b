//go:build js_eval

package opts

import (
	"fmt"
	"time"

	"github.com/dop251/goja"
)

type jsEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
	timeout  time.Duration
}

// NewJSEvaluator constructs an Evaluator backed by goja.
func NewJSEvaluator(opts ...JSEvaluatorOption) Evaluator {
	cfg := applyJSEvaluatorOptions(opts)
	return &jsEvaluator{
		cache:    cfg.cache,
		registry: cfg.registry,
		timeout:  cfg.timeout,
	}
}

func (e *jsEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	if expression == "" {
		return nil, wrapEvaluatorError("js", fmt.Errorf("expression must not be empty"))
	}
	ctx = ctx.withDefaults()
	if e.cache == nil {
		return e.run(ctx, expression, nil)
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, wrapEvaluationError("js", expression, ctx.scopeLabel(), err)
	}
	return e.run(ctx, expression, program)
}

func (e *jsEvaluator) Compile(expression string, _ ...CompileOption) (CompiledRule, error) {
	if expression == "" {
		return nil, wrapEvaluatorError("js", fmt.Errorf("expression must not be empty"))
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, wrapEvaluationError("js", expression, "", err)
	}
	return &jsCompiledRule{
		evaluator:  e,
		expression: expression,
		program:    program,
	}, nil
}

func (e *jsEvaluator) loadOrCompile(expression string) (*goja.Program, error) {
	key := "js:" + expression
	if e.cache != nil {
		if program, ok := cachedAs[*goja.Program](e.cache, key); ok {
			return program, nil
		}
	}
	program, err := goja.Compile("default", wrapJSExpression(expression), true)
	if err != nil {
		return nil, err
	}
	if e.cache != nil {
		e.cache.Set(key, program)
	}
	return program, nil
}

// run uses a fresh runtime per evaluation; bound names become globals.
func (e *jsEvaluator) run(ctx RuleContext, expression string, program *goja.Program) (any, error) {
	vm := goja.New()
	if err := e.injectContext(vm, ctx); err != nil {
		return nil, wrapEvaluationError("js", expression, ctx.scopeLabel(), err)
	}
	if e.timeout > 0 {
		timer := time.AfterFunc(e.timeout, func() {
			vm.Interrupt(fmt.Sprintf("default expression exceeded %s", e.timeout))
		})
		defer timer.Stop()
	}
	var (
		value goja.Value
		err   error
	)
	if program != nil {
		value, err = vm.RunProgram(program)
	} else {
		value, err = vm.RunString(wrapJSExpression(expression))
	}
	if err != nil {
		return nil, wrapEvaluationError("js", expression, ctx.scopeLabel(), err)
	}
	return value.Export(), nil
}

func (e *jsEvaluator) injectContext(vm *goja.Runtime, ctx RuleContext) error {
	for name, value := range ruleGlobals(ctx, e.registry) {
		if err := vm.Set(name, value); err != nil {
			return fmt.Errorf("bind %q: %w", name, err)
		}
	}
	return nil
}

func wrapJSExpression(expression string) string {
	return fmt.Sprintf("(function(){ return (%s); })()", expression)
}

type jsCompiledRule struct {
	evaluator  *jsEvaluator
	expression string
	program    *goja.Program
}

func (r *jsCompiledRule) Evaluate(ctx RuleContext) (any, error) {
	if r.evaluator == nil {
		return nil, wrapEvaluatorError("js", fmt.Errorf("compiled rule missing evaluator"))
	}
	ctx = ctx.withDefaults()
	return r.evaluator.run(ctx, r.expression, r.program)
}

func jsEvaluatorAvailable() bool {
	return true
}
