package opts

import (
	"fmt"
	"sort"
	"strings"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
)

// CELEvaluatorOption configures the CEL evaluator.
type CELEvaluatorOption func(*celEvaluator)

// CELWithProgramCache shares checked programs across evaluations.
func CELWithProgramCache(cache ProgramCache) CELEvaluatorOption {
	return func(e *celEvaluator) {
		e.cache = cache
	}
}

// CELWithFunctionRegistry exposes registered functions through
// call(name, [args]).
func CELWithFunctionRegistry(registry *FunctionRegistry) CELEvaluatorOption {
	return func(e *celEvaluator) {
		if registry != nil {
			e.registry = registry.Clone()
		}
	}
}

// celBuiltins are declared unless a bound name shadows them.
var celBuiltins = map[string]*celgo.Type{
	"now":      celgo.TimestampType,
	"args":     celgo.DynType,
	"metadata": celgo.DynType,
	"scope":    celgo.StringType,
}

// celEvaluator type-checks every expression, so a default that references a
// name not yet bound fails at compile time instead of yielding null.
type celEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewCELEvaluator constructs an Evaluator backed by cel-go. Bound names are
// declared as dyn; integer results come back as int64.
func NewCELEvaluator(opts ...CELEvaluatorOption) Evaluator {
	e := &celEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *celEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	if expression == "" {
		return nil, wrapEvaluatorError("cel", fmt.Errorf("expression must not be empty"))
	}
	return e.run(ctx.withDefaults(), expression)
}

// Compile defers checking to each evaluation, because the declared
// variables depend on the names bound at that point.
func (e *celEvaluator) Compile(expression string, _ ...CompileOption) (CompiledRule, error) {
	if expression == "" {
		return nil, wrapEvaluatorError("cel", fmt.Errorf("expression must not be empty"))
	}
	return celCompiledRule{evaluator: e, expression: expression}, nil
}

func (e *celEvaluator) run(ctx RuleContext, expression string) (any, error) {
	bound := snapshotAsMap(ctx.Snapshot)
	program, err := e.program(expression, bound)
	if err == nil {
		var out ref.Val
		if out, _, err = program.Eval(ruleGlobals(ctx, nil)); err == nil {
			return out.Value(), nil
		}
	}
	return nil, wrapEvaluationError("cel", expression, ctx.scopeLabel(), err)
}

func (e *celEvaluator) program(expression string, bound map[string]any) (celgo.Program, error) {
	key := celCacheKey(expression, bound)
	if e.cache != nil {
		if program, ok := cachedAs[celgo.Program](e.cache, key); ok {
			return program, nil
		}
	}
	env, err := e.env(bound)
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expression)
	if err := issues.Err(); err != nil {
		return nil, err
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, err
	}
	if e.cache != nil {
		e.cache.Set(key, program)
	}
	return program, nil
}

// celCacheKey includes the bound names, since they decide which variables
// the checked program declares.
func celCacheKey(expression string, bound map[string]any) string {
	names := make([]string, 0, len(bound))
	for name := range bound {
		names = append(names, name)
	}
	sort.Strings(names)
	return "cel:" + strings.Join(names, ",") + ":" + expression
}

func (e *celEvaluator) env(bound map[string]any) (*celgo.Env, error) {
	opts := make([]celgo.EnvOption, 0, len(celBuiltins)+len(bound)+1)
	for name, kind := range celBuiltins {
		if _, shadowed := bound[name]; !shadowed {
			opts = append(opts, celgo.Variable(name, kind))
		}
	}
	for name := range bound {
		opts = append(opts, celgo.Variable(name, celgo.DynType))
	}
	if e.registry != nil {
		opts = append(opts, celgo.Function("call",
			celgo.Overload("call_string_list",
				[]*celgo.Type{celgo.StringType, celgo.ListType(celgo.DynType)},
				celgo.DynType,
				celgo.BinaryBinding(e.call),
			),
		))
	}
	return celgo.NewEnv(opts...)
}

// call backs call(name, [args]).
func (e *celEvaluator) call(nameVal, argsVal ref.Val) ref.Val {
	name, ok := nameVal.Value().(string)
	if !ok {
		return types.NewErr("opts: call name must be a string")
	}
	list, ok := argsVal.(traits.Lister)
	if !ok {
		return types.NewErr("opts: call arguments must be a list")
	}
	size, _ := list.Size().(types.Int)
	args := make([]any, 0, int(size))
	for i := types.Int(0); i < size; i++ {
		args = append(args, list.Get(i).Value())
	}
	result, err := e.registry.Call(name, args...)
	switch {
	case err != nil:
		return types.NewErr("%s", err.Error())
	case result == nil:
		return types.NullValue
	default:
		return types.DefaultTypeAdapter.NativeToValue(result)
	}
}

type celCompiledRule struct {
	evaluator  *celEvaluator
	expression string
}

func (r celCompiledRule) Evaluate(ctx RuleContext) (any, error) {
	return r.evaluator.Evaluate(ctx, r.expression)
}
