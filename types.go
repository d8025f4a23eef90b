package opts

import (
	"time"

	"github.com/goliatone/go-chainopts/pkg/activity"
)

// RuleContext carries inputs needed when evaluating a default expression.
// Snapshot holds the names already bound in the current declaration list.
type RuleContext struct {
	Snapshot any
	Now      *time.Time
	Args     map[string]any
	Metadata map[string]any
	Scope    string
}

func (ctx RuleContext) withDefaultNow() RuleContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx RuleContext) withDefaultMaps() RuleContext {
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) withDefaults() RuleContext {
	return ctx.withDefaultNow().withDefaultMaps()
}

func (ctx RuleContext) scopeLabel() string {
	if ctx.Scope != "" {
		return ctx.Scope
	}
	return "unknown"
}

// Evaluator executes expressions against a rule context.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// CompileOption configures evaluator compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct{}

// Option configures a container at construction time.
type Option func(*optionsConfig)

type optionsConfig struct {
	policy          Policy
	orphanPolicy    Policy
	evaluator       Evaluator
	programCache    ProgramCache
	functions       *FunctionRegistry
	logger          EvaluatorLogger
	auditLogger     AuditLogger
	auditLoggerSet  bool
	activityHooks   activity.Hooks
	activityChannel string
	errs            []error
}

func applyOptions(opts []Option) optionsConfig {
	cfg := optionsConfig{
		policy:       PolicyError,
		orphanPolicy: PolicyNone,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithPolicy sets the audit policy. Containers default to PolicyError.
func WithPolicy(policy Policy) Option {
	return func(cfg *optionsConfig) {
		cfg.policy = policy
	}
}

// WithOrphanPolicy sets how CheckFinal treats extension keys that no
// descendant ever resolved. The default, PolicyNone, keeps them exempt for
// the lifetime of the container.
func WithOrphanPolicy(policy Policy) Option {
	return func(cfg *optionsConfig) {
		cfg.orphanPolicy = policy
	}
}

// WithEvaluator configures the evaluator used by Expr defaults.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *optionsConfig) {
		cfg.evaluator = e
	}
}

func (c *Container) config() optionsConfig {
	if c == nil {
		return applyOptions(nil)
	}
	return c.cfg
}

func (c *Container) evaluator() Evaluator {
	if c == nil {
		return nil
	}
	return c.cfg.evaluator
}

func (c *Container) withEvaluator(e Evaluator) {
	if c == nil {
		return
	}
	c.cfg.evaluator = e
}

func (c *Container) programCache() ProgramCache {
	if c == nil {
		return nil
	}
	return c.cfg.programCache
}

func (c *Container) functionRegistry() *FunctionRegistry {
	if c == nil {
		return nil
	}
	return c.cfg.functions
}

func (c *Container) evaluatorLogger() EvaluatorLogger {
	if c != nil && c.cfg.logger != nil {
		return c.cfg.logger
	}
	return noopEvaluatorLogger{}
}
