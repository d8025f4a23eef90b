package opts

import "time"

type jsEvaluatorConfig struct {
	cache    ProgramCache
	registry *FunctionRegistry
	timeout  time.Duration
}

// JSEvaluatorOption configures the goja engine. The options exist in every
// build, so callers compile without the js_eval tag and get a nil evaluator.
type JSEvaluatorOption func(*jsEvaluatorConfig)

// JSWithProgramCache shares compiled scripts across evaluations.
func JSWithProgramCache(cache ProgramCache) JSEvaluatorOption {
	return func(cfg *jsEvaluatorConfig) {
		cfg.cache = cache
	}
}

// JSWithFunctionRegistry exposes registered functions as globals and through
// call(name, ...args).
func JSWithFunctionRegistry(registry *FunctionRegistry) JSEvaluatorOption {
	return func(cfg *jsEvaluatorConfig) {
		if registry != nil {
			cfg.registry = registry.Clone()
		}
	}
}

// JSWithTimeout interrupts a default expression that runs longer than d.
// Zero disables the limit.
func JSWithTimeout(d time.Duration) JSEvaluatorOption {
	return func(cfg *jsEvaluatorConfig) {
		if d > 0 {
			cfg.timeout = d
		}
	}
}

func applyJSEvaluatorOptions(opts []JSEvaluatorOption) jsEvaluatorConfig {
	var cfg jsEvaluatorConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
