//go:build !js_eval

package opts

// NewJSEvaluator returns nil without the js_eval tag; containers given a nil
// evaluator fall back to expr.
func NewJSEvaluator(opts ...JSEvaluatorOption) Evaluator {
	_ = applyJSEvaluatorOptions(opts)
	return nil
}

func jsEvaluatorAvailable() bool {
	return false
}
