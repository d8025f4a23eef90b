// Package opts lets a chain of functions share one bag of optional named
// parameters. Intermediate functions do not need to declare or forward
// options meant for deeper callees, and options that nobody in the chain
// ever reads are still reported.
//
// A chain works on a single *Container:
//
//	o, err := opts.Build([]opts.Entry{opts.KV("width", 120)}, opts.WithPolicy(opts.PolicyWarn))
//
// Each function resolves the names it understands. Defaults are thunks
// evaluated in declaration order, so later defaults can read earlier names:
//
//	vals, err := opts.Bind(o,
//		opts.Decl("a", opts.Value(11)),
//		opts.Decl("b", opts.Expr("2*a + 1")),
//	)
//
// A function can inject options meant for its callees with Extend, and
// finishes with Check:
//
//	err = opts.Extend(o, opts.KV("indent", 4))
//	err = opts.Check(o)
//
// Usage and claim state live on the container, so a key resolved anywhere in
// the chain satisfies every audit of that key. Keys supplied to Build are
// claimed from the start; keys added by Extend only become accountable once a
// descendant resolves them. Extension keys nobody resolves are exempt from
// Check; CheckFinal applies WithOrphanPolicy to them at the end of a chain.
//
// Expr defaults run on expr-lang/expr unless WithEvaluator selects the CEL
// engine (NewCELEvaluator) or, with the js_eval build tag, goja
// (NewJSEvaluator).
//
// Containers are not safe for concurrent use.
package opts
