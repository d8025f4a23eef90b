package opts

import "context"

// Frame is one function's view of a shared container. It only carries a
// name and a context; every operation acts on the same container.
//
//	func render(ctx context.Context, o *opts.Container) error {
//		f := o.Frame(ctx, "render")
//		vals, err := f.Bind(opts.Decl("width", opts.Value(80)))
//		if err != nil {
//			return err
//		}
//		if err := f.Extend(opts.KV("indent", 2)); err != nil {
//			return err
//		}
//		if err := layout(ctx, o, vals.Value("width")); err != nil {
//			return err
//		}
//		return f.Check()
//	}
type Frame struct {
	ctx       context.Context
	name      string
	container *Container
}

// Frame returns a named frame over c.
func (c *Container) Frame(ctx context.Context, name string) *Frame {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Frame{ctx: ctx, name: name, container: c}
}

// Name returns the frame name.
func (f *Frame) Name() string {
	return f.name
}

// Container returns the shared container.
func (f *Frame) Container() *Container {
	return f.container
}

// Bind resolves decls like Bind, tagging default errors with the frame name.
func (f *Frame) Bind(decls ...Declaration) (*Bindings, error) {
	return bind(f.container, f.name, decls)
}

// Extend forwards entries to descendants like Extend.
func (f *Frame) Extend(entries ...Entry) error {
	return Extend(f.container, entries...)
}

// Check audits the container like CheckContext.
func (f *Frame) Check() error {
	return CheckContext(f.ctx, f.container, f.name)
}

// CheckFinal runs the end-of-chain audit like CheckFinal.
func (f *Frame) CheckFinal() error {
	return CheckFinal(f.ctx, f.container, f.name)
}
