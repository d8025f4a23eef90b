package opts

import "github.com/goliatone/go-chainopts/pkg/activity"

// WithActivityHooks attaches hooks notified when an audit reports unused
// options under PolicyError or PolicyWarn. Nil hooks are dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := cloneActivityHooks(hooks)
	return func(cfg *optionsConfig) {
		cfg.activityHooks = normalized
	}
}

// WithActivityChannel overrides the channel stamped on emitted events.
func WithActivityChannel(channel string) Option {
	return func(cfg *optionsConfig) {
		cfg.activityChannel = channel
	}
}

// ActivityHooks returns a copy of the hooks configured on the container.
func (c *Container) ActivityHooks() activity.Hooks {
	if c == nil {
		return nil
	}
	return cloneActivityHooks(c.cfg.activityHooks)
}

func (c *Container) emitter() *activity.Emitter {
	if c == nil || len(c.cfg.activityHooks) == 0 {
		return nil
	}
	return activity.NewEmitter(c.cfg.activityHooks, activity.Config{
		Enabled: true,
		Channel: c.cfg.activityChannel,
	})
}

func cloneActivityHooks(hooks activity.Hooks) activity.Hooks {
	if len(hooks) == 0 {
		return nil
	}
	normalized := make([]activity.ActivityHook, 0, len(hooks))
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		normalized = append(normalized, hook)
	}
	if len(normalized) == 0 {
		return nil
	}
	return activity.Hooks(normalized)
}
