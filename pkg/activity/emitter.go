package activity

import (
	"context"
	"strings"
)

// DefaultChannel is stamped on events emitted without a channel.
const DefaultChannel = "options"

// Config controls emitter defaults.
type Config struct {
	Enabled bool
	Channel string
}

// Emitter fans out events to hooks, filling in the channel.
type Emitter struct {
	hooks   Hooks
	enabled bool
	channel string
}

// NewEmitter constructs an emitter from hooks and configuration.
func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	channel := strings.TrimSpace(cfg.Channel)
	if channel == "" {
		channel = DefaultChannel
	}
	var normalized Hooks
	for _, hook := range hooks {
		if hook != nil {
			normalized = append(normalized, hook)
		}
	}
	return &Emitter{
		hooks:   normalized,
		enabled: cfg.Enabled && len(normalized) > 0,
		channel: channel,
	}
}

// Enabled reports whether emissions should be attempted.
func (e *Emitter) Enabled() bool {
	return e != nil && e.enabled
}

// Emit forwards the event to all hooks.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Enabled() {
		return nil
	}
	if strings.TrimSpace(event.Channel) == "" {
		event.Channel = e.channel
	}
	return e.hooks.Notify(ctx, event)
}
