package activity

import (
	"context"
	"errors"
	"maps"
	"strings"
	"time"
)

// Event is an audit finding fanned out to hooks. Identifiers are plain
// strings; sinks that need UUIDs parse them.
type Event struct {
	Verb       string
	ActorID    string
	UserID     string
	TenantID   string
	ObjectType string
	ObjectID   string
	Channel    string
	Metadata   map[string]any
	OccurredAt time.Time
}

// Keys returns the unused keys recorded in the event metadata.
func (e Event) Keys() []string {
	return metadataStrings(e.Metadata, "keys")
}

// Orphans returns the never-resolved extension keys recorded in the event
// metadata.
func (e Event) Orphans() []string {
	return metadataStrings(e.Metadata, "orphans")
}

// Complete reports whether the event names a verb and an object. Hooks drop
// incomplete events.
func (e Event) Complete() bool {
	return e.Verb != "" && e.ObjectType != "" && e.ObjectID != ""
}

func metadataStrings(metadata map[string]any, key string) []string {
	switch v := metadata[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// ActivityHook receives normalized events.
type ActivityHook interface {
	Notify(ctx context.Context, event Event) error
}

// HookFunc adapts a function to ActivityHook.
type HookFunc func(ctx context.Context, event Event) error

// Notify calls fn.
func (fn HookFunc) Notify(ctx context.Context, event Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

// Hooks fans an event out to every hook.
type Hooks []ActivityHook

// Enabled reports whether there is any hook to notify.
func (h Hooks) Enabled() bool {
	return len(h) > 0
}

// Notify normalizes event and delivers it to each hook, joining their
// errors. Incomplete events are dropped without error.
func (h Hooks) Notify(ctx context.Context, event Event) error {
	event = NormalizeEvent(event)
	if len(h) == 0 || !event.Complete() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	var errs []error
	for _, hook := range h {
		if hook != nil {
			errs = append(errs, hook.Notify(ctx, event))
		}
	}
	return errors.Join(errs...)
}

// NormalizeEvent trims every identifier, copies the metadata and stamps
// OccurredAt when it is zero.
func NormalizeEvent(event Event) Event {
	for _, field := range []*string{
		&event.Verb, &event.ActorID, &event.UserID, &event.TenantID,
		&event.ObjectType, &event.ObjectID, &event.Channel,
	} {
		*field = strings.TrimSpace(*field)
	}
	event.Metadata = cloneMap(event.Metadata)
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	return event
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	return maps.Clone(src)
}
