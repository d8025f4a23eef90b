// Package usersink records options audit events through a go-users
// ActivitySink.
package usersink

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-chainopts/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Hook is an activity.ActivityHook writing to Sink.
type Hook struct {
	Sink usertypes.ActivitySink
	// Now stamps events that arrive without a timestamp. Defaults to
	// time.Now.
	Now func() time.Time
}

// Notify forwards event to the sink as an ActivityRecord. Identifiers that
// are not UUIDs are recorded as uuid.Nil.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}
	stamped := !event.OccurredAt.IsZero()
	event = activity.NormalizeEvent(event)
	if !event.Complete() {
		return nil
	}
	if !stamped && h.Now != nil {
		event.OccurredAt = h.Now()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return h.Sink.Log(ctx, toRecord(event))
}

func toRecord(event activity.Event) usertypes.ActivityRecord {
	return usertypes.ActivityRecord{
		ActorID:    parseUUID(event.ActorID),
		UserID:     parseUUID(event.UserID),
		TenantID:   parseUUID(event.TenantID),
		Verb:       event.Verb,
		ObjectType: event.ObjectType,
		ObjectID:   event.ObjectID,
		Channel:    event.Channel,
		Data:       recordData(event),
		OccurredAt: event.OccurredAt,
	}
}

func parseUUID(input string) uuid.UUID {
	id, err := uuid.Parse(input)
	if err != nil {
		return uuid.Nil
	}
	return id
}

// recordData copies the metadata and adds comma-joined key lists for sinks
// that only index scalar values.
func recordData(event activity.Event) map[string]any {
	data := map[string]any{}
	for key, value := range event.Metadata {
		data[key] = value
	}
	if keys := event.Keys(); len(keys) > 0 {
		data["keys_joined"] = strings.Join(keys, ",")
	}
	if orphans := event.Orphans(); len(orphans) > 0 {
		data["orphans_joined"] = strings.Join(orphans, ",")
	}
	if len(data) == 0 {
		return nil
	}
	return data
}
