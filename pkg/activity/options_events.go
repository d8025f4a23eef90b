package activity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// VerbOptionsUnused is emitted when an audit finds unused options.
	VerbOptionsUnused = "options.unused"
	// ObjectTypeOptions identifies an options container.
	ObjectTypeOptions = "options"
)

// UnusedOptionsInput describes an audit that found unused options.
type UnusedOptionsInput struct {
	ActorID    string
	UserID     string
	TenantID   string
	Channel    string
	Scope      string
	Policy     string
	Keys       []string
	Orphans    []string
	Final      bool
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildOptionsUnusedEvent constructs the event for an audit that found
// unused options. The object id is the audited scope, or "options" when the
// audit was anonymous. Each event carries a fresh audit_id.
func BuildOptionsUnusedEvent(input UnusedOptionsInput) Event {
	metadata := cloneMap(input.Metadata)
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["audit_id"] = uuid.NewString()
	if input.Policy != "" {
		metadata["policy"] = input.Policy
	}
	if input.Scope != "" {
		metadata["scope"] = input.Scope
	}
	if len(input.Keys) > 0 {
		metadata["keys"] = append([]string(nil), input.Keys...)
	}
	if len(input.Orphans) > 0 {
		metadata["orphans"] = append([]string(nil), input.Orphans...)
	}
	if input.Final {
		metadata["final"] = true
	}

	objectID := strings.TrimSpace(input.Scope)
	if objectID == "" {
		objectID = ObjectTypeOptions
	}

	return Event{
		Verb:       VerbOptionsUnused,
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: ObjectTypeOptions,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}
