package opts

import "encoding/json"

// Snapshot is a point-in-time dump of a container for diagnostics.
type Snapshot struct {
	Policy       string       `json:"policy"`
	OrphanPolicy string       `json:"orphan_policy"`
	Entries      []EntryState `json:"entries"`
}

// EntryState describes one key in a Snapshot.
type EntryState struct {
	Key     string `json:"key"`
	Value   any    `json:"value,omitempty"`
	Used    bool   `json:"used"`
	Claimed bool   `json:"claimed"`
	Origin  string `json:"origin"`
}

// Snapshot captures every key with its usage state in insertion order.
func (c *Container) Snapshot() Snapshot {
	cfg := c.config()
	snap := Snapshot{
		Policy:       c.Policy().String(),
		OrphanPolicy: cfg.orphanPolicy.String(),
		Entries:      []EntryState{},
	}
	if c == nil {
		return snap
	}
	for _, key := range c.order {
		rec := c.entries[key]
		snap.Entries = append(snap.Entries, EntryState{
			Key:     key,
			Value:   rec.value,
			Used:    rec.used,
			Claimed: rec.claimed,
			Origin:  rec.origin.String(),
		})
	}
	return snap
}

// ToJSON serialises the snapshot for logging.
func (s Snapshot) ToJSON() ([]byte, error) {
	type alias Snapshot
	return json.Marshal(alias(s))
}
