package opts

import (
	"errors"
	"fmt"
	"strings"
)

// Entry is one key/value pair used to build or extend a container.
type Entry struct {
	Key   string
	Value any
}

// KV is shorthand for Entry{Key: key, Value: value}.
func KV(key string, value any) Entry {
	return Entry{Key: key, Value: value}
}

// Origin records how a key entered the container.
type Origin int

const (
	// OriginBuild marks keys supplied when the container was created.
	OriginBuild Origin = iota
	// OriginExtend marks keys added later through Extend or Set.
	OriginExtend
)

func (o Origin) String() string {
	if o == OriginExtend {
		return "extend"
	}
	return "build"
}

type record struct {
	value   any
	used    bool
	claimed bool
	origin  Origin
}

// Container is the option bag shared by every function in one call chain.
// Pass it by pointer: resolution state lives on the container, so copies
// would stop crediting usage across the chain. A Container is not safe for
// concurrent use.
type Container struct {
	entries map[string]*record
	order   []string
	policy  Policy
	cfg     optionsConfig
}

// New creates a container from entries. Every supplied key starts claimed
// and unused. A repeated key fails with a DuplicateKeyError.
func New(entries []Entry, opts ...Option) (*Container, error) {
	cfg := applyOptions(opts)
	if len(cfg.errs) > 0 {
		return nil, errors.Join(cfg.errs...)
	}
	if !cfg.policy.valid() {
		return nil, fmt.Errorf("opts: invalid policy %s", cfg.policy)
	}
	if !cfg.orphanPolicy.valid() {
		return nil, fmt.Errorf("opts: invalid orphan policy %s", cfg.orphanPolicy)
	}
	c := &Container{
		entries: make(map[string]*record, len(entries)),
		order:   make([]string, 0, len(entries)),
		policy:  cfg.policy,
		cfg:     cfg,
	}
	for _, entry := range entries {
		if entry.Key == "" {
			return nil, ErrEmptyKey
		}
		if _, exists := c.entries[entry.Key]; exists {
			return nil, &DuplicateKeyError{Key: entry.Key}
		}
		c.entries[entry.Key] = &record{value: entry.Value, claimed: true, origin: OriginBuild}
		c.order = append(c.order, entry.Key)
	}
	return c, nil
}

// Policy returns the audit policy fixed at construction.
func (c *Container) Policy() Policy {
	if c == nil {
		return PolicyError
	}
	return c.policy
}

// Len returns the number of keys held.
func (c *Container) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}

// Keys returns every key in insertion order.
func (c *Container) Keys() []string {
	if c == nil || len(c.order) == 0 {
		return nil
	}
	return append([]string(nil), c.order...)
}

// Has reports whether key is present. It does not touch usage state.
func (c *Container) Has(key string) bool {
	if c == nil {
		return false
	}
	_, ok := c.entries[key]
	return ok
}

// Raw returns the stored value without marking it used.
func (c *Container) Raw(key string) (any, error) {
	rec, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return rec.value, nil
}

// MarkUsed flags key as consumed. Usage never reverts.
func (c *Container) MarkUsed(key string) error {
	rec, err := c.lookup(key)
	if err != nil {
		return err
	}
	rec.used = true
	return nil
}

// MarkClaimed makes key accountable to later audits.
func (c *Container) MarkClaimed(key string) error {
	rec, err := c.lookup(key)
	if err != nil {
		return err
	}
	rec.claimed = true
	return nil
}

// Used reports whether key has been consumed. Absent keys report false.
func (c *Container) Used(key string) bool {
	rec, err := c.lookup(key)
	return err == nil && rec.used
}

// Claimed reports whether key is accountable to audits. Absent keys report
// false.
func (c *Container) Claimed(key string) bool {
	rec, err := c.lookup(key)
	return err == nil && rec.claimed
}

// Set replaces the value of an existing key in place, keeping its usage and
// claim state. A new key is appended unclaimed and unused so the function
// that injects it is not blamed for a descendant's option.
func (c *Container) Set(key string, value any) error {
	if c == nil {
		return ErrNilContainer
	}
	if key == "" {
		return ErrEmptyKey
	}
	if rec, ok := c.entries[key]; ok {
		rec.value = value
		return nil
	}
	if c.entries == nil {
		c.entries = map[string]*record{}
	}
	c.entries[key] = &record{value: value, origin: OriginExtend}
	c.order = append(c.order, key)
	return nil
}

// UnusedClaimedKeys returns, in insertion order, every claimed key nobody
// consumed. This is what Check reports.
func (c *Container) UnusedClaimedKeys() []string {
	return c.collect(func(rec *record) bool { return rec.claimed && !rec.used })
}

// UnclaimedUnusedKeys returns extension keys that no resolution has touched.
func (c *Container) UnclaimedUnusedKeys() []string {
	return c.collect(func(rec *record) bool { return !rec.claimed && !rec.used })
}

func (c *Container) collect(match func(*record) bool) []string {
	if c == nil {
		return nil
	}
	var keys []string
	for _, key := range c.order {
		if match(c.entries[key]) {
			keys = append(keys, key)
		}
	}
	return keys
}

func (c *Container) values(keys []string) map[string]any {
	if len(keys) == 0 {
		return nil
	}
	out := make(map[string]any, len(keys))
	for _, key := range keys {
		if rec, ok := c.entries[key]; ok {
			out[key] = rec.value
		}
	}
	return out
}

func (c *Container) lookup(key string) (*record, error) {
	if c == nil {
		return nil, &KeyNotFoundError{Key: key}
	}
	rec, ok := c.entries[key]
	if !ok {
		return nil, &KeyNotFoundError{Key: key}
	}
	return rec, nil
}

// String renders the container as "Options(policy){key=value*, ...}" where
// a trailing * marks keys already used.
func (c *Container) String() string {
	if c == nil {
		return "Options(<nil>)"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Options(%s){", c.policy)
	for i, key := range c.order {
		if i > 0 {
			b.WriteString(", ")
		}
		rec := c.entries[key]
		fmt.Fprintf(&b, "%s=%v", key, rec.value)
		if rec.used {
			b.WriteByte('*')
		}
	}
	b.WriteByte('}')
	return b.String()
}
