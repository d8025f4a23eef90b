package opts

import "fmt"

// Build creates the container for one call chain. It is New under the name
// callers reach for at the top of a chain.
func Build(entries []Entry, opts ...Option) (*Container, error) {
	return New(entries, opts...)
}

// Extend forwards entries to descendants. Keys new to c start unclaimed and
// unused, so the function extending c is not blamed if it never reads them.
// Existing keys only get their value replaced; a descendant that resolves
// them still credits every audit in the chain.
func Extend(c *Container, entries ...Entry) error {
	if c == nil {
		return ErrNilContainer
	}
	for _, entry := range entries {
		if err := c.Set(entry.Key, entry.Value); err != nil {
			return err
		}
	}
	return nil
}

// Pairs converts an alternating key, value list into entries:
//
//	entries, err := opts.Pairs("width", 80, "color", "red")
func Pairs(kv ...any) ([]Entry, error) {
	if len(kv)%2 != 0 {
		return nil, fmt.Errorf("%w: odd number of arguments (%d)", ErrInvalidPairs, len(kv))
	}
	entries := make([]Entry, 0, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			return nil, fmt.Errorf("%w: key at position %d is %T", ErrInvalidPairs, i, kv[i])
		}
		entries = append(entries, Entry{Key: key, Value: kv[i+1]})
	}
	return entries, nil
}
