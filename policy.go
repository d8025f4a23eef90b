package opts

import (
	"fmt"
	"strings"
)

// Policy controls how an audit reacts to options nobody consumed.
type Policy int

const (
	// PolicyError fails the audit with an UnusedOptionsError. It is the zero
	// value so containers are strict unless configured otherwise.
	PolicyError Policy = iota
	// PolicyWarn logs the unused keys and lets the call return normally.
	PolicyWarn
	// PolicyNone ignores unused keys.
	PolicyNone
)

func (p Policy) String() string {
	switch p {
	case PolicyError:
		return "error"
	case PolicyWarn:
		return "warn"
	case PolicyNone:
		return "none"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy converts a policy name into a Policy. Matching is case
// insensitive and ignores surrounding whitespace.
func ParsePolicy(value string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "error", "":
		return PolicyError, nil
	case "warn", "warning":
		return PolicyWarn, nil
	case "none", "off":
		return PolicyNone, nil
	default:
		return PolicyError, fmt.Errorf("opts: unknown policy %q", value)
	}
}

func (p Policy) valid() bool {
	return p >= PolicyError && p <= PolicyNone
}
