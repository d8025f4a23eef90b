package opts

import (
	"context"
	"fmt"

	"github.com/goliatone/go-chainopts/pkg/activity"
)

// Check audits c at the end of a function's use of it. Claimed keys nobody
// consumed fail the audit under PolicyError, are logged under PolicyWarn and
// ignored under PolicyNone. Extension keys no descendant resolved are exempt.
func Check(c *Container) error {
	return CheckContext(context.Background(), c, "")
}

// CheckContext is Check with a context for activity hooks and a scope name
// reported in errors and diagnostics.
func CheckContext(ctx context.Context, c *Container, scope string) error {
	if c == nil {
		return nil
	}
	return c.audit(ctx, auditRequest{
		scope:  scope,
		unused: c.UnusedClaimedKeys(),
	})
}

// CheckFinal is the end-of-chain audit for the top-level caller. Besides the
// Check result it applies the orphan policy (see WithOrphanPolicy) to
// extension keys that were never resolved by anyone.
func CheckFinal(ctx context.Context, c *Container, scope string) error {
	if c == nil {
		return nil
	}
	req := auditRequest{
		scope:  scope,
		unused: c.UnusedClaimedKeys(),
		final:  true,
	}
	if c.cfg.orphanPolicy != PolicyNone {
		req.orphans = c.UnclaimedUnusedKeys()
	}
	return c.audit(ctx, req)
}

type auditRequest struct {
	scope   string
	unused  []string
	orphans []string
	final   bool
}

// audit applies the container policy to unused keys and the orphan policy to
// orphans. Each key is reported at most once per call.
func (c *Container) audit(ctx context.Context, req auditRequest) error {
	var failed, warned auditRequest
	failed.scope, warned.scope = req.scope, req.scope
	switch c.policy {
	case PolicyError:
		failed.unused = req.unused
	case PolicyWarn:
		warned.unused = req.unused
	}
	switch c.cfg.orphanPolicy {
	case PolicyError:
		failed.orphans = req.orphans
	case PolicyWarn:
		warned.orphans = req.orphans
	}
	if len(failed.unused)+len(failed.orphans)+len(warned.unused)+len(warned.orphans) == 0 {
		return nil
	}

	if len(warned.unused)+len(warned.orphans) > 0 {
		c.auditLogger().LogAudit(AuditEvent{
			Scope:   req.scope,
			Policy:  PolicyWarn,
			Unused:  warned.unused,
			Orphans: warned.orphans,
			Values:  c.values(append(append([]string(nil), warned.unused...), warned.orphans...)),
			Final:   req.final,
		})
	}

	hookErr := c.emitUnused(ctx, req, failed, warned)

	if len(failed.unused)+len(failed.orphans) > 0 {
		unusedErr := &UnusedOptionsError{
			Scope:   req.scope,
			Keys:    failed.unused,
			Orphans: failed.orphans,
		}
		if hookErr != nil {
			return fmt.Errorf("%w (%v)", unusedErr, hookErr)
		}
		return unusedErr
	}
	return hookErr
}

func (c *Container) emitUnused(ctx context.Context, req auditRequest, failed, warned auditRequest) error {
	emitter := c.emitter()
	if !emitter.Enabled() {
		return nil
	}
	policy := PolicyWarn
	if len(failed.unused)+len(failed.orphans) > 0 {
		policy = PolicyError
	}
	event := activity.BuildOptionsUnusedEvent(activity.UnusedOptionsInput{
		Scope:   req.scope,
		Policy:  policy.String(),
		Keys:    append(append([]string(nil), failed.unused...), warned.unused...),
		Orphans: append(append([]string(nil), failed.orphans...), warned.orphans...),
		Final:   req.final,
	})
	if err := emitter.Emit(ctx, event); err != nil {
		return fmt.Errorf("opts: activity hooks: %w", err)
	}
	return nil
}
