package opts

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDuplicateKey indicates a construction list repeated a key.
	ErrDuplicateKey = errors.New("opts: duplicate option key")
	// ErrKeyNotFound indicates an accessor was called for an absent key.
	ErrKeyNotFound = errors.New("opts: option key not found")
	// ErrUnusedOptions indicates an audit found options nobody consumed.
	ErrUnusedOptions = errors.New("opts: unused options")
	// ErrEmptyKey indicates an entry was supplied without a key.
	ErrEmptyKey = errors.New("opts: option key must not be empty")
	// ErrNilContainer indicates a mutating call received a nil container.
	ErrNilContainer = errors.New("opts: container is nil")
	// ErrInvalidPairs indicates Pairs received a malformed key/value list.
	ErrInvalidPairs = errors.New("opts: invalid key/value pairs")
	// ErrEvaluation matches every EvaluationError.
	ErrEvaluation = errors.New("opts: default expression failed")
)

// DuplicateKeyError reports the key repeated in a construction list.
type DuplicateKeyError struct {
	Key string
}

func (e *DuplicateKeyError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s: %q", ErrDuplicateKey, e.Key)
}

func (e *DuplicateKeyError) Is(target error) bool {
	return target == ErrDuplicateKey
}

// KeyNotFoundError reports an accessor call for a key the container does not
// hold. It signals a bug in the caller rather than bad user input.
type KeyNotFoundError struct {
	Key string
}

func (e *KeyNotFoundError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s: %q", ErrKeyNotFound, e.Key)
}

func (e *KeyNotFoundError) Is(target error) bool {
	return target == ErrKeyNotFound
}

// UnusedOptionsError lists the options an audit found unconsumed. Keys holds
// claimed keys in insertion order. Orphans is only populated by CheckFinal and
// holds extension keys no descendant ever resolved.
type UnusedOptionsError struct {
	Scope   string
	Keys    []string
	Orphans []string
}

func (e *UnusedOptionsError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString(ErrUnusedOptions.Error())
	if e.Scope != "" {
		fmt.Fprintf(&b, " scope=%s", e.Scope)
	}
	if len(e.Keys) > 0 {
		fmt.Fprintf(&b, ": %s", strings.Join(e.Keys, ", "))
	}
	if len(e.Orphans) > 0 {
		fmt.Fprintf(&b, " (never resolved: %s)", strings.Join(e.Orphans, ", "))
	}
	return b.String()
}

func (e *UnusedOptionsError) Is(target error) bool {
	return target == ErrUnusedOptions
}

// DefaultError wraps a failure raised while computing a declared default.
type DefaultError struct {
	Name  string
	Scope string
	Err   error
}

func (e *DefaultError) Error() string {
	if e == nil {
		return "<nil>"
	}
	scope := e.Scope
	if scope == "" {
		scope = "unknown"
	}
	return fmt.Sprintf("opts: default for %q scope=%s: %v", e.Name, scope, e.Err)
}

func (e *DefaultError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// EvaluationError reports an Expr default that failed to compile or run.
// Scope is the frame whose default was being computed, "unknown" outside a
// frame.
type EvaluationError struct {
	Engine string
	Expr   string
	Scope  string
	Err    error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("opts: %s default %s scope=%s: %v", e.Engine, describeExpression(e.Expr), e.Scope, e.Err)
}

func (e *EvaluationError) Is(target error) bool {
	return target == ErrEvaluation
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeExpression(expr string) string {
	if expr == "" {
		return "expr=<empty>"
	}
	return fmt.Sprintf("expr=%q", expr)
}

func wrapEvaluatorError(engine string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrEvaluation) || strings.HasPrefix(err.Error(), "opts:") {
		return err
	}
	return fmt.Errorf("opts: %s evaluator: %w", engine, err)
}

func wrapEvaluationError(engine, expr, scope string, err error) error {
	if err == nil {
		return nil
	}

	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		if evalErr.Engine == "" {
			evalErr.Engine = engine
		}
		if evalErr.Expr == "" {
			evalErr.Expr = expr
		}
		if evalErr.Scope == "" {
			evalErr.Scope = scope
		}
		return evalErr
	}

	return &EvaluationError{
		Engine: engine,
		Expr:   expr,
		Scope:  scope,
		Err:    err,
	}
}
