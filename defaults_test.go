package opts

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequentialDecls() []Declaration {
	return []Declaration{
		Decl("a", Value(11)),
		Decl("b", Func(func(b *Bindings) (any, error) {
			a, err := Lookup[int](b, "a")
			if err != nil {
				return nil, err
			}
			return 2*a + 1, nil
		})),
	}
}

func TestBindSequentialDefaultsOnEmptyContainer(t *testing.T) {
	c, err := Build(nil)
	require.NoError(t, err)

	vals, err := Bind(c, sequentialDecls()...)
	require.NoError(t, err)

	assert.Equal(t, 11, vals.Value("a"))
	assert.Equal(t, 23, vals.Value("b"))
	assert.Equal(t, []string{"a", "b"}, vals.Names())
	assert.Zero(t, c.Len(), "defaults must not be written to the container")
}

func TestBindSequentialDefaultsReadResolvedValue(t *testing.T) {
	c, err := Build([]Entry{KV("a", 5)})
	require.NoError(t, err)

	vals, err := Bind(c, sequentialDecls()...)
	require.NoError(t, err)

	assert.Equal(t, 5, vals.Value("a"))
	assert.Equal(t, 11, vals.Value("b"))
	assert.True(t, c.Used("a"))
	assert.True(t, c.Claimed("a"))
	assert.False(t, c.Has("b"))
	assert.NoError(t, Check(c))
}

func TestBindExprDefaults(t *testing.T) {
	engines := []struct {
		name      string
		evaluator Evaluator
		want      func(int) any
	}{
		{name: "expr", evaluator: NewExprEvaluator(), want: func(v int) any { return v }},
		{name: "cel", evaluator: NewCELEvaluator(), want: func(v int) any { return int64(v) }},
	}
	for _, engine := range engines {
		t.Run(engine.name, func(t *testing.T) {
			decls := []Declaration{
				Decl("a", Value(11)),
				Decl("b", Expr("2*a + 1")),
			}

			empty, err := Build(nil, WithEvaluator(engine.evaluator))
			require.NoError(t, err)
			vals, err := Bind(empty, decls...)
			require.NoError(t, err)
			assert.Equal(t, 11, vals.Value("a"))
			assert.Equal(t, engine.want(23), vals.Value("b"))

			preset, err := Build([]Entry{KV("a", 5)}, WithEvaluator(engine.evaluator))
			require.NoError(t, err)
			vals, err = Bind(preset, decls...)
			require.NoError(t, err)
			assert.Equal(t, 5, vals.Value("a"))
			assert.Equal(t, engine.want(11), vals.Value("b"))
		})
	}
}

func TestBindExprCannotSeeLaterNames(t *testing.T) {
	for _, evaluator := range []Evaluator{NewExprEvaluator(), NewCELEvaluator()} {
		c, err := Build(nil, WithEvaluator(evaluator), WithAuditLogger(nil))
		require.NoError(t, err)

		_, err = c.Frame(context.Background(), "layout").Bind(
			Decl("a", Expr("b + 1")),
			Decl("b", Value(1)),
		)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrEvaluation)

		var defErr *DefaultError
		require.ErrorAs(t, err, &defErr)
		assert.Equal(t, "a", defErr.Name)
		assert.Equal(t, "layout", defErr.Scope)

		var evalErr *EvaluationError
		require.ErrorAs(t, err, &evalErr)
		assert.Equal(t, "layout", evalErr.Scope)
		assert.Equal(t, "b + 1", evalErr.Expr)
	}
}

func TestBindExprUsesRegisteredFunctions(t *testing.T) {
	c, err := Build(nil,
		WithCustomFunction("clamp", func(args ...any) (any, error) {
			v := args[0].(int)
			if v > 100 {
				return 100, nil
			}
			return v, nil
		}),
		WithProgramCache(NewMemoryProgramCache()),
	)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		vals, err := Bind(c,
			Decl("raw", Value(250)),
			Decl("width", Expr("clamp(raw)")),
		)
		require.NoError(t, err)
		assert.Equal(t, 100, vals.Value("width"))
	}
}

func TestWithCustomFunctionDuplicateFailsNew(t *testing.T) {
	fn := func(...any) (any, error) { return nil, nil }
	_, err := Build(nil, WithCustomFunction("f", fn), WithCustomFunction("F", fn))
	assert.ErrorIs(t, err, ErrFunctionExists)
}

func TestBindWrapsDefaultErrors(t *testing.T) {
	boom := errors.New("boom")
	_, err := Bind(nil, Decl("x", Func(func(*Bindings) (any, error) { return nil, boom })))

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	var defErr *DefaultError
	require.ErrorAs(t, err, &defErr)
	assert.Equal(t, "x", defErr.Name)
}

func TestBindNilContainerAndNilDefault(t *testing.T) {
	vals, err := Bind(nil, Decl("a", Value(1)), Decl("b", nil))
	require.NoError(t, err)

	assert.Equal(t, 1, vals.Value("a"))
	got, ok := vals.Get("b")
	assert.True(t, ok)
	assert.Nil(t, got)
	assert.Equal(t, map[string]any{"a": 1, "b": nil}, vals.Map())
}

func TestBindIsIdempotentOnContainerState(t *testing.T) {
	c, err := Build([]Entry{KV("a", 1), KV("z", 0)})
	require.NoError(t, err)

	_, err = Bind(c, Decl("a", Value(0)))
	require.NoError(t, err)
	first := c.Snapshot()

	_, err = Bind(c, Decl("a", Value(0)))
	require.NoError(t, err)
	assert.Equal(t, first, c.Snapshot())
}

func TestExtendRoundTrip(t *testing.T) {
	c, err := Build(nil)
	require.NoError(t, err)
	require.NoError(t, Extend(c, KV("k", "v")))

	raw, err := c.Raw("k")
	require.NoError(t, err)
	assert.Equal(t, "v", raw)

	vals, err := Bind(c, Decl("k", Value("default")))
	require.NoError(t, err)
	assert.Equal(t, "v", vals.Value("k"))
	assert.True(t, c.Claimed("k"))
	assert.True(t, c.Used("k"))
}

func TestLookup(t *testing.T) {
	vals, err := Bind(nil, Decl("n", Value(3)))
	require.NoError(t, err)

	n, err := Lookup[int](vals, "n")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = Lookup[string](vals, "n")
	assert.ErrorIs(t, err, ErrBindingType)

	_, err = Lookup[int](vals, "missing")
	assert.ErrorIs(t, err, ErrBindingMissing)
}

func TestEvaluatorLoggerSeesExprDefaults(t *testing.T) {
	var events []EvaluatorLogEvent
	c, err := Build(nil, WithEvaluatorLogger(EvaluatorLoggerFunc(func(e EvaluatorLogEvent) {
		events = append(events, e)
	})))
	require.NoError(t, err)

	_, err = c.Frame(context.Background(), "render").Bind(Decl("w", Expr("40 + 2")))
	require.NoError(t, err)

	require.Len(t, events, 1)
	assert.Equal(t, "expr", events[0].Engine)
	assert.Equal(t, "render", events[0].Scope)
	assert.NoError(t, events[0].Err)
}
