package script

import (
	"context"
	"testing"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuntime_PersistenceAcrossCalls(t *testing.T) {
	rt := NewRuntime(nil)
	ctx := context.Background()

	res, err := rt.Eval(ctx, "() => { globalThis.x = 42; return x; }", nil)
	require.NoError(t, err)
	assert.EqualValues(t, 42, res.Result)

	res, err = rt.Eval(ctx, "() => x + 8", nil)
	require.NoError(t, err)
	assert.EqualValues(t, 50, res.Result)
}

func TestRuntime_ArgumentPassing(t *testing.T) {
	rt := NewRuntime(nil)
	res, err := rt.Eval(context.Background(), "(a) => a.value * 2", map[string]any{"value": 21})
	require.NoError(t, err)
	assert.EqualValues(t, 42, res.Result)
}

func TestRuntime_ArgDefaultsToEmptyObject(t *testing.T) {
	rt := NewRuntime(nil)
	res, err := rt.Eval(context.Background(), "(a) => Object.keys(a).length", nil)
	require.NoError(t, err)
	assert.EqualValues(t, 0, res.Result)
}

func TestRuntime_ConsoleOutputCapturedPerCall(t *testing.T) {
	rt := NewRuntime(nil)
	res, err := rt.Eval(context.Background(), `() => { console.log("hi", 1); return 1; }`, nil)
	require.NoError(t, err)
	assert.Equal(t, "[LOG] hi 1", res.Output)

	res, err = rt.Eval(context.Background(), "() => 2", nil)
	require.NoError(t, err)
	assert.Empty(t, res.Output)
}

func TestRuntime_AppendResult(t *testing.T) {
	rt := NewRuntime(nil)
	idx, err := rt.AppendResult("first")
	require.NoError(t, err)
	assert.Equal(t, 0, idx)

	idx, err = rt.AppendResult("second")
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	v, err := rt.ResultAt(0)
	require.NoError(t, err)
	assert.Equal(t, "first", v)
}

func TestRuntime_ResultsVisibleFromScript(t *testing.T) {
	rt := NewRuntime(nil)
	_, err := rt.AppendResult("stored")
	require.NoError(t, err)

	res, err := rt.Eval(context.Background(), "() => $results[0]", nil)
	require.NoError(t, err)
	assert.Equal(t, "stored", res.Result)
}

func TestRuntime_GlobalsInjected(t *testing.T) {
	rt := NewRuntime(func(vm *goja.Runtime) (map[string]any, error) {
		return map[string]any{"greeting": "hello"}, nil
	})
	res, err := rt.Eval(context.Background(), "() => greeting", nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", res.Result)
}

func TestRuntime_ThrowSurfacesAsExecutionError(t *testing.T) {
	rt := NewRuntime(nil)
	_, err := rt.Eval(context.Background(), `() => { throw new Error("boom"); }`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ExecutionError")
}
