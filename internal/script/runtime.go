// Package script implements the persistent goja sandbox the eval/code
// meta-tools run user scripts in.
package script

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dop251/goja"
)

// EvalTimeout is the fixed wall-clock budget for one eval call.
const EvalTimeout = 30 * time.Second

// ErrTimedOut is returned when a script exceeds EvalTimeout.
type ErrTimedOut struct{}

func (ErrTimedOut) Error() string { return "TimedOut: script execution exceeded 30s" }

// EvalResult is the outcome of one eval call: the returned value plus
// anything written to console during execution.
type EvalResult struct {
	Result any
	Output string
}

// GlobalsFunc lazily builds the bindings installed in the sandbox's global
// context. It is invoked once, at first use, so the
// fleet's current tool set is captured at sandbox-construction time, not
// at package-init time. It receives the runtime's *goja.Runtime so bound
// functions (tool proxies in particular) can construct goja values
// directly, e.g. the enhanced-promise objects returned by tool calls.
type GlobalsFunc func(vm *goja.Runtime) (map[string]any, error)

// Runtime is the persistent, lazily-constructed sandbox. It is safe for
// concurrent use: every call is serialized through mu, mirroring goja's
// single logical thread.
type Runtime struct {
	globalsFn GlobalsFunc

	mu          sync.Mutex
	vm          *goja.Runtime
	resultsObj  *goja.Object
	resultsPush goja.Callable
}

// NewRuntime constructs a Runtime that will seed its sandbox from globalsFn
// on first Eval or AppendResult call.
func NewRuntime(globalsFn GlobalsFunc) *Runtime {
	return &Runtime{globalsFn: globalsFn}
}

func (r *Runtime) ensureInit() error {
	if r.vm != nil {
		return nil
	}

	vm := goja.New()
	vm.SetFieldNameMapper(goja.UncapFieldNameMapper())

	if err := installClockPrimitives(vm); err != nil {
		return fmt.Errorf("install clock primitives: %w", err)
	}

	resultsVal, err := vm.RunString("[]")
	if err != nil {
		return fmt.Errorf("init $results: %w", err)
	}
	resultsObj := resultsVal.ToObject(vm)
	pushFn, ok := goja.AssertFunction(resultsObj.Get("push"))
	if !ok {
		return fmt.Errorf("internal error: $results.push is not callable")
	}
	if err := vm.Set("$results", resultsObj); err != nil {
		return err
	}

	if r.globalsFn != nil {
		globals, err := r.globalsFn(vm)
		if err != nil {
			return fmt.Errorf("build globals: %w", err)
		}
		for name, value := range globals {
			if err := vm.Set(name, value); err != nil {
				return fmt.Errorf("bind global %q: %w", name, err)
			}
		}
	}

	r.vm = vm
	r.resultsObj = resultsObj
	r.resultsPush = pushFn
	return nil
}

// AppendResult pushes value onto $results and returns its new index. It is
// used both by the eval execution contract and directly by the invoke/code
// meta-tool handlers, which append results without going through eval.
func (r *Runtime) AppendResult(value any) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureInit(); err != nil {
		return 0, err
	}

	lengthBefore := r.resultsObj.Get("length").ToInteger()
	if _, err := r.resultsPush(r.resultsObj, r.vm.ToValue(value)); err != nil {
		return 0, fmt.Errorf("append to $results: %w", err)
	}
	return int(lengthBefore), nil
}

// ResultAt returns the value currently stored at $results[i].
func (r *Runtime) ResultAt(i int) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureInit(); err != nil {
		return nil, err
	}
	v := r.resultsObj.Get(fmt.Sprintf("%d", i))
	if v == nil {
		return nil, fmt.Errorf("no result at index %d", i)
	}
	return v.Export(), nil
}

// Eval installs a fresh per-call console, evaluates the wrapped async IIFE
// under a 30s timeout, and unwraps up to one extra level of thenable.
func (r *Runtime) Eval(ctx context.Context, code string, arg any) (EvalResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureInit(); err != nil {
		return EvalResult{}, err
	}

	buf := &consoleBuffer{}
	if err := bindConsole(r.vm, buf); err != nil {
		return EvalResult{}, fmt.Errorf("bind console: %w", err)
	}

	if arg == nil {
		arg = map[string]any{}
	}
	if err := r.vm.Set("__arg", arg); err != nil {
		return EvalResult{}, fmt.Errorf("bind __arg: %w", err)
	}

	wrapped := "( async () => { const fn = " + code + "; return await fn(__arg); } )()"

	timer := time.AfterFunc(EvalTimeout, func() {
		r.vm.Interrupt(ErrTimedOut{})
	})
	defer timer.Stop()

	stopWatch := make(chan struct{})
	defer close(stopWatch)
	go func() {
		select {
		case <-ctx.Done():
			r.vm.Interrupt(ctx.Err())
		case <-stopWatch:
		}
	}()

	value, err := r.vm.RunString(wrapped)
	if err != nil {
		if _, ok := err.(*goja.InterruptedError); ok {
			return EvalResult{}, ErrTimedOut{}
		}
		return EvalResult{}, fmt.Errorf("ExecutionError: %w", err)
	}

	result, err := unwrapThenable(r.vm, value)
	if err != nil {
		return EvalResult{}, fmt.Errorf("ExecutionError: %w", err)
	}
	result, err = unwrapThenable(r.vm, result)
	if err != nil {
		return EvalResult{}, fmt.Errorf("ExecutionError: %w", err)
	}

	var exported any
	if result != nil {
		exported = result.Export()
	}
	return EvalResult{Result: exported, Output: buf.join()}, nil
}

// unwrapThenable resolves a goja Promise value synchronously. Every host
// function exposed to scripts (tool proxies included) completes its work
// before returning to JS, so by the time a script's top-level await chain
// finishes, every promise it produced has already settled.
func unwrapThenable(vm *goja.Runtime, v goja.Value) (goja.Value, error) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return v, nil
	}
	promise, ok := v.Export().(*goja.Promise)
	if !ok {
		return v, nil
	}
	switch promise.State() {
	case goja.PromiseStateFulfilled:
		return promise.Result(), nil
	case goja.PromiseStateRejected:
		reason := promise.Result()
		return nil, fmt.Errorf("%s", reason.String())
	default:
		return nil, fmt.Errorf("script produced a promise that never settled")
	}
}

// installClockPrimitives binds minimal setTimeout/setInterval globals.
// There is no real event loop (single-threaded, no I/O-driven timers):
// every callback runs once, inline, at registration, whatever its delay,
// and setInterval does not repeat. The handles returned are inert for
// clearTimeout/clearInterval.
func installClockPrimitives(vm *goja.Runtime) error {
	setTimeout := func(call goja.FunctionCall) goja.Value {
		if fn, ok := goja.AssertFunction(call.Argument(0)); ok {
			_, _ = fn(goja.Undefined())
		}
		return vm.ToValue(0)
	}
	noop := func(call goja.FunctionCall) goja.Value { return goja.Undefined() }

	for name, fn := range map[string]func(goja.FunctionCall) goja.Value{
		"setTimeout":    setTimeout,
		"setInterval":   setTimeout,
		"clearTimeout":  noop,
		"clearInterval": noop,
	} {
		if err := vm.Set(name, fn); err != nil {
			return err
		}
	}
	return nil
}
