// Package surface implements the tool-surface facade: per-server callable
// proxies, the sandbox global namespace built on top of them, and the
// cached type-text generation consumed by the type checker and the help
// meta-tool.
package surface

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dop251/goja"

	"github.com/mcpman/mcpman/internal/normalize"
	"github.com/mcpman/mcpman/internal/upstream"
)

// ToolCaller is the subset of *upstream.Fleet the proxy layer depends on,
// kept narrow so tests can substitute a stub.
type ToolCaller interface {
	CallTool(ctx context.Context, server, tool string, args map[string]any) (*upstream.ToolResult, error)
}

// BuildProxies constructs one attribute-resolving proxy object per server
// named in toolsByServer, a snapshot of the fleet's tool set taken at
// sandbox-construction time.
func BuildProxies(vm *goja.Runtime, caller ToolCaller, toolsByServer map[string][]upstream.ToolDescriptor) map[string]*goja.Object {
	proxies := make(map[string]*goja.Object, len(toolsByServer))
	for server, tools := range toolsByServer {
		proxies[server] = vm.NewDynamicObject(newServerProxy(vm, caller, server, tools))
	}
	return proxies
}

// serverProxy implements goja.DynamicObject so that attribute access on a
// tool proxy runs the name-resolution algorithm on every lookup instead of
// pre-enumerating every alias as a distinct property.
type serverProxy struct {
	vm     *goja.Runtime
	caller ToolCaller
	server string
	stored map[string]bool
	order  []string
	cache  map[string]goja.Value
}

func newServerProxy(vm *goja.Runtime, caller ToolCaller, server string, tools []upstream.ToolDescriptor) *serverProxy {
	stored := make(map[string]bool, len(tools))
	order := make([]string, 0, len(tools))
	for _, t := range tools {
		stored[t.Name] = true
		order = append(order, t.Name)
	}
	return &serverProxy{
		vm:     vm,
		caller: caller,
		server: server,
		stored: stored,
		order:  order,
		cache:  make(map[string]goja.Value, len(tools)),
	}
}

func (p *serverProxy) Get(key string) goja.Value {
	if v, ok := p.cache[key]; ok {
		return v
	}
	actual, ok := normalize.Resolve(key, p.stored)
	if !ok {
		return nil
	}
	fn := p.vm.ToValue(p.callToolFunc(actual))
	p.cache[key] = fn
	return fn
}

func (p *serverProxy) Has(key string) bool {
	_, ok := normalize.Resolve(key, p.stored)
	return ok
}

// Set rejects writes: the proxy surface is a read-only view over the
// upstream tool set, naming only callables it builds itself.
func (p *serverProxy) Set(key string, val goja.Value) bool { return false }

func (p *serverProxy) Delete(key string) bool { return false }

func (p *serverProxy) Keys() []string {
	return append([]string(nil), p.order...)
}

// callToolFunc returns the Go closure backing one proxy attribute. toolName
// is always the stored, original identifier (already resolved by Get), so
// the fleet call below targets exactly the tool the caller asked for.
func (p *serverProxy) callToolFunc(toolName string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		args := extractArgs(call)
		result, err := p.caller.CallTool(context.Background(), p.server, toolName, args)
		obj, buildErr := newToolResultObject(p.vm, result, err)
		if buildErr != nil {
			panic(p.vm.ToValue(buildErr.Error()))
		}
		return obj
	}
}

func extractArgs(call goja.FunctionCall) map[string]any {
	if len(call.Arguments) == 0 {
		return map[string]any{}
	}
	v := call.Argument(0)
	if goja.IsUndefined(v) || goja.IsNull(v) {
		return map[string]any{}
	}
	if m, ok := v.Export().(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// newThenable builds a minimal thenable object: JS `await` only requires a
// callable `then(onFulfilled, onRejected)`, and every value these proxies
// hand back has already been produced by a completed Go call, so then can
// settle synchronously rather than scheduling real microtasks.
func newThenable(vm *goja.Runtime, value any, callErr error) (*goja.Object, error) {
	obj := vm.NewObject()

	then := func(call goja.FunctionCall) goja.Value {
		onFulfilled, _ := goja.AssertFunction(call.Argument(0))
		onRejected, _ := goja.AssertFunction(call.Argument(1))
		if callErr != nil {
			if onRejected != nil {
				ret, _ := onRejected(goja.Undefined(), vm.ToValue(callErr.Error()))
				return ret
			}
			panic(vm.ToValue(callErr.Error()))
		}
		if onFulfilled != nil {
			ret, _ := onFulfilled(goja.Undefined(), vm.ToValue(value))
			return ret
		}
		return vm.ToValue(value)
	}
	catch := func(call goja.FunctionCall) goja.Value {
		onRejected, _ := goja.AssertFunction(call.Argument(0))
		if callErr != nil && onRejected != nil {
			ret, _ := onRejected(goja.Undefined(), vm.ToValue(callErr.Error()))
			return ret
		}
		return goja.Undefined()
	}

	if err := obj.Set("then", then); err != nil {
		return nil, err
	}
	if err := obj.Set("catch", catch); err != nil {
		return nil, err
	}
	return obj, nil
}

// newToolResultObject wraps one CallTool outcome as an enhanced promise:
// awaiting it yields the parsed-JSON of the first text content part
// (falling back to that part's raw text when it isn't valid JSON, and to
// the content array when there is no text part), and it additionally
// exposes .text()/.json().
func newToolResultObject(vm *goja.Runtime, result *upstream.ToolResult, callErr error) (*goja.Object, error) {
	var firstText string
	var textErr error
	var defaultValue any

	if callErr == nil {
		firstText, textErr = result.FirstText()
		if textErr == nil {
			var parsed any
			if json.Unmarshal([]byte(firstText), &parsed) == nil {
				defaultValue = parsed
			} else {
				defaultValue = firstText
			}
		} else {
			defaultValue = contentToAny(result.Content)
		}
	}

	obj, err := newThenable(vm, defaultValue, callErr)
	if err != nil {
		return nil, err
	}

	text := func(call goja.FunctionCall) goja.Value {
		if callErr != nil {
			panic(vm.ToValue(callErr.Error()))
		}
		if textErr != nil {
			panic(vm.ToValue(textErr.Error()))
		}
		return vm.ToValue(firstText)
	}
	jsonFn := func(call goja.FunctionCall) goja.Value {
		if callErr != nil {
			panic(vm.ToValue(callErr.Error()))
		}
		if textErr != nil {
			panic(vm.ToValue(textErr.Error()))
		}
		var parsed any
		if jerr := json.Unmarshal([]byte(firstText), &parsed); jerr != nil {
			panic(vm.ToValue(fmt.Sprintf("invalid JSON in tool result: %s", jerr)))
		}
		return vm.ToValue(parsed)
	}

	if err := obj.Set("text", text); err != nil {
		return nil, err
	}
	if err := obj.Set("json", jsonFn); err != nil {
		return nil, err
	}
	return obj, nil
}

func contentToAny(parts []upstream.ContentPart) []map[string]any {
	out := make([]map[string]any, len(parts))
	for i, p := range parts {
		out[i] = map[string]any{"type": p.Type, "text": p.Text, "mimeType": p.MIMEType, "uri": p.URI}
	}
	return out
}
