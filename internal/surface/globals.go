package surface

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/dop251/goja"

	"github.com/mcpman/mcpman/internal/normalize"
	"github.com/mcpman/mcpman/internal/upstream"
)

// ToolLister is the fleet surface the global helpers need beyond ToolCaller.
type ToolLister interface {
	GetAllTools(ctx context.Context) (map[string][]upstream.ToolDescriptor, error)
	GetConnectedServers() []string
}

// BuildGlobalContext returns the bindings installed in the sandbox's
// global context: one entry per server proxy under its original and
// camelCase name, plus listServers/listTools/help.
func BuildGlobalContext(vm *goja.Runtime, fleet ToolLister, proxies map[string]*goja.Object) map[string]any {
	globals := make(map[string]any, len(proxies)+4)

	for server, proxy := range proxies {
		globals[server] = proxy
		if camel := normalize.Camel(server); camel != server {
			globals[camel] = proxy
		}
	}

	globals["listServers"] = func(call goja.FunctionCall) goja.Value {
		names := append([]string(nil), fleet.GetConnectedServers()...)
		sort.Strings(names)
		return vm.ToValue(names)
	}

	globals["listTools"] = func(call goja.FunctionCall) goja.Value {
		toolsByServer, err := fleet.GetAllTools(context.Background())
		if err != nil {
			panic(vm.ToValue(err.Error()))
		}
		if len(call.Arguments) > 0 && !goja.IsUndefined(call.Argument(0)) {
			server := call.Argument(0).String()
			return vm.ToValue(sortedToolNames(toolsByServer[server]))
		}
		out := make(map[string][]string, len(toolsByServer))
		for server, tools := range toolsByServer {
			out[server] = sortedToolNames(tools)
		}
		return vm.ToValue(out)
	}

	globals["help"] = func(call goja.FunctionCall) goja.Value {
		obj, err := buildHelpResult(vm, fleet, call)
		if err != nil {
			panic(vm.ToValue(err.Error()))
		}
		return obj
	}

	return globals
}

func sortedToolNames(tools []upstream.ToolDescriptor) []string {
	names := make([]string, 0, len(tools))
	for _, t := range tools {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names
}

// buildHelpResult implements the help(server, tool?) global: it always
// returns a thenable, resolving to either
// {server, tools: [...]} or {server, tool: {...}} on success and rejecting
// with a message enumerating alternatives on an unknown server or tool.
func buildHelpResult(vm *goja.Runtime, fleet ToolLister, call goja.FunctionCall) (*goja.Object, error) {
	if len(call.Arguments) == 0 || goja.IsUndefined(call.Argument(0)) {
		return newThenable(vm, nil, fmt.Errorf("help requires a server name"))
	}
	server := call.Argument(0).String()

	toolsByServer, err := fleet.GetAllTools(context.Background())
	if err != nil {
		return newThenable(vm, nil, err)
	}
	tools, ok := toolsByServer[server]
	if !ok {
		return newThenable(vm, nil, fmt.Errorf("unknown server %q; available: %v", server, sortedServerNames(toolsByServer)))
	}

	if len(call.Arguments) > 1 && !goja.IsUndefined(call.Argument(1)) {
		requested := call.Argument(1).String()
		stored := make(map[string]bool, len(tools))
		byName := make(map[string]upstream.ToolDescriptor, len(tools))
		for _, t := range tools {
			stored[t.Name] = true
			byName[t.Name] = t
		}
		actual, ok := normalize.Resolve(requested, stored)
		if !ok {
			return newThenable(vm, nil, fmt.Errorf("unknown tool %q on server %q; available: %v", requested, server, sortedToolNames(tools)))
		}
		return newThenable(vm, map[string]any{"server": server, "tool": toolSummary(byName[actual])}, nil)
	}

	summaries := make([]map[string]any, 0, len(tools))
	for _, t := range tools {
		summaries = append(summaries, toolSummary(t))
	}
	return newThenable(vm, map[string]any{"server": server, "tools": summaries}, nil)
}

func sortedServerNames(toolsByServer map[string][]upstream.ToolDescriptor) []string {
	names := make([]string, 0, len(toolsByServer))
	for name := range toolsByServer {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func toolSummary(t upstream.ToolDescriptor) map[string]any {
	var schemaAny any
	if t.InputSchema != nil {
		if b, err := json.Marshal(t.InputSchema); err == nil {
			_ = json.Unmarshal(b, &schemaAny)
		}
	}
	return map[string]any{
		"name":        t.Name,
		"description": t.Description,
		"inputSchema": schemaAny,
	}
}
