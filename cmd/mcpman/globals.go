package main

import (
	"context"

	"github.com/dop251/goja"

	"github.com/mcpman/mcpman/internal/surface"
	"github.com/mcpman/mcpman/internal/upstream"
)

// globalsFor builds the script.GlobalsFunc that seeds the sandbox: one
// proxy object per currently connected server, plus listServers/listTools
// /help, captured fresh at sandbox-construction time.
func globalsFor(fleet *upstream.Fleet) func(vm *goja.Runtime) (map[string]any, error) {
	return func(vm *goja.Runtime) (map[string]any, error) {
		toolsByServer, err := fleet.GetAllTools(context.Background())
		if err != nil {
			return nil, err
		}
		proxies := surface.BuildProxies(vm, fleet, toolsByServer)
		return surface.BuildGlobalContext(vm, fleet, proxies), nil
	}
}
