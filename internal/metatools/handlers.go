// Package metatools implements the six meta-tool handlers: eval, invoke,
// code, help, list_servers, install. Every handler assumes the meta-server
// has already awaited the downstream client's initialized promise; that
// gate lives one layer up, not here.
package metatools

import (
	"go.uber.org/zap"

	"github.com/mcpman/mcpman/internal/script"
	"github.com/mcpman/mcpman/internal/surface"
	"github.com/mcpman/mcpman/internal/upstream"
)

// Handlers bundles the dependencies every meta-tool handler method needs.
type Handlers struct {
	Fleet    *upstream.Fleet
	Runtime  *script.Runtime
	Cache    *surface.TypeTextCache
	Settings *Settings
	CodeGen  CodeGenerator
	Logger   *zap.Logger
}

// NewHandlers constructs a Handlers bundle. codeGen may be nil; Code then
// falls back to EnvStubGenerator reading MCPMAN_TEST_LLM_RESPONSE_DIR.
func NewHandlers(fleet *upstream.Fleet, rt *script.Runtime, cache *surface.TypeTextCache, settings *Settings, codeGen CodeGenerator, logger *zap.Logger) *Handlers {
	return &Handlers{Fleet: fleet, Runtime: rt, Cache: cache, Settings: settings, CodeGen: codeGen, Logger: logger}
}
