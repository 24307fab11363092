// Package metaserver implements the meta-server lifecycle: a single
// *mcp.Server advertising exactly the six meta-tools, gated behind a
// deferred promise that resolves once the downstream client's initialized
// notification has arrived and the upstream fleet has finished connecting.
package metaserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/mcpman/mcpman/internal/metatools"
	"github.com/mcpman/mcpman/internal/upstream"
)

// Server wraps the *mcp.Server and the readiness gate every meta-tool
// handler waits on before touching the fleet.
type Server struct {
	inner    *mcp.Server
	fleet    *upstream.Fleet
	handlers *metatools.Handlers
	logger   *zap.Logger
	ready    *readyGate
}

// New builds the meta-server, registering all six meta-tools. The fleet is
// not connected yet; that happens once the downstream client signals it is
// initialized (see onInitialized below and readyGate in ready.go).
func New(fleet *upstream.Fleet, handlers *metatools.Handlers, logger *zap.Logger) *Server {
	s := &Server{
		fleet:    fleet,
		handlers: handlers,
		logger:   logger,
		ready:    newReadyGate(),
	}

	s.inner = mcp.NewServer(&mcp.Implementation{Name: "mcpman", Version: "1.0.0"}, &mcp.ServerOptions{
		Instructions:      "Six meta-tools multiplex a fleet of upstream MCP servers behind a scriptable sandbox.",
		InitializedHandler: s.onInitialized,
	})

	registerTools(s.inner, handlers, s.ready)
	return s
}

// onInitialized runs once, when the downstream client's initialized
// notification arrives: it connects the fleet and resolves the readiness
// gate every handler is waiting on.
func (s *Server) onInitialized(ctx context.Context, req *mcp.InitializedRequest) {
	if req != nil && req.Session != nil {
		s.logger.Info("downstream client initialized")
	}

	errs := s.fleet.ConnectAll(ctx)
	if len(errs) > 0 {
		for name, err := range errs {
			s.logger.Warn("upstream server failed to connect", zap.String("server", name), zap.Error(err))
		}
	}
	s.ready.resolve(nil)
}

// Run serves the meta-server over transport until it closes or ctx is
// canceled, then disconnects the fleet. Both the server close path and
// fleet.Disconnect are idempotent, so Run is safe to call once per process
// and safe to race against a signal-triggered shutdown.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	err := s.inner.Run(ctx, transport)
	s.fleet.Disconnect()
	if err != nil {
		return fmt.Errorf("meta-server run: %w", err)
	}
	return nil
}
