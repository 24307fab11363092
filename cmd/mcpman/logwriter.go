package main

import "go.uber.org/zap"

// stderrWriter adapts a *zap.Logger to the io.Writer the MCP SDK's
// protocol-frame tracer writes to, so raw JSON-RPC traffic lands in the
// same structured log stream as everything else (enabled only under
// -trace, since it is extremely verbose).
type stderrWriter struct {
	logger *zap.Logger
}

func (w stderrWriter) Write(p []byte) (int, error) {
	w.logger.Debug("mcp frame", zap.ByteString("frame", p))
	return len(p), nil
}
