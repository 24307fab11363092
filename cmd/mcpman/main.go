// Command mcpman runs the MCP multiplexing proxy: a single downstream MCP
// server exposing six meta-tools (eval, invoke, code, help, list_servers,
// install) that fan out across a configured fleet of upstream MCP servers.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mcpman/mcpman/internal/config"
	"github.com/mcpman/mcpman/internal/logging"
	"github.com/mcpman/mcpman/internal/metaserver"
	"github.com/mcpman/mcpman/internal/metatools"
	"github.com/mcpman/mcpman/internal/script"
	"github.com/mcpman/mcpman/internal/surface"
	"github.com/mcpman/mcpman/internal/upstream"
)

func main() {
	configPath := flag.String("config", "", "path to the settings JSON file (servers, logging)")
	logLevel := flag.String("log-level", "", "debug|info|warn|error, overrides the config file's logging.level")
	logFile := flag.String("log-file", "", "redirect logs to this file instead of stderr")
	traceFlag := flag.Bool("trace", os.Getenv("MCPMAN_TRACE") != "", "force debug-level logging (also set by MCPMAN_TRACE)")
	flag.Parse()

	if err := run(*configPath, *logLevel, *logFile, *traceFlag); err != nil {
		fmt.Fprintln(os.Stderr, "mcpman:", err)
		os.Exit(1)
	}
}

func run(configPath, logLevel, logFile string, trace bool) error {
	settings, err := loadSettings(configPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if logLevel == "" {
		logLevel = settings.Logging.Level
	}
	if logFile == "" {
		logFile = settings.Logging.File
	}
	logger, err := logging.New(logging.Config{Level: logLevel, File: logFile, Trace: trace})
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	fleet := upstream.NewFleet(logger)
	for name, cfg := range settings.Servers {
		fleet.AddServer(context.Background(), name, cfg, upstream.BuildOAuthProvider(cfg, logger))
	}

	rt := script.NewRuntime(globalsFor(fleet))
	cache := surface.NewTypeTextCache()
	settingsRegistry := metatools.NewSettings(settings, func(s config.Settings) error {
		return persistSettings(configPath, s)
	})
	handlers := metatools.NewHandlers(fleet, rt, cache, settingsRegistry, nil, logger)

	srv := metaserver.New(fleet, handlers, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var transport mcp.Transport = &mcp.StdioTransport{}
	if trace {
		transport = &mcp.LoggingTransport{Transport: transport, Writer: stderrWriter{logger: logger}}
	}
	return srv.Run(ctx, transport)
}

func loadSettings(path string) (config.Settings, error) {
	if path == "" {
		return config.Settings{Servers: map[string]config.ServerConfig{}}, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return config.Settings{}, err
	}
	var s config.Settings
	if err := json.Unmarshal(b, &s); err != nil {
		return config.Settings{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return config.Settings{}, err
	}
	return s, nil
}

func persistSettings(path string, s config.Settings) error {
	if path == "" {
		return nil
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}
