package server

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/server"
	plugins "github.com/travel-butler/trip-engine/internal/server-plugin/application"
	"github.com/travel-butler/trip-engine/internal/server-plugin/infrastructure"
	"github.com/travel-butler/trip-engine/pkg/config"
	"go.uber.org/fx"
)

// NewMCPServerInstance creates a new MCP server instance.
func NewMCPServerInstance(cfg *config.ServerConfig, logger *slog.Logger) *server.MCPServer {
	logger.Debug("Creating MCP server instance")
	mcpServer := server.NewMCPServer(
		"Trip Engine MCP Server",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, true),
		server.WithPromptCapabilities(true),
	)
	logger.Debug("MCP server instance created successfully")
	return mcpServer
}

// Version is set at build time via -ldflags.
var Version = "dev"

var Module = fx.Module("server",
	fx.Provide(
		NewMCPServerInstance,
		plugins.NewServerPluginRegistry,
		infrastructure.NewToolDiscoveryService,
		plugins.NewDynamicServerPluginRegistry,
		func(dynamicRegistry *plugins.DynamicServerPluginRegistry, mcpServer *server.MCPServer, logger *slog.Logger) *MCPAdapter {
			return NewMCPAdapter(dynamicRegistry, mcpServer, logger)
		},
		func(adapter *MCPAdapter) ServerPluginProvider { return adapter },
	),
	fx.Invoke(func(registry *plugins.DynamicServerPluginRegistry, lc fx.Lifecycle) {
		registry.RegisterHooks(lc)
	}),
	fx.Invoke(registerServerHooks),
)
