package plugins

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/travel-butler/trip-engine/internal/server-plugin/domain"
	"github.com/travel-butler/trip-engine/pkg/config"
	"go.uber.org/fx"
)

// ServerPluginRegistry manages the basic registration of server plugins
type ServerPluginRegistry struct {
	plugins map[string]domain.ServerPlugin
	mu      sync.RWMutex
}

// NewServerPluginRegistry creates a new server plugin registry
func NewServerPluginRegistry() *ServerPluginRegistry {
	return &ServerPluginRegistry{
		plugins: make(map[string]domain.ServerPlugin),
	}
}

// Register registers a server plugin
func (r *ServerPluginRegistry) Register(plugin domain.ServerPlugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.plugins[plugin.ID()] = plugin
	return nil
}

// GetResourceProviders returns all plugins that provide resources
func (r *ServerPluginRegistry) GetResourceProviders() []domain.ResourceProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var providers []domain.ResourceProvider
	for _, plugin := range r.plugins {
		if provider, ok := plugin.(domain.ResourceProvider); ok {
			providers = append(providers, provider)
		}
	}
	return providers
}

// GetToolProviders returns all plugins that provide tools
func (r *ServerPluginRegistry) GetToolProviders() []domain.ToolProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var providers []domain.ToolProvider
	for _, plugin := range r.plugins {
		if provider, ok := plugin.(domain.ToolProvider); ok {
			providers = append(providers, provider)
		}
	}
	return providers
}

// GetPromptProviders returns all plugins that provide prompts
func (r *ServerPluginRegistry) GetPromptProviders() []domain.PromptProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var providers []domain.PromptProvider
	for _, plugin := range r.plugins {
		if provider, ok := plugin.(domain.PromptProvider); ok {
			providers = append(providers, provider)
		}
	}
	return providers
}

// ServerPluginProvider interface that matches what MCPAdapter expects
type ServerPluginProvider interface {
	GetResourceProviders() []domain.ResourceProvider
	GetToolProviders() []domain.ToolProvider
	GetPromptProviders() []domain.PromptProvider
}

// DynamicServerPluginRegistry manages the lifecycle of server plugins
// based on the tools the capability gateway currently exposes.
type DynamicServerPluginRegistry struct {
	pluginRegistry *ServerPluginRegistry
	toolDiscovery  domain.ToolDiscoveryService
	logger         *slog.Logger
	srvConfig      *config.ServerConfig

	allServerPlugins []domain.ServerPlugin
	active           map[string]bool
	mu               sync.RWMutex
}

type DynamicServerPluginRegistryParams struct {
	fx.In
	PluginRegistry *ServerPluginRegistry
	ToolDiscovery  domain.ToolDiscoveryService
	Logger         *slog.Logger
	SrvConfig      *config.ServerConfig
	ServerPlugins  []domain.ServerPlugin `group:"server_plugins"`
}

// NewDynamicServerPluginRegistry creates a new dynamic server plugin registry
func NewDynamicServerPluginRegistry(params DynamicServerPluginRegistryParams) *DynamicServerPluginRegistry {
	return &DynamicServerPluginRegistry{
		pluginRegistry:   params.PluginRegistry,
		toolDiscovery:    params.ToolDiscovery,
		logger:           params.Logger,
		srvConfig:        params.SrvConfig,
		allServerPlugins: params.ServerPlugins,
		active:           make(map[string]bool),
	}
}

// RegisterHooks connects the registry's lifecycle to the Fx application lifecycle.
func (r *DynamicServerPluginRegistry) RegisterHooks(lc fx.Lifecycle) {
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			r.logger.Info("DynamicServerPluginRegistry starting...")

			for _, srvPlugin := range r.allServerPlugins {
				if err := r.pluginRegistry.Register(srvPlugin); err != nil {
					r.logger.Error("Failed to register server plugin",
						"plugin", srvPlugin.ID(),
						"error", err)
					continue
				}
				r.logger.Debug("ServerPlugin registered with registry",
					"plugin", srvPlugin.ID(),
					"name", srvPlugin.Name(),
					"required_tools", srvPlugin.RequiredTools())
			}

			if r.srvConfig.Discovery.Enabled && r.srvConfig.Discovery.SyncInterval > 0 {
				r.logger.Info("Starting tool discovery sync loop",
					"interval", r.srvConfig.Discovery.SyncInterval)
				go r.runSyncLoop(ctx, r.srvConfig.Discovery.SyncInterval)
			} else {
				r.logger.Info("Tool discovery sync loop disabled")
				// Initial sync is handled by server hooks before MCP
				// registration so resources and prompts are available
				// from the first client request.
			}
			return nil
		},
		OnStop: func(context.Context) error {
			r.logger.Info("DynamicServerPluginRegistry stopping...")
			cancel()
			return nil
		},
	})
}

// runSyncLoop runs the periodic synchronization in a background goroutine.
func (r *DynamicServerPluginRegistry) runSyncLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("ServerPlugin synchronization loop stopped")
			return
		case <-ticker.C:
			if err := r.syncServerPlugins(ctx); err != nil {
				r.logger.Error("ServerPlugin sync failed", "error", err)
			}
		}
	}
}

// syncServerPlugins checks the gateway tool catalog and activates or
// deactivates server plugins as needed.
func (r *DynamicServerPluginRegistry) syncServerPlugins(ctx context.Context) error {
	r.logger.Debug("Starting server plugin synchronization")

	availableTools, err := r.toolDiscovery.GetAvailableTools(ctx)
	if err != nil {
		r.logger.Error("Failed to list gateway tools, proceeding with core plugins only", "error", err)
		availableTools = []string{}
	}

	r.logger.Debug("Gateway tools detected", "tools", availableTools)

	r.mu.Lock()
	defer r.mu.Unlock()

	activatedCount := 0
	deactivatedCount := 0

	for _, srvPlugin := range r.allServerPlugins {
		srvPluginID := srvPlugin.ID()
		requiredTools := srvPlugin.RequiredTools()

		// Core server plugins (no required tools) are always active.
		// The others require every one of their tools on the gateway.
		shouldBeActive := len(requiredTools) == 0 || r.hasAllTools(requiredTools, availableTools)
		isCurrentlyActive := r.active[srvPluginID]

		r.logger.Debug("ServerPlugin activation check",
			"plugin", srvPluginID,
			"name", srvPlugin.Name(),
			"required_tools", requiredTools,
			"should_be_active", shouldBeActive,
			"currently_active", isCurrentlyActive)

		if shouldBeActive && !isCurrentlyActive {
			r.active[srvPluginID] = true
			r.logger.Info("ServerPlugin activated",
				"plugin", srvPluginID,
				"name", srvPlugin.Name())
			activatedCount++

		} else if !shouldBeActive && isCurrentlyActive {
			r.active[srvPluginID] = false
			r.logger.Info("ServerPlugin deactivated",
				"plugin", srvPluginID,
				"name", srvPlugin.Name())
			deactivatedCount++
		}
	}

	r.logger.Info("ServerPlugin synchronization completed",
		"activated", activatedCount,
		"deactivated", deactivatedCount,
		"total_active", r.getActiveServerPluginsCountUnsafe())

	return nil
}

// getActiveServerPluginsCountUnsafe returns the count of active server plugins without acquiring a lock.
// This method should only be called when the caller already holds the lock.
func (r *DynamicServerPluginRegistry) getActiveServerPluginsCountUnsafe() int {
	count := 0
	for _, plugin := range r.allServerPlugins {
		if r.active[plugin.ID()] {
			count++
		}
	}
	return count
}

// GetActiveServerPlugins returns a list of currently active server plugins.
func (r *DynamicServerPluginRegistry) GetActiveServerPlugins() []domain.ServerPlugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var activeServerPlugins []domain.ServerPlugin
	for _, srvPlugin := range r.allServerPlugins {
		if r.active[srvPlugin.ID()] {
			activeServerPlugins = append(activeServerPlugins, srvPlugin)
		}
	}

	return activeServerPlugins
}

// IsServerPluginActive checks if a specific plugin is currently active.
func (r *DynamicServerPluginRegistry) IsServerPluginActive(srvPluginID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.active[srvPluginID]
}

// hasAllTools checks that every required tool is in the available list.
func (r *DynamicServerPluginRegistry) hasAllTools(required, available []string) bool {
	availableSet := make(map[string]bool, len(available))
	for _, tool := range available {
		availableSet[tool] = true
	}
	for _, tool := range required {
		if !availableSet[tool] {
			return false
		}
	}
	return true
}

// SyncServerPlugins performs a manual synchronization of server plugins (exposed for testing).
func (r *DynamicServerPluginRegistry) SyncServerPlugins(ctx context.Context) error {
	return r.syncServerPlugins(ctx)
}
