package infrastructure

import (
	"context"
	"log/slog"
	"time"

	"github.com/travel-butler/trip-engine/internal/capability"
	"github.com/travel-butler/trip-engine/internal/server-plugin/domain"
)

// toolDiscoveryService implements domain.ToolDiscoveryService on top
// of the gateway tool catalog.
type toolDiscoveryService struct {
	catalog *capability.Catalog
	logger  *slog.Logger
}

// NewToolDiscoveryService creates a new tool discovery service.
func NewToolDiscoveryService(catalog *capability.Catalog, logger *slog.Logger) domain.ToolDiscoveryService {
	return &toolDiscoveryService{
		catalog: catalog,
		logger:  logger,
	}
}

// GetAvailableTools retrieves the tool names the gateway exposes.
func (s *toolDiscoveryService) GetAvailableTools(ctx context.Context) ([]string, error) {
	discoveryCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	names, err := s.catalog.ListToolNames(discoveryCtx)
	if err != nil {
		s.logger.Error("Failed to list gateway tools", "error", err)
		return nil, err
	}

	s.logger.Debug("Successfully retrieved gateway tools",
		"tools", names,
		"count", len(names))

	return names, nil
}
