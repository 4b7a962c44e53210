package capability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/travel-butler/trip-engine/internal/gateway"
)

// RemoteTool is one entry of the gateway tool listing.
type RemoteTool struct {
	Name   string `json:"name"`
	Prefix string `json:"prefix"`
	Module string `json:"module"`
}

// Catalog lists the tools the gateway currently exposes. Listings are
// cached briefly so the discovery loop does not hammer the gateway.
type Catalog struct {
	client *gateway.Client

	mu        sync.Mutex
	cached    []RemoteTool
	fetchedAt time.Time
	cacheTTL  time.Duration
}

func NewCatalog(client *gateway.Client) *Catalog {
	return &Catalog{
		client:   client,
		cacheTTL: 30 * time.Second,
	}
}

// ListTools returns the gateway's registered tools.
func (c *Catalog) ListTools(ctx context.Context) ([]RemoteTool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != nil && time.Since(c.fetchedAt) < c.cacheTTL {
		return c.cached, nil
	}

	var listing struct {
		Tools []RemoteTool `json:"tools"`
		Count int          `json:"count"`
	}
	if err := c.client.Get(ctx, "/tools", &listing); err != nil {
		return nil, fmt.Errorf("failed to list gateway tools: %w", err)
	}

	c.cached = listing.Tools
	c.fetchedAt = time.Now()
	return listing.Tools, nil
}

// ListToolNames returns just the tool names.
func (c *Catalog) ListToolNames(ctx context.Context) ([]string, error) {
	tools, err := c.ListTools(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		names = append(names, tool.Name)
	}
	return names, nil
}
