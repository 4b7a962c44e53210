package notion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/travel-butler/trip-engine/internal/capability"
	"github.com/travel-butler/trip-engine/internal/engine"
	"github.com/travel-butler/trip-engine/internal/server"
	"github.com/travel-butler/trip-engine/internal/server-plugin/domain"
	"go.uber.org/fx"
)

// NotionServerPlugin exports itineraries as Notion pages. It only
// activates when the gateway exposes the Notion export tool.
type NotionServerPlugin struct {
	engine  *engine.Engine
	invoker capability.Invoker
	logger  *slog.Logger
}

func NewNotionServerPlugin(eng *engine.Engine, invoker capability.Invoker, logger *slog.Logger) domain.ServerPlugin {
	return &NotionServerPlugin{
		engine:  eng,
		invoker: invoker,
		logger:  logger,
	}
}

// ServerPlugin interface implementation
func (p *NotionServerPlugin) ID() string   { return "notion" }
func (p *NotionServerPlugin) Name() string { return "Notion Export" }

func (p *NotionServerPlugin) Description() string {
	return "Itinerary export to a Notion page"
}

func (p *NotionServerPlugin) Version() string { return "0.1.0" }

func (p *NotionServerPlugin) RequiredTools() []string {
	return []string{capability.ToolNotionExport}
}

// ToolProvider implementation
func (p *NotionServerPlugin) GetTools(ctx context.Context) ([]domain.Tool, error) {
	return []domain.Tool{
		{
			Name:        "export_notion",
			Description: "Export the current itinerary as a Notion page",
			Builder:     p.buildExportNotionTool,
			Handler:     p.handleExportNotion,
		},
	}, nil
}

func (p *NotionServerPlugin) buildExportNotionTool() mcp.Tool {
	return mcp.NewTool(
		"export_notion",
		mcp.WithDescription("Export the current itinerary as a Notion page"),
		mcp.WithString("parent_page_id",
			mcp.Description("Notion page under which the export is created"),
		),
	)
}

func (p *NotionServerPlugin) handleExportNotion(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	current, err := p.engine.CurrentPlan(ctx)
	if err != nil {
		return server.Error("no_itinerary", "No itinerary exists yet", "", nil), nil
	}

	projection := engine.ProjectPlan(current)
	payload := map[string]interface{}{
		"title":   pageTitle(projection),
		"content": projection,
	}
	if parent, ok := req.GetArguments()["parent_page_id"].(string); ok && parent != "" {
		payload["parent_page_id"] = parent
	}

	result, err := p.invoker.Invoke(ctx, capability.Request{
		Tool:    capability.ToolNotionExport,
		Agent:   capability.AgentUnknown,
		Payload: payload,
	})
	if err != nil {
		return server.Error("export_failed", fmt.Sprintf("Notion export failed: %v", err), "", nil), nil
	}

	p.logger.Info("Itinerary exported to Notion", "plan_id", current.ID())
	return server.OK("Itinerary exported to Notion", result.Data), nil
}

func pageTitle(projection *engine.PlanProjection) string {
	return fmt.Sprintf("%s (%s)", projection.Title, projection.Destination)
}

var Module = fx.Module("notion",
	fx.Provide(
		fx.Annotate(
			NewNotionServerPlugin,
			fx.As(new(domain.ServerPlugin)),
			fx.ResultTags(`group:"server_plugins"`),
		),
	),
)
