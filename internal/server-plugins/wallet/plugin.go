package wallet

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/travel-butler/trip-engine/internal/capability"
	"github.com/travel-butler/trip-engine/internal/engine"
	"github.com/travel-butler/trip-engine/internal/plan"
	"github.com/travel-butler/trip-engine/internal/server"
	"github.com/travel-butler/trip-engine/internal/server-plugin/domain"
	"go.uber.org/fx"
)

// WalletServerPlugin generates Apple Wallet passes for booked steps.
// It only activates when the gateway exposes the wallet tool.
type WalletServerPlugin struct {
	engine  *engine.Engine
	invoker capability.Invoker
	logger  *slog.Logger
}

func NewWalletServerPlugin(eng *engine.Engine, invoker capability.Invoker, logger *slog.Logger) domain.ServerPlugin {
	return &WalletServerPlugin{
		engine:  eng,
		invoker: invoker,
		logger:  logger,
	}
}

// ServerPlugin interface implementation
func (p *WalletServerPlugin) ID() string   { return "wallet" }
func (p *WalletServerPlugin) Name() string { return "Wallet Passes" }

func (p *WalletServerPlugin) Description() string {
	return "Apple Wallet pass generation for booked itinerary steps"
}

func (p *WalletServerPlugin) Version() string { return "0.1.0" }

func (p *WalletServerPlugin) RequiredTools() []string {
	return []string{capability.ToolWalletPass}
}

// ToolProvider implementation
func (p *WalletServerPlugin) GetTools(ctx context.Context) ([]domain.Tool, error) {
	return []domain.Tool{
		{
			Name:        "generate_wallet_passes",
			Description: "Generate Apple Wallet passes for the booked steps of the current itinerary",
			Builder:     p.buildGeneratePassesTool,
			Handler:     p.handleGeneratePasses,
		},
	}, nil
}

func (p *WalletServerPlugin) buildGeneratePassesTool() mcp.Tool {
	return mcp.NewTool(
		"generate_wallet_passes",
		mcp.WithDescription("Generate Apple Wallet passes for the booked steps of the current itinerary"),
		mcp.WithString("step_id",
			mcp.Description("Generate a pass for this step only (default: every booked step)"),
		),
	)
}

func (p *WalletServerPlugin) handleGeneratePasses(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	current, err := p.engine.CurrentPlan(ctx)
	if err != nil {
		return server.Error("no_itinerary", "No itinerary exists yet", "", nil), nil
	}

	onlyStepID, _ := req.GetArguments()["step_id"].(string)

	var booked []*plan.Step
	for _, step := range current.Steps() {
		if step.Status() != plan.StepStatusBooked {
			continue
		}
		if onlyStepID != "" && step.ID() != onlyStepID {
			continue
		}
		booked = append(booked, step)
	}
	if len(booked) == 0 {
		return server.Error("nothing_booked", "No booked steps to generate passes for", "Execute the itinerary first", nil), nil
	}

	passes := make([]map[string]interface{}, 0, len(booked))
	failed := 0
	for _, step := range booked {
		result, err := p.invoker.Invoke(ctx, capability.Request{
			Tool:  capability.ToolWalletPass,
			Agent: capability.AgentForType(step.Type()),
			Payload: map[string]interface{}{
				"step_type": step.Type(),
				"title":     step.Title(),
				"date":      step.Date().String(),
				"booking":   step.Result(),
			},
		})
		if err != nil {
			p.logger.Warn("Wallet pass generation failed",
				"step_id", step.ID(),
				"error", err)
			failed++
			continue
		}
		passes = append(passes, map[string]interface{}{
			"step_id": step.ID(),
			"title":   step.Title(),
			"pass":    result.Data,
		})
	}

	data := map[string]interface{}{"passes": passes, "failed": failed}
	if failed > 0 {
		return server.Partial(
			fmt.Sprintf("Generated %d passes, %d failed", len(passes), failed),
			data,
		), nil
	}
	return server.OK(fmt.Sprintf("Generated %d passes", len(passes)), data), nil
}

var Module = fx.Module("wallet",
	fx.Provide(
		fx.Annotate(
			NewWalletServerPlugin,
			fx.As(new(domain.ServerPlugin)),
			fx.ResultTags(`group:"server_plugins"`),
		),
	),
)
