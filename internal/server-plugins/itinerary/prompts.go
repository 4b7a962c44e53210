package itinerary

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/travel-butler/trip-engine/internal/engine"
)

// TripPromptTemplates contains prompt templates for itinerary review.
// The templates encode what a careful travel planner checks before a
// plan is confirmed and money is spent.
type TripPromptTemplates struct{}

// PromptTemplate represents a prompt template with its metadata
type PromptTemplate struct {
	Name         string
	Description  string
	Template     string
	RequiredArgs []string
}

func NewTripPromptTemplates() *TripPromptTemplates {
	return &TripPromptTemplates{}
}

// GetReviewPrompt returns the template for reviewing an itinerary
// before confirmation.
func (p *TripPromptTemplates) GetReviewPrompt() PromptTemplate {
	return PromptTemplate{
		Name:        "trip_review",
		Description: "Review an itinerary for gaps, conflicts and budget problems before confirming it",
		Template: `Please review the itinerary "%s" (%s, %s to %s, estimated total $%.2f).

Check the following before the traveller confirms:

🗓️ **Schedule**
1. Overlapping steps on the same day
2. Unrealistic transfers between locations
3. Flights or check-ins that conflict with reservations
4. Days with nothing planned

💰 **Budget**
1. Steps with no price estimate
2. Steps that look unusually expensive for their type
3. The total against a typical budget for this destination

📋 **Completeness**
1. Missing return flight or last-night hotel
2. Restaurant reservations without a time
3. Steps missing a location

Use the get_itinerary tool for the full step list and finish with a short
verdict: confirm as-is, or the specific changes to make first.`,
		RequiredArgs: []string{},
	}
}

// Prompt implementations
func (p *ItineraryServerPlugin) buildTripReviewPrompt() mcp.Prompt {
	return mcp.NewPrompt(
		"trip_review",
		mcp.WithPromptDescription("Review the current itinerary for gaps, conflicts and budget problems"),
	)
}

func (p *ItineraryServerPlugin) handleTripReviewPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	current, err := p.engine.CurrentPlan(ctx)
	if err != nil {
		return &mcp.GetPromptResult{
			Description: "no itinerary exists yet",
		}, fmt.Errorf("no itinerary exists yet: %w", err)
	}

	projection := engine.ProjectPlan(current)
	tmpl := NewTripPromptTemplates().GetReviewPrompt()
	promptText := fmt.Sprintf(tmpl.Template,
		projection.Title,
		projection.Destination,
		projection.StartDate,
		projection.EndDate,
		projection.TotalUSD,
	)

	return &mcp.GetPromptResult{
		Description: tmpl.Description,
		Messages: []mcp.PromptMessage{
			{
				Role:    "user",
				Content: mcp.TextContent{Type: "text", Text: promptText},
			},
		},
	}, nil
}
