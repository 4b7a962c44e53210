package chat

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/travel-butler/trip-engine/pkg/config"
)

// Assistant is the OpenAI-backed conversational layer adapter. It
// forwards engine-initiated follow-up messages as ordinary chat turns.
type Assistant struct {
	client openai.Client
	model  string
	logger *slog.Logger
}

func NewAssistant(cfg config.AssistantConfig, logger *slog.Logger) *Assistant {
	return &Assistant{
		client: openai.NewClient(
			option.WithAPIKey(os.Getenv("OPENAI_API_KEY")),
		),
		model:  cfg.Model,
		logger: logger,
	}
}

func (a *Assistant) RequestFollowUp(ctx context.Context, planID, message string) (*TurnResult, error) {
	a.logger.Debug("Requesting follow-up chat turn",
		"plan_id", planID,
		"message", message)

	completion, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(a.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You are a travel planning assistant coordinating booking agents."),
			openai.UserMessage(message),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("follow-up turn failed: %w", err)
	}

	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("follow-up turn returned no choices")
	}

	return &TurnResult{
		Reply: completion.Choices[0].Message.Content,
		Invocations: []TurnInvocation{
			{
				Capability: CapabilityExecuteItinerary,
				Status:     InvocationStatusOK,
				PlanID:     planID,
			},
		},
	}, nil
}
