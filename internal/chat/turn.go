package chat

import "context"

// Capability names the conversational layer reports invocations for.
// The engine inspects only the capability name and status of each
// record; payloads stay opaque.
const (
	CapabilityGenerateItinerary = "itinerary.generate"
	CapabilityExecuteItinerary  = "itinerary.execute"
)

// Invocation statuses as reported by the conversational layer.
const (
	InvocationStatusOK      = "ok"
	InvocationStatusError   = "error"
	InvocationStatusPending = "pending"
)

// TurnInvocation is one capability call made during a chat turn.
type TurnInvocation struct {
	Capability  string `json:"capability"`
	Status      string `json:"status"`
	PlanID      string `json:"plan_id,omitempty"`
	LatencyMS   int64  `json:"latency_ms"`
	PayloadHash string `json:"payload_hash,omitempty"`
}

// TurnResult is what a chat turn produced: a reply for the user and
// the capability calls made while producing it.
type TurnResult struct {
	Reply       string           `json:"reply"`
	Invocations []TurnInvocation `json:"invocations"`
}

// TurnRequester lets the engine ask the conversational layer to send
// a follow-up message on its behalf. Capability execution is always
// routed through a chat turn so the conversation retains full history.
type TurnRequester interface {
	RequestFollowUp(ctx context.Context, planID, message string) (*TurnResult, error)
}
