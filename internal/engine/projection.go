package engine

import (
	"github.com/samber/lo"
	"github.com/travel-butler/trip-engine/internal/plan"
)

// StepProjection is the read-only view of one step.
type StepProjection struct {
	ID        string  `json:"id"`
	Order     int     `json:"order"`
	Type      string  `json:"type"`
	Title     string  `json:"title"`
	Date      string  `json:"date"`
	StartTime string  `json:"start_time,omitempty"`
	EndTime   string  `json:"end_time,omitempty"`
	Location  string  `json:"location,omitempty"`
	Agent     string  `json:"agent"`
	PriceUSD  float64 `json:"price_usd"`
	Status    string  `json:"status"`
	Error     string  `json:"error,omitempty"`
}

// PlanProjection is the read-only plan-with-steps view the
// presentation layer renders. Snapshots are immutable: the engine
// builds a fresh one after each transition.
type PlanProjection struct {
	ID           string           `json:"id"`
	Title        string           `json:"title"`
	Destination  string           `json:"destination"`
	StartDate    string           `json:"start_date"`
	EndDate      string           `json:"end_date"`
	Status       string           `json:"status"`
	TotalUSD     float64          `json:"total_usd"`
	CancelReason string           `json:"cancel_reason,omitempty"`
	Steps        []StepProjection `json:"steps"`
}

// Execution phases for the progress view.
const (
	PhaseWaiting    = "waiting"
	PhaseProcessing = "processing"
	PhaseDone       = "done"
)

// ExecutionProjection is the simplified per-step progress view.
type ExecutionProjection struct {
	PlanID string            `json:"plan_id"`
	Phases map[string]string `json:"phases"` // step id -> phase
}

// ProjectPlan builds an immutable snapshot of a plan.
func ProjectPlan(p *plan.Plan) *PlanProjection {
	steps := lo.Map(p.Steps(), func(step *plan.Step, _ int) StepProjection {
		location := ""
		if step.Location() != nil {
			location = step.Location().String()
		}
		return StepProjection{
			ID:        step.ID(),
			Order:     step.Order(),
			Type:      step.Type(),
			Title:     step.Title(),
			Date:      step.Date().String(),
			StartTime: step.StartTime(),
			EndTime:   step.EndTime(),
			Location:  location,
			Agent:     step.Agent(),
			PriceUSD:  step.EstimatedPrice().Float64(),
			Status:    step.Status().String(),
			Error:     step.ErrorDetail(),
		}
	})

	return &PlanProjection{
		ID:           p.ID(),
		Title:        p.Title(),
		Destination:  p.Destination(),
		StartDate:    p.StartDate().String(),
		EndDate:      p.EndDate().String(),
		Status:       p.Status().String(),
		TotalUSD:     p.EstimatedTotal().Float64(),
		CancelReason: p.CancelReason(),
		Steps:        steps,
	}
}

// ProjectExecution builds the progress view for a plan.
func ProjectExecution(p *plan.Plan) *ExecutionProjection {
	phases := make(map[string]string, len(p.Steps()))
	for _, step := range p.Steps() {
		phases[step.ID()] = phaseForStatus(step.Status())
	}
	return &ExecutionProjection{
		PlanID: p.ID(),
		Phases: phases,
	}
}

func phaseForStatus(status plan.StepStatus) string {
	switch status {
	case plan.StepStatusPending:
		return PhaseWaiting
	case plan.StepStatusSearching, plan.StepStatusFound:
		return PhaseProcessing
	default:
		return PhaseDone
	}
}
