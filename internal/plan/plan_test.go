package plan_test

import (
	"github.com/travel-butler/trip-engine/internal/plan"
	"github.com/travel-butler/trip-engine/internal/shared"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func newDraftPlan() *plan.Plan {
	p, err := plan.NewPlan("Tokyo in May", "Tokyo", "2026-05-14", "2026-05-21")
	Expect(err).NotTo(HaveOccurred())
	return p
}

func newStepWithPrice(order int, stepType, title string, cents int64) *plan.Step {
	step, err := plan.NewStep(order, stepType, title, "2026-05-14")
	Expect(err).NotTo(HaveOccurred())
	step.SetEstimatedPrice(shared.MustNewMoney(cents, "USD"))
	return step
}

var _ = Describe("Plan", func() {
	Describe("NewPlan", func() {
		It("should start as an empty draft", func() {
			p := newDraftPlan()

			Expect(p.ID()).NotTo(BeEmpty())
			Expect(p.Status()).To(Equal(plan.PlanStatusDraft))
			Expect(p.Steps()).To(BeEmpty())
			Expect(p.EstimatedTotal().IsZero()).To(BeTrue())
		})

		It("should reject an end date before the start date", func() {
			_, err := plan.NewPlan("Backwards", "Nowhere", "2026-05-21", "2026-05-14")
			Expect(err).To(HaveOccurred())
		})

		It("should reject empty titles and destinations", func() {
			_, err := plan.NewPlan("", "Tokyo", "2026-05-14", "2026-05-21")
			Expect(err).To(HaveOccurred())

			_, err = plan.NewPlan("Tokyo in May", "  ", "2026-05-14", "2026-05-21")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("AddStep", func() {
		It("should keep steps sorted by order and recompute the total", func() {
			p := newDraftPlan()

			Expect(p.AddStep(newStepWithPrice(2, "hotel", "Shinjuku hotel", 45000))).To(Succeed())
			Expect(p.AddStep(newStepWithPrice(1, "flight", "SFO to NRT", 129900))).To(Succeed())

			steps := p.Steps()
			Expect(steps).To(HaveLen(2))
			Expect(steps[0].Title()).To(Equal("SFO to NRT"))
			Expect(steps[1].Title()).To(Equal("Shinjuku hotel"))
			Expect(p.EstimatedTotal().Cents()).To(Equal(int64(174900)))
		})

		It("should reject duplicate order values", func() {
			p := newDraftPlan()
			Expect(p.AddStep(newStepWithPrice(1, "flight", "SFO to NRT", 0))).To(Succeed())

			err := p.AddStep(newStepWithPrice(1, "hotel", "Shinjuku hotel", 0))
			Expect(err).To(MatchError(plan.ErrDuplicateOrder))
		})

		It("should reject steps once the plan is confirmed", func() {
			p := newDraftPlan()
			Expect(p.AddStep(newStepWithPrice(1, "flight", "SFO to NRT", 0))).To(Succeed())
			Expect(p.Confirm()).To(Succeed())

			err := p.AddStep(newStepWithPrice(2, "hotel", "Shinjuku hotel", 0))
			Expect(err).To(MatchError(plan.ErrPlanFrozen))
		})
	})

	Describe("RemoveStep", func() {
		It("should renumber the remaining steps contiguously", func() {
			p := newDraftPlan()
			first := newStepWithPrice(1, "flight", "SFO to NRT", 100)
			second := newStepWithPrice(2, "hotel", "Shinjuku hotel", 200)
			third := newStepWithPrice(3, "restaurant", "Sushi dinner", 300)
			Expect(p.AddStep(first)).To(Succeed())
			Expect(p.AddStep(second)).To(Succeed())
			Expect(p.AddStep(third)).To(Succeed())

			Expect(p.RemoveStep(second.ID())).To(Succeed())

			steps := p.Steps()
			Expect(steps).To(HaveLen(2))
			Expect(steps[0].Order()).To(Equal(1))
			Expect(steps[1].Order()).To(Equal(2))
			Expect(steps[1].Title()).To(Equal("Sushi dinner"))
			Expect(p.EstimatedTotal().Cents()).To(Equal(int64(400)))
		})

		It("should refuse on a confirmed plan", func() {
			p := newDraftPlan()
			step := newStepWithPrice(1, "flight", "SFO to NRT", 0)
			Expect(p.AddStep(step)).To(Succeed())
			Expect(p.Confirm()).To(Succeed())

			Expect(p.RemoveStep(step.ID())).To(MatchError(plan.ErrPlanFrozen))
		})
	})

	Describe("Confirm", func() {
		It("should return ErrNothingToConfirm for a non-draft plan", func() {
			p := newDraftPlan()
			Expect(p.Confirm()).To(Succeed())

			Expect(p.Confirm()).To(MatchError(plan.ErrNothingToConfirm))
		})
	})

	Describe("Complete", func() {
		It("should require every step to be settled", func() {
			p := newDraftPlan()
			booked := newStepWithPrice(1, "flight", "SFO to NRT", 0)
			pending := newStepWithPrice(2, "hotel", "Shinjuku hotel", 0)
			Expect(p.AddStep(booked)).To(Succeed())
			Expect(p.AddStep(pending)).To(Succeed())
			Expect(p.Confirm()).To(Succeed())
			Expect(p.StartExecution()).To(Succeed())

			Expect(booked.StartSearch()).To(Succeed())
			Expect(booked.MarkFound(nil)).To(Succeed())
			Expect(booked.Book()).To(Succeed())

			Expect(p.Complete()).To(MatchError(ContainSubstring("not settled")))

			Expect(pending.Skip()).To(Succeed())
			Expect(p.Complete()).To(Succeed())
			Expect(p.Status()).To(Equal(plan.PlanStatusCompleted))
		})

		It("should complete with a mix of booked, failed and skipped steps", func() {
			p := newDraftPlan()
			booked := newStepWithPrice(1, "flight", "SFO to NRT", 0)
			failed := newStepWithPrice(2, "hotel", "Shinjuku hotel", 0)
			skipped := newStepWithPrice(3, "restaurant", "Sushi dinner", 0)
			Expect(p.AddStep(booked)).To(Succeed())
			Expect(p.AddStep(failed)).To(Succeed())
			Expect(p.AddStep(skipped)).To(Succeed())
			Expect(p.Confirm()).To(Succeed())
			Expect(p.StartExecution()).To(Succeed())

			Expect(booked.StartSearch()).To(Succeed())
			Expect(booked.MarkFound(nil)).To(Succeed())
			Expect(booked.Book()).To(Succeed())
			Expect(failed.StartSearch()).To(Succeed())
			Expect(failed.Fail("no rooms available")).To(Succeed())
			Expect(skipped.Skip()).To(Succeed())

			Expect(p.Complete()).To(Succeed())
		})
	})

	Describe("Cancel", func() {
		It("should record the reason and become terminal", func() {
			p := newDraftPlan()

			Expect(p.Cancel("traveller changed their mind")).To(Succeed())
			Expect(p.Status()).To(Equal(plan.PlanStatusCancelled))
			Expect(p.CancelReason()).To(Equal("traveller changed their mind"))
			Expect(p.IsTerminal()).To(BeTrue())

			Expect(p.Cancel("again")).NotTo(Succeed())
		})
	})

	Describe("Clone", func() {
		It("should deep copy the steps", func() {
			p := newDraftPlan()
			step := newStepWithPrice(1, "flight", "SFO to NRT", 100)
			Expect(p.AddStep(step)).To(Succeed())

			clone := p.Clone()
			Expect(clone.Steps()[0].StartSearch()).To(Succeed())

			Expect(p.Steps()[0].Status()).To(Equal(plan.StepStatusPending))
		})
	})
})

var _ = Describe("Step", func() {
	It("should retry a failed search", func() {
		step := newStepWithPrice(1, "hotel", "Shinjuku hotel", 0)

		Expect(step.StartSearch()).To(Succeed())
		Expect(step.Fail("gateway unavailable")).To(Succeed())
		Expect(step.ErrorDetail()).To(Equal("gateway unavailable"))

		Expect(step.StartSearch()).To(Succeed())
		Expect(step.MarkFound(map[string]interface{}{"hotel_id": "h-1"})).To(Succeed())
		Expect(step.ErrorDetail()).To(BeEmpty())
		Expect(step.Book()).To(Succeed())
		Expect(step.IsSettled()).To(BeTrue())
	})

	It("should reject invalid transitions with a typed error", func() {
		step := newStepWithPrice(1, "flight", "SFO to NRT", 0)

		err := step.Book()
		Expect(err).To(HaveOccurred())
		Expect(plan.IsInvalidTransition(err)).To(BeTrue())
	})

	It("should validate wall-clock times", func() {
		step := newStepWithPrice(1, "restaurant", "Sushi dinner", 0)

		Expect(step.SetTimes("19:00", "21:00")).To(Succeed())
		Expect(step.SetTimes("7pm", "")).NotTo(Succeed())
	})
})
