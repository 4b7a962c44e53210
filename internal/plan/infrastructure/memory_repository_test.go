package infrastructure_test

import (
	"context"
	"testing"

	"github.com/travel-butler/trip-engine/internal/plan"
	"github.com/travel-butler/trip-engine/internal/plan/infrastructure"
	"github.com/travel-butler/trip-engine/internal/shared"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestPlanRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Plan Repository Suite")
}

var _ = Describe("InMemoryPlanRepository", func() {
	var (
		repo *infrastructure.InMemoryPlanRepository
		ctx  context.Context
	)

	newPlanWithStep := func() (*plan.Plan, *plan.Step) {
		p, err := plan.NewPlan("Tokyo in May", "Tokyo", "2026-05-14", "2026-05-21")
		Expect(err).NotTo(HaveOccurred())
		step, err := plan.NewStep(1, "flight", "SFO to NRT", "2026-05-14")
		Expect(err).NotTo(HaveOccurred())
		Expect(p.AddStep(step)).To(Succeed())
		return p, step
	}

	BeforeEach(func() {
		repo = infrastructure.NewInMemoryPlanRepository()
		ctx = context.Background()
	})

	It("should store and return deep copies", func() {
		p, _ := newPlanWithStep()
		Expect(repo.Save(ctx, p)).To(Succeed())

		loaded, err := repo.GetByID(ctx, p.ID())
		Expect(err).NotTo(HaveOccurred())

		// Mutating the loaded copy must not leak into the store.
		Expect(loaded.Confirm()).To(Succeed())
		stored, err := repo.GetByID(ctx, p.ID())
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.Status()).To(Equal(plan.PlanStatusDraft))
	})

	It("should return ErrPlanNotFound for unknown ids", func() {
		_, err := repo.GetByID(ctx, "missing")
		Expect(err).To(MatchError(plan.ErrPlanNotFound))
	})

	It("should accept single-hop plan transitions", func() {
		p, _ := newPlanWithStep()
		Expect(repo.Save(ctx, p)).To(Succeed())

		Expect(p.Confirm()).To(Succeed())
		Expect(repo.Save(ctx, p)).To(Succeed())

		Expect(p.StartExecution()).To(Succeed())
		Expect(repo.Save(ctx, p)).To(Succeed())
	})

	It("should reject a plan status jump", func() {
		p, _ := newPlanWithStep()
		Expect(repo.Save(ctx, p)).To(Succeed())

		jumped := p.Clone()
		Expect(jumped.Confirm()).To(Succeed())
		Expect(jumped.StartExecution()).To(Succeed())

		err := repo.Save(ctx, jumped)
		Expect(err).To(HaveOccurred())
		Expect(plan.IsInvalidTransition(err)).To(BeTrue())
	})

	It("should reject a step status jump", func() {
		p, _ := newPlanWithStep()
		Expect(repo.Save(ctx, p)).To(Succeed())

		jumped := p.Clone()
		step := jumped.Steps()[0]
		Expect(step.StartSearch()).To(Succeed())
		Expect(step.MarkFound(nil)).To(Succeed())

		err := repo.Save(ctx, jumped)
		Expect(err).To(HaveOccurred())
		Expect(plan.IsInvalidTransition(err)).To(BeTrue())
	})

	It("should reject steps added behind a confirmation", func() {
		p, _ := newPlanWithStep()
		Expect(repo.Save(ctx, p)).To(Succeed())

		// A stale draft clone gains a step while the stored plan is
		// confirmed; the repository is the backstop.
		stale := p.Clone()
		extra, err := plan.NewStep(2, "hotel", "Shinjuku hotel", "2026-05-15")
		Expect(err).NotTo(HaveOccurred())
		Expect(stale.AddStep(extra)).To(Succeed())

		Expect(p.Confirm()).To(Succeed())
		Expect(repo.Save(ctx, p)).To(Succeed())

		Expect(stale.Confirm()).To(Succeed())
		Expect(repo.Save(ctx, stale)).To(MatchError(plan.ErrPlanFrozen))
	})

	It("should reject field edits behind a confirmation", func() {
		p, _ := newPlanWithStep()
		Expect(repo.Save(ctx, p)).To(Succeed())
		Expect(p.Confirm()).To(Succeed())
		Expect(repo.Save(ctx, p)).To(Succeed())

		edited := p.Clone()
		Expect(edited.Steps()[0].SetTitle("SFO to HND")).To(Succeed())
		Expect(repo.Save(ctx, edited)).To(MatchError(plan.ErrPlanFrozen))
	})

	It("should reject edits to the steps of a completed plan", func() {
		p, step := newPlanWithStep()
		Expect(repo.Save(ctx, p)).To(Succeed())
		Expect(p.Confirm()).To(Succeed())
		Expect(repo.Save(ctx, p)).To(Succeed())
		Expect(p.StartExecution()).To(Succeed())
		Expect(repo.Save(ctx, p)).To(Succeed())
		Expect(step.StartSearch()).To(Succeed())
		Expect(repo.Save(ctx, p)).To(Succeed())
		Expect(step.MarkFound(map[string]interface{}{"offer_id": "f-1"})).To(Succeed())
		Expect(repo.Save(ctx, p)).To(Succeed())
		Expect(step.Book()).To(Succeed())
		Expect(repo.Save(ctx, p)).To(Succeed())
		Expect(p.Complete()).To(Succeed())
		Expect(repo.Save(ctx, p)).To(Succeed())

		edited := p.Clone()
		rewritten := edited.Steps()[0]
		Expect(rewritten.SetTitle("Rewritten history")).To(Succeed())
		rewritten.SetEstimatedPrice(shared.MustNewMoney(999900, "USD"))
		Expect(repo.Save(ctx, edited)).To(MatchError(plan.ErrPlanFrozen))
	})

	It("should accept a price recorded alongside a settlement", func() {
		p, step := newPlanWithStep()
		Expect(repo.Save(ctx, p)).To(Succeed())
		Expect(p.Confirm()).To(Succeed())
		Expect(repo.Save(ctx, p)).To(Succeed())
		Expect(p.StartExecution()).To(Succeed())
		Expect(repo.Save(ctx, p)).To(Succeed())
		Expect(step.StartSearch()).To(Succeed())
		Expect(repo.Save(ctx, p)).To(Succeed())

		Expect(step.MarkFound(map[string]interface{}{"offer_id": "f-1"})).To(Succeed())
		step.SetEstimatedPrice(shared.MustNewMoney(129900, "USD"))
		p.RecalculateTotal()
		Expect(repo.Save(ctx, p)).To(Succeed())

		// The same price change without a status transition is an edit.
		step.SetEstimatedPrice(shared.MustNewMoney(1, "USD"))
		Expect(repo.Save(ctx, p)).To(MatchError(plan.ErrPlanFrozen))
	})

	It("should delete plans", func() {
		p, _ := newPlanWithStep()
		Expect(repo.Save(ctx, p)).To(Succeed())

		Expect(repo.Delete(ctx, p.ID())).To(Succeed())
		_, err := repo.GetByID(ctx, p.ID())
		Expect(err).To(MatchError(plan.ErrPlanNotFound))
		Expect(repo.Delete(ctx, p.ID())).To(MatchError(plan.ErrPlanNotFound))
	})

	It("should list every stored plan", func() {
		first, _ := newPlanWithStep()
		second, _ := newPlanWithStep()
		Expect(repo.Save(ctx, first)).To(Succeed())
		Expect(repo.Save(ctx, second)).To(Succeed())

		plans, err := repo.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(plans).To(HaveLen(2))
	})
})
