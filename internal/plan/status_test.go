package plan_test

import (
	"github.com/travel-butler/trip-engine/internal/plan"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("PlanStatus", func() {
	DescribeTable("transitions",
		func(from, to plan.PlanStatus, allowed bool) {
			Expect(from.CanTransitionTo(to)).To(Equal(allowed))
		},
		Entry("draft to confirmed", plan.PlanStatusDraft, plan.PlanStatusConfirmed, true),
		Entry("draft to cancelled", plan.PlanStatusDraft, plan.PlanStatusCancelled, true),
		Entry("draft to executing", plan.PlanStatusDraft, plan.PlanStatusExecuting, false),
		Entry("draft to completed", plan.PlanStatusDraft, plan.PlanStatusCompleted, false),
		Entry("confirmed to executing", plan.PlanStatusConfirmed, plan.PlanStatusExecuting, true),
		Entry("confirmed to cancelled", plan.PlanStatusConfirmed, plan.PlanStatusCancelled, true),
		Entry("confirmed to completed", plan.PlanStatusConfirmed, plan.PlanStatusCompleted, false),
		Entry("executing to completed", plan.PlanStatusExecuting, plan.PlanStatusCompleted, true),
		Entry("executing to cancelled", plan.PlanStatusExecuting, plan.PlanStatusCancelled, true),
		Entry("executing to draft", plan.PlanStatusExecuting, plan.PlanStatusDraft, false),
		Entry("completed is terminal", plan.PlanStatusCompleted, plan.PlanStatusCancelled, false),
		Entry("cancelled is terminal", plan.PlanStatusCancelled, plan.PlanStatusDraft, false),
	)

	It("should report terminal statuses", func() {
		Expect(plan.PlanStatusCompleted.IsTerminal()).To(BeTrue())
		Expect(plan.PlanStatusCancelled.IsTerminal()).To(BeTrue())
		Expect(plan.PlanStatusExecuting.IsTerminal()).To(BeFalse())
	})

	It("should validate raw values", func() {
		status, err := plan.NewPlanStatus("executing")
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(plan.PlanStatusExecuting))

		_, err = plan.NewPlanStatus("destroyed")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("StepStatus", func() {
	DescribeTable("transitions",
		func(from, to plan.StepStatus, allowed bool) {
			Expect(from.CanTransitionTo(to)).To(Equal(allowed))
		},
		Entry("pending to searching", plan.StepStatusPending, plan.StepStatusSearching, true),
		Entry("pending to skipped", plan.StepStatusPending, plan.StepStatusSkipped, true),
		Entry("pending to booked", plan.StepStatusPending, plan.StepStatusBooked, false),
		Entry("searching to found", plan.StepStatusSearching, plan.StepStatusFound, true),
		Entry("searching to failed", plan.StepStatusSearching, plan.StepStatusFailed, true),
		Entry("searching to skipped", plan.StepStatusSearching, plan.StepStatusSkipped, false),
		Entry("found to booked", plan.StepStatusFound, plan.StepStatusBooked, true),
		Entry("found to skipped", plan.StepStatusFound, plan.StepStatusSkipped, true),
		Entry("found to failed", plan.StepStatusFound, plan.StepStatusFailed, false),
		Entry("failed to searching (retry)", plan.StepStatusFailed, plan.StepStatusSearching, true),
		Entry("failed to skipped", plan.StepStatusFailed, plan.StepStatusSkipped, true),
		Entry("booked is terminal", plan.StepStatusBooked, plan.StepStatusSearching, false),
		Entry("skipped is terminal", plan.StepStatusSkipped, plan.StepStatusSearching, false),
	)

	It("should report settled statuses", func() {
		Expect(plan.StepStatusBooked.IsSettled()).To(BeTrue())
		Expect(plan.StepStatusFailed.IsSettled()).To(BeTrue())
		Expect(plan.StepStatusSkipped.IsSettled()).To(BeTrue())
		Expect(plan.StepStatusFound.IsSettled()).To(BeFalse())
		Expect(plan.StepStatusPending.IsSettled()).To(BeFalse())
	})

	It("should report runnable statuses", func() {
		Expect(plan.StepStatusPending.IsRunnable()).To(BeTrue())
		Expect(plan.StepStatusFailed.IsRunnable()).To(BeTrue())
		Expect(plan.StepStatusBooked.IsRunnable()).To(BeFalse())
		Expect(plan.StepStatusSearching.IsRunnable()).To(BeFalse())
	})
})
