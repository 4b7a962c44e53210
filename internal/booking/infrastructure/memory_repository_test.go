package infrastructure_test

import (
	"context"
	"testing"

	"github.com/travel-butler/trip-engine/internal/booking"
	"github.com/travel-butler/trip-engine/internal/booking/infrastructure"
	"github.com/travel-butler/trip-engine/internal/capability"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestBookingRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Booking Repository Suite")
}

var _ = Describe("InMemoryBookingRepository", func() {
	var (
		repo *infrastructure.InMemoryBookingRepository
		ctx  context.Context
	)

	newRecordForStep := func(stepID string) *booking.Record {
		record, err := booking.NewRecord(
			capability.StepTypeHotel,
			capability.ToolHotelBook,
			map[string]interface{}{"hotel_id": "h-1"},
			stepID,
		)
		Expect(err).NotTo(HaveOccurred())
		return record
	}

	BeforeEach(func() {
		repo = infrastructure.NewInMemoryBookingRepository()
		ctx = context.Background()
	})

	It("should store and return deep copies", func() {
		record := newRecordForStep("step-1")
		Expect(repo.Save(ctx, record)).To(Succeed())

		loaded, err := repo.GetByID(ctx, record.ID())
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.Fail("mutated copy")).To(Succeed())

		stored, err := repo.GetByID(ctx, record.ID())
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.Status()).To(Equal(booking.StatusPending))
	})

	It("should reject status jumps at the boundary", func() {
		record := newRecordForStep("step-1")
		Expect(repo.Save(ctx, record)).To(Succeed())
		Expect(record.RequireApproval()).To(Succeed())
		Expect(repo.Save(ctx, record)).To(Succeed())

		jumped := record.Clone()
		Expect(jumped.Approve()).To(Succeed())
		Expect(jumped.Confirm("HB-1", nil)).To(Succeed())

		err := repo.Save(ctx, jumped)
		Expect(err).To(HaveOccurred())
		var transitionErr *booking.InvalidTransitionError
		Expect(err).To(BeAssignableToTypeOf(transitionErr))
	})

	It("should list records awaiting approval", func() {
		waiting := newRecordForStep("step-1")
		Expect(waiting.RequireApproval()).To(Succeed())
		done := newRecordForStep("step-2")
		Expect(done.Confirm("HB-1", nil)).To(Succeed())
		Expect(repo.Save(ctx, waiting)).To(Succeed())
		Expect(repo.Save(ctx, done)).To(Succeed())

		records, err := repo.ListAwaitingApproval(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(1))
		Expect(records[0].ID()).To(Equal(waiting.ID()))
	})

	Describe("AuthoritativeForStep", func() {
		It("should prefer the most recent non-failed record", func() {
			failed := newRecordForStep("step-1")
			Expect(failed.Fail("sold out")).To(Succeed())
			confirmed := newRecordForStep("step-1")
			Expect(confirmed.Confirm("HB-2", nil)).To(Succeed())
			Expect(repo.Save(ctx, failed)).To(Succeed())
			Expect(repo.Save(ctx, confirmed)).To(Succeed())

			authoritative, err := repo.AuthoritativeForStep(ctx, "step-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(authoritative.ID()).To(Equal(confirmed.ID()))
		})

		It("should fall back to the last attempt when all failed", func() {
			first := newRecordForStep("step-1")
			Expect(first.Fail("sold out")).To(Succeed())
			second := newRecordForStep("step-1")
			Expect(second.Fail("still sold out")).To(Succeed())
			Expect(repo.Save(ctx, first)).To(Succeed())
			Expect(repo.Save(ctx, second)).To(Succeed())

			authoritative, err := repo.AuthoritativeForStep(ctx, "step-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(authoritative.ErrorDetail()).To(Equal("still sold out"))
		})

		It("should return ErrRecordNotFound for a step with no records", func() {
			_, err := repo.AuthoritativeForStep(ctx, "step-unknown")
			Expect(err).To(MatchError(booking.ErrRecordNotFound))
		})
	})
})
