package booking_test

import (
	"testing"

	"github.com/travel-butler/trip-engine/internal/booking"
	"github.com/travel-butler/trip-engine/internal/capability"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestBooking(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Booking Domain Suite")
}

func newRecord() *booking.Record {
	record, err := booking.NewRecord(
		capability.StepTypeHotel,
		capability.ToolHotelBook,
		map[string]interface{}{"hotel_id": "h-1"},
		"step-1",
	)
	Expect(err).NotTo(HaveOccurred())
	return record
}

var _ = Describe("Status", func() {
	DescribeTable("transitions",
		func(from, to booking.Status, allowed bool) {
			Expect(from.CanTransitionTo(to)).To(Equal(allowed))
		},
		Entry("pending to awaiting_approval", booking.StatusPending, booking.StatusAwaitingApproval, true),
		Entry("pending to confirmed", booking.StatusPending, booking.StatusConfirmed, true),
		Entry("pending to failed", booking.StatusPending, booking.StatusFailed, true),
		Entry("pending to approved", booking.StatusPending, booking.StatusApproved, false),
		Entry("awaiting_approval to approved", booking.StatusAwaitingApproval, booking.StatusApproved, true),
		Entry("awaiting_approval to cancelled", booking.StatusAwaitingApproval, booking.StatusCancelled, true),
		Entry("awaiting_approval to confirmed", booking.StatusAwaitingApproval, booking.StatusConfirmed, false),
		Entry("approved to confirmed", booking.StatusApproved, booking.StatusConfirmed, true),
		Entry("approved to failed", booking.StatusApproved, booking.StatusFailed, true),
		Entry("confirmed to cancelled", booking.StatusConfirmed, booking.StatusCancelled, true),
		Entry("failed is terminal", booking.StatusFailed, booking.StatusPending, false),
		Entry("cancelled is terminal", booking.StatusCancelled, booking.StatusPending, false),
	)

	It("should report terminal statuses", func() {
		Expect(booking.StatusFailed.IsTerminal()).To(BeTrue())
		Expect(booking.StatusCancelled.IsTerminal()).To(BeTrue())
		Expect(booking.StatusConfirmed.IsTerminal()).To(BeFalse())
	})
})

var _ = Describe("Record", func() {
	It("should confirm directly for auto-approved providers", func() {
		record := newRecord()

		result := map[string]interface{}{"confirmation_id": "HB-1234"}
		Expect(record.Confirm("HB-1234", result)).To(Succeed())
		Expect(record.Status()).To(Equal(booking.StatusConfirmed))
		Expect(record.ProviderRef()).To(Equal("HB-1234"))
		Expect(record.ConfirmedAt()).NotTo(BeNil())
	})

	It("should walk the approval path", func() {
		record := newRecord()

		Expect(record.RequireApproval()).To(Succeed())
		Expect(record.Status()).To(Equal(booking.StatusAwaitingApproval))

		Expect(record.Approve()).To(Succeed())
		Expect(record.Status()).To(Equal(booking.StatusApproved))

		Expect(record.Confirm("HB-1234", nil)).To(Succeed())
		Expect(record.Status()).To(Equal(booking.StatusConfirmed))
	})

	It("should only approve a record awaiting approval", func() {
		record := newRecord()

		Expect(record.Approve()).To(MatchError(booking.ErrNotAwaitingApproval))
	})

	It("should record failures with detail", func() {
		record := newRecord()

		Expect(record.Fail("no rooms available")).To(Succeed())
		Expect(record.Status()).To(Equal(booking.StatusFailed))
		Expect(record.ErrorDetail()).To(Equal("no rooms available"))

		Expect(record.Confirm("late", nil)).NotTo(Succeed())
	})

	It("should cancel a rejected approval", func() {
		record := newRecord()
		Expect(record.RequireApproval()).To(Succeed())

		Expect(record.Cancel()).To(Succeed())
		Expect(record.Status()).To(Equal(booking.StatusCancelled))
	})
})
