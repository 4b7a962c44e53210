package shared_test

import (
	"time"

	"github.com/travel-butler/trip-engine/internal/shared"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("TravelDate", func() {
	It("should parse an ISO date", func() {
		date, err := shared.NewTravelDate("2026-05-14")
		Expect(err).NotTo(HaveOccurred())
		Expect(date.String()).To(Equal("2026-05-14"))
	})

	It("should reject malformed dates", func() {
		_, err := shared.NewTravelDate("14/05/2026")
		Expect(err).To(HaveOccurred())

		_, err = shared.NewTravelDate("2026-13-40")
		Expect(err).To(HaveOccurred())
	})

	It("should order dates", func() {
		earlier := shared.MustNewTravelDate("2026-05-14")
		later := shared.MustNewTravelDate("2026-05-20")

		Expect(earlier.Before(later)).To(BeTrue())
		Expect(later.Before(earlier)).To(BeFalse())
		Expect(earlier.Equal(shared.MustNewTravelDate("2026-05-14"))).To(BeTrue())
	})

	It("should combine with a wall clock", func() {
		date := shared.MustNewTravelDate("2026-05-14")

		at, err := date.At("19:30")
		Expect(err).NotTo(HaveOccurred())
		Expect(at).To(Equal(time.Date(2026, 5, 14, 19, 30, 0, 0, time.UTC)))
	})
})
