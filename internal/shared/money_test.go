package shared_test

import (
	"github.com/travel-butler/trip-engine/internal/shared"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Money", func() {
	Describe("NewMoney", func() {
		It("should create an amount in cents", func() {
			price, err := shared.NewMoney(12345, "USD")
			Expect(err).NotTo(HaveOccurred())
			Expect(price.Cents()).To(Equal(int64(12345)))
			Expect(price.Currency()).To(Equal("USD"))
			Expect(price.Float64()).To(BeNumerically("~", 123.45, 0.001))
		})

		It("should reject an invalid currency code", func() {
			_, err := shared.NewMoney(100, "usd")
			Expect(err).To(HaveOccurred())

			_, err = shared.NewMoney(100, "DOLLARS")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("NewMoneyFromFloat", func() {
		It("should round to the nearest cent", func() {
			price, err := shared.NewMoneyFromFloat(19.999, "USD")
			Expect(err).NotTo(HaveOccurred())
			Expect(price.Cents()).To(Equal(int64(2000)))
		})
	})

	Describe("Add", func() {
		It("should add amounts of the same currency", func() {
			a := shared.MustNewMoney(1000, "USD")
			b := shared.MustNewMoney(250, "USD")

			sum, err := a.Add(b)
			Expect(err).NotTo(HaveOccurred())
			Expect(sum.Cents()).To(Equal(int64(1250)))
		})

		It("should adopt the other currency when zero", func() {
			sum, err := shared.Zero("USD").Add(shared.MustNewMoney(500, "EUR"))
			Expect(err).NotTo(HaveOccurred())
			Expect(sum.Currency()).To(Equal("EUR"))
			Expect(sum.Cents()).To(Equal(int64(500)))
		})

		It("should reject mismatched currencies", func() {
			a := shared.MustNewMoney(1000, "USD")
			b := shared.MustNewMoney(1000, "EUR")

			_, err := a.Add(b)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("String", func() {
		It("should format the amount with two decimals", func() {
			price := shared.MustNewMoney(129900, "USD")
			Expect(price.String()).To(ContainSubstring("1299.00"))
		})
	})
})
