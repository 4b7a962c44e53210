package trace_test

import (
	"testing"
	"time"

	"github.com/travel-butler/trip-engine/internal/trace"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestTrace(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Trace Suite")
}

var _ = Describe("HashPayload", func() {
	It("should be deterministic regardless of key insertion order", func() {
		first, err := trace.HashPayload(map[string]interface{}{
			"origin":      "SFO",
			"destination": "NRT",
			"passengers":  2,
		})
		Expect(err).NotTo(HaveOccurred())

		second, err := trace.HashPayload(map[string]interface{}{
			"passengers":  2,
			"destination": "NRT",
			"origin":      "SFO",
		})
		Expect(err).NotTo(HaveOccurred())

		Expect(first).To(Equal(second))
		Expect(first).To(HaveLen(12))
	})

	It("should differ for different payloads", func() {
		first, err := trace.HashPayload(map[string]interface{}{"origin": "SFO"})
		Expect(err).NotTo(HaveOccurred())
		second, err := trace.HashPayload(map[string]interface{}{"origin": "LAX"})
		Expect(err).NotTo(HaveOccurred())

		Expect(first).NotTo(Equal(second))
	})

	It("should hash an empty payload", func() {
		hash, err := trace.HashPayload(nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(hash).To(HaveLen(12))
	})
})

var _ = Describe("Deduper", func() {
	It("should flag an identical call within the window", func() {
		deduper := trace.NewDeduper(time.Minute)

		Expect(deduper.Seen("hotel.book", "abc123")).To(BeFalse())
		Expect(deduper.Seen("hotel.book", "abc123")).To(BeTrue())
	})

	It("should key by tool as well as payload", func() {
		deduper := trace.NewDeduper(time.Minute)

		Expect(deduper.Seen("hotel.book", "abc123")).To(BeFalse())
		Expect(deduper.Seen("hotel.search", "abc123")).To(BeFalse())
	})

	It("should forget a fingerprint on request", func() {
		deduper := trace.NewDeduper(time.Minute)

		Expect(deduper.Seen("hotel.book", "abc123")).To(BeFalse())
		deduper.Forget("hotel.book", "abc123")
		Expect(deduper.Seen("hotel.book", "abc123")).To(BeFalse())
	})

	It("should expire fingerprints after the TTL", func() {
		deduper := trace.NewDeduper(20 * time.Millisecond)

		Expect(deduper.Seen("hotel.book", "abc123")).To(BeFalse())
		Eventually(func() bool {
			return deduper.Seen("hotel.book", "abc123")
		}, "500ms", "30ms").Should(BeFalse())
	})
})

var _ = Describe("Tracer", func() {
	var tracer *trace.Tracer

	BeforeEach(func() {
		tracer = trace.NewTracer(time.Hour)
	})

	It("should record a full invocation lifecycle", func() {
		id := tracer.Begin("flight.search_offers", "flight_agent", "abc123")
		Expect(id).NotTo(BeEmpty())

		Expect(tracer.Finish(id, trace.InvocationStatusOK, "")).To(Succeed())

		inv, err := tracer.GetByID(id)
		Expect(err).NotTo(HaveOccurred())
		Expect(inv.Tool).To(Equal("flight.search_offers"))
		Expect(inv.Agent).To(Equal("flight_agent"))
		Expect(inv.Status).To(Equal(trace.InvocationStatusOK))
		Expect(inv.Duration).To(BeNumerically(">=", 0))
	})

	It("should reject finishing an unknown invocation", func() {
		Expect(tracer.Finish("missing", trace.InvocationStatusOK, "")).NotTo(Succeed())
	})

	It("should keep serving reads after Close", func() {
		id := tracer.Begin("hotel.search", "hotel_agent", "h1")

		tracer.Close()
		tracer.Close()

		inv, err := tracer.GetByID(id)
		Expect(err).NotTo(HaveOccurred())
		Expect(inv.Tool).To(Equal("hotel.search"))
	})

	It("should return the most recent invocations oldest first", func() {
		first := tracer.Begin("hotel.search", "hotel_agent", "h1")
		second := tracer.Begin("hotel.book", "hotel_agent", "h2")
		third := tracer.Begin("dining.search", "dining_agent", "d1")

		recent := tracer.Recent(2)
		Expect(recent).To(HaveLen(2))
		Expect(recent[0].ID).To(Equal(second))
		Expect(recent[1].ID).To(Equal(third))

		all := tracer.Recent(0)
		Expect(all).To(HaveLen(3))
		Expect(all[0].ID).To(Equal(first))
		Expect(tracer.Count()).To(Equal(3))
	})
})
