package logger_test

import (
	"fmt"
	"testing"

	"github.com/travel-butler/trip-engine/pkg/logger"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestLogger(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Logger Suite")
}

var _ = Describe("RingBuffer", func() {
	It("should return the last n lines in order", func() {
		buffer := logger.NewRingBuffer(10)
		for i := 1; i <= 5; i++ {
			buffer.Append(fmt.Sprintf("line %d", i))
		}

		Expect(buffer.Size()).To(Equal(5))
		Expect(buffer.GetLast(2)).To(Equal([]string{"line 4", "line 5"}))
	})

	It("should evict the oldest lines once full", func() {
		buffer := logger.NewRingBuffer(3)
		for i := 1; i <= 5; i++ {
			buffer.Append(fmt.Sprintf("line %d", i))
		}

		Expect(buffer.Size()).To(Equal(3))
		Expect(buffer.GetLast(0)).To(Equal([]string{"line 3", "line 4", "line 5"}))
	})

	It("should clamp requests larger than the content", func() {
		buffer := logger.NewRingBuffer(10)
		buffer.Append("only line")

		Expect(buffer.GetLast(50)).To(Equal([]string{"only line"}))
	})

	It("should return an empty slice when nothing was logged", func() {
		Expect(logger.NewRingBuffer(10).GetLast(5)).To(BeEmpty())
	})

	It("should fall back to a sane default capacity", func() {
		Expect(logger.NewRingBuffer(0).Capacity()).To(Equal(1000))
	})
})
