package export_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/travel-butler/trip-engine/internal/capability"
	"github.com/travel-butler/trip-engine/internal/export"
	"github.com/travel-butler/trip-engine/internal/plan"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestExport(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Export Suite")
}

// scriptedInvoker replays one canned response per call.
type scriptedInvoker struct {
	mu        sync.Mutex
	responses []func(req capability.Request) (*capability.Result, error)
	calls     []capability.Request
}

func (s *scriptedInvoker) Invoke(ctx context.Context, req capability.Request) (*capability.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, req)
	if len(s.responses) == 0 {
		return &capability.Result{Status: capability.ResultStatusOK, Data: map[string]interface{}{}}, nil
	}
	next := s.responses[0]
	s.responses = s.responses[1:]
	return next(req)
}

func batchResult(created int, failed []interface{}) func(capability.Request) (*capability.Result, error) {
	return func(capability.Request) (*capability.Result, error) {
		data := map[string]interface{}{"created": float64(created)}
		if failed != nil {
			data["failed"] = failed
		}
		return &capability.Result{Status: capability.ResultStatusOK, Data: data}, nil
	}
}

func newTrip(stepCount int) *plan.Plan {
	p, err := plan.NewPlan("Kyoto long weekend", "Kyoto", "2026-10-01", "2026-10-04")
	Expect(err).NotTo(HaveOccurred())
	for i := 0; i < stepCount; i++ {
		step, err := plan.NewStep(i+1, capability.StepTypeActivity, "Visit Fushimi Inari", "2026-10-02")
		Expect(err).NotTo(HaveOccurred())
		Expect(p.AddStep(step)).To(Succeed())
	}
	return p
}

var _ = Describe("CalendarExporter", func() {
	var (
		ctx      context.Context
		invoker  *scriptedInvoker
		exporter *export.CalendarExporter
	)

	BeforeEach(func() {
		ctx = context.Background()
		invoker = &scriptedInvoker{}
		exporter = export.NewCalendarExporter(invoker, slog.New(slog.DiscardHandler))
	})

	It("should create one event per step in a single batch", func() {
		invoker.responses = append(invoker.responses, batchResult(3, nil))

		summary, err := exporter.Export(ctx, newTrip(3))
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.Created).To(Equal(3))
		Expect(summary.Failed).To(BeZero())
		Expect(invoker.calls).To(HaveLen(1))
		Expect(invoker.calls[0].Tool).To(Equal(capability.ToolCalendarCreate))

		events := invoker.calls[0].Payload["events"].([]interface{})
		Expect(events).To(HaveLen(3))
		first := events[0].(map[string]interface{})
		Expect(first["summary"]).To(ContainSubstring("Visit Fushimi Inari"))
		Expect(first["start"]).To(Equal("2026-10-02T09:00:00"))
	})

	It("should retry failed events until the budget is spent", func() {
		stuck := []interface{}{map[string]interface{}{"summary": "stuck"}}
		invoker.responses = append(invoker.responses,
			batchResult(2, stuck),
			batchResult(0, stuck),
			batchResult(0, stuck),
		)

		summary, err := exporter.Export(ctx, newTrip(3))
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.Created).To(Equal(2))
		Expect(summary.Failed).To(Equal(1))
		// Initial batch plus two retries.
		Expect(invoker.calls).To(HaveLen(3))
	})

	It("should stop retrying once an event succeeds", func() {
		stuck := []interface{}{map[string]interface{}{"summary": "stuck"}}
		invoker.responses = append(invoker.responses,
			batchResult(2, stuck),
			batchResult(1, nil),
		)

		summary, err := exporter.Export(ctx, newTrip(3))
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.Created).To(Equal(3))
		Expect(summary.Failed).To(BeZero())
		Expect(invoker.calls).To(HaveLen(2))
	})

	It("should report an unreachable calendar without failing the caller", func() {
		invoker.responses = append(invoker.responses,
			func(capability.Request) (*capability.Result, error) {
				return nil, errors.New("calendar not connected")
			},
		)

		summary, err := exporter.Export(ctx, newTrip(2))
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.Failed).To(Equal(2))
		Expect(summary.Error).To(ContainSubstring("calendar not connected"))
		Expect(invoker.calls).To(HaveLen(1))
	})

	It("should skip a plan without steps", func() {
		summary, err := exporter.Export(ctx, newTrip(0))
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.Skipped).To(BeTrue())
		Expect(invoker.calls).To(BeEmpty())
	})
})

var _ = Describe("WriteICS", func() {
	It("should serialize one VEVENT per step", func() {
		p := newTrip(2)

		doc, err := export.WriteICS(p)
		Expect(err).NotTo(HaveOccurred())
		Expect(doc).To(ContainSubstring("BEGIN:VCALENDAR"))
		Expect(doc).To(ContainSubstring("SUMMARY:Visit Fushimi Inari"))

		events := 0
		for i := 0; i+12 <= len(doc); i++ {
			if doc[i:i+12] == "BEGIN:VEVENT" {
				events++
			}
		}
		Expect(events).To(Equal(2))
	})

	It("should default an end time after the start", func() {
		p, err := plan.NewPlan("Day out", "Osaka", "2026-10-01", "2026-10-01")
		Expect(err).NotTo(HaveOccurred())
		step, err := plan.NewStep(1, capability.StepTypeRestaurant, "Dinner", "2026-10-01")
		Expect(err).NotTo(HaveOccurred())
		Expect(step.SetTimes("19:00", "19:00")).To(Succeed())
		Expect(p.AddStep(step)).To(Succeed())

		doc, err := export.WriteICS(p)
		Expect(err).NotTo(HaveOccurred())
		Expect(doc).To(ContainSubstring("DTSTART"))
		Expect(doc).To(ContainSubstring("DTEND"))
	})
})
