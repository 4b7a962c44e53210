package config_test

import (
	"testing"
	"time"

	"github.com/travel-butler/trip-engine/pkg/config"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestConfig(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Config Suite")
}

var _ = Describe("LoadConfig", func() {
	It("should load defaults when no file or env overrides exist", func() {
		cfg, err := config.LoadConfig()
		Expect(err).NotTo(HaveOccurred())

		Expect(cfg.Transport.Type).To(Equal("stdio"))
		Expect(cfg.Transport.Port).To(Equal(8080))
		Expect(cfg.LogLevel).To(Equal("info"))
		Expect(cfg.LogFormat).To(Equal("json"))
		Expect(cfg.Gateway.BaseURL).To(Equal("http://localhost:9000"))
		Expect(cfg.Gateway.RetryCount).To(Equal(1))
		Expect(cfg.Discovery.Enabled).To(BeTrue())
		Expect(cfg.TraceDedupeTTL).To(Equal(5 * time.Minute))
	})

	It("should honor environment overrides", func() {
		GinkgoT().Setenv("TRIP_ENGINE_TRANSPORT_TYPE", "sse")
		GinkgoT().Setenv("TRIP_ENGINE_LOG_LEVEL", "debug")

		cfg, err := config.LoadConfig()
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Transport.Type).To(Equal("sse"))
		Expect(cfg.LogLevel).To(Equal("debug"))
	})

	It("should reject an invalid transport type", func() {
		GinkgoT().Setenv("TRIP_ENGINE_TRANSPORT_TYPE", "carrier-pigeon")

		_, err := config.LoadConfig()
		Expect(err).To(HaveOccurred())
	})

	It("should reject an invalid log level", func() {
		GinkgoT().Setenv("TRIP_ENGINE_LOG_LEVEL", "verbose")

		_, err := config.LoadConfig()
		Expect(err).To(HaveOccurred())
	})
})
