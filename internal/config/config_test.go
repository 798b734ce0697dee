package config_test

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tupyy/taskengine/internal/config"
)

func TestConfig(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Config Suite")
}

var _ = Describe("Configuration", func() {
	It("applies struct-tag defaults", func() {
		c, err := config.NewWithDefaults()
		Expect(err).NotTo(HaveOccurred())

		Expect(c.Pool.NumWorkers).To(Equal(4))
		Expect(c.Pool.QueueHint).To(Equal(256))
		Expect(c.Scheduler.TickBudget).To(Equal(time.Second))
		Expect(c.Server.Mode).To(Equal("dev"))
		Expect(c.Server.HTTPAddr).To(Equal(":8080"))
		Expect(c.Store.Path).To(Equal("taskengine.db"))
		Expect(c.Notifier.Enabled).To(BeFalse())
		Expect(c.Notifier.Timeout).To(Equal(5 * time.Second))
		Expect(c.LogLevel).To(Equal("info"))
		Expect(c.LogFormat).To(Equal("console"))
	})

	It("layers options over defaults", func() {
		c, err := config.NewWithDefaults(
			config.WithPool(config.Pool{NumWorkers: 16, QueueHint: 1024}),
			config.WithLogLevel("debug"),
		)
		Expect(err).NotTo(HaveOccurred())

		Expect(c.Pool.NumWorkers).To(Equal(16))
		Expect(c.Pool.QueueHint).To(Equal(1024))
		Expect(c.LogLevel).To(Equal("debug"))
		// Untouched sections keep their defaults.
		Expect(c.Server.Mode).To(Equal("dev"))
	})

	It("loads a nil viper handle as pure defaults", func() {
		c, err := config.Load(nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Pool.NumWorkers).To(Equal(4))
	})
})
