package config_test

import (
	"testing"

	"github.com/okian/skillscope/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	Convey("Given a new config with defaults", t, func() {
		cfg := config.New()

		Convey("Then it should have sensible defaults", func() {
			So(cfg.LogLevel, ShouldEqual, "info")
			So(cfg.QueueSize, ShouldEqual, 10_000)
			So(cfg.WorkerCount, ShouldEqual, 0)
			So(cfg.DecayWindowMonths, ShouldAlmostEqual, 24.0, 1e-9)
			So(cfg.DecayFloor, ShouldAlmostEqual, 0.70, 1e-9)
			So(cfg.EmbeddingModel, ShouldEqual, "gemini-embedding-001")
		})
	})
}
