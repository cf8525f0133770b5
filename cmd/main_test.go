package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/okian/skillscope/internal/adapters/repository"
	"github.com/okian/skillscope/internal/config"
	"github.com/okian/skillscope/pkg/logger"
	"github.com/okian/skillscope/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestMainComponents(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When loading configuration from the environment", func() {
			_ = os.Setenv("SKILLSCOPE_METRICS_ADDR", ":9191")
			_ = os.Setenv("SKILLSCOPE_QUEUE_SIZE", "1000")
			_ = os.Setenv("SKILLSCOPE_WORKER_COUNT", "4")
			defer func() {
				_ = os.Unsetenv("SKILLSCOPE_METRICS_ADDR")
				_ = os.Unsetenv("SKILLSCOPE_QUEUE_SIZE")
				_ = os.Unsetenv("SKILLSCOPE_WORKER_COUNT")
			}()

			cfg, err := config.Load()
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.MetricsAddr, convey.ShouldEqual, ":9191")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 1000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
		})

		convey.Convey("When selecting the store", func() {
			ctx := context.Background()

			convey.Convey("Then an empty path yields the in-memory store", func() {
				cfg := config.New()
				store, err := openStore(ctx, cfg)
				convey.So(err, convey.ShouldBeNil)
				convey.So(store, convey.ShouldHaveSameTypeAs, repository.NewMemoryStore())
				convey.So(store.Close(), convey.ShouldBeNil)
			})

			convey.Convey("And a DSN yields the SQLite store", func() {
				cfg := config.New()
				cfg.SQLitePath = "file::memory:?cache=shared"
				store, err := openStore(ctx, cfg)
				convey.So(err, convey.ShouldBeNil)
				convey.So(store, convey.ShouldNotBeNil)
				convey.So(store.Close(), convey.ShouldBeNil)
			})
		})

		convey.Convey("When building service options from configuration", func() {
			cfg := config.New()
			cfg.SourceMultipliers = map[string]float64{"project": 0.9}
			cfg.Credibility = map[string]float64{"certification": 1.0}

			opts := serviceOptions(context.Background(), cfg, logger.Get())
			convey.So(len(opts), convey.ShouldBeGreaterThan, 0)
		})

		convey.Convey("When serving the metrics endpoint", func() {
			handler := promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})
			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(rec.Body.String(), convey.ShouldContainSubstring, "skillscope")
		})
	})
}
