package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			manager := NewManager()

			Convey("Then it should own a registry", func() {
				So(manager, ShouldNotBeNil)
				So(manager.Registry(), ShouldNotBeNil)
				So(manager.RefreshInterval(), ShouldEqual, defaultRefreshInterval)
			})
		})

		Convey("When creating two managers without a registry", func() {
			Convey("Then registration should not collide", func() {
				So(func() {
					NewManager()
					NewManager()
				}, ShouldNotPanic)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithRefreshInterval(time.Second),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
				WithProcessCollector(false),
			)

			Convey("Then it should register on the supplied registry", func() {
				So(manager.Registry(), ShouldEqual, registry)
				So(manager.RefreshInterval(), ShouldEqual, time.Second)
			})
		})

		Convey("When asking for the default manager twice", func() {
			Convey("Then the same instance should be returned", func() {
				So(Default(), ShouldEqual, Default())
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given a manager on a private registry", t, func() {
		manager := NewManager(WithProcessCollector(false))

		Convey("When recording HTTP requests", func() {
			manager.RecordHTTPRequest("/", "GET", "200", 5*time.Millisecond)
			manager.RecordHTTPRequest("/", "GET", "200", 7*time.Millisecond)
			manager.RecordHTTPRequest("/health/ready", "GET", "503", time.Millisecond)

			Convey("Then counters should accumulate per label set", func() {
				So(testutil.ToFloat64(manager.httpRequests.WithLabelValues("/", "GET", "200")), ShouldEqual, 2)
				So(testutil.ToFloat64(manager.httpRequests.WithLabelValues("/health/ready", "GET", "503")), ShouldEqual, 1)
				So(testutil.CollectAndCount(manager.httpRequestDuration), ShouldEqual, 2)
			})
		})

		Convey("When recording errors", func() {
			manager.RecordError("/", "GET", "server_error", "high")

			Convey("Then both error counters should move", func() {
				So(testutil.ToFloat64(manager.errorRateByEndpoint.WithLabelValues("/", "GET", "server_error")), ShouldEqual, 1)
				So(testutil.ToFloat64(manager.errorRateByType.WithLabelValues("server_error", "high")), ShouldEqual, 1)
			})
		})

		Convey("When tracking in-flight requests", func() {
			manager.InFlight(1)
			manager.InFlight(1)
			manager.InFlight(-1)

			Convey("Then the gauge should reflect the balance", func() {
				So(testutil.ToFloat64(manager.httpInFlight), ShouldEqual, 1)
			})
		})

		Convey("When running a collection pass", func() {
			manager.Collect()
			manager.Collect()

			Convey("Then system gauges should be populated", func() {
				So(testutil.ToFloat64(manager.collections), ShouldEqual, 2)
				So(testutil.ToFloat64(manager.systemGoroutineCount), ShouldBeGreaterThan, 0)
				So(testutil.ToFloat64(manager.systemMemoryUsage), ShouldBeGreaterThan, 0)
			})
		})
	})
}

func TestMetricsDisabled(t *testing.T) {
	Convey("Given a disabled manager", t, func() {
		manager := NewManager(WithMetricsEnabled(false), WithProcessCollector(false))

		Convey("When recording", func() {
			manager.RecordHTTPRequest("/", "GET", "200", time.Millisecond)
			manager.Collect()

			Convey("Then nothing should be counted", func() {
				So(testutil.ToFloat64(manager.httpRequests.WithLabelValues("/", "GET", "200")), ShouldEqual, 0)
				So(testutil.ToFloat64(manager.collections), ShouldEqual, 0)
			})
		})
	})
}

func TestMetricsHandler(t *testing.T) {
	Convey("Given a manager with the process collector", t, func() {
		manager := NewManager()
		manager.RecordHTTPRequest("/", "GET", "200", time.Millisecond)

		Convey("When scraping the handler", func() {
			rec := httptest.NewRecorder()
			manager.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
			body, _ := io.ReadAll(rec.Body)

			Convey("Then it should expose the registry in text format", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(string(body), ShouldContainSubstring, `hearth_server_http_requests_total{endpoint="/",method="GET",status_code="200"} 1`)
				So(string(body), ShouldContainSubstring, "go_goroutines")
			})
		})
	})
}

func TestMetricsRun(t *testing.T) {
	Convey("Given a manager with a short refresh interval", t, func() {
		manager := NewManager(WithRefreshInterval(5*time.Millisecond), WithProcessCollector(false))
		ctx, cancel := context.WithCancel(context.Background())

		Convey("When running the sampler briefly", func() {
			done := make(chan struct{})
			go func() {
				manager.Run(ctx)
				close(done)
			}()
			time.Sleep(50 * time.Millisecond)
			cancel()
			<-done

			Convey("Then at least one pass should have run", func() {
				So(testutil.ToFloat64(manager.collections), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})
	})
}
