// Package metrics provides Prometheus instrumentation for research runs.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var (
	// BacktestsRun counts completed engine runs, including scenario runs.
	BacktestsRun = promauto.NewCounter(prometheus.CounterOpts{
		Name: "alphalab_backtests_run_total",
		Help: "Total number of completed backtest engine runs",
	})

	// BacktestDuration observes wall-clock engine run time.
	BacktestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "alphalab_backtest_duration_seconds",
		Help:    "Backtest engine run duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	})

	// ScenariosRun counts robustness scenarios by axis.
	ScenariosRun = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "alphalab_robustness_scenarios_total",
		Help: "Total number of executed robustness scenarios by axis",
	}, []string{"axis"})

	// ScenarioFailures counts failed robustness scenarios by axis.
	ScenarioFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "alphalab_robustness_scenario_failures_total",
		Help: "Total number of failed robustness scenarios by axis",
	}, []string{"axis"})

	// SuiteDuration observes wall-clock robustness suite time.
	SuiteDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "alphalab_robustness_suite_duration_seconds",
		Help:    "Robustness suite duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
	})

	// ExperimentsPersisted counts experiment records written to the store.
	ExperimentsPersisted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "alphalab_experiments_persisted_total",
		Help: "Total number of experiment records persisted",
	})
)

// Handler returns the exposition handler for the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve runs an exposition server until the context is canceled. It is meant
// for long robustness runs where an operator wants live progress counters.
func Serve(ctx context.Context, port int, path string, logger *logrus.Logger) error {
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.WithField("port", port).Info("Metrics server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
