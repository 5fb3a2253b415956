// Package metrics exposes request and stage progress counters for
// Prometheus.
package metrics

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"soundtrack/internal/checkpoint"
)

type Metrics struct {
	registry *prometheus.Registry

	apiResponses *prometheus.CounterVec
	stageRows    *prometheus.GaugeVec
	flushes      *prometheus.CounterVec
	failures     *prometheus.CounterVec
	lastEvent    *prometheus.GaugeVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		apiResponses: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "soundtrack_api_responses_total",
				Help: "API responses by api and HTTP status code",
			},
			[]string{"api", "code"},
		),
		stageRows: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "soundtrack_stage_rows",
				Help: "Checkpoint rows by stage and state",
			},
			[]string{"stage", "state"},
		),
		flushes: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "soundtrack_stage_flushes_total",
				Help: "Checkpoint flushes by stage",
			},
			[]string{"stage"},
		),
		failures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "soundtrack_stage_failures_total",
				Help: "Failed stage runs",
			},
			[]string{"stage"},
		),
		lastEvent: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "soundtrack_stage_last_event_timestamp_seconds",
				Help: "Unix time of the last event per stage",
			},
			[]string{"stage"},
		),
	}
}

// ObserveStatus returns a fetch.Options.Observe hook for api.
func (m *Metrics) ObserveStatus(api string) func(int) {
	return func(code int) {
		m.apiResponses.WithLabelValues(api, strconv.Itoa(code)).Inc()
	}
}

// OnEvent records a checkpoint event.
func (m *Metrics) OnEvent(e checkpoint.Event) {
	m.stageRows.WithLabelValues(e.Stage, checkpoint.Filled.String()).Set(float64(e.Filled))
	m.stageRows.WithLabelValues(e.Stage, checkpoint.Missing.String()).Set(float64(e.Missing))
	m.stageRows.WithLabelValues(e.Stage, checkpoint.Pending.String()).Set(float64(e.Pending))
	m.lastEvent.WithLabelValues(e.Stage).Set(float64(e.Time.Unix()))
	switch e.Phase {
	case checkpoint.Flushing:
		m.flushes.WithLabelValues(e.Stage).Inc()
	case checkpoint.Failed:
		m.failures.WithLabelValues(e.Stage).Inc()
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("📈 Metrics listening on %s/metrics", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
