package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"soundtrack/internal/checkpoint"
)

func value(t *testing.T, m *Metrics, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
	next:
		for _, metric := range fam.GetMetric() {
			for _, lp := range metric.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue next
				}
			}
			if c := metric.GetCounter(); c != nil {
				return c.GetValue()
			}
			return metric.GetGauge().GetValue()
		}
	}
	t.Fatalf("metric %s %v not found", name, labels)
	return 0
}

func TestObserveStatus(t *testing.T) {
	m := New()
	obs := m.ObserveStatus("spotify")
	obs(200)
	obs(200)
	obs(429)

	require.Equal(t, 2.0, value(t, m, "soundtrack_api_responses_total", map[string]string{"api": "spotify", "code": "200"}))
	require.Equal(t, 1.0, value(t, m, "soundtrack_api_responses_total", map[string]string{"api": "spotify", "code": "429"}))
}

func TestOnEvent(t *testing.T) {
	m := New()
	now := time.Unix(1700000000, 0)
	m.OnEvent(checkpoint.Event{Stage: "tmdb-ids", Phase: checkpoint.Flushing, Filled: 10, Missing: 2, Pending: 88, Time: now})
	m.OnEvent(checkpoint.Event{Stage: "tmdb-ids", Phase: checkpoint.Flushing, Filled: 20, Missing: 3, Pending: 77, Time: now})
	m.OnEvent(checkpoint.Event{Stage: "tmdb-ids", Phase: checkpoint.Failed, Filled: 20, Missing: 3, Pending: 77, Time: now})

	require.Equal(t, 20.0, value(t, m, "soundtrack_stage_rows", map[string]string{"stage": "tmdb-ids", "state": "filled"}))
	require.Equal(t, 77.0, value(t, m, "soundtrack_stage_rows", map[string]string{"stage": "tmdb-ids", "state": "pending"}))
	require.Equal(t, 2.0, value(t, m, "soundtrack_stage_flushes_total", map[string]string{"stage": "tmdb-ids"}))
	require.Equal(t, 1.0, value(t, m, "soundtrack_stage_failures_total", map[string]string{"stage": "tmdb-ids"}))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveStatus("tmdb")(404)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()
	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(body), `soundtrack_api_responses_total{api="tmdb",code="404"} 1`))
}
