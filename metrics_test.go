package authorizer

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaychat/authorizer/jwks"
)

func TestNoopMetrics(t *testing.T) {
	// Test that NoopMetrics methods don't panic
	metrics := &NoopMetrics{}

	metrics.IncCounter("test_counter", map[string]string{"tag": "value"})
	metrics.ObserveHistogram("test_histogram", 1.5, map[string]string{"tag": "value"})
	metrics.SetGauge("test_gauge", 2.5, map[string]string{"tag": "value"})
}

func TestPrometheusMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewPrometheusMetrics(registry)

	t.Run("IncCounter", func(t *testing.T) {
		tags := map[string]string{"effect": "Deny", "reason": "missing_token"}

		metrics.IncCounter("test_counter", tags)
		metrics.IncCounter("test_counter", tags)

		counter, ok := metrics.counters["test_counter"]
		require.True(t, ok, "Counter should be registered")

		metric := &dto.Metric{}
		err := counter.With(prometheus.Labels(tags)).(prometheus.Metric).Write(metric)
		assert.NoError(t, err)
		assert.Equal(t, float64(2), *metric.Counter.Value, "Counter should be incremented to 2")
	})

	t.Run("ObserveHistogram", func(t *testing.T) {
		metrics.ObserveHistogram("test_histogram", 2.5, map[string]string{"effect": "Allow"})

		hist, ok := metrics.histograms["test_histogram"]
		require.True(t, ok, "Histogram should be registered")

		metric := &dto.Metric{}
		err := hist.With(prometheus.Labels{"effect": "Allow"}).(prometheus.Metric).Write(metric)
		assert.NoError(t, err)
		assert.Equal(t, uint64(1), metric.Histogram.GetSampleCount())
	})

	t.Run("SetGauge without tags", func(t *testing.T) {
		metrics.SetGauge("test_gauge", 4.5, nil)

		gauge, ok := metrics.gauges["test_gauge"]
		require.True(t, ok, "Gauge should be registered")

		metric := &dto.Metric{}
		err := gauge.With(nil).(prometheus.Metric).Write(metric)
		assert.NoError(t, err)
		assert.Equal(t, 4.5, *metric.Gauge.Value)
	})

	t.Run("vectors are registered with the given registry", func(t *testing.T) {
		families, err := registry.Gather()
		require.NoError(t, err)

		names := make([]string, 0, len(families))
		for _, family := range families {
			names = append(names, family.GetName())
		}
		assert.ElementsMatch(t, []string{"test_counter", "test_histogram", "test_gauge"}, names)
	})
}

func TestKeySetObserver(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewPrometheusMetrics(registry)
	observe := KeySetObserver(metrics)

	observe(jwks.FetchEvent{Outcome: jwks.FetchSucceeded, Keys: 2, Duration: 30 * time.Millisecond})
	observe(jwks.FetchEvent{Outcome: jwks.FetchStale, Keys: 2, Err: errors.New("down")})

	metric := &dto.Metric{}
	require.NoError(t, metrics.counters[MetricKeySetFetches].With(prometheus.Labels{"outcome": "stale"}).(prometheus.Metric).Write(metric))
	assert.Equal(t, float64(1), metric.Counter.GetValue())

	metric = &dto.Metric{}
	require.NoError(t, metrics.gauges[MetricKeySetKeys].With(nil).(prometheus.Metric).Write(metric))
	assert.Equal(t, float64(2), metric.Gauge.GetValue())
}

func TestKeys(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, keys(map[string]string{"c": "3", "a": "1", "b": "2"}))
	assert.Empty(t, keys(nil))
}
