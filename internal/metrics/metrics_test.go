package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsRegisters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.TelegramsReceived.WithLabelValues("roof").Add(3)
	m.Corrections.WithLabelValues("roof", "flicker").Inc()
	m.Connected.WithLabelValues("roof").Set(1)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.TelegramsReceived.WithLabelValues("roof")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Corrections.WithLabelValues("roof", "flicker")))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "precipmeter_telegrams_received_total")
	assert.Contains(t, names, "precipmeter_connected")

	assert.Panics(t, func() { NewMetrics(reg) })
}

func TestNewMetricsForTesting(t *testing.T) {
	a, b := NewMetricsForTesting(), NewMetricsForTesting()
	a.Reconnects.WithLabelValues("roof").Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.Reconnects.WithLabelValues("roof")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Reconnects.WithLabelValues("roof")))
}
