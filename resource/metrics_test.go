package resource

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPrometheusMetrics(t *testing.T) {
	const name = "metrics-test"
	a := NewAllocator(NewHostMemory(1024), WithMetrics(NewPrometheusMetrics(name)))

	r, err := a.CreateBuffer(100, UsageStorageBuffer, 0, 0, DefaultPool)
	require.NoError(t, err)
	_, err = a.CreateBuffer(4096, UsageStorageBuffer, 0, 0, DefaultPool)
	require.Error(t, err)

	require.Equal(t, float64(1), testutil.ToFloat64(metricsAllocations.WithLabelValues(name, ClassBuffer)))
	require.Equal(t, float64(100), testutil.ToFloat64(metricsAllocatedBytes.WithLabelValues(name, ClassBuffer)))
	require.Equal(t, float64(1), testutil.ToFloat64(metricsAllocationFailures.WithLabelValues(name, ClassBuffer)))
	require.Equal(t, float64(100), testutil.ToFloat64(metricsLiveBytes.WithLabelValues(name, ClassBuffer)))

	require.NoError(t, a.DestroyBuffer(&r))
	require.Equal(t, float64(1), testutil.ToFloat64(metricsFrees.WithLabelValues(name, ClassBuffer)))
	require.Equal(t, float64(0), testutil.ToFloat64(metricsLiveBytes.WithLabelValues(name, ClassBuffer)))
}
