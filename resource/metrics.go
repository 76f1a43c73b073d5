package resource

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Resource classes used as metric labels.
const (
	ClassBuffer = "buffer"
	ClassImage  = "image"
)

// Metrics receives allocation events from an Allocator.
type Metrics interface {
	AllocationSucceeded(class string, size uint64)
	AllocationFailed(class string)
	Freed(class string, size uint64)
}

var (
	metricsAllocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vkgrt_allocations_total",
		Help: "Number of successful resource allocations",
	}, []string{"allocator", "class"})

	metricsAllocatedBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vkgrt_allocated_bytes_total",
		Help: "Bytes requested by successful resource allocations",
	}, []string{"allocator", "class"})

	metricsAllocationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vkgrt_allocation_failures_total",
		Help: "Number of rejected resource allocations",
	}, []string{"allocator", "class"})

	metricsFrees = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vkgrt_frees_total",
		Help: "Number of resources returned to the memory allocator",
	}, []string{"allocator", "class"})

	metricsLiveBytes = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "vkgrt_live_bytes",
		Help: "Bytes held by live resources",
	}, []string{"allocator", "class"})
)

var _ Metrics = &prometheusMetrics{}

type prometheusMetrics struct {
	allocator string
}

// NewPrometheusMetrics reports allocation events under the given allocator label.
func NewPrometheusMetrics(allocator string) Metrics {
	return &prometheusMetrics{allocator: allocator}
}

func (m *prometheusMetrics) AllocationSucceeded(class string, size uint64) {
	metricsAllocations.WithLabelValues(m.allocator, class).Inc()
	metricsAllocatedBytes.WithLabelValues(m.allocator, class).Add(float64(size))
	metricsLiveBytes.WithLabelValues(m.allocator, class).Add(float64(size))
}

func (m *prometheusMetrics) AllocationFailed(class string) {
	metricsAllocationFailures.WithLabelValues(m.allocator, class).Inc()
}

func (m *prometheusMetrics) Freed(class string, size uint64) {
	metricsFrees.WithLabelValues(m.allocator, class).Inc()
	metricsLiveBytes.WithLabelValues(m.allocator, class).Sub(float64(size))
}

type nopMetrics struct{}

// NopMetrics discards allocation events.
func NopMetrics() Metrics { return nopMetrics{} }

func (nopMetrics) AllocationSucceeded(string, uint64) {}
func (nopMetrics) AllocationFailed(string)            {}
func (nopMetrics) Freed(string, uint64)               {}
