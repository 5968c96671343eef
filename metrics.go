package simgo

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    putCounter   prometheus.Counter
//	    knnHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordPut(duration time.Duration, err error) {
//	    p.putCounter.Inc()
//	    // ... record error state, duration, etc.
//	}
type MetricsCollector interface {
	// RecordPut is called after each put operation.
	// duration is the total time taken, err is nil if successful.
	RecordPut(duration time.Duration, err error)

	// RecordBatchPut is called after each batch put operation.
	// count is the number of items attempted, failed is the number that failed,
	// duration is the total time taken.
	RecordBatchPut(count, failed int, duration time.Duration)

	// RecordKNN is called after each k-nearest-neighbor query.
	// k is the number of neighbors requested, duration is the time taken,
	// err is nil if successful.
	RecordKNN(k int, duration time.Duration, err error)

	// RecordNearest is called after each nearest-neighbor query.
	RecordNearest(duration time.Duration, err error)

	// RecordRange is called after each range query.
	// maxDistance is the requested radius, duration is the time taken.
	RecordRange(maxDistance int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordPut(time.Duration, error)         {}
func (NoopMetricsCollector) RecordBatchPut(int, int, time.Duration) {}
func (NoopMetricsCollector) RecordKNN(int, time.Duration, error)    {}
func (NoopMetricsCollector) RecordNearest(time.Duration, error)     {}
func (NoopMetricsCollector) RecordRange(int, time.Duration, error)  {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	PutCount       atomic.Int64
	PutErrors      atomic.Int64
	PutTotalNanos  atomic.Int64
	BatchPutCount  atomic.Int64
	BatchPutItems  atomic.Int64
	BatchPutFailed atomic.Int64
	KNNCount       atomic.Int64
	KNNErrors      atomic.Int64
	KNNTotalNanos  atomic.Int64
	NearestCount   atomic.Int64
	NearestErrors  atomic.Int64
	RangeCount     atomic.Int64
	RangeErrors    atomic.Int64
}

// RecordPut implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPut(duration time.Duration, err error) {
	b.PutCount.Add(1)
	b.PutTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.PutErrors.Add(1)
	}
}

// RecordBatchPut implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBatchPut(count, failed int, duration time.Duration) {
	b.BatchPutCount.Add(1)
	b.BatchPutItems.Add(int64(count))
	b.BatchPutFailed.Add(int64(failed))
}

// RecordKNN implements MetricsCollector.
func (b *BasicMetricsCollector) RecordKNN(k int, duration time.Duration, err error) {
	b.KNNCount.Add(1)
	b.KNNTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.KNNErrors.Add(1)
	}
}

// RecordNearest implements MetricsCollector.
func (b *BasicMetricsCollector) RecordNearest(duration time.Duration, err error) {
	b.NearestCount.Add(1)
	if err != nil {
		b.NearestErrors.Add(1)
	}
}

// RecordRange implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRange(maxDistance int, duration time.Duration, err error) {
	b.RangeCount.Add(1)
	if err != nil {
		b.RangeErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		PutCount:       b.PutCount.Load(),
		PutErrors:      b.PutErrors.Load(),
		PutAvgNanos:    b.getAvgPutNanos(),
		BatchPutCount:  b.BatchPutCount.Load(),
		BatchPutItems:  b.BatchPutItems.Load(),
		BatchPutFailed: b.BatchPutFailed.Load(),
		KNNCount:       b.KNNCount.Load(),
		KNNErrors:      b.KNNErrors.Load(),
		KNNAvgNanos:    b.getAvgKNNNanos(),
		NearestCount:   b.NearestCount.Load(),
		NearestErrors:  b.NearestErrors.Load(),
		RangeCount:     b.RangeCount.Load(),
		RangeErrors:    b.RangeErrors.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgPutNanos() int64 {
	count := b.PutCount.Load()
	if count == 0 {
		return 0
	}
	return b.PutTotalNanos.Load() / count
}

func (b *BasicMetricsCollector) getAvgKNNNanos() int64 {
	count := b.KNNCount.Load()
	if count == 0 {
		return 0
	}
	return b.KNNTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	PutCount       int64
	PutErrors      int64
	PutAvgNanos    int64
	BatchPutCount  int64
	BatchPutItems  int64
	BatchPutFailed int64
	KNNCount       int64
	KNNErrors      int64
	KNNAvgNanos    int64
	NearestCount   int64
	NearestErrors  int64
	RangeCount     int64
	RangeErrors    int64
}
