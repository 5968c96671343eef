package simgo

import (
	"log/slog"

	"github.com/hupe1980/simgo/simhash"
)

type options struct {
	hasher           simhash.FeatureHasher
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures constructor behavior.
//
// Options exist to avoid exploding the API surface with constructor
// variants; index-specific knobs live on the fluent builders instead.
type Option func(*options)

// WithHasher configures the feature hash function used to fingerprint
// feature sets.
//
// If nil is passed, simhash.DefaultHasher is used. All items and queries of
// one instance share a single hasher; mixing hashers across instances makes
// their signatures incomparable.
func WithHasher(h simhash.FeatureHasher) Option {
	return func(o *options) {
		if h == nil {
			h = simhash.DefaultHasher
		}
		o.hasher = h
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &simgo.BasicMetricsCollector{}
//	db, _ := simgo.New[string, string](simgo.WithMetricsCollector(metrics))
//	// ... use db ...
//	stats := metrics.GetStats()
//	fmt.Printf("Puts: %d, Avg latency: %dns\n", stats.PutCount, stats.PutAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := simgo.NewJSONLogger(slog.LevelInfo)
//	db, _ := simgo.New[string, string](simgo.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		hasher:           simhash.DefaultHasher,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
