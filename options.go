package quadstore

import (
	"log/slog"
)

type options struct {
	metricsCollector MetricsCollector
	logger           *Logger
	memoryLimit      int64
	writesPerSecond  float64
	writeBurst       int
}

// Option configures a Dataset.
type Option func(*options)

// WithMetricsCollector routes transaction metrics to mc. A nil mc disables
// metrics.
//
//	metrics := &quadstore.BasicMetricsCollector{}
//	ds := quadstore.New(quadstore.WithMetricsCollector(metrics))
//	...
//	fmt.Println(metrics.GetStats().CommitCount)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger sets the logger for transaction events. A nil logger disables
// logging, which is also the default.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel is shorthand for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return WithLogger(NewTextLogger(level))
}

// WithMemoryLimit bounds the estimated memory held by committed tuples.
// A commit that would exceed the limit fails with ErrResourceExhausted.
// A limit <= 0 means unlimited.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

// WithWriteRateLimit limits how many write transactions may begin per second.
// Waiting writers honour the context passed to Begin. perSecond <= 0
// disables the limit.
func WithWriteRateLimit(perSecond float64, burst int) Option {
	return func(o *options) {
		o.writesPerSecond = perSecond
		o.writeBurst = burst
	}
}

func applyOptions(optFns []Option) options {
	o := options{
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
