package inmhealth

import "log/slog"

const (
	DefaultTolerance      = 1.02
	DefaultHealthWindow   = 80000
	DefaultMaxEntropy     = 1600 // Keccak sponge size of the downstream pool
	DefaultReportInterval = 1 << 20
)

type options struct {
	debug          bool
	logger         *slog.Logger
	tolerance      float64
	window         uint64
	maxEntropy     uint32
	reportInterval uint64
	memoryLimit    uint64
}

type option func(*options)

func defaultOptions() options {
	return options{
		tolerance:      DefaultTolerance,
		window:         DefaultHealthWindow,
		maxEntropy:     DefaultMaxEntropy,
		reportInterval: DefaultReportInterval,
	}
}

// WithDebug enables the periodic health report.
func WithDebug(debug bool) option {
	return func(o *options) {
		o.debug = debug
	}
}

// WithLogger sets the logger for health reports and anomalies (default slog.Default()).
func WithLogger(logger *slog.Logger) option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithTolerance sets the accuracy factor the entropy estimate must stay within (default 1.02, i.e. ±2%).
// New rejects a factor that is not greater than 1.
func WithTolerance(factor float64) option {
	return func(o *options) {
		o.tolerance = factor
	}
}

// WithHealthWindow sets the number of bits required before data may be used (default 80,000).
func WithHealthWindow(bits uint64) option {
	return func(o *options) {
		o.window = bits
	}
}

// WithMaxEntropy caps the entropy level (default 1600).
func WithMaxEntropy(units uint32) option {
	return func(o *options) {
		o.maxEntropy = units
	}
}

// WithReportInterval sets how many bits pass between debug reports (default 2^20).
func WithReportInterval(bits uint64) option {
	return func(o *options) {
		if bits > 0 {
			o.reportInterval = bits
		}
	}
}

// WithMemoryLimit bounds the bytes the context tables may take. Zero means no limit.
func WithMemoryLimit(bytes uint64) option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}
