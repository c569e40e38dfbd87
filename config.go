package inmhealth

import (
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the file form of the monitor settings.
//
//	context_bits = 16
//	gain = 1.82
//	debug = true
type Config struct {
	ContextBits    int     `toml:"context_bits"`
	Gain           float64 `toml:"gain"`
	Debug          bool    `toml:"debug"`
	Tolerance      float64 `toml:"tolerance"`
	HealthWindow   uint64  `toml:"health_window"`
	MaxEntropy     uint32  `toml:"max_entropy"`
	ReportInterval uint64  `toml:"report_interval"`
	MemoryLimit    uint64  `toml:"memory_limit"`
}

// DefaultConfig returns the settings of the reference driver.
func DefaultConfig() Config {
	return Config{
		ContextBits:    16,
		Gain:           1.82,
		Tolerance:      DefaultTolerance,
		HealthWindow:   DefaultHealthWindow,
		MaxEntropy:     DefaultMaxEntropy,
		ReportInterval: DefaultReportInterval,
	}
}

// LoadConfig reads a TOML file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, cfg.Validate()
}

// Validate checks the settings New would reject.
func (c Config) Validate() error {
	if c.ContextBits < MinContextBits || c.ContextBits > MaxContextBits {
		return fmt.Errorf("context_bits: %w: got %d", ErrContextWidth, c.ContextBits)
	}

	if math.IsNaN(c.Gain) || math.IsInf(c.Gain, 0) || c.Gain <= 1 {
		return fmt.Errorf("gain: %w: got %v", ErrGain, c.Gain)
	}

	if c.Tolerance != 0 && (math.IsNaN(c.Tolerance) || math.IsInf(c.Tolerance, 0) || c.Tolerance <= 1) {
		return fmt.Errorf("tolerance: %w: got %v", ErrTolerance, c.Tolerance)
	}

	return nil
}

// NewMonitor starts a Monitor with these settings.
func (c Config) NewMonitor(logger *slog.Logger) (*Monitor, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	opts := []option{
		WithDebug(c.Debug),
		WithLogger(logger),
		WithMemoryLimit(c.MemoryLimit),
	}

	if c.Tolerance != 0 {
		opts = append(opts, WithTolerance(c.Tolerance))
	}

	if c.HealthWindow != 0 {
		opts = append(opts, WithHealthWindow(c.HealthWindow))
	}

	if c.MaxEntropy != 0 {
		opts = append(opts, WithMaxEntropy(c.MaxEntropy))
	}

	if c.ReportInterval != 0 {
		opts = append(opts, WithReportInterval(c.ReportInterval))
	}

	return New(c.ContextBits, c.Gain, opts...)
}
