// Command inmcheck runs the Infinite Noise health check over a sample stream.
//
// The stream is either a capture of raw comparator samples (one byte per clock) or
// a software multiplier. The final report is logged when the stream ends.
//
// Usage:
//
//	inmcheck [flags]
//
// Flags:
//
//	-config string
//	    TOML settings file
//	-input string
//	    raw sample file, "-" for stdin
//	-simulate int
//	    number of simulated clocks when no input is given (default 2000000)
//	-dump
//	    write the context tables to stdout at the end
package main

import (
	"errors"
	"flag"
	"io"
	"log/slog"
	"os"

	"github.com/coalaura/inmhealth"
	"github.com/coalaura/inmhealth/sim"
)

// readSize is the number of output bytes requested per channel read.
const readSize = 512

var (
	configPath = flag.String("config", "", "TOML settings file")
	contextN   = flag.Int("n", 0, "context bits (overrides config)")
	gain       = flag.Float64("k", 0, "multiplier gain (overrides config)")
	debug      = flag.Bool("debug", false, "log a health report every report interval")
	jsonLogs   = flag.Bool("json", false, "log in JSON")
	input      = flag.String("input", "", "raw sample file, \"-\" for stdin")
	simulate   = flag.Int("simulate", 2000000, "simulated clocks when no input is given")
	simGain    = flag.Float64("sim-k", 0, "gain of the simulated multiplier (default: configured gain)")
	seed       = flag.String("seed", "inmcheck", "seed of the simulated multiplier")
	dump       = flag.Bool("dump", false, "write the context tables to stdout at the end")
)

func main() {
	flag.Parse()

	logger := newLogger()

	os.Exit(run(logger))
}

func newLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	if *jsonLogs {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}

	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func run(logger *slog.Logger) int {
	cfg := inmhealth.DefaultConfig()

	if *configPath != "" {
		loaded, err := inmhealth.LoadConfig(*configPath)
		if err != nil {
			logger.Error("failed to load config", "error", err)

			return 1
		}

		cfg = loaded
	}

	if *contextN != 0 {
		cfg.ContextBits = *contextN
	}

	if *gain != 0 {
		cfg.Gain = *gain
	}

	cfg.Debug = cfg.Debug || *debug

	monitor, err := cfg.NewMonitor(logger)
	if err != nil {
		logger.Error("failed to start health check", "error", err)

		return 1
	}

	src, err := openSource(cfg)
	if err != nil {
		logger.Error("failed to open input", "error", err)

		monitor.Close()

		return 1
	}

	ch := inmhealth.NewChannel(src, monitor)

	defer ch.Close()

	code := drain(logger, ch)

	r := ch.Report()

	logger.Info("final report",
		"bits", r.TotalBits,
		"ok", r.OK,
		"entropy_per_bit", r.EntropyPerBit,
		"expected", r.Expected,
		"k", r.K,
		"entropy_level", r.EntropyLevel,
		"ones_pct", r.OnesPercent,
		"even_misfire_pct", r.EvenMisfirePercent,
		"odd_misfire_pct", r.OddMisfirePercent,
	)

	if *dump {
		if err := monitor.DumpTables(os.Stdout); err != nil {
			logger.Error("failed to dump tables", "error", err)
		}

		if profile, err := monitor.PredictionProfile(); err == nil {
			for i, acc := range profile {
				logger.Info("prediction accuracy", "bits", i+1, "accuracy", acc)
			}
		}
	}

	return code
}

func openSource(cfg inmhealth.Config) (io.Reader, error) {
	switch *input {
	case "":
		k := *simGain
		if k == 0 {
			k = cfg.Gain
		}

		return io.LimitReader(sim.New(k, sim.DefaultNoise, []byte(*seed)), int64(*simulate)), nil
	case "-":
		return os.Stdin, nil
	default:
		return os.Open(*input)
	}
}

func drain(logger *slog.Logger, ch *inmhealth.Channel) int {
	buf := make([]byte, readSize)

	for {
		_, err := ch.Read(buf)
		if err == nil {
			continue
		}

		if errors.Is(err, io.EOF) {
			return 0
		}

		if errors.Is(err, inmhealth.ErrStuckSource) {
			logger.Error("noise source failed", "error", err)

			return 2
		}

		logger.Error("read failed", "error", err)

		return 1
	}
}
