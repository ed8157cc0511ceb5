// SPDX-License-Identifier: EPL-2.0

// Command audmatrix runs a routing session from a YAML file, either
// rendered offline to WAV files or live on an audio device.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ik5/audmatrix"
	"github.com/ik5/audmatrix/config"
)

const defaultConfigPath = "audmatrix.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to session configuration file")
	backend := flag.String("backend", "", "Override the configured backend: render, portaudio or oto")
	debug := flag.Bool("debug", false, "Enable debug logging")
	logFormat := flag.String("log-format", "text", "Log format: text or json")
	flag.Parse()

	logger, err := newLogger(*logFormat, *debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	slog.SetDefault(logger)

	if err := run(*configPath, *backend, logger); err != nil {
		logger.Error("audmatrix failed", "error", err)
		os.Exit(1)
	}
}

func newLogger(format string, debug bool) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if debug {
		opts.Level = slog.LevelDebug
	}

	switch format {
	case "text":
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

// loadConfig reads path and applies the -backend override.
func loadConfig(path, backend string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if backend != "" && backend != cfg.Backend {
		cfg.Backend = backend
		if err := config.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func run(path, backend string, logger *slog.Logger) error {
	cfg, err := loadConfig(path, backend)
	if err != nil {
		return err
	}

	logger.Info("starting audmatrix",
		"config", path,
		"backend", cfg.Backend,
		"sample_rate", cfg.SampleRate,
		"block_size", cfg.BlockSize,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Backend == config.BackendRender {
		sum, err := audmatrix.Render(ctx, cfg, logger)
		if err != nil {
			return err
		}
		logger.Info("render finished",
			"session", sum.Session.String(),
			"blocks", sum.Blocks,
			"frames", sum.Frames,
			"outputs", len(sum.Outputs),
		)
		return nil
	}

	s, err := newLiveSession(path, backend, cfg, logger)
	if err != nil {
		return err
	}
	return s.run(ctx)
}
