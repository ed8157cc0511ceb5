// SPDX-License-Identifier: EPL-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/ik5/audmatrix"
	"github.com/ik5/audmatrix/audio"
	"github.com/ik5/audmatrix/backend/oto"
	"github.com/ik5/audmatrix/backend/portaudio"
	"github.com/ik5/audmatrix/config"
	"github.com/ik5/audmatrix/matrix"
)

// device is a backend driven by its own clock.
type device interface {
	matrix.Backend
	Start(p matrix.Processor) error
	Stop() error
}

// liveSession runs a graph on a device until it is signalled to stop.
// SIGHUP reloads the configuration in place.
type liveSession struct {
	path     string
	override string
	logger   *slog.Logger

	cfg     *config.Config
	device  device
	player  *oto.Backend // set for the oto backend, which plays files
	graph   *matrix.Graph
	session *config.Session
	feeds   map[string]*audio.Feed
}

func newLiveSession(path, override string, cfg *config.Config, logger *slog.Logger) (*liveSession, error) {
	logger = logger.With("session", uuid.NewString())
	s := &liveSession{
		path:     path,
		override: override,
		logger:   logger,
		cfg:      cfg,
		feeds:    make(map[string]*audio.Feed),
	}

	switch cfg.Backend {
	case config.BackendPortAudio:
		b, err := portaudio.New(portaudio.Config{
			SampleRate: cfg.SampleRate,
			BlockSize:  cfg.BlockSize,
			Inputs:     config.DeviceChannels(cfg.Inputs),
			Outputs:    config.DeviceChannels(cfg.Outputs),
		}, logger)
		if err != nil {
			return nil, err
		}
		s.device = b
	case config.BackendOto:
		b, err := oto.New(oto.Config{
			SampleRate: cfg.SampleRate,
			BlockSize:  cfg.BlockSize,
			Outputs:    config.DeviceChannels(cfg.Outputs),
		}, logger)
		if err != nil {
			return nil, err
		}
		s.device = b
		s.player = b
	default:
		return nil, fmt.Errorf("%w: %s is not a live backend", config.ErrInvalid, cfg.Backend)
	}

	s.graph = matrix.New(s.device, matrix.WithLogger(logger))
	return s, nil
}

func (s *liveSession) run(ctx context.Context) error {
	var err error
	s.session, err = config.Apply(s.graph, s.cfg)
	if err == nil {
		err = s.attach(s.cfg.Inputs)
	}
	if err == nil {
		err = s.graph.Activate()
	}
	if err == nil {
		err = s.device.Start(s.graph)
	}
	if err != nil {
		return errors.Join(err, s.shutdown())
	}

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	var done <-chan struct{}
	if s.player != nil {
		done = s.player.Done()
	}

	s.logger.Info("session running", "inputs", len(s.cfg.Inputs), "outputs", len(s.cfg.Outputs), "routes", len(s.cfg.Routes))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("received shutdown signal")
			return s.shutdown()
		case <-done:
			s.logger.Info("playback finished")
			return errors.Join(s.player.Err(), s.shutdown())
		case <-hup:
			if err := s.reload(ctx); err != nil {
				s.logger.Error("reload failed, keeping current session", "error", err)
			}
		}
	}
}

func (s *liveSession) reload(ctx context.Context) error {
	next, err := loadConfig(s.path, s.override)
	if err != nil {
		return err
	}
	if err := config.Compatible(s.cfg, next); err != nil {
		return err
	}

	ch, err := config.Reconcile(ctx, s.graph, s.session, next)
	if err != nil {
		return err
	}

	if s.player != nil {
		for _, name := range ch.RemovedInputs {
			s.detach(name)
		}
		var open []config.Port
		for _, p := range next.Inputs {
			if prev, ok := findPort(s.cfg.Inputs, p.Name); ok && samePort(prev, p) {
				continue
			}
			s.detach(p.Name)
			open = append(open, p)
		}
		if err := s.attach(open); err != nil {
			return err
		}
	}

	s.cfg = next
	s.logger.Info("configuration reloaded",
		"added_inputs", ch.AddedInputs,
		"added_outputs", ch.AddedOutputs,
		"removed_inputs", ch.RemovedInputs,
		"removed_outputs", ch.RemovedOutputs,
		"connected", ch.Connected,
		"disconnected", ch.Disconnected,
		"regained", ch.Regained,
	)
	return nil
}

// attach opens the files of ports and feeds them to the player.
func (s *liveSession) attach(ports []config.Port) error {
	if s.player == nil {
		return nil
	}
	for _, p := range ports {
		f, err := audmatrix.OpenFeed(p.File, p.ChannelOr(audio.Downmix), s.cfg.SampleRate)
		if err != nil {
			return fmt.Errorf("input %q: %w", p.Name, err)
		}
		if err := s.player.Attach(p.Name, f); err != nil {
			return errors.Join(fmt.Errorf("input %q: %w", p.Name, err), f.Close())
		}
		s.feeds[p.Name] = f
	}
	return nil
}

func (s *liveSession) detach(name string) {
	f, ok := s.feeds[name]
	if !ok {
		return
	}
	s.player.Detach(name)
	if err := f.Close(); err != nil {
		s.logger.Warn("failed to close input", "input", name, "error", err)
	}
	delete(s.feeds, name)
}

func (s *liveSession) shutdown() error {
	timeout := time.Duration(s.cfg.ShutdownTimeoutS) * time.Second
	s.logger.Info("shutting down gracefully", "timeout", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	if err := s.device.Stop(); err != nil && !errors.Is(err, oto.ErrNotRunning) && !errors.Is(err, portaudio.ErrNotRunning) {
		errs = append(errs, err)
	}
	if err := s.graph.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	for name := range s.feeds {
		s.detach(name)
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("audmatrix stopped", "blocks", s.graph.Stats().Blocks)
	return nil
}

func findPort(ports []config.Port, name string) (config.Port, bool) {
	for _, p := range ports {
		if p.Name == name {
			return p, true
		}
	}
	return config.Port{}, false
}

func samePort(a, b config.Port) bool {
	return a.File == b.File && a.ChannelOr(audio.Downmix) == b.ChannelOr(audio.Downmix)
}
