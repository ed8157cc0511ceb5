// SPDX-License-Identifier: EPL-2.0

package audmatrix

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ik5/audmatrix/audio"
	"github.com/ik5/audmatrix/backend/memory"
	"github.com/ik5/audmatrix/config"
	"github.com/ik5/audmatrix/formats/wav"
	"github.com/ik5/audmatrix/matrix"
)

// Summary describes a finished render.
type Summary struct {
	Session  uuid.UUID
	Blocks   int64
	Frames   int64             // samples written per output
	Outputs  map[string]string // port name to file
	Silenced uint64
}

// Render mixes cfg offline. It runs until every input is drained, so the
// outputs are as long as the longest input. Outputs without a file are
// mixed but not written.
func Render(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Summary, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	sum := Summary{
		Session: uuid.New(),
		Outputs: make(map[string]string, len(cfg.Outputs)),
	}
	logger = logger.With("session", sum.Session.String())

	feeds := make([]*audio.Feed, 0, len(cfg.Inputs))
	defer func() {
		for _, f := range feeds {
			_ = f.Close()
		}
	}()
	for _, p := range cfg.Inputs {
		f, err := OpenFeed(p.File, p.ChannelOr(audio.Downmix), cfg.SampleRate)
		if err != nil {
			return sum, fmt.Errorf("input %q: %w", p.Name, err)
		}
		feeds = append(feeds, f)
		logger.Debug("input opened", "input", p.Name, "file", p.File)
	}

	backend := memory.New(cfg.BlockSize)
	g := matrix.New(backend, matrix.WithLogger(logger))
	defer func() {
		_ = g.Close(context.WithoutCancel(ctx))
	}()

	if _, err := config.Apply(g, cfg); err != nil {
		return sum, err
	}
	if err := g.Activate(); err != nil {
		return sum, err
	}

	captures := make([][]float32, len(cfg.Outputs))
	block := make([]float32, cfg.BlockSize)

	for {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		produced, done := 0, true
		for i, f := range feeds {
			n, err := f.Fill(block)
			if err != nil && !errors.Is(err, io.EOF) {
				return sum, fmt.Errorf("input %q: %w", cfg.Inputs[i].Name, err)
			}
			produced = max(produced, n)
			done = done && f.Done()
			if err := backend.Write(cfg.Inputs[i].Name, block); err != nil {
				return sum, err
			}
		}

		frames := cfg.BlockSize
		if done {
			if produced == 0 {
				break
			}
			frames = produced
		}

		if err := backend.Tick(g, frames); err != nil {
			return sum, err
		}
		for i, p := range cfg.Outputs {
			n, err := backend.ReadInto(p.Name, block)
			if err != nil {
				return sum, err
			}
			captures[i] = append(captures[i], block[:n]...)
		}
		sum.Blocks++
		sum.Frames += int64(frames)
	}

	sum.Silenced = g.Stats().Silenced
	logger.Info("mix finished", "blocks", sum.Blocks, "frames", sum.Frames, "silenced", sum.Silenced)

	eg, ectx := errgroup.WithContext(ctx)
	for i, p := range cfg.Outputs {
		if p.File == "" {
			logger.Warn("output has no file, capture dropped", "output", p.Name)
			continue
		}
		sum.Outputs[p.Name] = p.File

		eg.Go(func() error {
			if err := writeWAV(ectx, p.File, cfg.SampleRate, cfg.BitDepth, captures[i]); err != nil {
				return fmt.Errorf("output %q: %w", p.Name, err)
			}
			logger.Debug("output written", "output", p.Name, "file", p.File)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return sum, err
	}

	return sum, nil
}

// writeChunk bounds how long writeWAV runs between context checks.
const writeChunk = 1 << 16

func writeWAV(ctx context.Context, path string, rate, bitDepth int, samples []float32) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w, err := wav.NewWriter(f, rate, bitDepth)
	if err != nil {
		return err
	}

	for len(samples) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := min(len(samples), writeChunk)
		if err := w.Write(samples[:n]); err != nil {
			return err
		}
		samples = samples[n:]
	}
	return w.Close()
}
