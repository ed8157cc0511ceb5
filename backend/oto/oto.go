// SPDX-License-Identifier: EPL-2.0

// Package oto plays the outputs of a matrix through the system speakers
// with github.com/ebitengine/oto/v3. The player pulls blocks: every time
// it needs more sound the backend fills the input ports from their feeds,
// runs one block and interleaves the output ports into float32 frames.
package oto

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"

	"github.com/ebitengine/oto/v3"
	"github.com/ik5/audmatrix/audio"
	"github.com/ik5/audmatrix/backend/memory"
	"github.com/ik5/audmatrix/matrix"
)

var (
	ErrConfig     = errors.New("invalid playback configuration")
	ErrRunning    = errors.New("player already running")
	ErrNotRunning = errors.New("player not running")
)

// Config maps speaker channels to output ports. Index i of Outputs is
// played on channel i; an empty name leaves that channel silent.
type Config struct {
	SampleRate int
	BlockSize  int
	Outputs    []string
}

// Backend stores port buffers in a memory.Backend and feeds the oto
// player from them.
type Backend struct {
	*memory.Backend

	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	proc    matrix.Processor
	feeds   map[string]*audio.Feed
	block   []float32
	frame   []float32
	pending []byte
	off     int
	feedErr error

	done     chan struct{}
	doneOnce sync.Once

	ctx    *oto.Context
	player *oto.Player
}

func New(cfg Config, logger *slog.Logger) (*Backend, error) {
	if cfg.SampleRate <= 0 || cfg.BlockSize <= 0 || len(cfg.Outputs) == 0 {
		return nil, fmt.Errorf("%w: rate %d, block %d, %d channels",
			ErrConfig, cfg.SampleRate, cfg.BlockSize, len(cfg.Outputs))
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	frame := len(cfg.Outputs) * cfg.BlockSize
	return &Backend{
		Backend: memory.New(cfg.BlockSize),
		cfg:     cfg,
		logger:  logger,
		feeds:   make(map[string]*audio.Feed),
		block:   make([]float32, cfg.BlockSize),
		frame:   make([]float32, frame),
		pending: make([]byte, 4*frame),
		off:     4 * frame,
		done:    make(chan struct{}),
	}, nil
}

// Attach makes feed the source of the input port name. The port must
// already be registered.
func (b *Backend) Attach(name string, feed *audio.Feed) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.Backend.Write(name, nil); err != nil {
		return fmt.Errorf("%w", err)
	}
	b.feeds[name] = feed
	b.logger.Debug("feed attached", "port", name)
	return nil
}

// Detach stops feeding name and leaves its port silent.
func (b *Backend) Detach(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.feeds, name)
	_ = b.Backend.Write(name, nil)
}

// Done is closed once every attached feed has run dry.
func (b *Backend) Done() <-chan struct{} { return b.done }

// Err returns the first feed error. The failing feed is detached.
func (b *Backend) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.feedErr
}

// Start opens the audio device and begins pulling blocks through p.
func (b *Backend) Start(p matrix.Processor) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.player != nil {
		return ErrRunning
	}
	b.proc = p

	if b.ctx == nil {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   b.cfg.SampleRate,
			ChannelCount: len(b.cfg.Outputs),
			Format:       oto.FormatFloat32LE,
		})
		if err != nil {
			return fmt.Errorf("oto context: %w", err)
		}
		<-ready
		b.ctx = ctx
	}

	b.player = b.ctx.NewPlayer(b)
	b.player.Play()

	b.logger.Info("playback started",
		"sample_rate", b.cfg.SampleRate,
		"block_size", b.cfg.BlockSize,
		"channels", len(b.cfg.Outputs))
	return nil
}

func (b *Backend) Stop() error {
	b.mu.Lock()
	player := b.player
	b.player = nil
	b.mu.Unlock()

	if player == nil {
		return ErrNotRunning
	}
	if err := player.Close(); err != nil {
		return fmt.Errorf("oto player: %w", err)
	}
	b.logger.Info("playback stopped")
	return nil
}

// Read implements io.Reader for the oto player.
func (b *Backend) Read(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.proc == nil {
		clear(p)
		return len(p), nil
	}

	n := 0
	for n < len(p) {
		if b.off == len(b.pending) {
			b.render()
		}
		c := copy(p[n:], b.pending[b.off:])
		n += c
		b.off += c
	}
	return n, nil
}

func (b *Backend) render() {
	live := false
	for name, feed := range b.feeds {
		n, err := feed.Fill(b.block)
		if err != nil && !errors.Is(err, io.EOF) {
			if b.feedErr == nil {
				b.feedErr = fmt.Errorf("feed %q: %w", name, err)
			}
			delete(b.feeds, name)
		}
		if n > 0 {
			live = true
		}
		_ = b.Backend.Write(name, b.block)
	}
	if !live {
		b.doneOnce.Do(func() { close(b.done) })
	}

	_ = b.Backend.Tick(b.proc, b.cfg.BlockSize)

	channels := len(b.cfg.Outputs)
	clear(b.frame)
	for c, name := range b.cfg.Outputs {
		if name == "" {
			continue
		}
		n, err := b.Backend.ReadInto(name, b.block)
		if err != nil {
			continue
		}
		for i, v := range b.block[:n] {
			b.frame[i*channels+c] = v
		}
	}

	for i, v := range b.frame {
		binary.LittleEndian.PutUint32(b.pending[4*i:], math.Float32bits(v))
	}
	b.off = 0
}
