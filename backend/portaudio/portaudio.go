// SPDX-License-Identifier: EPL-2.0

// Package portaudio drives a matrix from the callback of a duplex PortAudio
// stream. Each channel of the default capture and playback devices is a
// port: registering a port claims the channel with the same name.
package portaudio

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	pa "github.com/gordonklaus/portaudio"
	"github.com/ik5/audmatrix/matrix"
)

var (
	ErrConfig         = errors.New("invalid stream configuration")
	ErrUnknownChannel = errors.New("no device channel with that name")
	ErrChannelTaken   = errors.New("device channel already owned by a port")
	ErrUnknownToken   = errors.New("unknown port token")
	ErrRunning        = errors.New("stream already running")
	ErrNotRunning     = errors.New("stream not running")
)

// Config names the device channels. Index i of Inputs names capture
// channel i; an empty name leaves that channel unused.
type Config struct {
	SampleRate int
	BlockSize  int
	Inputs     []string
	Outputs    []string
}

type stream interface {
	Start() error
	Stop() error
	Close() error
}

type opener func(numIn, numOut int, rate float64, frames int, cb func(in, out [][]float32)) (stream, error)

type channel struct {
	dir   matrix.Direction
	index int
}

type Backend struct {
	cfg      Config
	logger   *slog.Logger
	open     opener
	channels map[string]channel

	mu     sync.Mutex
	owners map[string]matrix.PortToken
	stream stream
	proc   matrix.Processor

	table  atomic.Pointer[[]*channel]
	blocks atomic.Uint64

	// set for the duration of one callback
	in, out [][]float32
}

func New(cfg Config, logger *slog.Logger) (*Backend, error) {
	if cfg.SampleRate <= 0 || cfg.BlockSize <= 0 {
		return nil, fmt.Errorf("%w: rate %d, block %d", ErrConfig, cfg.SampleRate, cfg.BlockSize)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	b := &Backend{
		cfg:      cfg,
		logger:   logger,
		open:     openDefault,
		channels: make(map[string]channel),
		owners:   make(map[string]matrix.PortToken),
	}
	b.table.Store(&[]*channel{})

	for dir, names := range map[matrix.Direction][]string{matrix.Input: cfg.Inputs, matrix.Output: cfg.Outputs} {
		for i, name := range names {
			if name == "" {
				continue
			}
			if _, dup := b.channels[name]; dup {
				return nil, fmt.Errorf("%w: channel name %q used twice", ErrConfig, name)
			}
			b.channels[name] = channel{dir: dir, index: i}
		}
	}
	return b, nil
}

func (b *Backend) RegisterPort(name string, dir matrix.Direction) (matrix.PortToken, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch, ok := b.channels[name]
	if !ok || ch.dir != dir {
		return 0, fmt.Errorf("%w: %s %q", ErrUnknownChannel, dir, name)
	}
	if _, taken := b.owners[name]; taken {
		return 0, fmt.Errorf("%w: %q", ErrChannelTaken, name)
	}

	cur := *b.table.Load()
	next := append(cur[:len(cur):len(cur)], &ch)
	tok := matrix.PortToken(len(cur))
	b.table.Store(&next)
	b.owners[name] = tok

	b.logger.Debug("device channel claimed", "port", name, "direction", dir.String(), "channel", ch.index)
	return tok, nil
}

func (b *Backend) UnregisterPort(tok matrix.PortToken) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	cur := *b.table.Load()
	if int(tok) >= len(cur) || cur[tok] == nil {
		return fmt.Errorf("%w: %d", ErrUnknownToken, tok)
	}

	next := make([]*channel, len(cur))
	copy(next, cur)
	next[tok] = nil
	b.table.Store(&next)

	for name, t := range b.owners {
		if t == tok {
			delete(b.owners, name)
			break
		}
	}
	return nil
}

// BlockBuffer is only meaningful inside the stream callback.
func (b *Backend) BlockBuffer(tok matrix.PortToken, frames int) []float32 {
	table := *b.table.Load()
	if int(tok) >= len(table) || table[tok] == nil {
		return nil
	}
	ch := table[tok]

	bufs := b.in
	if ch.dir == matrix.Output {
		bufs = b.out
	}
	if ch.index >= len(bufs) || frames > len(bufs[ch.index]) {
		return nil
	}
	return bufs[ch.index][:frames]
}

// Start opens the default devices and runs p once per callback.
func (b *Backend) Start(p matrix.Processor) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stream != nil {
		return ErrRunning
	}

	b.proc = p
	s, err := b.open(len(b.cfg.Inputs), len(b.cfg.Outputs), float64(b.cfg.SampleRate), b.cfg.BlockSize, b.callback)
	if err != nil {
		return fmt.Errorf("portaudio open stream: %w", err)
	}
	if err := s.Start(); err != nil {
		return errors.Join(fmt.Errorf("portaudio start stream: %w", err), s.Close())
	}
	b.stream = s

	b.logger.Info("stream started",
		"sample_rate", b.cfg.SampleRate,
		"block_size", b.cfg.BlockSize,
		"inputs", len(b.cfg.Inputs),
		"outputs", len(b.cfg.Outputs))
	return nil
}

func (b *Backend) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stream == nil {
		return ErrNotRunning
	}
	err := errors.Join(b.stream.Stop(), b.stream.Close())
	b.stream = nil

	b.logger.Info("stream stopped", "blocks", b.blocks.Load())
	if err != nil {
		return fmt.Errorf("portaudio stop stream: %w", err)
	}
	return nil
}

// Blocks is the number of callbacks served.
func (b *Backend) Blocks() uint64 { return b.blocks.Load() }

func (b *Backend) callback(in, out [][]float32) {
	b.in, b.out = in, out

	// channels without an owning port stay silent
	for _, ch := range out {
		clear(ch)
	}

	frames := b.cfg.BlockSize
	switch {
	case len(out) > 0:
		frames = len(out[0])
	case len(in) > 0:
		frames = len(in[0])
	}
	b.proc.Process(frames)

	b.in, b.out = nil, nil
	b.blocks.Add(1)
}

type paStream struct {
	*pa.Stream
}

func (s paStream) Close() error {
	return errors.Join(s.Stream.Close(), pa.Terminate())
}

func openDefault(numIn, numOut int, rate float64, frames int, cb func(in, out [][]float32)) (stream, error) {
	if err := pa.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio init: %w", err)
	}
	s, err := pa.OpenDefaultStream(numIn, numOut, rate, frames, cb)
	if err != nil {
		_ = pa.Terminate()
		return nil, err
	}
	return paStream{Stream: s}, nil
}
