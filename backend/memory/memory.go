// SPDX-License-Identifier: EPL-2.0

// Package memory provides a matrix.Backend whose port buffers live in
// ordinary Go memory. The host writes input samples, ticks the processor
// and reads the outputs back, which makes it suitable for tests and for
// offline rendering.
package memory

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/ik5/audmatrix/matrix"
)

var (
	ErrUnknownToken  = errors.New("unknown port token")
	ErrUnknownPort   = errors.New("no port with that name")
	ErrBlockTooLarge = errors.New("block larger than the backend buffers")
	ErrRegister      = errors.New("port registration refused")
)

type slot struct {
	name string
	dir  matrix.Direction
	buf  []float32
}

// Backend hands out fixed buffers of maxFrames samples per port.
//
// Registration may run concurrently with BlockBuffer: the token table is
// copied on write and read through an atomic pointer. Write, Read and
// Tick must be called from the goroutine that drives the blocks.
type Backend struct {
	maxFrames int

	mu       sync.Mutex
	names    map[string]matrix.PortToken
	failNext error

	slots  atomic.Pointer[[]*slot]
	frames atomic.Int64
}

func New(maxFrames int) *Backend {
	b := &Backend{
		maxFrames: maxFrames,
		names:     make(map[string]matrix.PortToken),
	}
	b.slots.Store(&[]*slot{})
	return b
}

func (b *Backend) MaxFrames() int { return b.maxFrames }

// FailNextRegister makes the next RegisterPort call fail with err.
func (b *Backend) FailNextRegister(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failNext = err
}

func (b *Backend) RegisterPort(name string, dir matrix.Direction) (matrix.PortToken, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.failNext; err != nil {
		b.failNext = nil
		return 0, fmt.Errorf("%w: %w", ErrRegister, err)
	}
	if _, ok := b.names[name]; ok {
		return 0, fmt.Errorf("%w: %q already registered", ErrRegister, name)
	}

	cur := *b.slots.Load()
	next := append(slices.Clip(cur), &slot{
		name: name,
		dir:  dir,
		buf:  make([]float32, b.maxFrames),
	})
	tok := matrix.PortToken(len(cur))
	b.slots.Store(&next)
	b.names[name] = tok

	return tok, nil
}

func (b *Backend) UnregisterPort(tok matrix.PortToken) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	cur := *b.slots.Load()
	if int(tok) >= len(cur) || cur[tok] == nil {
		return fmt.Errorf("%w: %d", ErrUnknownToken, tok)
	}

	next := slices.Clone(cur)
	delete(b.names, next[tok].name)
	next[tok] = nil
	b.slots.Store(&next)

	return nil
}

func (b *Backend) BlockBuffer(tok matrix.PortToken, frames int) []float32 {
	slots := *b.slots.Load()
	if int(tok) >= len(slots) {
		return nil
	}
	s := slots[tok]
	if s == nil || frames > len(s.buf) {
		return nil
	}
	return s.buf[:frames]
}

// Write copies samples into the buffer of the named port. Samples past the
// end of the buffer are dropped; the rest of the buffer is silenced.
func (b *Backend) Write(name string, samples []float32) error {
	s, err := b.lookup(name)
	if err != nil {
		return err
	}
	n := copy(s.buf, samples)
	clear(s.buf[n:])
	return nil
}

// Read returns a copy of the named port's buffer as left by the last Tick.
func (b *Backend) Read(name string) ([]float32, error) {
	s, err := b.lookup(name)
	if err != nil {
		return nil, err
	}
	return slices.Clone(s.buf[:b.frames.Load()]), nil
}

// ReadInto copies the named port's last block into dst without allocating
// and returns the number of samples copied.
func (b *Backend) ReadInto(name string, dst []float32) (int, error) {
	s, err := b.lookup(name)
	if err != nil {
		return 0, err
	}
	return copy(dst, s.buf[:b.frames.Load()]), nil
}

// Tick runs one block of frames samples through p.
func (b *Backend) Tick(p matrix.Processor, frames int) error {
	if frames > b.maxFrames {
		return fmt.Errorf("%w: %d > %d", ErrBlockTooLarge, frames, b.maxFrames)
	}
	p.Process(frames)
	b.frames.Store(int64(frames))
	return nil
}

// Ports lists the registered port names in registration order.
func (b *Backend) Ports() []string {
	var names []string
	for _, s := range *b.slots.Load() {
		if s != nil {
			names = append(names, s.name)
		}
	}
	return names
}

func (b *Backend) lookup(name string) (*slot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	tok, ok := b.names[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPort, name)
	}
	return (*b.slots.Load())[tok], nil
}
