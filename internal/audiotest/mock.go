// SPDX-License-Identifier: EPL-2.0

// Package audiotest provides synthetic sample sources for tests. It mirrors
// audio.Source without importing it so decoder and audio tests can share it.
package audiotest

import (
	"errors"
	"io"
	"math"
)

// Source generates frames from a function of frame index and channel.
type Source struct {
	rate     int
	channels int
	frames   int
	pos      int
	fn       func(frame, ch int) float32

	failAt  int
	failErr error
	closed  bool
}

func New(rate, channels, frames int, fn func(frame, ch int) float32) *Source {
	return &Source{
		rate:     rate,
		channels: channels,
		frames:   frames,
		fn:       fn,
		failAt:   -1,
	}
}

func Constant(rate, channels, frames int, v float32) *Source {
	return New(rate, channels, frames, func(int, int) float32 { return v })
}

func Sine(rate, channels, frames int, freq float64) *Source {
	return New(rate, channels, frames, func(frame, _ int) float32 {
		return float32(math.Sin(2 * math.Pi * freq * float64(frame) / float64(rate)))
	})
}

// Ramp is a mono source whose n-th sample is n/frames.
func Ramp(rate, frames int) *Source {
	return New(rate, 1, frames, func(frame, _ int) float32 {
		return float32(frame) / float32(frames)
	})
}

// FailAfter makes ReadSamples return err once frame n has been reached.
func (s *Source) FailAfter(n int, err error) *Source {
	s.failAt = n
	s.failErr = err
	return s
}

func (s *Source) SampleRate() int { return s.rate }
func (s *Source) Channels() int   { return s.channels }
func (s *Source) Closed() bool    { return s.closed }
func (s *Source) Reset()          { s.pos = 0 }

func (s *Source) Close() error {
	if s.closed {
		return errors.New("audiotest: source closed twice")
	}
	s.closed = true
	return nil
}

func (s *Source) ReadSamples(dst []float32) (int, error) {
	if s.failAt >= 0 && s.pos >= s.failAt {
		return 0, s.failErr
	}
	if s.pos >= s.frames {
		return 0, io.EOF
	}

	n := min(len(dst)/s.channels, s.frames-s.pos)
	if s.failAt >= 0 {
		n = min(n, s.failAt-s.pos)
	}
	for f := range n {
		for c := range s.channels {
			dst[f*s.channels+c] = s.fn(s.pos+f, c)
		}
	}
	s.pos += n

	if s.pos >= s.frames {
		return n * s.channels, io.EOF
	}
	return n * s.channels, nil
}

// Reader is the read half of audio.Source.
type Reader interface {
	ReadSamples(dst []float32) (int, error)
}

// ReadAll drains r in chunks of the given size.
func ReadAll(r Reader, chunk int) ([]float32, error) {
	buf := make([]float32, chunk)
	var out []float32
	for {
		n, err := r.ReadSamples(buf)
		out = append(out, buf[:n]...)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
	}
}
