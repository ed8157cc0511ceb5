// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"
)

// Resampler converts a mono Source to another sample rate with Catmull-Rom
// cubic interpolation. When downsampling, a one-pole low-pass filter runs
// on the input first. Equal rates pass samples through untouched.
type Resampler struct {
	src  Source
	rate int
	step float64 // source samples per output sample

	// hist[1] and hist[2] bracket the output position; real marks slots
	// holding source samples rather than the held last value.
	hist [4]float32
	real [4]bool
	pos  float64

	in     []float32
	inPos  int
	inLen  int
	srcEOF bool
	primed bool
	done   bool

	filter bool
	alpha  float32
	state  float32
}

func NewResampler(src Source, rate int) (*Resampler, error) {
	if src.Channels() != 1 {
		return nil, fmt.Errorf("%w: got %d channels", ErrNotMono, src.Channels())
	}
	if rate <= 0 || src.SampleRate() <= 0 {
		return nil, fmt.Errorf("%w: %d -> %d", ErrInvalidRate, src.SampleRate(), rate)
	}

	step := float64(src.SampleRate()) / float64(rate)

	return &Resampler{
		src:    src,
		rate:   rate,
		step:   step,
		in:     make([]float32, 4096),
		filter: step > 1,
		alpha:  0.5,
	}, nil
}

func (r *Resampler) SampleRate() int { return r.rate }
func (r *Resampler) Channels() int   { return 1 }

func (r *Resampler) Close() error {
	if err := r.src.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if r.step == 1 {
		return r.src.ReadSamples(dst)
	}
	if r.done {
		return 0, io.EOF
	}
	if !r.primed {
		if err := r.prime(); err != nil {
			return 0, err
		}
	}

	n := 0
	for n < len(dst) {
		for r.pos >= 1 {
			r.pos--
			if err := r.advance(); err != nil {
				return n, err
			}
		}
		if !r.real[1] {
			r.done = true
			break
		}

		dst[n] = cubic(r.hist[0], r.hist[1], r.hist[2], r.hist[3], float32(r.pos))
		n++
		r.pos += r.step
	}

	if r.done {
		return n, io.EOF
	}
	return n, nil
}

func (r *Resampler) prime() error {
	r.primed = true

	v, ok, err := r.pull()
	if err != nil {
		return err
	}
	if !ok {
		r.done = true
		return io.EOF
	}

	r.state = v
	r.hist[0], r.hist[1] = v, v
	r.real[0], r.real[1] = true, true

	if err := r.fetchInto(2); err != nil {
		return err
	}
	return r.fetchInto(3)
}

// advance drops the oldest sample and appends the next one.
func (r *Resampler) advance() error {
	copy(r.hist[:3], r.hist[1:])
	copy(r.real[:3], r.real[1:])
	return r.fetchInto(3)
}

func (r *Resampler) fetchInto(i int) error {
	v, ok, err := r.pull()
	if err != nil {
		return err
	}
	if !ok {
		r.hist[i] = r.hist[i-1]
		r.real[i] = false
		return nil
	}
	if r.filter {
		v = r.alpha*v + (1-r.alpha)*r.state
		r.state = v
	}
	r.hist[i] = v
	r.real[i] = true
	return nil
}

func (r *Resampler) pull() (float32, bool, error) {
	for r.inPos == r.inLen {
		if r.srcEOF {
			return 0, false, nil
		}
		n, err := r.src.ReadSamples(r.in)
		r.inPos, r.inLen = 0, n
		if err == io.EOF {
			r.srcEOF = true
		} else if err != nil {
			return 0, false, fmt.Errorf("%w", err)
		}
	}
	v := r.in[r.inPos]
	r.inPos++
	return v, true, nil
}

// cubic interpolates between y1 and y2 at fraction x in [0, 1).
func cubic(y0, y1, y2, y3, x float32) float32 {
	a0 := -0.5*y0 + 1.5*y1 - 1.5*y2 + 0.5*y3
	a1 := y0 - 2.5*y1 + 2*y2 - 0.5*y3
	a2 := -0.5*y0 + 0.5*y2
	a3 := y1

	return a0*x*x*x + a1*x*x + a2*x + a3
}
