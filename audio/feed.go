// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"
)

// Feed cuts a mono Source into fixed-size blocks for an input port. Once
// the source is drained every block is silence.
type Feed struct {
	src  Source
	done bool
	read int64
}

func NewFeed(src Source) (*Feed, error) {
	if src.Channels() != 1 {
		return nil, fmt.Errorf("%w: got %d channels", ErrNotMono, src.Channels())
	}
	return &Feed{src: src}, nil
}

// Fill writes exactly len(dst) samples and returns how many came from the
// source. The remainder is zeroed. It returns io.EOF when the source had
// nothing left to give.
func (f *Feed) Fill(dst []float32) (int, error) {
	n := 0
	for n < len(dst) && !f.done {
		m, err := f.src.ReadSamples(dst[n:])
		n += m
		if err == io.EOF {
			f.done = true
			break
		}
		if err != nil {
			clear(dst[n:])
			f.read += int64(n)
			return n, fmt.Errorf("%w", err)
		}
		if m == 0 {
			break
		}
	}
	clear(dst[n:])
	f.read += int64(n)

	if n == 0 && f.done {
		return 0, io.EOF
	}
	return n, nil
}

// Done reports whether the source has been drained.
func (f *Feed) Done() bool { return f.done }

// Samples is the number of source samples delivered so far.
func (f *Feed) Samples() int64 { return f.read }

func (f *Feed) SampleRate() int { return f.src.SampleRate() }

func (f *Feed) Close() error {
	if err := f.src.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}
