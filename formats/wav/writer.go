// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/ik5/audmatrix/utils"
)

// Writer streams mono float samples into a PCM WAV file. Samples outside
// [-1, 1] are clamped. The header is finalised by Close, which needs to
// seek back to the start of w.
type Writer struct {
	enc      *wav.Encoder
	buf      *goaudio.IntBuffer
	bitDepth int
	frames   int64
	closed   bool
}

// NewWriter supports 16 and 24 bit output.
func NewWriter(w io.WriteSeeker, sampleRate, bitDepth int) (*Writer, error) {
	if bitDepth != 16 && bitDepth != 24 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bitDepth)
	}

	return &Writer{
		enc:      wav.NewEncoder(w, sampleRate, bitDepth, 1, formatPCM),
		bitDepth: bitDepth,
		buf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
			SourceBitDepth: bitDepth,
		},
	}, nil
}

func (w *Writer) Write(samples []float32) error {
	if w.closed {
		return ErrWriterClosed
	}
	if cap(w.buf.Data) < len(samples) {
		w.buf.Data = make([]int, len(samples))
	}
	w.buf.Data = w.buf.Data[:len(samples)]

	for i, s := range samples {
		w.buf.Data[i] = utils.FloatToPCM(s, w.bitDepth)
	}
	if err := w.enc.Write(w.buf); err != nil {
		return fmt.Errorf("%w", err)
	}
	w.frames += int64(len(samples))
	return nil
}

// Frames is the number of samples written so far.
func (w *Writer) Frames() int64 { return w.frames }

// Close writes the final sizes into the header. It does not close the
// underlying writer.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	if w.frames == 0 {
		// the encoder only emits its header on the first write
		if err := w.Write(nil); err != nil {
			return err
		}
	}
	w.closed = true

	if err := w.enc.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}
