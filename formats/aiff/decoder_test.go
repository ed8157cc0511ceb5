// SPDX-License-Identifier: EPL-2.0

package aiff

import (
	"bytes"
	"errors"
	"io"
	"testing"

	goaudio "github.com/go-audio/audio"
)

// mockAiffReader simulates aiff.Decoder for testing
type mockAiffReader struct {
	samples []int
	offset  int
	err     error
}

func (m *mockAiffReader) PCMBuffer(buf *goaudio.IntBuffer) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	n := copy(buf.Data, m.samples[m.offset:])
	m.offset += n
	if m.offset == len(m.samples) {
		return n, io.EOF
	}
	return n, nil
}

func TestSource_Conversion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		bitDepth int
		input    []int
		want     []float32
	}{
		{name: "8-bit signed", bitDepth: 8, input: []int{0, 64, -128}, want: []float32{0, 0.5, -1}},
		{name: "16-bit", bitDepth: 16, input: []int{16384, -32768}, want: []float32{0.5, -1}},
		{name: "24-bit", bitDepth: 24, input: []int{-4194304}, want: []float32{-0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := &source{
				dec:      &mockAiffReader{samples: tt.input},
				channels: 1,
				bitDepth: tt.bitDepth,
				buf:      &goaudio.IntBuffer{},
			}

			dst := make([]float32, 8)
			n, err := s.ReadSamples(dst)
			if n != len(tt.want) || err != io.EOF {
				t.Fatalf("ReadSamples() = %d, %v; want %d, io.EOF", n, err, len(tt.want))
			}
			for i, w := range tt.want {
				if dst[i] != w {
					t.Errorf("dst[%d] = %v, want %v", i, dst[i], w)
				}
			}

			if n, err := s.ReadSamples(dst); n != 0 || err != io.EOF {
				t.Errorf("ReadSamples() at end = %d, %v; want 0, io.EOF", n, err)
			}
		})
	}
}

func TestSource_ReadError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	s := &source{dec: &mockAiffReader{err: boom}, bitDepth: 16, buf: &goaudio.IntBuffer{}}

	if _, err := s.ReadSamples(make([]float32, 4)); !errors.Is(err, boom) {
		t.Errorf("ReadSamples() error = %v, want boom", err)
	}
}

func TestDecoder_InvalidInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "text", data: []byte("This is not AIFF data")},
		{name: "riff", data: []byte("RIFF\x00\x00\x00\x00WAVE")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// io.MultiReader forces the in-memory path
			_, err := (Decoder{}).Decode(io.MultiReader(bytes.NewReader(tt.data)))
			if !errors.Is(err, ErrNotAiffFile) {
				t.Errorf("Decode() error = %v, want ErrNotAiffFile", err)
			}
		})
	}
}
