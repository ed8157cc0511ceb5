// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, rate, bitDepth int, blocks ...[]float32) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "out.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	w, err := NewWriter(f, rate, bitDepth)
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}
	for _, b := range blocks {
		if err := w.Write(b); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return path
}

func decodeFile(t *testing.T, path string) (rate, channels int, samples []float32) {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	src, err := Decoder{}.Decode(f)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	buf := make([]float32, 100)
	for {
		n, err := src.ReadSamples(buf)
		samples = append(samples, buf[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("ReadSamples() error = %v", err)
		}
	}
	return src.SampleRate(), src.Channels(), samples
}

func TestWriter_RoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		bitDepth int
		tol      float64
	}{
		{name: "16-bit", bitDepth: 16, tol: 2.0 / 32768},
		{name: "24-bit", bitDepth: 24, tol: 2.0 / 8388608},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			in := make([]float32, 1000)
			for i := range in {
				in[i] = float32(math.Sin(float64(i) / 10))
			}

			path := writeFile(t, 22050, tt.bitDepth, in[:300], in[300:])
			rate, channels, out := decodeFile(t, path)

			if rate != 22050 || channels != 1 {
				t.Errorf("format = %d Hz x%d, want 22050 Hz x1", rate, channels)
			}
			if len(out) != len(in) {
				t.Fatalf("decoded %d samples, want %d", len(out), len(in))
			}
			for i := range in {
				if d := math.Abs(float64(out[i] - in[i])); d > tt.tol*1.01 {
					t.Fatalf("sample %d = %v, want %v (diff %g)", i, out[i], in[i], d)
				}
			}
		})
	}
}

func TestWriter_Clamps(t *testing.T) {
	t.Parallel()

	path := writeFile(t, 8000, 16, []float32{2, -2, 0})
	_, _, out := decodeFile(t, path)

	want := []float32{32767.0 / 32768, -1, 0}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("sample %d = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestWriter_Frames(t *testing.T) {
	t.Parallel()

	f, err := os.Create(filepath.Join(t.TempDir(), "f.wav"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	w, _ := NewWriter(f, 8000, 16)
	_ = w.Write(make([]float32, 10))
	_ = w.Write(make([]float32, 5))
	if w.Frames() != 15 {
		t.Errorf("Frames() = %d, want 15", w.Frames())
	}

	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := w.Write([]float32{1}); !errors.Is(err, ErrWriterClosed) {
		t.Errorf("Write() after Close error = %v, want ErrWriterClosed", err)
	}

	st, _ := f.Stat()
	if st.Size() != 44+15*2 {
		t.Errorf("file size = %d, want %d", st.Size(), 44+15*2)
	}
}

func TestWriter_EmptyHasHeader(t *testing.T) {
	t.Parallel()

	f, err := os.Create(filepath.Join(t.TempDir(), "empty.wav"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	w, _ := NewWriter(f, 8000, 16)
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	st, _ := f.Stat()
	if st.Size() != 44 {
		t.Errorf("empty file size = %d, want 44", st.Size())
	}
}

func TestNewWriter_BitDepth(t *testing.T) {
	t.Parallel()

	for _, depth := range []int{0, 8, 32} {
		if _, err := NewWriter(nil, 8000, depth); !errors.Is(err, ErrUnsupportedBitDepth) {
			t.Errorf("NewWriter(%d bits) error = %v, want ErrUnsupportedBitDepth", depth, err)
		}
	}
}

func BenchmarkWriter_Write(b *testing.B) {
	b.ReportAllocs()

	f, err := os.Create(filepath.Join(b.TempDir(), "bench.wav"))
	if err != nil {
		b.Fatal(err)
	}
	defer f.Close()

	w, _ := NewWriter(f, 48000, 16)
	block := make([]float32, 256)

	for b.Loop() {
		_ = w.Write(block)
	}
	_ = w.Close()
}
