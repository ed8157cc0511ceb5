// SPDX-License-Identifier: EPL-2.0

package formats

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"github.com/ik5/audmatrix/audio"
	"github.com/ik5/audmatrix/formats/wav"
	"github.com/ik5/audmatrix/internal/audiotest"
)

type mockDecoder struct {
	name string
}

func (d *mockDecoder) Decode(io.Reader) (audio.Source, error) {
	return audiotest.Constant(44100, 2, 100, 0), nil
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	d := &mockDecoder{name: "raw"}
	r.Register(d, "raw", ".PCM")

	for _, ext := range []string{"raw", ".raw", "RAW", "pcm", ".pcm"} {
		got, ok := r.Get(ext)
		if !ok || got != d {
			t.Errorf("Get(%q) = %v, %v", ext, got, ok)
		}
	}
	if _, ok := r.Get("wav"); ok {
		t.Error("Get(wav) found a decoder in an empty registry")
	}
}

func TestRegistry_Overwrite(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	first, second := &mockDecoder{name: "a"}, &mockDecoder{name: "b"}
	r.Register(first, "x")
	r.Register(second, "x")

	if got, _ := r.Get("x"); got != second {
		t.Error("Register did not replace the earlier decoder")
	}
}

func TestDefault_Extensions(t *testing.T) {
	t.Parallel()

	want := []string{"aif", "aiff", "mp3", "oga", "ogg", "wav", "wave"}
	if got := Default().Extensions(); !slices.Equal(got, want) {
		t.Errorf("Extensions() = %v, want %v", got, want)
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.Register(&mockDecoder{}, string(rune('a'+i)))
		}()
		go func() {
			defer wg.Done()
			_, _ = r.Get("a")
		}()
	}
	wg.Wait()

	if n := len(r.Extensions()); n != 8 {
		t.Errorf("registered %d extensions, want 8", n)
	}
}

func TestOpen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "Take.WAV")

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	w, _ := wav.NewWriter(f, 32000, 16)
	_ = w.Write([]float32{-0.5, -0.25})
	_ = w.Close()
	_ = f.Close()

	src, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if src.SampleRate() != 32000 || src.Channels() != 1 {
		t.Errorf("format = %d Hz x%d", src.SampleRate(), src.Channels())
	}
	if err := src.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestOpen_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	if _, err := Open(filepath.Join(dir, "notes.txt")); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Open(.txt) error = %v, want ErrUnknownFormat", err)
	}
	if _, err := Open(filepath.Join(dir, "missing.wav")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Open(missing) error = %v, want os.ErrNotExist", err)
	}

	bad := filepath.Join(dir, "bad.wav")
	_ = os.WriteFile(bad, []byte("garbage"), 0o600)
	if _, err := Open(bad); !errors.Is(err, wav.ErrNotWavFile) {
		t.Errorf("Open(bad) error = %v, want wav.ErrNotWavFile", err)
	}
}

func BenchmarkRegistry_Get(b *testing.B) {
	b.ReportAllocs()

	r := Default()
	for b.Loop() {
		_, _ = r.Get("wav")
	}
}
