// SPDX-License-Identifier: EPL-2.0

package oto

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/ik5/audmatrix/audio"
	"github.com/ik5/audmatrix/backend/memory"
	"github.com/ik5/audmatrix/internal/audiotest"
	"github.com/ik5/audmatrix/matrix"
)

func decodeFrames(p []byte) []float32 {
	out := make([]float32, len(p)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(p[4*i:]))
	}
	return out
}

func newFeed(t *testing.T, src audio.Source) *audio.Feed {
	t.Helper()

	f, err := audio.NewFeed(src)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestBackend_InterleavesOutputs(t *testing.T) {
	t.Parallel()

	b, err := New(Config{SampleRate: 8000, BlockSize: 4, Outputs: []string{"left", "", "right"}}, nil)
	if err != nil {
		t.Fatal(err)
	}

	g := matrix.New(b)
	defer g.Close(context.Background())

	in, _ := g.AddInput("file")
	left, _ := g.AddOutput("left")
	right, _ := g.AddOutput("right")
	_, _ = g.Connect(in, left, 1)
	_, _ = g.Connect(in, right, -2)
	_ = g.Activate()

	if err := b.Attach("file", newFeed(t, audiotest.Constant(8000, 1, 6, 0.25))); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	b.proc = g

	// 1.5 blocks worth of 3-channel frames
	p := make([]byte, 4*3*6)
	n, err := b.Read(p)
	if n != len(p) || err != nil {
		t.Fatalf("Read() = %d, %v", n, err)
	}

	got := decodeFrames(p)
	for f := range 6 {
		l, mid, r := got[3*f], got[3*f+1], got[3*f+2]
		if l != 0.25 || mid != 0 || r != -0.5 {
			t.Errorf("frame %d = [%v %v %v], want [0.25 0 -0.5]", f, l, mid, r)
		}
	}

	select {
	case <-b.Done():
		t.Error("Done() closed while the feed still had samples")
	default:
	}

	// drain the rest of the second block and one more
	_, _ = b.Read(make([]byte, 4*3*6))
	select {
	case <-b.Done():
	default:
		t.Error("Done() still open after the feed ran dry")
	}
}

func TestBackend_SilentBeforeStart(t *testing.T) {
	t.Parallel()

	b, _ := New(Config{SampleRate: 8000, BlockSize: 4, Outputs: []string{"o"}}, nil)
	p := []byte{1, 2, 3, 4, 5, 6, 7, 8}

	n, err := b.Read(p)
	if n != len(p) || err != nil {
		t.Fatalf("Read() = %d, %v", n, err)
	}
	for i, v := range p {
		if v != 0 {
			t.Errorf("byte %d = %d, want 0", i, v)
		}
	}
}

func TestBackend_FeedError(t *testing.T) {
	t.Parallel()

	b, _ := New(Config{SampleRate: 8000, BlockSize: 4, Outputs: []string{"o"}}, nil)
	g := matrix.New(b)
	defer g.Close(context.Background())

	_, _ = g.AddInput("bad")
	_, _ = g.AddOutput("o")
	_ = g.Activate()

	boom := errors.New("corrupt frame")
	_ = b.Attach("bad", newFeed(t, audiotest.Constant(8000, 1, 100, 1).FailAfter(2, boom)))
	b.proc = g

	_, _ = b.Read(make([]byte, 16))
	if err := b.Err(); !errors.Is(err, boom) {
		t.Errorf("Err() = %v, want feed error", err)
	}
}

func TestBackend_AttachUnknownPort(t *testing.T) {
	t.Parallel()

	b, _ := New(Config{SampleRate: 8000, BlockSize: 4, Outputs: []string{"o"}}, nil)
	err := b.Attach("ghost", newFeed(t, audiotest.Constant(8000, 1, 1, 0)))
	if !errors.Is(err, memory.ErrUnknownPort) {
		t.Errorf("Attach() error = %v, want memory.ErrUnknownPort", err)
	}
}

func TestNew_ConfigErrors(t *testing.T) {
	t.Parallel()

	for _, cfg := range []Config{
		{BlockSize: 4, Outputs: []string{"o"}},
		{SampleRate: 8000, Outputs: []string{"o"}},
		{SampleRate: 8000, BlockSize: 4},
	} {
		if _, err := New(cfg, nil); !errors.Is(err, ErrConfig) {
			t.Errorf("New(%+v) error = %v, want ErrConfig", cfg, err)
		}
	}
}

func TestBackend_StopWithoutStart(t *testing.T) {
	t.Parallel()

	b, _ := New(Config{SampleRate: 8000, BlockSize: 4, Outputs: []string{"o"}}, nil)
	if err := b.Stop(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Stop() error = %v, want ErrNotRunning", err)
	}
}

var _ io.Reader = (*Backend)(nil)
