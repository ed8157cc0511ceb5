// SPDX-License-Identifier: EPL-2.0

package matrix

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestFence_WaitIdle(t *testing.T) {
	t.Parallel()

	var f fence
	if err := f.wait(context.Background()); err != nil {
		t.Errorf("wait() on idle fence error = %v", err)
	}

	f.enter()
	f.exit()
	if f.inFlight() {
		t.Error("inFlight() = true after enter/exit")
	}
	if err := f.wait(context.Background()); err != nil {
		t.Errorf("wait() between blocks error = %v", err)
	}
}

func TestFence_WaitForBlock(t *testing.T) {
	t.Parallel()

	var f fence
	f.enter()
	start := f.seq.Load()

	go func() {
		time.Sleep(20 * time.Millisecond)
		f.exit()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := f.wait(ctx); err != nil {
		t.Fatalf("wait() error = %v", err)
	}
	if f.seq.Load() == start {
		t.Error("wait() returned while the block was still in flight")
	}
}

func TestFence_WaitCancelled(t *testing.T) {
	t.Parallel()

	var f fence
	f.enter()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := f.wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("wait() error = %v, want context.Canceled", err)
	}
}
