// SPDX-License-Identifier: EPL-2.0

package matrix

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"
)

// fence tracks whether a block is in flight. The sequence is odd while
// Process runs and even between blocks; Process never runs concurrently
// with itself, so a change of an odd value means that block has ended.
type fence struct {
	seq atomic.Uint64
}

func (f *fence) enter() { f.seq.Add(1) }
func (f *fence) exit()  { f.seq.Add(1) }

func (f *fence) inFlight() bool { return f.seq.Load()&1 == 1 }

// wait returns once the block that was in flight when wait was called, if
// any, has finished. Combined with an atomic topology swap done before the
// call, this guarantees no block still sees the previous topology.
func (f *fence) wait(ctx context.Context) error {
	s := f.seq.Load()
	if s&1 == 0 {
		return nil
	}

	const spins = 64
	for range spins {
		if f.seq.Load() != s {
			return nil
		}
		runtime.Gosched()
	}

	delay := 50 * time.Microsecond
	timer := time.NewTimer(delay)
	defer timer.Stop()

	for f.seq.Load() == s {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
		delay = min(delay*2, 5*time.Millisecond)
		timer.Reset(delay)
	}

	return nil
}
