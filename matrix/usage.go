// SPDX-License-Identifier: EPL-2.0

package matrix

import "sync/atomic"

// Usage counts how many gain nodes depend on an object.
// The zero value is ready to use.
type Usage struct {
	n atomic.Int64
}

func (u *Usage) Pin() {
	u.n.Add(1)
}

// Unpin drops one reference. Dropping a reference that was never taken
// panics with a *ContractError.
func (u *Usage) Unpin() {
	for {
		cur := u.n.Load()
		if cur <= 0 {
			violate("Usage.Unpin", ErrUsageUnderflow)
		}
		if u.n.CompareAndSwap(cur, cur-1) {
			return
		}
	}
}

func (u *Usage) HasReferents() bool { return u.n.Load() != 0 }
func (u *Usage) Count() int         { return int(u.n.Load()) }
