// SPDX-License-Identifier: EPL-2.0

package matrix

import (
	"math"
	"sync/atomic"
)

// NodeID identifies a gain node within its graph.
type NodeID uint64

// Node is one matrix point: it sends a single input port into a single
// output port at a linear gain.
//
// Ports are referenced by PortID and resolved against the topology
// snapshot the block runs with. While a Node is live it holds one
// dependency reference on each of its ports.
type Node struct {
	id       NodeID
	in, out  PortID
	deps     [2]*Usage
	gain     atomic.Uint32
	released atomic.Bool
}

func newNode(id NodeID, in, out *Port, gain float32) *Node {
	n := &Node{
		id:   id,
		in:   in.id,
		out:  out.id,
		deps: [2]*Usage{&in.deps, &out.deps},
	}
	n.gain.Store(math.Float32bits(gain))
	n.pin()
	return n
}

func (n *Node) pin() {
	n.deps[0].Pin()
	n.deps[1].Pin()
}

// clone copies n under a new id. The copy takes its own references on
// both ports, so releasing either node leaves the other valid.
func (n *Node) clone(id NodeID) *Node {
	c := &Node{
		id:   id,
		in:   n.in,
		out:  n.out,
		deps: n.deps,
	}
	c.gain.Store(n.gain.Load())
	c.pin()
	return c
}

// release drops the node's port references. Releasing twice panics.
func (n *Node) release() {
	if !n.released.CompareAndSwap(false, true) {
		violate("Node.release", ErrNodeReleased)
	}
	n.deps[0].Unpin()
	n.deps[1].Unpin()
}

func (n *Node) ID() NodeID     { return n.id }
func (n *Node) Input() PortID  { return n.in }
func (n *Node) Output() PortID { return n.out }
func (n *Node) Released() bool { return n.released.Load() }
func (n *Node) Gain() float32  { return math.Float32frombits(n.gain.Load()) }

// SetGain stores a new linear gain. It is a single atomic write and may be
// called from any goroutine; a running block keeps the gain it started
// with. Values are not clamped.
func (n *Node) SetGain(gain float32) {
	n.gain.Store(math.Float32bits(gain))
}

// Process adds gain*input into the output for frames samples. The gain is
// read once per call. It reports false, and leaves the output untouched,
// when either buffer is unavailable for this block.
func (n *Node) Process(ports []*Port, frames int) bool {
	if int(n.in) >= len(ports) || int(n.out) >= len(ports) {
		return false
	}
	in, out := ports[n.in], ports[n.out]
	if in == nil || out == nil {
		return false
	}

	src, err := in.Buffer()
	if err != nil {
		return false
	}
	dst, err := out.Buffer()
	if err != nil {
		return false
	}
	if len(src) < frames || len(dst) < frames {
		return false
	}

	gain := n.Gain()
	src = src[:frames]
	dst = dst[:frames]
	for i, s := range src {
		dst[i] += gain * s
	}

	return true
}
