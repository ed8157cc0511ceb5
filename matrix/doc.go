// SPDX-License-Identifier: EPL-2.0

// Package matrix implements a real-time audio routing matrix.
//
// Any number of single-channel inputs are summed into any number of
// single-channel outputs. Each input/output pair that carries signal is
// joined by a gain node, and several nodes may feed the same output.
//
// # Ports
//
// A Port wraps a buffer that an audio Backend hands out once per block:
//
//	type Backend interface {
//	    RegisterPort(name string, dir Direction) (PortToken, error)
//	    BlockBuffer(tok PortToken, frames int) []float32
//	    UnregisterPort(tok PortToken) error
//	}
//
// The buffer is only valid between the port's refresh and the end of the
// block; Buffer returns ErrBufferNotRefreshed outside that window.
//
// # Processing
//
// The backend's callback calls Graph.Process once per block. Process
// refreshes every input, refreshes and silences every output, then runs
// every gain node in the order the nodes were connected:
//
//	out[i] += gain * in[i]
//
// Process does not allocate, lock, log or make system calls. The gain of
// a node is read once per block, so a SetGain that finishes before a
// block starts is heard in that block and one made mid-block is heard
// from the next one. Gains are linear and never clamped.
//
// # Editing the graph
//
// Control-path calls (AddInput, AddOutput, Connect, Disconnect, Duplicate,
// RemoveInput, RemoveOutput, SetGain) are safe from any goroutine while the
// backend is running:
//
//	g := matrix.New(backend)
//	a, _ := g.AddInput("mic")
//	o, _ := g.AddOutput("main")
//	node, _ := g.Connect(a, o, 0.5)
//	_ = g.Activate()
//
// Each edit builds a new immutable topology and swaps it in atomically,
// so a block always sees a complete view. Ports are removed from the
// backend only after the block that might still see them has finished.
//
// # Usage counting
//
// Every port counts the gain nodes that reference it. A port with users
// cannot be removed: RemoveInput and RemoveOutput return ErrPortInUse
// until every dependent node is disconnected. This is independent from
// activation, which only decides whether Process may run gain nodes.
//
// # Errors
//
// Control-path failures are returned as errors wrapping the sentinels in
// this package. Backend failures wrap ErrBackend. Programming errors such
// as releasing a usage count below zero panic with a *ContractError. The
// real-time path never panics or reports errors; a node whose buffers are
// unavailable is skipped, which leaves its output silent, and is counted
// in Stats.Silenced. An output whose buffer is unavailable cannot be
// silenced and is counted there too.
package matrix
