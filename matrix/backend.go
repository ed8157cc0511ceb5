// SPDX-License-Identifier: EPL-2.0

package matrix

// Direction tells whether a port carries audio into or out of the matrix.
type Direction uint8

const (
	Input Direction = iota
	Output
)

func (d Direction) String() string {
	switch d {
	case Input:
		return "input"
	case Output:
		return "output"
	default:
		return "unknown"
	}
}

// PortToken is the backend's own handle for a registered port.
type PortToken uint32

// Backend is the audio driver binding the graph registers its ports with.
//
// RegisterPort and UnregisterPort are called from the control path only.
// BlockBuffer is called from the real-time path once per port and block;
// it must not block or allocate and returns nil when no buffer is
// available. A buffer shorter than frames is treated as unavailable and is
// left untouched, so an output handed one keeps whatever it held. The
// returned slice is only valid until the block ends.
type Backend interface {
	RegisterPort(name string, dir Direction) (PortToken, error)
	BlockBuffer(tok PortToken, frames int) []float32
	UnregisterPort(tok PortToken) error
}

// Processor is implemented by anything a backend drives once per block.
type Processor interface {
	Process(frames int)
}
