// SPDX-License-Identifier: EPL-2.0

package matrix

// PortID is the index of a port in its graph's port table. IDs are never
// reused, so a stale ID can never alias a newer port.
type PortID uint32

// Port is a named, single-channel, directional endpoint backed by a buffer
// the backend hands out once per block.
//
// The buffer fields are touched only by the goroutine running
// Graph.Process; everything else is immutable after creation apart from
// the dependency counter.
type Port struct {
	id      PortID
	name    string
	dir     Direction
	token   PortToken
	backend Backend

	deps Usage

	buf   []float32
	ready bool
}

func newPort(id PortID, name string, dir Direction, tok PortToken, b Backend) *Port {
	return &Port{
		id:      id,
		name:    name,
		dir:     dir,
		token:   tok,
		backend: b,
	}
}

func (p *Port) ID() PortID           { return p.id }
func (p *Port) Name() string         { return p.name }
func (p *Port) Direction() Direction { return p.dir }
func (p *Port) Token() PortToken     { return p.token }

// Users reports how many gain nodes currently reference the port.
func (p *Port) Users() int { return p.deps.Count() }

// RefreshBuffer fetches this block's buffer from the backend. It must run
// before any Buffer or Zero call in the block.
func (p *Port) RefreshBuffer(frames int) {
	buf := p.backend.BlockBuffer(p.token, frames)
	if len(buf) < frames {
		p.buf, p.ready = nil, false
		return
	}
	p.buf, p.ready = buf[:frames], true
}

// Buffer returns the buffer fetched by the last RefreshBuffer of the
// current block.
func (p *Port) Buffer() ([]float32, error) {
	if !p.ready {
		return nil, ErrBufferNotRefreshed
	}
	return p.buf, nil
}

// Zero silences the first frames samples of an output buffer.
func (p *Port) Zero(frames int) error {
	if p.dir != Output {
		return ErrWrongDirection
	}
	if !p.ready {
		return ErrBufferNotRefreshed
	}
	clear(p.buf[:min(frames, len(p.buf))])
	return nil
}

// invalidate ends the buffer's validity window.
func (p *Port) invalidate() {
	p.buf, p.ready = nil, false
}
