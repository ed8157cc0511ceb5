// SPDX-License-Identifier: EPL-2.0

package matrix

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
)

// topology is an immutable view of the graph. Process reads exactly one
// topology per block; the control path never modifies a published one.
type topology struct {
	ports   []*Port // indexed by PortID, nil for removed ports
	inputs  []*Port
	outputs []*Port
	nodes   []*Node
}

// PortInfo describes a port at the time it was listed.
type PortInfo struct {
	ID        PortID
	Name      string
	Direction Direction
	Users     int
}

// NodeInfo describes a gain node at the time it was listed.
type NodeInfo struct {
	ID     NodeID
	Input  PortID
	Output PortID
	Gain   float32
}

// Stats holds counters maintained by the real-time path.
type Stats struct {
	Blocks   uint64 // blocks processed
	Silenced uint64 // outputs and node runs skipped because a buffer was unavailable
	Inputs   int
	Outputs  int
	Nodes    int
}

// Option configures a Graph.
type Option func(*Graph)

// WithLogger sets the logger used for control-path events.
func WithLogger(l *slog.Logger) Option {
	return func(g *Graph) {
		if l != nil {
			g.logger = l
		}
	}
}

// Graph is a routing matrix of single-channel inputs and outputs joined by
// gain nodes.
//
// Topology edits, gain changes and lifecycle calls may come from any
// goroutine. Process is meant for the backend's audio callback and must
// not be called concurrently with itself.
type Graph struct {
	mu       sync.Mutex
	backend  Backend
	logger   *slog.Logger
	ports    []*Port
	names    map[string]PortID
	nodes    []*Node
	byID     map[NodeID]*Node
	retired  []*Port
	nextNode NodeID
	closed   bool

	topo   atomic.Pointer[topology]
	fence  fence
	active atomic.Bool

	blocks   atomic.Uint64
	silenced atomic.Uint64
}

// New creates an empty, inactive graph that registers its ports with b.
func New(b Backend, opts ...Option) *Graph {
	g := &Graph{
		backend: b,
		logger:  slog.New(slog.DiscardHandler),
		names:   make(map[string]PortID),
		byID:    make(map[NodeID]*Node),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	g.topo.Store(&topology{})
	return g
}

// Process runs one block: refresh every input, refresh and silence every
// output, then accumulate every gain node in insertion order.
func (g *Graph) Process(frames int) {
	if frames <= 0 {
		return
	}
	g.fence.enter()

	t := g.topo.Load()
	for _, p := range t.inputs {
		p.RefreshBuffer(frames)
	}
	for _, p := range t.outputs {
		p.RefreshBuffer(frames)
		if p.Zero(frames) != nil {
			g.silenced.Add(1)
		}
	}

	if g.active.Load() {
		for _, n := range t.nodes {
			if !n.Process(t.ports, frames) {
				g.silenced.Add(1)
			}
		}
	}

	for _, p := range t.inputs {
		p.invalidate()
	}
	for _, p := range t.outputs {
		p.invalidate()
	}

	g.blocks.Add(1)
	g.fence.exit()
}

// Activate opens the window in which Process runs gain nodes.
func (g *Graph) Activate() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return ErrClosed
	}
	if !g.active.Swap(true) {
		t := g.topo.Load()
		g.logger.Info("graph activated", "inputs", len(t.inputs), "outputs", len(t.outputs), "nodes", len(t.nodes))
	}
	return nil
}

// Deactivate closes the activity window and returns once no block that
// started while the graph was active is still running.
func (g *Graph) Deactivate(ctx context.Context) error {
	if !g.active.Swap(false) {
		return nil
	}
	if err := g.fence.wait(ctx); err != nil {
		return fmt.Errorf("deactivate: %w", err)
	}
	g.logger.Info("graph deactivated")
	return nil
}

func (g *Graph) Active() bool { return g.active.Load() }

func (g *Graph) AddInput(name string) (PortID, error)  { return g.addPort(name, Input) }
func (g *Graph) AddOutput(name string) (PortID, error) { return g.addPort(name, Output) }

// RemoveInput unregisters an input port. It fails with ErrPortInUse while
// any gain node still reads from the port.
func (g *Graph) RemoveInput(ctx context.Context, id PortID) error {
	return g.removePort(ctx, id, Input)
}

// RemoveOutput unregisters an output port. It fails with ErrPortInUse
// while any gain node still writes to the port.
func (g *Graph) RemoveOutput(ctx context.Context, id PortID) error {
	return g.removePort(ctx, id, Output)
}

func (g *Graph) addPort(name string, dir Direction) (PortID, error) {
	if name == "" {
		return 0, ErrInvalidName
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return 0, ErrClosed
	}
	if _, ok := g.names[name]; ok {
		return 0, fmt.Errorf("%w: %q", ErrDuplicatePort, name)
	}

	tok, err := g.backend.RegisterPort(name, dir)
	if err != nil {
		return 0, fmt.Errorf("%w: register %s %q: %w", ErrBackend, dir, name, err)
	}

	id := PortID(len(g.ports))
	g.ports = append(g.ports, newPort(id, name, dir, tok, g.backend))
	g.names[name] = id
	g.publish()

	g.logger.Debug("port added", "port", name, "id", id, "direction", dir)
	return id, nil
}

func (g *Graph) removePort(ctx context.Context, id PortID, dir Direction) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, err := g.port(id)
	if err != nil {
		return err
	}
	if p.dir != dir {
		return fmt.Errorf("%w: %q is an %s", ErrWrongDirection, p.name, p.dir)
	}
	if p.deps.HasReferents() {
		return fmt.Errorf("%w: %q has %d users", ErrPortInUse, p.name, p.deps.Count())
	}

	g.ports[id] = nil
	delete(g.names, p.name)
	g.retired = append(g.retired, p)
	g.publish()

	g.logger.Debug("port removed", "port", p.name, "id", id, "direction", dir)
	return g.reap(ctx)
}

// reap unregisters retired ports once no block can still reach them.
// Ports stay queued when ctx ends first and are retried on the next call.
func (g *Graph) reap(ctx context.Context) error {
	if len(g.retired) == 0 {
		return nil
	}
	if err := g.fence.wait(ctx); err != nil {
		return fmt.Errorf("waiting for block to finish: %w", err)
	}

	var errs []error
	for _, p := range g.retired {
		if err := g.backend.UnregisterPort(p.token); err != nil {
			errs = append(errs, fmt.Errorf("%w: unregister %q: %w", ErrBackend, p.name, err))
		}
	}
	g.retired = g.retired[:0]

	return errors.Join(errs...)
}

// Connect creates a gain node sending in to out. Connecting the same pair
// twice creates two nodes whose contributions add up.
func (g *Graph) Connect(in, out PortID, gain float32) (NodeID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return 0, ErrClosed
	}

	pi, err := g.port(in)
	if err != nil {
		return 0, err
	}
	if pi.dir != Input {
		return 0, fmt.Errorf("%w: %q is not an input", ErrWrongDirection, pi.name)
	}
	po, err := g.port(out)
	if err != nil {
		return 0, err
	}
	if po.dir != Output {
		return 0, fmt.Errorf("%w: %q is not an output", ErrWrongDirection, po.name)
	}

	g.nextNode++
	n := newNode(g.nextNode, pi, po, gain)
	g.addNode(n)

	g.logger.Debug("ports connected", "node", n.id, "input", pi.name, "output", po.name, "gain", gain)
	return n.id, nil
}

// Duplicate copies a gain node, including its current gain. The copy holds
// its own references on both ports.
func (g *Graph) Duplicate(id NodeID) (NodeID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	n, ok := g.byID[id]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownNode, id)
	}

	g.nextNode++
	c := n.clone(g.nextNode)
	g.addNode(c)

	g.logger.Debug("node duplicated", "node", id, "copy", c.id)
	return c.id, nil
}

func (g *Graph) addNode(n *Node) {
	g.nodes = append(g.nodes, n)
	g.byID[n.id] = n
	g.publish()
}

// Disconnect removes a gain node and releases its port references.
func (g *Graph) Disconnect(id NodeID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	n, ok := g.byID[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownNode, id)
	}

	g.nodes = slices.DeleteFunc(g.nodes, func(x *Node) bool { return x == n })
	delete(g.byID, id)
	g.publish()
	n.release()

	g.logger.Debug("node disconnected", "node", id)
	return nil
}

// Node returns the live handle of a gain node; its SetGain can be called
// without going through the graph.
func (g *Graph) Node(id NodeID) (*Node, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	n, ok := g.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownNode, id)
	}
	return n, nil
}

func (g *Graph) SetGain(id NodeID, gain float32) error {
	n, err := g.Node(id)
	if err != nil {
		return err
	}
	n.SetGain(gain)
	return nil
}

func (g *Graph) Gain(id NodeID) (float32, error) {
	n, err := g.Node(id)
	if err != nil {
		return 0, err
	}
	return n.Gain(), nil
}

// Users reports how many gain nodes reference a port.
func (g *Graph) Users(id PortID) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, err := g.port(id)
	if err != nil {
		return 0, err
	}
	return p.deps.Count(), nil
}

// Lookup finds a port by name.
func (g *Graph) Lookup(name string) (PortInfo, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, ok := g.names[name]
	if !ok {
		return PortInfo{}, false
	}
	return portInfo(g.ports[id]), true
}

func (g *Graph) Inputs() []PortInfo  { return g.listPorts(Input) }
func (g *Graph) Outputs() []PortInfo { return g.listPorts(Output) }

func (g *Graph) listPorts(dir Direction) []PortInfo {
	g.mu.Lock()
	defer g.mu.Unlock()

	var out []PortInfo
	for _, p := range g.ports {
		if p != nil && p.dir == dir {
			out = append(out, portInfo(p))
		}
	}
	return out
}

// Nodes lists gain nodes in processing order.
func (g *Graph) Nodes() []NodeInfo {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]NodeInfo, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, NodeInfo{ID: n.id, Input: n.in, Output: n.out, Gain: n.Gain()})
	}
	return out
}

func (g *Graph) Stats() Stats {
	t := g.topo.Load()
	return Stats{
		Blocks:   g.blocks.Load(),
		Silenced: g.silenced.Load(),
		Inputs:   len(t.inputs),
		Outputs:  len(t.outputs),
		Nodes:    len(t.nodes),
	}
}

// Close deactivates the graph, releases every gain node and unregisters
// every port. The graph cannot be used afterwards.
func (g *Graph) Close(ctx context.Context) error {
	if err := g.Deactivate(ctx); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil
	}
	g.closed = true
	// an Activate may have slipped in after Deactivate
	g.active.Store(false)

	nodes := g.nodes
	g.nodes = nil
	clear(g.byID)
	for _, p := range g.ports {
		if p != nil {
			g.retired = append(g.retired, p)
		}
	}
	g.ports = nil
	clear(g.names)
	g.publish()

	for _, n := range nodes {
		n.release()
	}

	g.logger.Info("graph closed", "nodes", len(nodes), "ports", len(g.retired))
	return g.reap(ctx)
}

// port resolves a live port. The caller holds g.mu.
func (g *Graph) port(id PortID) (*Port, error) {
	if int(id) >= len(g.ports) || g.ports[id] == nil {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPort, id)
	}
	return g.ports[id], nil
}

// publish swaps in a fresh topology built from the control-side state.
// The caller holds g.mu.
func (g *Graph) publish() {
	t := &topology{
		ports: slices.Clone(g.ports),
		nodes: slices.Clone(g.nodes),
	}
	for _, p := range t.ports {
		if p == nil {
			continue
		}
		if p.dir == Input {
			t.inputs = append(t.inputs, p)
		} else {
			t.outputs = append(t.outputs, p)
		}
	}
	g.topo.Store(t)
}

func portInfo(p *Port) PortInfo {
	return PortInfo{ID: p.id, Name: p.name, Direction: p.dir, Users: p.deps.Count()}
}
