// SPDX-License-Identifier: EPL-2.0

package config

import (
	"context"
	"fmt"
	"slices"

	"github.com/ik5/audmatrix/matrix"
)

// Session records the graph objects a Config produced, so a later Config
// can be reconciled against them.
type Session struct {
	Inputs  map[string]matrix.PortID
	Outputs map[string]matrix.PortID
	Routes  []Binding
}

// Binding is a route and the node that carries it.
type Binding struct {
	Route Route
	Node  matrix.NodeID
	Gain  float32
}

// Changes summarises what Reconcile did.
type Changes struct {
	AddedInputs    []string
	AddedOutputs   []string
	RemovedInputs  []string
	RemovedOutputs []string
	Connected      int
	Disconnected   int
	Regained       int
}

func (c Changes) Empty() bool {
	return len(c.AddedInputs)+len(c.AddedOutputs)+len(c.RemovedInputs)+len(c.RemovedOutputs) == 0 &&
		c.Connected+c.Disconnected+c.Regained == 0
}

// Apply creates the ports and routes of cfg on g. On error the graph holds
// whatever was created so far; the returned Session describes it.
func Apply(g *matrix.Graph, cfg *Config) (*Session, error) {
	s := &Session{
		Inputs:  make(map[string]matrix.PortID, len(cfg.Inputs)),
		Outputs: make(map[string]matrix.PortID, len(cfg.Outputs)),
	}

	for _, p := range cfg.Inputs {
		if err := s.addInput(g, p.Name); err != nil {
			return s, err
		}
	}
	for _, p := range cfg.Outputs {
		if err := s.addOutput(g, p.Name); err != nil {
			return s, err
		}
	}
	for _, r := range cfg.Routes {
		b, err := s.connect(g, r)
		if err != nil {
			return s, err
		}
		s.Routes = append(s.Routes, b)
	}
	return s, nil
}

// Reconcile edits g in place so it matches next. Routes between the same
// pair of ports are matched in order: a matched route only has its gain
// updated, so audio through it never drops out.
func Reconcile(ctx context.Context, g *matrix.Graph, s *Session, next *Config) (Changes, error) {
	var ch Changes

	type key struct{ from, to string }
	old := s.Routes
	pool := make(map[key][]int)
	for i, b := range old {
		k := key{b.Route.From, b.Route.To}
		pool[k] = append(pool[k], i)
	}

	routes := make([]Binding, len(next.Routes))
	placed := make([]bool, len(next.Routes))
	kept := make([]bool, len(old))
	gone := make([]bool, len(old))
	var fresh []int

	// s.Routes lists exactly the live nodes, also when a step fails.
	defer func() {
		live := make([]Binding, 0, len(routes))
		for i, b := range routes {
			if placed[i] {
				live = append(live, b)
			}
		}
		for j, b := range old {
			if !kept[j] && !gone[j] {
				live = append(live, b)
			}
		}
		s.Routes = live
	}()

	for i, r := range next.Routes {
		k := key{r.From, r.To}
		if len(pool[k]) == 0 {
			fresh = append(fresh, i)
			continue
		}
		j := pool[k][0]
		pool[k] = pool[k][1:]

		b := old[j]
		b.Route = r
		routes[i], placed[i], kept[j] = b, true, true

		if gain := r.Linear(); gain != b.Gain {
			if err := g.SetGain(b.Node, gain); err != nil {
				return ch, fmt.Errorf("route %s: %w", r, err)
			}
			routes[i].Gain = gain
			ch.Regained++
		}
	}

	for j, b := range old {
		if kept[j] {
			continue
		}
		if err := g.Disconnect(b.Node); err != nil {
			return ch, fmt.Errorf("route %s: %w", b.Route, err)
		}
		gone[j] = true
		ch.Disconnected++
	}

	for _, p := range next.Inputs {
		if _, ok := s.Inputs[p.Name]; ok {
			continue
		}
		if err := s.addInput(g, p.Name); err != nil {
			return ch, err
		}
		ch.AddedInputs = append(ch.AddedInputs, p.Name)
	}
	for _, p := range next.Outputs {
		if _, ok := s.Outputs[p.Name]; ok {
			continue
		}
		if err := s.addOutput(g, p.Name); err != nil {
			return ch, err
		}
		ch.AddedOutputs = append(ch.AddedOutputs, p.Name)
	}

	for _, i := range fresh {
		b, err := s.connect(g, next.Routes[i])
		if err != nil {
			return ch, err
		}
		routes[i], placed[i] = b, true
		ch.Connected++
	}

	for _, name := range sortedMissing(s.Inputs, next.Inputs) {
		if err := g.RemoveInput(ctx, s.Inputs[name]); err != nil {
			return ch, fmt.Errorf("input %q: %w", name, err)
		}
		delete(s.Inputs, name)
		ch.RemovedInputs = append(ch.RemovedInputs, name)
	}
	for _, name := range sortedMissing(s.Outputs, next.Outputs) {
		if err := g.RemoveOutput(ctx, s.Outputs[name]); err != nil {
			return ch, fmt.Errorf("output %q: %w", name, err)
		}
		delete(s.Outputs, name)
		ch.RemovedOutputs = append(ch.RemovedOutputs, name)
	}

	return ch, nil
}

func (s *Session) addInput(g *matrix.Graph, name string) error {
	id, err := g.AddInput(name)
	if err != nil {
		return fmt.Errorf("input %q: %w", name, err)
	}
	s.Inputs[name] = id
	return nil
}

func (s *Session) addOutput(g *matrix.Graph, name string) error {
	id, err := g.AddOutput(name)
	if err != nil {
		return fmt.Errorf("output %q: %w", name, err)
	}
	s.Outputs[name] = id
	return nil
}

func (s *Session) connect(g *matrix.Graph, r Route) (Binding, error) {
	in, ok := s.Inputs[r.From]
	if !ok {
		return Binding{}, fmt.Errorf("route %s: %w: %q", r, matrix.ErrUnknownPort, r.From)
	}
	out, ok := s.Outputs[r.To]
	if !ok {
		return Binding{}, fmt.Errorf("route %s: %w: %q", r, matrix.ErrUnknownPort, r.To)
	}

	gain := r.Linear()
	id, err := g.Connect(in, out, gain)
	if err != nil {
		return Binding{}, fmt.Errorf("route %s: %w", r, err)
	}
	return Binding{Route: r, Node: id, Gain: gain}, nil
}

// sortedMissing lists the names in have that ports no longer declares.
func sortedMissing(have map[string]matrix.PortID, ports []Port) []string {
	var out []string
	for name := range have {
		if !slices.ContainsFunc(ports, func(p Port) bool { return p.Name == name }) {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}
