package dataflow

import "bril/internal/cfg"

// Direction is a dataflow analysis's propagation direction.
type Direction int

const (
	Forward Direction = iota
	Backward
)

// Analysis is the four-field record from spec §4.5, generalized over the
// lattice element's element type via Go generics rather than an
// interface with boxed values.
type Analysis[T comparable] struct {
	Direction Direction
	Init      func() Set[T]
	Merge     func(ins []Set[T]) Set[T]
	Transfer  func(n *cfg.Node, in Set[T]) Set[T]
}

// Result is the driver's output: in/out sets keyed by node name, always
// oriented so In holds values flowing into the block and Out holds
// values flowing out, in program order, regardless of the analysis's
// own propagation direction.
type Result[T comparable] struct {
	In  map[string]Set[T]
	Out map[string]Set[T]
}

// Run drives a's worklist fixpoint over g to completion (spec §4.5).
func Run[T comparable](g *cfg.Graph, a Analysis[T]) *Result[T] {
	in := make(map[string]Set[T], len(g.Nodes))
	out := make(map[string]Set[T], len(g.Nodes))
	for _, n := range g.Nodes {
		in[n.Name] = a.Init()
		out[n.Name] = a.Init()
	}

	predOf := func(n *cfg.Node) []*cfg.Node {
		if a.Direction == Forward {
			return n.Predecessors()
		}
		return n.Successors()
	}
	succOf := func(n *cfg.Node) []*cfg.Node {
		if a.Direction == Forward {
			return n.Successors()
		}
		return n.Predecessors()
	}

	queue := make([]*cfg.Node, len(g.Nodes))
	copy(queue, g.Nodes)
	queued := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		queued[n.Name] = true
	}

	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		queued[n.Name] = false

		var preds []Set[T]
		for _, p := range predOf(n) {
			preds = append(preds, out[p.Name])
		}
		inSet := a.Merge(preds)
		in[n.Name] = inSet

		outSet := a.Transfer(n, inSet)
		if Equal(outSet, out[n.Name]) {
			continue
		}
		out[n.Name] = outSet
		for _, s := range succOf(n) {
			if !queued[s.Name] {
				queued[s.Name] = true
				queue = append(queue, s)
			}
		}
	}

	if a.Direction == Backward {
		return &Result[T]{In: out, Out: in}
	}
	return &Result[T]{In: in, Out: out}
}
