package cfg

import "bril/internal/ir"

// ToIR flattens g back into a linear item list for a function of the
// given name, in the order g.Nodes lists its blocks (entry/exit are
// synthetic and contribute no items), reinstating an explicit label for
// every block and appending its terminator (spec §4.9). The order is
// deterministic but need not match the original program's block order:
// only the reachable-block set and each block's edges are semantically
// load-bearing.
func ToIR(g *Graph, fnName string) *ir.Function {
	fn := &ir.Function{Name: fnName}
	for _, n := range g.Nodes {
		if n.Name == EntryName || n.Name == ExitName {
			continue
		}
		fn.Items = append(fn.Items, &ir.Label{Name: n.Name})
		for _, inst := range n.Block.Instrs {
			fn.Items = append(fn.Items, inst)
		}
		if n.Term != nil {
			fn.Items = append(fn.Items, n.Term)
		}
	}
	return fn
}
