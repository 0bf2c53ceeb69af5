package opt

import (
	"bril/internal/cfg"
	"bril/internal/dataflow"
	"bril/internal/ir"
)

// DeadCodeElimination implements spec §4.7: an outer fixpoint of live-
// variables recomputation plus a local killed-locals elimination pass
// per block.
type DeadCodeElimination struct{}

func (*DeadCodeElimination) Name() string { return "dce" }
func (*DeadCodeElimination) Description() string {
	return "removes pure value writes whose results are never read"
}

func (d *DeadCodeElimination) Apply(g *cfg.Graph) (bool, error) {
	anyChanged := false
	for {
		live := dataflow.Run(g, dataflow.LiveVariables())
		roundChanged := false
		for _, n := range g.Nodes {
			if n.Block == nil {
				continue
			}
			newInstrs, changed := eliminateLocal(n, live.Out[n.Name])
			if changed {
				n.Block.Instrs = newInstrs
				roundChanged = true
			}
		}
		if !roundChanged {
			break
		}
		anyChanged = true
	}
	return anyChanged, nil
}

// eliminateLocal runs the per-block killed-locals scan from spec §4.7
// against n's instructions, given the block's live-out set.
func eliminateLocal(n *cfg.Node, liveOut dataflow.Set[string]) ([]ir.Instruction, bool) {
	instrs := n.Block.Instrs
	lastDef := map[string]int{}
	toDrop := map[int]bool{}

	for idx, inst := range instrs {
		for _, arg := range inst.Operands() {
			delete(lastDef, arg)
		}
		if d, ok := ir.Dest(inst); ok {
			if prev, ok := lastDef[d]; ok {
				toDrop[prev] = true
			}
			lastDef[d] = idx
		}
	}

	termUsed := map[string]bool{}
	if n.Term != nil {
		for _, arg := range n.Term.Operands() {
			termUsed[arg] = true
		}
	}
	for v, idx := range lastDef {
		if !liveOut[v] && !termUsed[v] {
			toDrop[idx] = true
		}
	}

	if len(toDrop) == 0 {
		return instrs, false
	}
	var out []ir.Instruction
	for idx, inst := range instrs {
		if toDrop[idx] {
			continue
		}
		out = append(out, inst)
	}
	return out, true
}
