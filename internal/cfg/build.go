package cfg

import (
	"bril/internal/errors"
	"bril/internal/ir"
)

// Build constructs a CFG from fn's linear item list, per spec §4.1: block
// splitting on labels/terminators, fall-through normalization, edge
// installation, and unreachable-node pruning.
func Build(fn *ir.Function) (*Graph, error) {
	labelNames := map[string]bool{}
	for _, item := range fn.Items {
		if l, ok := item.(*ir.Label); ok {
			labelNames[l.Name] = true
		}
	}

	blocks, terms, err := splitBlocks(fn, labelNames)
	if err != nil {
		return nil, err
	}
	normalizeFallThrough(blocks, terms)

	g := newGraph()
	entry := newNode(EntryName, nil)
	exit := newNode(ExitName, nil)
	g.Entry = entry
	g.Exit = exit
	g.addNode(entry)
	for _, b := range blocks {
		g.addNode(newNode(b.Name, b))
	}
	g.addNode(exit)

	if len(blocks) > 0 {
		first, _ := g.Lookup(blocks[0].Name)
		addEdge(entry, first)
	} else {
		addEdge(entry, exit)
	}

	for _, b := range blocks {
		n, _ := g.Lookup(b.Name)
		if err := installEdges(g, n, fn.Name, terms); err != nil {
			return nil, err
		}
	}

	pruneUnreachable(g)
	return g, nil
}

type rawBlock struct {
	Name    string
	Named   bool
	Instrs  []ir.Instruction
	Term    ir.Instruction // terminator already present at split time, if any
}

// splitBlocks walks fn's items, accumulating straight-line runs into
// blocks at each label boundary and terminator instruction. It returns
// the blocks alongside a side map, keyed by block name, of the
// terminator each block was split with (nil if the block fell off the
// end of its run without one) for normalizeFallThrough/installEdges to
// consume.
func splitBlocks(fn *ir.Function, labelNames map[string]bool) ([]*Block, map[string]ir.Instruction, error) {
	var raws []*rawBlock
	cur := &rawBlock{}

	closeCurrent := func(nextName string, nextNamed bool) {
		if len(cur.Instrs) > 0 || cur.Term != nil || cur.Named {
			raws = append(raws, cur)
		}
		cur = &rawBlock{Name: nextName, Named: nextNamed}
	}

	for _, item := range fn.Items {
		switch it := item.(type) {
		case *ir.Label:
			closeCurrent(it.Name, true)
		case ir.Instruction:
			if ir.IsTerminator(it) {
				cur.Term = it
				closeCurrent("", false)
			} else {
				cur.Instrs = append(cur.Instrs, it)
			}
		}
	}
	if len(cur.Instrs) > 0 || cur.Term != nil || cur.Named {
		raws = append(raws, cur)
	}

	// Discard empty anonymous blocks: no instructions (nop-only counts as
	// empty) and no terminator of its own.
	var kept []*rawBlock
	for _, r := range raws {
		stripped := stripNops(r.Instrs)
		if !r.Named && len(stripped) == 0 && r.Term == nil {
			continue
		}
		r.Instrs = stripped
		kept = append(kept, r)
	}

	blocks := make([]*Block, 0, len(kept))
	taken := map[string]bool{}
	for name := range labelNames {
		taken[name] = true
	}
	for idx, r := range kept {
		name := r.Name
		if name == "" {
			name = FreshName("__block_", func(n string) bool { return taken[n] })
			taken[name] = true
		}
		b := &Block{Name: name, Index: idx, Instrs: r.Instrs}
		blocks = append(blocks, b)
	}

	// Re-attach the split terminators by position (kept order matches raws
	// order), keyed by block name.
	terms := map[string]ir.Instruction{}
	for i, r := range kept {
		terms[blocks[i].Name] = r.Term
	}
	return blocks, terms, nil
}

func stripNops(instrs []ir.Instruction) []ir.Instruction {
	var out []ir.Instruction
	for _, i := range instrs {
		if e, ok := i.(*ir.ValueInstr); ok && e.Op == ir.OpNop {
			continue
		}
		out = append(out, i)
	}
	return out
}

// normalizeFallThrough gives every block lacking a terminator one: jmp to
// the next block in text order, or ret if it is last.
func normalizeFallThrough(blocks []*Block, terms map[string]ir.Instruction) {
	for i, b := range blocks {
		if terms[b.Name] != nil {
			continue
		}
		if i+1 < len(blocks) {
			terms[b.Name] = &ir.EffectInstr{Op: ir.OpJmp, Labels: []string{blocks[i+1].Name}}
		} else {
			terms[b.Name] = &ir.EffectInstr{Op: ir.OpRet}
		}
	}
}

func installEdges(g *Graph, n *Node, fnName string, terms map[string]ir.Instruction) error {
	term := terms[n.Name]
	n.Term = term
	eff, ok := term.(*ir.EffectInstr)
	if !ok {
		return errors.Fatal(errors.ErrMalformedIR, "block terminator is not an effect instruction",
			errors.Location{Function: fnName, Block: n.Name})
	}
	switch eff.Op {
	case ir.OpJmp:
		target, ok := g.Lookup(eff.Labels[0])
		if !ok {
			return errors.Fatal(errors.ErrLabelResolution, "jmp to undefined label \""+eff.Labels[0]+"\"",
				errors.Location{Function: fnName, Block: n.Name})
		}
		addEdge(n, target)
	case ir.OpBr:
		t, ok := g.Lookup(eff.Labels[0])
		if !ok {
			return errors.Fatal(errors.ErrLabelResolution, "br to undefined label \""+eff.Labels[0]+"\"",
				errors.Location{Function: fnName, Block: n.Name})
		}
		f, ok := g.Lookup(eff.Labels[1])
		if !ok {
			return errors.Fatal(errors.ErrLabelResolution, "br to undefined label \""+eff.Labels[1]+"\"",
				errors.Location{Function: fnName, Block: n.Name})
		}
		addEdge(n, t)
		addEdge(n, f)
	case ir.OpRet:
		exit, _ := g.Lookup(ExitName)
		addEdge(n, exit)
	default:
		return errors.Fatal(errors.ErrMalformedIR, "block terminator is not jmp/br/ret",
			errors.Location{Function: fnName, Block: n.Name})
	}
	return nil
}

// pruneUnreachable removes every node other than entry/exit with no path
// from entry, in a single reachability pass (spec §4.1).
func pruneUnreachable(g *Graph) {
	reachable := map[string]bool{g.Entry.Name: true}
	queue := []*Node{g.Entry}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, s := range n.Successors() {
			if !reachable[s.Name] {
				reachable[s.Name] = true
				queue = append(queue, s)
			}
		}
	}

	var drop []*Node
	for _, n := range g.Nodes {
		if n.Name == EntryName || n.Name == ExitName || reachable[n.Name] {
			continue
		}
		drop = append(drop, n)
	}
	for _, n := range drop {
		for _, s := range n.Successors() {
			removeEdge(n, s)
		}
		for _, p := range n.Predecessors() {
			removeEdge(p, n)
		}
		g.removeNode(n)
	}
}
