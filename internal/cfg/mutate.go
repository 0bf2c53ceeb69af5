package cfg

import "bril/internal/ir"

// SetSuccessor rewrites n's single successor, used after collapsing a
// block's terminator to an unconditional jmp (spec §4.2). It snapshots
// n's current successors before touching them, so a caller iterating a
// neighbor's edge set while this runs sees a consistent view.
func SetSuccessor(n, newSucc *Node) {
	for _, s := range n.Successors() {
		removeEdge(n, s)
	}
	addEdge(n, newSucc)
	if jmp, ok := n.Term.(*ir.EffectInstr); ok {
		jmp.Op = ir.OpJmp
		jmp.Labels = []string{newSucc.Name}
		jmp.Args = nil
	} else {
		n.Term = &ir.EffectInstr{Op: ir.OpJmp, Labels: []string{newSucc.Name}}
	}
}

// SetSuccessors rewrites n's two successors for a br terminator, in
// (true, false) order.
func SetSuccessors(n, onTrue, onFalse *Node, cond string) {
	for _, s := range n.Successors() {
		removeEdge(n, s)
	}
	addEdge(n, onTrue)
	addEdge(n, onFalse)
	n.Term = &ir.EffectInstr{Op: ir.OpBr, Args: []string{cond}, Labels: []string{onTrue.Name, onFalse.Name}}
}

// ReplaceEdge redirects the single edge from -> old to from -> new,
// rewriting whichever label slot of from's terminator pointed at old.
// Used by the induction-variable pass to splice a pre-header in between
// a loop predecessor and its header.
func ReplaceEdge(from, old, repl *Node) {
	removeEdge(from, old)
	addEdge(from, repl)
	eff, ok := from.Term.(*ir.EffectInstr)
	if !ok {
		return
	}
	for i, l := range eff.Labels {
		if l == old.Name {
			eff.Labels[i] = repl.Name
		}
	}
}

// Delete removes n from the graph, rewiring every predecessor directly to
// n's unique successor (a straight-line block being folded away). If n
// does not have exactly one successor, Delete leaves the graph unchanged.
func Delete(g *Graph, n *Node) {
	succs := n.Successors()
	if len(succs) != 1 {
		return
	}
	target := succs[0]
	for _, p := range n.Predecessors() {
		ReplaceEdge(p, n, target)
	}
	removeEdge(n, target)
	g.removeNode(n)
}

// AddHeader splices a fresh pre-header node between every predecessor of
// header that lies outside the loop body and header itself, redirecting
// their edges through the pre-header and adding a single pre-header ->
// header edge. body identifies the loop's own blocks, so back-edges
// from inside the loop are left pointing at header directly (spec
// §4.8). Returns the new pre-header node, already registered in g.
func AddHeader(g *Graph, header *Node, body map[string]bool, name string) *Node {
	pre := g.NewDetachedNode(name, &Block{Name: name})
	g.AddPreheader(pre)

	for _, p := range header.Predecessors() {
		if body[p.Name] {
			continue
		}
		ReplaceEdge(p, header, pre)
	}
	addEdge(pre, header)
	pre.Term = &ir.EffectInstr{Op: ir.OpJmp, Labels: []string{header.Name}}
	return pre
}
