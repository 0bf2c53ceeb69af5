package cfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bril/internal/ir"
)

func mustDecode(t *testing.T, src string) *ir.Function {
	t.Helper()
	prog, err := ir.Decode([]byte(src))
	require.NoError(t, err)
	return prog.MainFunction()
}

func succNames(n *Node) []string {
	var out []string
	for _, s := range n.Successors() {
		out = append(out, s.Name)
	}
	return out
}

func predNames(n *Node) []string {
	var out []string
	for _, p := range n.Predecessors() {
		out = append(out, p.Name)
	}
	return out
}

func TestBuildStraightLine(t *testing.T) {
	fn := mustDecode(t, `{"functions": [{"name": "main", "instrs": [
		{"op": "const", "dest": "a", "type": "int", "value": 1},
		{"op": "ret", "args": []}
	]}]}`)

	g, err := Build(fn)
	require.NoError(t, err)
	// entry, one real block, exit.
	assert.Len(t, g.Nodes, 3)
	assert.Equal(t, []string{g.Nodes[1].Name}, succNames(g.Entry))
	assert.Equal(t, []string{ExitName}, succNames(g.Nodes[1]))
	assert.Empty(t, succNames(g.Exit))
}

func TestBuildBranching(t *testing.T) {
	fn := mustDecode(t, `{"functions": [{"name": "main", "instrs": [
		{"op": "const", "dest": "c", "type": "bool", "value": true},
		{"op": "br", "args": ["c"], "labels": ["t", "f"]},
		{"label": "t"},
		{"op": "ret", "args": []},
		{"label": "f"},
		{"op": "ret", "args": []}
	]}]}`)

	g, err := Build(fn)
	require.NoError(t, err)

	tNode, ok := g.Lookup("t")
	require.True(t, ok)
	fNode, ok := g.Lookup("f")
	require.True(t, ok)

	entryBlock := g.Entry.Successors()[0]
	assert.ElementsMatch(t, []string{"t", "f"}, succNames(entryBlock))
	assert.Equal(t, []string{ExitName}, succNames(tNode))
	assert.Equal(t, []string{ExitName}, succNames(fNode))
}

func TestBuildPrunesUnreachableBlock(t *testing.T) {
	fn := mustDecode(t, `{"functions": [{"name": "main", "instrs": [
		{"op": "ret", "args": []},
		{"label": "dead"},
		{"op": "ret", "args": []}
	]}]}`)

	g, err := Build(fn)
	require.NoError(t, err)
	_, ok := g.Lookup("dead")
	assert.False(t, ok, "unreachable block must be pruned")
}

func TestBuildUndefinedLabelFails(t *testing.T) {
	fn := mustDecode(t, `{"functions": [{"name": "main", "instrs": [
		{"op": "jmp", "args": [], "labels": ["nowhere"]}
	]}]}`)
	_, err := Build(fn)
	assert.Error(t, err)
}

func TestBuildFallThrough(t *testing.T) {
	fn := mustDecode(t, `{"functions": [{"name": "main", "instrs": [
		{"label": "a"},
		{"op": "const", "dest": "x", "type": "int", "value": 1},
		{"label": "b"},
		{"op": "ret", "args": []}
	]}]}`)

	g, err := Build(fn)
	require.NoError(t, err)
	a, _ := g.Lookup("a")
	assert.Equal(t, []string{"b"}, succNames(a))
}

func TestSetSuccessorRewritesTerminator(t *testing.T) {
	fn := mustDecode(t, `{"functions": [{"name": "main", "instrs": [
		{"label": "a"},
		{"op": "const", "dest": "c", "type": "bool", "value": true},
		{"op": "br", "args": ["c"], "labels": ["x", "b"]},
		{"label": "x"},
		{"op": "ret", "args": []},
		{"label": "b"},
		{"op": "ret", "args": []}
	]}]}`)
	g, err := Build(fn)
	require.NoError(t, err)

	a, _ := g.Lookup("a")
	b, _ := g.Lookup("b")
	SetSuccessor(a, b)

	assert.Equal(t, []string{"b"}, succNames(a))
	term := a.Term.(*ir.EffectInstr)
	assert.Equal(t, ir.OpJmp, term.Op)
	assert.Equal(t, []string{"b"}, term.Labels)
}

func TestSetSuccessorsRewritesBranchTerminator(t *testing.T) {
	fn := mustDecode(t, `{"functions": [{"name": "main", "instrs": [
		{"label": "a"},
		{"op": "jmp", "args": [], "labels": ["t"]},
		{"label": "t"},
		{"op": "jmp", "args": [], "labels": ["f"]},
		{"label": "f"},
		{"op": "ret", "args": []}
	]}]}`)
	g, err := Build(fn)
	require.NoError(t, err)

	a, _ := g.Lookup("a")
	tNode, _ := g.Lookup("t")
	fNode, _ := g.Lookup("f")
	SetSuccessors(a, tNode, fNode, "cond")

	assert.ElementsMatch(t, []string{"t", "f"}, succNames(a))
	assert.Contains(t, succNames(a), "t")
	assert.Contains(t, succNames(a), "f")
	assert.Contains(t, predNames(tNode), "a")
	assert.Contains(t, predNames(fNode), "a")

	term := a.Term.(*ir.EffectInstr)
	assert.Equal(t, ir.OpBr, term.Op)
	assert.Equal(t, []string{"cond"}, term.Args)
	assert.Equal(t, []string{"t", "f"}, term.Labels)
}

func TestDeleteFoldsStraightLineNode(t *testing.T) {
	fn := mustDecode(t, `{"functions": [{"name": "main", "instrs": [
		{"label": "a"},
		{"op": "jmp", "args": [], "labels": ["b"]},
		{"label": "b"},
		{"op": "ret", "args": []}
	]}]}`)
	g, err := Build(fn)
	require.NoError(t, err)

	a, _ := g.Lookup("a")
	b, _ := g.Lookup("b")
	Delete(g, b)

	_, stillThere := g.Lookup("b")
	assert.False(t, stillThere)
	assert.Equal(t, []string{ExitName}, succNames(a))
}

func TestAddHeaderRedirectsExternalPredecessorsOnly(t *testing.T) {
	fn := mustDecode(t, `{"functions": [{"name": "main", "instrs": [
		{"label": "pre"},
		{"op": "jmp", "args": [], "labels": ["h"]},
		{"label": "h"},
		{"op": "const", "dest": "c", "type": "bool", "value": true},
		{"op": "br", "args": ["c"], "labels": ["body", "done"]},
		{"label": "body"},
		{"op": "jmp", "args": [], "labels": ["h"]},
		{"label": "done"},
		{"op": "ret", "args": []}
	]}]}`)
	g, err := Build(fn)
	require.NoError(t, err)

	h, _ := g.Lookup("h")
	bodyNode, _ := g.Lookup("body")
	newHeader := AddHeader(g, h, map[string]bool{"h": true, "body": true}, "h_pre")

	// The back edge from body must still point at h directly.
	assert.Contains(t, succNames(bodyNode), "h")
	// The external predecessor (entry's successor "pre") must now target
	// the new pre-header, not h.
	preBlock, _ := g.Lookup("pre")
	assert.Equal(t, []string{"h_pre"}, succNames(preBlock))
	assert.Equal(t, []string{"h"}, succNames(newHeader))

	// The pre-header must carry an actual jmp terminator, not just an
	// in-memory edge, or serializing it via ToIR drops control flow.
	term, ok := newHeader.Term.(*ir.EffectInstr)
	require.True(t, ok, "pre-header must have a terminator instruction")
	assert.Equal(t, ir.OpJmp, term.Op)
	assert.Equal(t, []string{"h"}, term.Labels)
}

func TestToIRRoundTripsThroughBuild(t *testing.T) {
	fn := mustDecode(t, `{"functions": [{"name": "main", "instrs": [
		{"op": "const", "dest": "a", "type": "int", "value": 1},
		{"op": "ret", "args": []}
	]}]}`)
	g, err := Build(fn)
	require.NoError(t, err)

	out := ToIR(g, "main")
	g2, err := Build(out)
	require.NoError(t, err)
	assert.Len(t, g2.Nodes, len(g.Nodes))
}
