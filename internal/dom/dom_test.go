package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bril/internal/cfg"
	"bril/internal/ir"
)

func mustBuild(t *testing.T, src string) *cfg.Graph {
	t.Helper()
	prog, err := ir.Decode([]byte(src))
	require.NoError(t, err)
	g, err := cfg.Build(prog.MainFunction())
	require.NoError(t, err)
	return g
}

func TestDominatorsDiamond(t *testing.T) {
	g := mustBuild(t, `{"functions": [{"name": "main", "instrs": [
		{"op": "const", "dest": "c", "type": "bool", "value": true},
		{"op": "br", "args": ["c"], "labels": ["l", "r"]},
		{"label": "l"},
		{"op": "jmp", "args": [], "labels": ["join"]},
		{"label": "r"},
		{"op": "jmp", "args": [], "labels": ["join"]},
		{"label": "join"},
		{"op": "ret", "args": []}
	]}]}`)

	ds := Compute(g)
	join, _ := g.Lookup("join")
	l, _ := g.Lookup("l")
	r, _ := g.Lookup("r")

	// join is dominated by entry and the header block, but not by l or r
	// individually (two incoming paths).
	assert.True(t, ds.Dominates(cfg.EntryName, "join"))
	assert.False(t, ds.Dominates(l.Name, "join"))
	assert.False(t, ds.Dominates(r.Name, "join"))
	assert.True(t, ds.Dominates("join", "join"))
}

func TestFindLoopsSimple(t *testing.T) {
	g := mustBuild(t, `{"functions": [{"name": "main", "instrs": [
		{"label": "h"},
		{"op": "const", "dest": "c", "type": "bool", "value": true},
		{"op": "br", "args": ["c"], "labels": ["body", "done"]},
		{"label": "body"},
		{"op": "jmp", "args": [], "labels": ["h"]},
		{"label": "done"},
		{"op": "ret", "args": []}
	]}]}`)

	ds := Compute(g)
	loops := FindLoops(g, ds)
	require.Len(t, loops, 1)
	assert.Equal(t, "h", loops[0].Header)
	assert.Equal(t, "body", loops[0].Tail)
	assert.True(t, loops[0].Body["h"])
	assert.True(t, loops[0].Body["body"])
	assert.False(t, loops[0].Body["done"])
}

func TestFindLoopsNoBackEdgeIsAcyclic(t *testing.T) {
	g := mustBuild(t, `{"functions": [{"name": "main", "instrs": [
		{"op": "const", "dest": "a", "type": "int", "value": 1},
		{"op": "ret", "args": []}
	]}]}`)
	ds := Compute(g)
	assert.Empty(t, FindLoops(g, ds))
}

func TestFindLoopsDoesNotMergeSharedHeader(t *testing.T) {
	g := mustBuild(t, `{"functions": [{"name": "main", "instrs": [
		{"label": "h"},
		{"op": "const", "dest": "c", "type": "bool", "value": true},
		{"op": "br", "args": ["c"], "labels": ["b1", "b2"]},
		{"label": "b1"},
		{"op": "jmp", "args": [], "labels": ["h"]},
		{"label": "b2"},
		{"op": "jmp", "args": [], "labels": ["h"]}
	]}]}`)

	ds := Compute(g)
	loops := FindLoops(g, ds)
	require.Len(t, loops, 2)
	assert.Equal(t, "h", loops[0].Header)
	assert.Equal(t, "h", loops[1].Header)
}
