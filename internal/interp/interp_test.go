package interp

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bril/internal/errors"
	"bril/internal/ir"
)

func mustDecode(t *testing.T, src string) *ir.Program {
	t.Helper()
	prog, err := ir.Decode([]byte(src))
	require.NoError(t, err)
	return prog
}

func TestRunArithmetic(t *testing.T) {
	prog := mustDecode(t, `{"functions": [{"name": "main", "instrs": [
		{"op": "const", "dest": "a", "type": "int", "value": 2},
		{"op": "const", "dest": "b", "type": "int", "value": 3},
		{"op": "add", "dest": "c", "type": "int", "args": ["a", "b"]},
		{"op": "print", "args": ["c"]},
		{"op": "ret", "args": []}
	]}]}`)

	var out bytes.Buffer
	stats, err := Run(prog, &out)
	require.NoError(t, err)
	assert.Equal(t, "5\n", out.String())
	assert.Equal(t, 5, stats.InstructionsExecuted)
}

func TestRunPointerArithmetic(t *testing.T) {
	prog := mustDecode(t, `{"functions": [{"name": "main", "instrs": [
		{"op": "const", "dest": "n", "type": "int", "value": 3},
		{"op": "alloc", "dest": "p", "type": {"ptr": "int"}, "args": ["n"]},
		{"op": "const", "dest": "one", "type": "int", "value": 1},
		{"op": "const", "dest": "ten", "type": "int", "value": 10},
		{"op": "ptradd", "dest": "q", "type": {"ptr": "int"}, "args": ["p", "one"]},
		{"op": "store", "args": ["q", "ten"]},
		{"op": "load", "dest": "v", "type": "int", "args": ["q"]},
		{"op": "print", "args": ["v"]},
		{"op": "free", "args": ["p"]},
		{"op": "ret", "args": []}
	]}]}`)

	var out bytes.Buffer
	_, err := Run(prog, &out)
	require.NoError(t, err)
	assert.Equal(t, "10\n", out.String())
}

func TestRunBranchAndLoop(t *testing.T) {
	prog := mustDecode(t, `{"functions": [{"name": "main", "instrs": [
		{"op": "const", "dest": "i", "type": "int", "value": 0},
		{"op": "const", "dest": "n", "type": "int", "value": 3},
		{"label": "loop"},
		{"op": "lt", "dest": "cond", "type": "bool", "args": ["i", "n"]},
		{"op": "br", "args": ["cond"], "labels": ["body", "done"]},
		{"label": "body"},
		{"op": "print", "args": ["i"]},
		{"op": "const", "dest": "one", "type": "int", "value": 1},
		{"op": "add", "dest": "i", "type": "int", "args": ["i", "one"]},
		{"op": "jmp", "args": [], "labels": ["loop"]},
		{"label": "done"},
		{"op": "ret", "args": []}
	]}]}`)

	var out bytes.Buffer
	_, err := Run(prog, &out)
	require.NoError(t, err)
	assert.Equal(t, "0\n1\n2\n", out.String())
}

func TestRunDivisionByZero(t *testing.T) {
	prog := mustDecode(t, `{"functions": [{"name": "main", "instrs": [
		{"op": "const", "dest": "a", "type": "int", "value": 1},
		{"op": "const", "dest": "z", "type": "int", "value": 0},
		{"op": "div", "dest": "c", "type": "int", "args": ["a", "z"]},
		{"op": "ret", "args": []}
	]}]}`)

	var out bytes.Buffer
	_, err := Run(prog, &out)
	require.Error(t, err)
	ce := err.(*errors.CompilerError)
	assert.Equal(t, errors.ErrTypeMismatch, ce.Code)
}

func TestRunHeapNotEmptyAtExit(t *testing.T) {
	prog := mustDecode(t, `{"functions": [{"name": "main", "instrs": [
		{"op": "const", "dest": "n", "type": "int", "value": 1},
		{"op": "alloc", "dest": "p", "type": {"ptr": "int"}, "args": ["n"]},
		{"op": "ret", "args": []}
	]}]}`)

	var out bytes.Buffer
	_, err := Run(prog, &out)
	require.Error(t, err)
	ce := err.(*errors.CompilerError)
	assert.Equal(t, errors.ErrHeapNotEmptyAtExit, ce.Code)
}

func TestRunMissingMain(t *testing.T) {
	prog := mustDecode(t, `{"functions": [{"name": "helper", "instrs": []}]}`)
	var out bytes.Buffer
	_, err := Run(prog, &out)
	require.Error(t, err)
	ce := err.(*errors.CompilerError)
	assert.Equal(t, errors.ErrMissingMain, ce.Code)
}
