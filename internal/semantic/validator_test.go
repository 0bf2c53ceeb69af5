package semantic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bril/internal/ir"
)

func mustDecode(t *testing.T, src string) *ir.Program {
	t.Helper()
	prog, err := ir.Decode([]byte(src))
	require.NoError(t, err)
	return prog
}

func TestValidateWellFormedProgram(t *testing.T) {
	prog := mustDecode(t, `{"functions": [{"name": "main", "instrs": [
		{"op": "const", "dest": "a", "type": "int", "value": 1},
		{"op": "ret", "args": []}
	]}]}`)
	assert.Empty(t, Validate(prog))
}

func TestValidateMissingMain(t *testing.T) {
	prog := mustDecode(t, `{"functions": [{"name": "helper", "instrs": []}]}`)
	errs := Validate(prog)
	require.Len(t, errs, 1)
	assert.Equal(t, "E1008", errs[0].Code)
}

func TestValidateDuplicateLabel(t *testing.T) {
	prog := mustDecode(t, `{"functions": [{"name": "main", "instrs": [
		{"label": "l"},
		{"label": "l"},
		{"op": "ret", "args": []}
	]}]}`)
	errs := Validate(prog)
	require.Len(t, errs, 1)
	assert.Equal(t, "E1005", errs[0].Code)
}

func TestValidateUnresolvedLabel(t *testing.T) {
	prog := mustDecode(t, `{"functions": [{"name": "main", "instrs": [
		{"op": "jmp", "args": [], "labels": ["nowhere"]}
	]}]}`)
	errs := Validate(prog)
	require.Len(t, errs, 1)
	assert.Equal(t, "E4000", errs[0].Code)
}

func TestValidateWrongArgCount(t *testing.T) {
	prog := mustDecode(t, `{"functions": [{"name": "main", "instrs": [
		{"op": "add", "dest": "c", "type": "int", "args": ["a"]}
	]}]}`)
	errs := Validate(prog)
	require.Len(t, errs, 1)
	assert.Equal(t, "E1002", errs[0].Code)
}
