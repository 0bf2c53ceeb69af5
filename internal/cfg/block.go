package cfg

import "bril/internal/ir"

// Block is the straight-line instruction content of a CFG node: a unique
// name, its original positional index in the function's block sequence,
// and its non-terminator instructions. The terminator lives on Node, not
// here, so CFG mutators can rewrite edges without touching Block.Instrs
// (spec §3).
type Block struct {
	Name   string
	Index  int
	Instrs []ir.Instruction
}

const (
	EntryName = "__entry__"
	ExitName  = "__exit__"
)
