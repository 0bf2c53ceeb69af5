package dataflow

import (
	"bril/internal/cfg"
	"bril/internal/ir"
)

func blockInstrs(n *cfg.Node) []ir.Instruction {
	if n.Block == nil {
		return nil
	}
	return n.Block.Instrs
}

// DefinedVariables is the forward analysis from spec §4.6: the set of
// variables with a reaching value-write by each program point.
func DefinedVariables() Analysis[string] {
	return Analysis[string]{
		Direction: Forward,
		Init:      func() Set[string] { return Set[string]{} },
		Merge:     Union[string],
		Transfer: func(n *cfg.Node, in Set[string]) Set[string] {
			out := in.Clone()
			for _, i := range blockInstrs(n) {
				if d, ok := ir.Dest(i); ok {
					out[d] = true
				}
			}
			return out
		},
	}
}

// Definition identifies one (variable, write-site) pair, the lattice
// element of the reaching-definitions analysis.
type Definition struct {
	Var   string
	Block string
	Index int
}

// ReachingDefinitions is the forward analysis from spec §4.6: for each
// variable, which write sites may still be live at a given point.
func ReachingDefinitions() Analysis[Definition] {
	return Analysis[Definition]{
		Direction: Forward,
		Init:      func() Set[Definition] { return Set[Definition]{} },
		Merge:     Union[Definition],
		Transfer: func(n *cfg.Node, in Set[Definition]) Set[Definition] {
			instrs := blockInstrs(n)
			killedVars := map[string]bool{}
			genByVar := map[string]Definition{}
			for idx, i := range instrs {
				d, ok := ir.Dest(i)
				if !ok {
					continue
				}
				killedVars[d] = true
				genByVar[d] = Definition{Var: d, Block: n.Name, Index: idx}
			}

			out := Set[Definition]{}
			for def := range in {
				if !killedVars[def.Var] {
					out[def] = true
				}
			}
			for _, def := range genByVar {
				out[def] = true
			}
			return out
		},
	}
}

// LiveVariables is the backward analysis from spec §4.6: the set of
// variables a block (and everything after it) may still read.
func LiveVariables() Analysis[string] {
	return Analysis[string]{
		Direction: Backward,
		Init:      func() Set[string] { return Set[string]{} },
		Merge:     Union[string],
		Transfer: func(n *cfg.Node, out Set[string]) Set[string] {
			instrs := blockInstrs(n)
			written := map[string]bool{}
			used := map[string]bool{}

			for _, i := range instrs {
				for _, arg := range i.Operands() {
					if !written[arg] {
						used[arg] = true
					}
				}
				if d, ok := ir.Dest(i); ok {
					written[d] = true
				}
			}
			if n.Term != nil {
				for _, arg := range n.Term.Operands() {
					if !written[arg] {
						used[arg] = true
					}
				}
			}

			in := NewSet[string]()
			for v := range used {
				in[v] = true
			}
			for v := range out {
				if !written[v] {
					in[v] = true
				}
			}
			return in
		},
	}
}
