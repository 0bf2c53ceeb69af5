package opt

import (
	"math/big"

	"bril/internal/cfg"
	"bril/internal/ir"
)

// kind distinguishes an induction variable's value domain: its update
// instruction is either add (int) or ptradd (ptr) (spec §4.8).
type kind int

const (
	kindInt kind = iota
	kindPtr
)

func kindOf(t ir.Type) kind {
	if _, ok := t.(ir.PointerType); ok {
		return kindPtr
	}
	return kindInt
}

func typeOf(k kind) ir.Type {
	if k == kindPtr {
		return ir.PointerType{}
	}
	return ir.IntType{}
}

// scaleOp and addOp are the combinator this pass uses in place of the
// spec's literal "*"/"+" when the induction variable's kind is ptr:
// pointers cannot be multiplied, so the multiplicative step of the
// surrogate recurrence (t := i*A, then t := t+A per iteration) is
// generalized to ptradd uniformly, which already expresses "advance by
// a scalar offset" for both kinds.
func scaleOp(k kind) ir.Op {
	if k == kindPtr {
		return ir.OpPtrAdd
	}
	return ir.OpMul
}

func addOp(k kind) ir.Op {
	if k == kindPtr {
		return ir.OpPtrAdd
	}
	return ir.OpAdd
}

func compareOp(k kind) ir.Op {
	if k == kindPtr {
		return ir.OpPtrLt
	}
	return ir.OpLt
}

// expr is a loop-invariant expression tree: a reference to a variable
// defined outside the loop, a literal captured from an in-loop const
// write, or a combination of such via add/mul (spec §4.8's a/b
// descriptors).
type expr interface{ isExpr() }

type varExpr struct{ Name string }
type constExpr struct {
	Val *big.Int
	Typ ir.Type
}
type addExpr struct{ X, Y expr }
type mulExpr struct{ X, Y expr }

func (varExpr) isExpr()   {}
func (constExpr) isExpr() {}
func (addExpr) isExpr()   {}
func (mulExpr) isExpr()   {}

// builder materializes expr trees into a sequence of instructions
// appended to a pre-header block, minting fresh names as it goes (spec
// §4.8's "Materialize a into a fresh variable A").
type builder struct {
	pre   *cfg.Node
	types map[string]ir.Type
	taken map[string]bool
}

func newBuilder(pre *cfg.Node, types map[string]ir.Type, taken map[string]bool) *builder {
	return &builder{pre: pre, types: types, taken: taken}
}

func (b *builder) fresh(prefix string) string {
	name := cfg.FreshName("__"+prefix+"_", func(n string) bool { return b.taken[n] })
	b.taken[name] = true
	return name
}

func (b *builder) emit(inst ir.Instruction) {
	b.pre.Block.Instrs = append(b.pre.Block.Instrs, inst)
}

// materialize lowers e to a fresh variable holding e's value, appending
// whatever instructions are needed to the pre-header, and returns the
// fresh variable's name and type.
func (b *builder) materialize(e expr) (string, ir.Type) {
	switch v := e.(type) {
	case varExpr:
		name := b.fresh("iv")
		typ := b.types[v.Name]
		b.emit(&ir.ValueInstr{Op: ir.OpId, Dest: name, Type: typ, Args: []string{v.Name}})
		b.types[name] = typ
		return name, typ
	case constExpr:
		name := b.fresh("iv")
		b.emit(&ir.ConstInstr{Dest: name, Type: v.Typ, Value: v.Val})
		b.types[name] = v.Typ
		return name, v.Typ
	case addExpr:
		xName, typ := b.materialize(v.X)
		yName, _ := b.materialize(v.Y)
		name := b.fresh("iv")
		b.emit(&ir.ValueInstr{Op: ir.OpAdd, Dest: name, Type: typ, Args: []string{xName, yName}})
		b.types[name] = typ
		return name, typ
	case mulExpr:
		xName, typ := b.materialize(v.X)
		yName, _ := b.materialize(v.Y)
		name := b.fresh("iv")
		b.emit(&ir.ValueInstr{Op: ir.OpMul, Dest: name, Type: typ, Args: []string{xName, yName}})
		b.types[name] = typ
		return name, typ
	}
	panic("unreachable expr kind")
}
