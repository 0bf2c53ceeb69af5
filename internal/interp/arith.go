package interp

import (
	"math/big"

	"bril/internal/errors"
	"bril/internal/heap"
	"bril/internal/ir"
	"bril/internal/rt"
)

// evalValue dispatches a value-producing instruction (everything but
// const) to its opcode family.
func (m *machine) evalValue(i *ir.ValueInstr, env map[string]rt.Value, loc errors.Location) (rt.Value, error) {
	switch i.Op {
	case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpDiv:
		return m.evalArith(i, env, loc)
	case ir.OpEq, ir.OpLt, ir.OpLe, ir.OpGt, ir.OpGe:
		return m.evalCompare(i, env, loc)
	case ir.OpNot, ir.OpAnd, ir.OpOr:
		return m.evalLogic(i, env, loc)
	case ir.OpId:
		return m.lookup(env, i.Args[0], loc)
	case ir.OpNop:
		return rt.Bool{B: false}, nil
	case ir.OpLoad:
		return m.evalLoad(i, env, loc)
	case ir.OpAlloc:
		return m.evalAlloc(i, env, loc)
	case ir.OpPtrAdd:
		return m.evalPtrAdd(i, env, loc)
	case ir.OpPtrEq, ir.OpPtrLt, ir.OpPtrLe, ir.OpPtrGt, ir.OpPtrGe:
		return m.evalPtrCompare(i, env, loc)
	default:
		return nil, errors.Fatal(errors.ErrMalformedIR, "unknown value opcode "+string(i.Op), loc)
	}
}

func (m *machine) evalArith(i *ir.ValueInstr, env map[string]rt.Value, loc errors.Location) (rt.Value, error) {
	a, err := m.lookupInt(env, i.Args[0], loc)
	if err != nil {
		return nil, err
	}
	b, err := m.lookupInt(env, i.Args[1], loc)
	if err != nil {
		return nil, err
	}
	result := new(big.Int)
	switch i.Op {
	case ir.OpAdd:
		result.Add(a, b)
	case ir.OpSub:
		result.Sub(a, b)
	case ir.OpMul:
		result.Mul(a, b)
	case ir.OpDiv:
		if b.Sign() == 0 {
			return nil, errors.Fatal(errors.ErrTypeMismatch, "division by zero", loc)
		}
		result.Quo(a, b)
	}
	return rt.Int{N: result}, nil
}

func (m *machine) evalCompare(i *ir.ValueInstr, env map[string]rt.Value, loc errors.Location) (rt.Value, error) {
	a, err := m.lookupInt(env, i.Args[0], loc)
	if err != nil {
		return nil, err
	}
	b, err := m.lookupInt(env, i.Args[1], loc)
	if err != nil {
		return nil, err
	}
	cmp := a.Cmp(b)
	return rt.Bool{B: compareOp(i.Op, cmp)}, nil
}

func compareOp(op ir.Op, cmp int) bool {
	switch op {
	case ir.OpEq, ir.OpPtrEq:
		return cmp == 0
	case ir.OpLt, ir.OpPtrLt:
		return cmp < 0
	case ir.OpLe, ir.OpPtrLe:
		return cmp <= 0
	case ir.OpGt, ir.OpPtrGt:
		return cmp > 0
	case ir.OpGe, ir.OpPtrGe:
		return cmp >= 0
	}
	return false
}

func (m *machine) evalLogic(i *ir.ValueInstr, env map[string]rt.Value, loc errors.Location) (rt.Value, error) {
	if i.Op == ir.OpNot {
		a, err := m.lookupBool(env, i.Args[0], loc)
		if err != nil {
			return nil, err
		}
		return rt.Bool{B: !a}, nil
	}
	a, err := m.lookupBool(env, i.Args[0], loc)
	if err != nil {
		return nil, err
	}
	b, err := m.lookupBool(env, i.Args[1], loc)
	if err != nil {
		return nil, err
	}
	if i.Op == ir.OpAnd {
		return rt.Bool{B: a && b}, nil
	}
	return rt.Bool{B: a || b}, nil
}

func (m *machine) evalLoad(i *ir.ValueInstr, env map[string]rt.Value, loc errors.Location) (rt.Value, error) {
	k, err := m.lookupPtr(env, i.Args[0], loc)
	if err != nil {
		return nil, err
	}
	return m.heap.Read(k, loc)
}

func (m *machine) evalAlloc(i *ir.ValueInstr, env map[string]rt.Value, loc errors.Location) (rt.Value, error) {
	n, err := m.lookupInt(env, i.Args[0], loc)
	if err != nil {
		return nil, err
	}
	k, err := m.heap.Alloc(n.Int64(), loc)
	if err != nil {
		return nil, err
	}
	return rt.Pointer{Key: k}, nil
}

func (m *machine) evalPtrAdd(i *ir.ValueInstr, env map[string]rt.Value, loc errors.Location) (rt.Value, error) {
	k, err := m.lookupPtr(env, i.Args[0], loc)
	if err != nil {
		return nil, err
	}
	delta, err := m.lookupInt(env, i.Args[1], loc)
	if err != nil {
		return nil, err
	}
	return rt.Pointer{Key: m.heap.PtrAdd(k, delta.Int64())}, nil
}

func (m *machine) evalPtrCompare(i *ir.ValueInstr, env map[string]rt.Value, loc errors.Location) (rt.Value, error) {
	a, err := m.lookupPtr(env, i.Args[0], loc)
	if err != nil {
		return nil, err
	}
	b, err := m.lookupPtr(env, i.Args[1], loc)
	if err != nil {
		return nil, err
	}
	cmp, err := heap.CompareKeys(a, b, loc)
	if err != nil {
		return nil, err
	}
	return rt.Bool{B: compareOp(i.Op, cmp)}, nil
}
