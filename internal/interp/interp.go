// Package interp is the reference interpreter: straightforward dispatch
// over a function's linear item list, backed by internal/heap for
// pointer/alloc/free semantics. Per spec §1 its complexity is dispatch,
// not control-flow analysis, so it walks Items directly rather than
// building a CFG.
package interp

import (
	"fmt"
	"io"
	"math/big"

	"bril/internal/errors"
	"bril/internal/heap"
	"bril/internal/ir"
	"bril/internal/rt"
)

// Stats reports execution counters for the `interp` CLI tool.
type Stats struct {
	InstructionsExecuted int
}

type machine struct {
	prog  *ir.Program
	out   io.Writer
	heap  *heap.Heap
	stats Stats
}

// Run executes prog's "main" function to completion, writing `print`
// output to out. It returns execution stats on success or a
// *errors.CompilerError on any runtime fault (spec §7 kinds 2,3,5,6).
func Run(prog *ir.Program, out io.Writer) (*Stats, error) {
	fn := prog.MainFunction()
	if fn == nil {
		return nil, errors.Fatal(errors.ErrMissingMain, "no function named \"main\"", errors.Location{})
	}
	m := &machine{prog: prog, out: out, heap: heap.New()}
	env := map[string]rt.Value{}
	if err := m.runFunction(fn, env); err != nil {
		return nil, err
	}
	if !m.heap.IsEmpty() {
		return nil, errors.Fatal(errors.ErrHeapNotEmptyAtExit,
			"program terminated with unfreed heap allocations",
			errors.Location{Function: fn.Name})
	}
	return &m.stats, nil
}

func (m *machine) runFunction(fn *ir.Function, env map[string]rt.Value) error {
	labels := map[string]int{}
	for idx, item := range fn.Items {
		if lbl, ok := item.(*ir.Label); ok {
			labels[lbl.Name] = idx
		}
	}

	pc := 0
	for pc < len(fn.Items) {
		item := fn.Items[pc]
		if _, ok := item.(*ir.Label); ok {
			pc++
			continue
		}
		inst := item.(ir.Instruction)
		loc := errors.Location{Function: fn.Name, Index: pc}
		m.stats.InstructionsExecuted++

		next, ret, err := m.exec(inst, env, labels, loc)
		if err != nil {
			return err
		}
		if ret {
			return nil
		}
		if next >= 0 {
			pc = next
		} else {
			pc++
		}
	}
	return nil
}

// exec runs one instruction. It returns (nextPC, isReturn, err); nextPC
// is -1 to mean "fall through to pc+1".
func (m *machine) exec(inst ir.Instruction, env map[string]rt.Value, labels map[string]int, loc errors.Location) (int, bool, error) {
	switch i := inst.(type) {
	case *ir.ConstInstr:
		v, err := constValue(i)
		if err != nil {
			return -1, false, wrapAt(err, loc)
		}
		env[i.Dest] = v
		return -1, false, nil

	case *ir.ValueInstr:
		v, err := m.evalValue(i, env, loc)
		if err != nil {
			return -1, false, err
		}
		env[i.Dest] = v
		return -1, false, nil

	case *ir.EffectInstr:
		return m.evalEffect(i, env, labels, loc)
	}
	return -1, false, errors.Fatal(errors.ErrMalformedIR, "unrecognized instruction", loc)
}

func constValue(i *ir.ConstInstr) (rt.Value, error) {
	switch i.Type.(type) {
	case ir.BoolType:
		b, ok := i.Value.(bool)
		if !ok {
			return nil, fmt.Errorf("const %s declared bool but value is not a bool", i.Dest)
		}
		return rt.Bool{B: b}, nil
	case ir.IntType:
		n, ok := i.Value.(*big.Int)
		if !ok {
			return nil, fmt.Errorf("const %s declared int but value is not an int", i.Dest)
		}
		return rt.Int{N: new(big.Int).Set(n)}, nil
	default:
		return nil, fmt.Errorf("const %s has unsupported type %s", i.Dest, i.Type)
	}
}

func wrapAt(err error, loc errors.Location) error {
	if err == nil {
		return nil
	}
	return errors.Fatal(errors.ErrMalformedIR, err.Error(), loc)
}

func (m *machine) lookup(env map[string]rt.Value, name string, loc errors.Location) (rt.Value, error) {
	v, ok := env[name]
	if !ok {
		return nil, errors.Fatal(errors.ErrUndefinedVariable, "undefined variable \""+name+"\"", loc)
	}
	return v, nil
}

func (m *machine) lookupInt(env map[string]rt.Value, name string, loc errors.Location) (*big.Int, error) {
	v, err := m.lookup(env, name, loc)
	if err != nil {
		return nil, err
	}
	iv, ok := v.(rt.Int)
	if !ok {
		return nil, errors.Fatal(errors.ErrTypeMismatch, "expected int operand for \""+name+"\"", loc)
	}
	return iv.N, nil
}

func (m *machine) lookupBool(env map[string]rt.Value, name string, loc errors.Location) (bool, error) {
	v, err := m.lookup(env, name, loc)
	if err != nil {
		return false, err
	}
	bv, ok := v.(rt.Bool)
	if !ok {
		return false, errors.Fatal(errors.ErrTypeMismatch, "expected bool operand for \""+name+"\"", loc)
	}
	return bv.B, nil
}

func (m *machine) lookupPtr(env map[string]rt.Value, name string, loc errors.Location) (rt.Key, error) {
	v, err := m.lookup(env, name, loc)
	if err != nil {
		return rt.Key{}, err
	}
	pv, ok := v.(rt.Pointer)
	if !ok {
		return rt.Key{}, errors.Fatal(errors.ErrTypeMismatch, "expected pointer operand for \""+name+"\"", loc)
	}
	return pv.Key, nil
}
