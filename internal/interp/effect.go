package interp

import (
	"fmt"

	"bril/internal/errors"
	"bril/internal/ir"
	"bril/internal/rt"
)

// evalEffect dispatches a non-value instruction. Return value matches
// exec's (nextPC, isReturn, err) contract.
func (m *machine) evalEffect(i *ir.EffectInstr, env map[string]rt.Value, labels map[string]int, loc errors.Location) (int, bool, error) {
	switch i.Op {
	case ir.OpJmp:
		idx, err := resolveLabel(labels, i.Labels[0], loc)
		return idx, false, err

	case ir.OpBr:
		cond, err := m.lookupBool(env, i.Args[0], loc)
		if err != nil {
			return -1, false, err
		}
		target := i.Labels[1]
		if cond {
			target = i.Labels[0]
		}
		idx, err := resolveLabel(labels, target, loc)
		return idx, false, err

	case ir.OpRet:
		return -1, true, nil

	case ir.OpPrint:
		return -1, false, m.evalPrint(i, env, loc)

	case ir.OpStore:
		return -1, false, m.evalStore(i, env, loc)

	case ir.OpFree:
		k, err := m.lookupPtr(env, i.Args[0], loc)
		if err != nil {
			return -1, false, err
		}
		return -1, false, m.heap.Free(k, loc)

	default:
		return -1, false, errors.Fatal(errors.ErrMalformedIR, "unknown effect opcode "+string(i.Op), loc)
	}
}

func resolveLabel(labels map[string]int, name string, loc errors.Location) (int, error) {
	idx, ok := labels[name]
	if !ok {
		return -1, errors.Fatal(errors.ErrLabelResolution, "jump to undefined label \""+name+"\"", loc)
	}
	return idx, nil
}

func (m *machine) evalPrint(i *ir.EffectInstr, env map[string]rt.Value, loc errors.Location) error {
	parts := make([]interface{}, len(i.Args))
	for idx, arg := range i.Args {
		v, err := m.lookup(env, arg, loc)
		if err != nil {
			return err
		}
		parts[idx] = v.String()
	}
	line := ""
	for idx, p := range parts {
		if idx > 0 {
			line += " "
		}
		line += p.(string)
	}
	_, err := fmt.Fprintln(m.out, line)
	return err
}

func (m *machine) evalStore(i *ir.EffectInstr, env map[string]rt.Value, loc errors.Location) error {
	k, err := m.lookupPtr(env, i.Args[0], loc)
	if err != nil {
		return err
	}
	v, err := m.lookup(env, i.Args[1], loc)
	if err != nil {
		return err
	}
	return m.heap.Write(k, v, loc)
}
