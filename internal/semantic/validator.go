// Package semantic validates a decoded IR program before any CFG
// construction, interpretation, or optimization runs. It accumulates a
// batch of diagnostics via small addError-style helpers rather than
// failing on the first problem.
package semantic

import (
	"strconv"

	"bril/internal/errors"
	"bril/internal/ir"
)

// Validator accumulates malformed-IR diagnostics (spec §7 kind 1) found
// while walking a decoded Program.
type Validator struct {
	errs []*errors.CompilerError
}

// Validate runs every structural check over prog and returns the batch of
// diagnostics found (empty if the program is well-formed).
func Validate(prog *ir.Program) []*errors.CompilerError {
	v := &Validator{}
	if prog.MainFunction() == nil {
		v.add(errors.ErrMissingMain, "program has no function named \"main\"", errors.Location{})
	}
	for _, name := range prog.Order {
		v.validateFunction(prog.Functions[name])
	}
	return v.errs
}

func (v *Validator) add(code, msg string, loc errors.Location) {
	v.errs = append(v.errs, errors.Fatal(code, msg, loc))
}

func (v *Validator) validateFunction(fn *ir.Function) {
	labels := map[string]bool{}
	for _, item := range fn.Items {
		if lbl, ok := item.(*ir.Label); ok {
			if labels[lbl.Name] {
				v.add(errors.ErrDuplicateLabel,
					"duplicate label \""+lbl.Name+"\"",
					errors.Location{Function: fn.Name, Block: lbl.Name})
			}
			labels[lbl.Name] = true
		}
	}

	for idx, item := range fn.Items {
		inst, ok := item.(ir.Instruction)
		if !ok {
			continue
		}
		loc := errors.Location{Function: fn.Name, Index: idx}
		v.validateInstruction(fn, inst, loc, labels)
	}
}

func (v *Validator) validateInstruction(fn *ir.Function, inst ir.Instruction, loc errors.Location, labels map[string]bool) {
	switch i := inst.(type) {
	case *ir.ConstInstr:
		if i.Dest == "" {
			v.add(errors.ErrMissingDestOrType, "const instruction missing dest", loc)
		}
		if i.Type == nil {
			v.add(errors.ErrMissingDestOrType, "const instruction missing type", loc)
		}
		if i.Value == nil {
			v.add(errors.ErrMissingConstValue, "const instruction missing value", loc)
		}

	case *ir.ValueInstr:
		if i.Dest == "" {
			v.add(errors.ErrMissingDestOrType, string(i.Op)+" instruction missing dest", loc)
		}
		if i.Type == nil {
			v.add(errors.ErrMissingDestOrType, string(i.Op)+" instruction missing type", loc)
		}
		if want := ir.ArgCount(i.Op); want >= 0 && len(i.Args) != want {
			v.add(errors.ErrWrongArgCount, wrongArgMsg(i.Op, want, len(i.Args)), loc)
		}

	case *ir.EffectInstr:
		if want := ir.ArgCount(i.Op); want >= 0 && len(i.Args) != want {
			v.add(errors.ErrWrongArgCount, wrongArgMsg(i.Op, want, len(i.Args)), loc)
		}
		if wantLabels := ir.NumLabels(i.Op); len(i.Labels) != wantLabels {
			v.add(errors.ErrWrongArgCount, wrongLabelMsg(i.Op, wantLabels, len(i.Labels)), loc)
		}
		for _, l := range i.Labels {
			if !labels[l] {
				v.add(errors.ErrLabelResolution, "undefined label \""+l+"\"", loc)
			}
		}
	}
}

func wrongArgMsg(op ir.Op, want, got int) string {
	return string(op) + " expects " + strconv.Itoa(want) + " argument(s), got " + strconv.Itoa(got)
}

func wrongLabelMsg(op ir.Op, want, got int) string {
	return string(op) + " expects " + strconv.Itoa(want) + " label(s), got " + strconv.Itoa(got)
}
