// Package opt implements the optimization passes run over a function's
// CFG: a no-op pass, dead-code elimination, and induction-variable
// strength reduction.
package opt

import (
	"fmt"
	"io"

	"bril/internal/cfg"
)

// Pass is a single CFG-to-CFG transformation, operating per-function on
// a built graph rather than over a whole program's flat instruction
// lists.
type Pass interface {
	Name() string
	Description() string
	Apply(g *cfg.Graph) (bool, error)
}

// Pipeline runs a sequence of named passes, selectable by name from the
// CLI (`opt -n <pass>`).
type Pipeline struct {
	passes map[string]Pass
	order  []string
}

// NewPipeline registers the passes this toolchain knows: nop (identity,
// for CLI plumbing and testing), dce, and indvar.
func NewPipeline() *Pipeline {
	p := &Pipeline{passes: map[string]Pass{}}
	p.register(&Nop{})
	p.register(&DeadCodeElimination{})
	p.register(&InductionVariables{})
	return p
}

func (p *Pipeline) register(pass Pass) {
	p.passes[pass.Name()] = pass
	p.order = append(p.order, pass.Name())
}

// Names lists the registered pass names in registration order.
func (p *Pipeline) Names() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// Run looks up name and applies it to g once, logging progress to w in
// a "- Name: description / result" style.
func (p *Pipeline) Run(w io.Writer, name string, g *cfg.Graph) error {
	pass, ok := p.passes[name]
	if !ok {
		return fmt.Errorf("unknown optimization pass %q", name)
	}
	fmt.Fprintf(w, "- %s: %s\n", pass.Name(), pass.Description())
	changed, err := pass.Apply(g)
	if err != nil {
		return err
	}
	if changed {
		fmt.Fprintln(w, "  applied changes")
	} else {
		fmt.Fprintln(w, "  no changes needed")
	}
	return nil
}

// Nop is the identity pass: useful as a CLI smoke test and as the
// trivial case the pipeline's wiring must handle.
type Nop struct{}

func (*Nop) Name() string        { return "nop" }
func (*Nop) Description() string { return "applies no transformation" }
func (*Nop) Apply(g *cfg.Graph) (bool, error) { return false, nil }
