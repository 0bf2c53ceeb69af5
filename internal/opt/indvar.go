package opt

import (
	"math/big"
	"sort"

	"bril/internal/cfg"
	"bril/internal/dataflow"
	"bril/internal/dom"
	"bril/internal/ir"
)

// InductionVariables implements spec §4.8: per natural loop, detects
// basic and derived induction variables, strength-reduces the derived
// ones into a synthesized pre-header, rewrites the loop's exit
// comparison against the chosen surrogate, and deletes basic variables
// that become dead as a result.
type InductionVariables struct{}

func (*InductionVariables) Name() string { return "indvar" }
func (*InductionVariables) Description() string {
	return "strength-reduces derived induction variables and prunes dead basic ones"
}

func (p *InductionVariables) Apply(g *cfg.Graph) (bool, error) {
	ds := dom.Compute(g)
	loops := dom.FindLoops(g, ds)
	if len(loops) == 0 {
		return false, nil
	}

	types := collectVarTypes(g)
	taken := map[string]bool{}
	for v := range types {
		taken[v] = true
	}
	for _, n := range g.Nodes {
		taken[n.Name] = true
	}

	// dom.FindLoops emits one Loop per back edge, undeduplicated; two
	// back edges into the same header would otherwise earn two
	// pre-headers. Merge bodies per header before processing.
	byHeader := map[string]*dom.Loop{}
	var headerOrder []string
	for _, loop := range loops {
		if existing, ok := byHeader[loop.Header]; ok {
			for n := range loop.Body {
				existing.Body[n] = true
			}
			continue
		}
		l := loop
		byHeader[loop.Header] = &l
		headerOrder = append(headerOrder, loop.Header)
	}

	changed := false
	for _, h := range headerOrder {
		if processLoop(g, *byHeader[h], types, taken) {
			changed = true
		}
	}
	return changed, nil
}

// defSite is one instruction that writes a variable, located by block
// and position.
type defSite struct {
	Node  *cfg.Node
	Index int
	Inst  ir.Instruction
}

func collectVarTypes(g *cfg.Graph) map[string]ir.Type {
	types := map[string]ir.Type{}
	for _, n := range g.Nodes {
		if n.Block == nil {
			continue
		}
		for _, inst := range n.Block.Instrs {
			if d, ok := ir.Dest(inst); ok {
				switch i := inst.(type) {
				case *ir.ConstInstr:
					types[d] = i.Type
				case *ir.ValueInstr:
					types[d] = i.Type
				}
			}
		}
	}
	return types
}

// allDefs returns every write site of name across the whole graph.
func allDefs(g *cfg.Graph, name string) []defSite {
	var out []defSite
	for _, n := range g.Nodes {
		if n.Block == nil {
			continue
		}
		for idx, inst := range n.Block.Instrs {
			if d, ok := ir.Dest(inst); ok && d == name {
				out = append(out, defSite{Node: n, Index: idx, Inst: inst})
			}
		}
	}
	return out
}

func defsInBody(defs []defSite, body map[string]bool) []defSite {
	var out []defSite
	for _, d := range defs {
		if body[d.Node.Name] {
			out = append(out, d)
		}
	}
	return out
}

func asBigInt(v interface{}) (*big.Int, bool) {
	n, ok := v.(*big.Int)
	return n, ok
}

// ivInfo records what this pass knows about one induction variable: for
// a basic variable Base == its own name; for a derived variable Base
// names the basic variable it was built from.
type ivInfo struct {
	Name   string
	Base   string
	Kind   kind
	A      expr
	B      expr // nil if absent
	HasB   bool
	Type   ir.Type
	Site   defSite // the variable's single in-loop definition site
	IsBase bool
}

// loopInvariantExpr builds the expr tree for a variable's value as seen
// from the loop's pre-header, per the loop-invariance rule in spec
// §4.8: a variable defined only outside the loop is referenced
// directly (safe, since it dominates the pre-header); a variable whose
// only in-loop definition is a single const write is captured as that
// literal value instead, since the pre-header runs before that
// definition would execute.
func loopInvariantExpr(g *cfg.Graph, name string, body map[string]bool) (expr, bool) {
	defs := defsInBody(allDefs(g, name), body)
	if len(defs) == 0 {
		return varExpr{Name: name}, true
	}
	if len(defs) > 1 {
		return nil, false
	}
	c, ok := defs[0].Inst.(*ir.ConstInstr)
	if !ok {
		return nil, false
	}
	iv, ok := asBigInt(c.Value)
	if !ok {
		return nil, false
	}
	return constExpr{Val: iv, Typ: c.Type}, true
}

// computeInductionVars discovers every basic and derived induction
// variable in loop, in discovery order (basics first, then derived ones
// as a fixpoint over the loop's single-definition instructions).
func computeInductionVars(g *cfg.Graph, loop dom.Loop) []*ivInfo {
	body := loop.Body
	known := map[string]*ivInfo{}
	var order []*ivInfo

	candidates := map[string]defSite{}
	counts := map[string]int{}
	for _, n := range g.Nodes {
		if !body[n.Name] || n.Block == nil {
			continue
		}
		for idx, inst := range n.Block.Instrs {
			if d, ok := ir.Dest(inst); ok {
				candidates[d] = defSite{Node: n, Index: idx, Inst: inst}
				counts[d]++
			}
		}
	}
	// Variables with more than one in-loop definition site are never
	// basic or derived induction variables.
	for name, c := range counts {
		if c > 1 {
			delete(candidates, name)
		}
	}

	// Map iteration order is random in Go; candidateNames fixes a
	// deterministic discovery order so "first encountered" surrogate
	// selection below is reproducible.
	candidateNames := make([]string, 0, len(candidates))
	for name := range candidates {
		candidateNames = append(candidateNames, name)
	}
	sort.Strings(candidateNames)

	for _, name := range candidateNames {
		site := candidates[name]
		v, ok := site.Inst.(*ir.ValueInstr)
		if !ok || len(v.Args) != 2 {
			continue
		}
		if v.Op != ir.OpAdd && v.Op != ir.OpPtrAdd {
			continue
		}
		var step string
		switch {
		case v.Args[0] == name:
			step = v.Args[1]
		case v.Args[1] == name:
			step = v.Args[0]
		default:
			continue
		}
		if _, ok := loopInvariantExpr(g, step, body); !ok {
			continue
		}
		k := kindOf(v.Type)
		if (k == kindInt) != (v.Op == ir.OpAdd) {
			continue
		}
		info := &ivInfo{
			Name: name, Base: name, Kind: k,
			A: constExpr{Val: big.NewInt(1), Typ: ir.IntType{}}, HasB: false,
			Type: v.Type, Site: site, IsBase: true,
		}
		known[name] = info
		order = append(order, info)
	}

	for {
		progress := false
		for _, name := range candidateNames {
			site := candidates[name]
			if _, ok := known[name]; ok {
				continue
			}
			v, ok := site.Inst.(*ir.ValueInstr)
			if !ok || len(v.Args) != 2 {
				continue
			}
			if v.Op != ir.OpAdd && v.Op != ir.OpPtrAdd && v.Op != ir.OpMul {
				continue
			}
			var baseDesc *ivInfo
			var otherName string
			if d, ok := known[v.Args[0]]; ok {
				baseDesc, otherName = d, v.Args[1]
			} else if d, ok := known[v.Args[1]]; ok {
				baseDesc, otherName = d, v.Args[0]
			} else {
				continue
			}
			m, ok := loopInvariantExpr(g, otherName, body)
			if !ok {
				continue
			}

			var a, b expr
			var hasB bool
			switch v.Op {
			case ir.OpAdd, ir.OpPtrAdd:
				a = baseDesc.A
				if baseDesc.HasB {
					b = addExpr{X: baseDesc.B, Y: m}
				} else {
					b = m
				}
				hasB = true
			case ir.OpMul:
				a = mulExpr{X: m, Y: baseDesc.A}
				if baseDesc.HasB {
					b = mulExpr{X: m, Y: baseDesc.B}
					hasB = true
				}
			}

			info := &ivInfo{Name: name, Base: baseDesc.Base, Kind: baseDesc.Kind, A: a, B: b, HasB: hasB, Type: v.Type, Site: site}
			known[name] = info
			order = append(order, info)
			progress = true
		}
		if !progress {
			break
		}
	}

	return order
}

// surrogate is the replacement recurrence variable for one derived
// induction variable.
type surrogate struct {
	T, A, B string
	HasB    bool
	Kind    kind
	Type    ir.Type
}

// processLoop applies strength reduction, comparison rewriting, and
// basic-variable elimination to one loop. Returns whether it changed g.
func processLoop(g *cfg.Graph, loop dom.Loop, types map[string]ir.Type, taken map[string]bool) bool {
	ivs := computeInductionVars(g, loop)

	var basics []*ivInfo
	var deriveds []*ivInfo
	for _, iv := range ivs {
		if iv.IsBase {
			basics = append(basics, iv)
		} else {
			deriveds = append(deriveds, iv)
		}
	}
	if len(basics) == 0 {
		return false
	}

	changed := false
	firstSurrogate := map[string]surrogate{}

	if len(deriveds) > 0 {
		header, _ := g.Lookup(loop.Header)
		preName := cfg.FreshName(loop.Header+"_preentry", func(n string) bool { return taken[n] })
		taken[preName] = true
		pre := cfg.AddHeader(g, header, loop.Body, preName)
		b := newBuilder(pre, types, taken)
		changed = true

		basicUpdateNode := map[string]*cfg.Node{}
		basicUpdateAfter := map[string]int{} // insert position, advanced per derived var appended
		for _, bv := range basics {
			basicUpdateNode[bv.Name] = bv.Site.Node
			basicUpdateAfter[bv.Name] = bv.Site.Index + 1
		}

		var steps []pendingStep

		for _, dv := range deriveds {
			aName, _ := b.materialize(dv.A)
			var bName string
			if dv.HasB {
				bName, _ = b.materialize(dv.B)
			}

			scale := scaleOp(dv.Kind)
			comb := addOp(dv.Kind)
			t0 := b.fresh("t")
			b.emit(&ir.ValueInstr{Op: scale, Dest: t0, Type: dv.Type, Args: []string{dv.Base, aName}})
			types[t0] = dv.Type
			tName := t0
			if dv.HasB {
				t1 := b.fresh("t")
				b.emit(&ir.ValueInstr{Op: comb, Dest: t1, Type: dv.Type, Args: []string{t0, bName}})
				types[t1] = dv.Type
				tName = t1
			}

			if _, ok := firstSurrogate[dv.Base]; !ok {
				firstSurrogate[dv.Base] = surrogate{T: tName, A: aName, B: bName, HasB: dv.HasB, Kind: dv.Kind, Type: dv.Type}
			}

			// Replace the derived variable's sole in-loop definition with
			// k := id t (length-preserving, so recorded indices elsewhere
			// stay valid).
			dv.Site.Node.Block.Instrs[dv.Site.Index] = &ir.ValueInstr{Op: ir.OpId, Dest: dv.Name, Type: dv.Type, Args: []string{tName}}

			stepNode := basicUpdateNode[dv.Base]
			stepInstr := &ir.ValueInstr{Op: addOp(dv.Kind), Dest: tName, Type: dv.Type, Args: []string{tName, aName}}
			steps = append(steps, pendingStep{node: stepNode, after: basicUpdateAfter[dv.Base], instr: stepInstr})
			basicUpdateAfter[dv.Base]++
		}

		applyInserts(steps)

		for _, bv := range basics {
			sur, ok := firstSurrogate[bv.Name]
			if !ok {
				continue
			}
			rewriteComparisons(g, loop.Body, bv.Name, sur, b)
		}
	}

	if eliminateBasicVars(g, loop, basics) {
		changed = true
	}
	return changed
}

// pendingStep is one "t := t + A" recurrence update awaiting insertion
// immediately after a basic induction variable's own update instruction.
type pendingStep struct {
	node  *cfg.Node
	after int
	instr ir.Instruction
}

// applyInserts rewrites each affected block's instruction slice once,
// honoring insertion order and accumulating offsets so later insertions
// in the same block land after earlier ones.
func applyInserts(steps []pendingStep) {
	byNode := map[*cfg.Node][]pendingStep{}
	for _, s := range steps {
		byNode[s.node] = append(byNode[s.node], s)
	}
	for node, inserts := range byNode {
		instrs := node.Block.Instrs
		offset := 0
		for _, ins := range inserts {
			pos := ins.after + offset
			instrs = append(instrs[:pos:pos], append([]ir.Instruction{ins.instr}, instrs[pos:]...)...)
			offset++
		}
		node.Block.Instrs = instrs
	}
}

// rewriteComparisons implements the comparison-rewriting step of §4.8
// for one basic variable, using its first derived surrogate.
func rewriteComparisons(g *cfg.Graph, body map[string]bool, basicName string, sur surrogate, b *builder) {
	for _, n := range g.Nodes {
		if !body[n.Name] || n.Block == nil {
			continue
		}
		for idx, inst := range n.Block.Instrs {
			v, ok := inst.(*ir.ValueInstr)
			if !ok || v.Op != ir.OpLt || len(v.Args) != 2 {
				continue
			}
			var otherName string
			var basicFirst bool
			switch {
			case v.Args[0] == basicName:
				otherName, basicFirst = v.Args[1], true
			case v.Args[1] == basicName:
				otherName, basicFirst = v.Args[0], false
			default:
				continue
			}
			nExpr, ok := loopInvariantExpr(g, otherName, body)
			if !ok {
				continue
			}
			nName, _ := b.materialize(nExpr)

			scale := scaleOp(sur.Kind)
			comb := addOp(sur.Kind)
			scaled := b.fresh("n")
			b.emit(&ir.ValueInstr{Op: scale, Dest: scaled, Type: sur.Type, Args: []string{nName, sur.A}})
			bigN := scaled
			if sur.HasB {
				combined := b.fresh("n")
				b.emit(&ir.ValueInstr{Op: comb, Dest: combined, Type: sur.Type, Args: []string{sur.B, scaled}})
				bigN = combined
			}

			newArgs := []string{sur.T, bigN}
			if !basicFirst {
				newArgs = []string{bigN, sur.T}
			}
			n.Block.Instrs[idx] = &ir.ValueInstr{Op: compareOp(sur.Kind), Dest: v.Dest, Type: v.Type, Args: newArgs}
		}
	}
}

// eliminateBasicVars drops a basic induction variable's self-update
// when it is dead outside the loop and never read except by that
// update (spec §4.8's basic-variable elimination).
func eliminateBasicVars(g *cfg.Graph, loop dom.Loop, basics []*ivInfo) bool {
	live := dataflow.Run(g, dataflow.LiveVariables())
	body := loop.Body

	exitSuccs := map[string]bool{}
	for _, n := range g.Nodes {
		if !body[n.Name] {
			continue
		}
		for _, s := range n.Successors() {
			if !body[s.Name] {
				exitSuccs[s.Name] = true
			}
		}
	}

	changed := false
	for _, bv := range basics {
		liveOutside := false
		for succ := range exitSuccs {
			if live.In[succ][bv.Name] {
				liveOutside = true
				break
			}
		}
		if liveOutside {
			continue
		}

		onlySelfUse := true
		for _, n := range g.Nodes {
			if !body[n.Name] {
				continue
			}
			if n.Block != nil {
				for _, inst := range n.Block.Instrs {
					if inst == bv.Site.Inst {
						continue
					}
					for _, arg := range inst.Operands() {
						if arg == bv.Name {
							onlySelfUse = false
						}
					}
				}
			}
			if n.Term != nil {
				for _, arg := range n.Term.Operands() {
					if arg == bv.Name {
						onlySelfUse = false
					}
				}
			}
		}
		if !onlySelfUse {
			continue
		}

		node := bv.Site.Node
		var out []ir.Instruction
		for _, inst := range node.Block.Instrs {
			if inst == bv.Site.Inst {
				changed = true
				continue
			}
			out = append(out, inst)
		}
		node.Block.Instrs = out
	}
	return changed
}
