// SPDX-License-Identifier: Apache-2.0
package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/fatih/color"

	"bril/internal/cfg"
	"bril/internal/dataflow"
	"bril/internal/dom"
	"bril/internal/errors"
	"bril/internal/ir"
	"bril/internal/semantic"
)

func main() {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		color.Red("failed to read stdin: %s", err)
		os.Exit(1)
	}

	prog, err := ir.Decode(data)
	if err != nil {
		color.Red("❌ %s", err)
		os.Exit(1)
	}

	if errs := semantic.Validate(prog); len(errs) > 0 {
		reporter := errors.NewReporter()
		fmt.Fprint(os.Stderr, reporter.ReportAll(errs))
		os.Exit(1)
	}

	for _, name := range prog.Order {
		fn := prog.Functions[name]
		g, err := cfg.Build(fn)
		if err != nil {
			color.Red("❌ %s", err)
			os.Exit(1)
		}
		report(os.Stderr, g, fn.Name)
	}
}

func report(w io.Writer, g *cfg.Graph, fnName string) {
	fmt.Fprintf(w, "function %s\n", fnName)

	fmt.Fprintln(w, "edges:")
	for _, n := range g.Nodes {
		for _, s := range n.Successors() {
			fmt.Fprintf(w, "  %s -> %s\n", n.Name, s.Name)
		}
	}

	ds := dom.Compute(g)
	fmt.Fprintln(w, "dominators:")
	for _, n := range ds.ReversePostorder() {
		fmt.Fprintf(w, "  %s: %s\n", n, joinSorted(ds.Set(n)))
	}

	loops := dom.FindLoops(g, ds)
	fmt.Fprintln(w, "loops:")
	for _, l := range loops {
		fmt.Fprintf(w, "  header=%s tail=%s body=%s\n", l.Header, l.Tail, joinSorted(l.Body))
	}

	live := dataflow.Run(g, dataflow.LiveVariables())
	fmt.Fprintln(w, "live variables (out):")
	for _, n := range g.Nodes {
		fmt.Fprintf(w, "  %s: %s\n", n.Name, joinSorted(live.Out[n.Name]))
	}

	reaching := dataflow.Run(g, dataflow.ReachingDefinitions())
	fmt.Fprintln(w, "reaching definitions (out):")
	for _, n := range g.Nodes {
		fmt.Fprintf(w, "  %s: %s\n", n.Name, joinDefs(reaching.Out[n.Name]))
	}
}

func joinSorted(s map[string]bool) string {
	names := make([]string, 0, len(s))
	for v := range s {
		names = append(names, v)
	}
	sort.Strings(names)
	out := "{"
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out + "}"
}

func joinDefs(s dataflow.Set[dataflow.Definition]) string {
	entries := make([]string, 0, len(s))
	for d := range s {
		entries = append(entries, fmt.Sprintf("%s@%s#%d", d.Var, d.Block, d.Index))
	}
	sort.Strings(entries)
	out := "{"
	for i, e := range entries {
		if i > 0 {
			out += ", "
		}
		out += e
	}
	return out + "}"
}
