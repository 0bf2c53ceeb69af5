// SPDX-License-Identifier: Apache-2.0
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"bril/internal/cfg"
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
		printDigraph(os.Stdout, g, fn.Name)
	}
}

// printDigraph emits a plain-text GraphViz digraph for g: one node per
// CFG block, one edge per successor link, in g.Nodes order — no
// GraphViz library dependency, just the textual format it reads.
func printDigraph(w io.Writer, g *cfg.Graph, fnName string) {
	fmt.Fprintf(w, "digraph %s {\n", fnName)
	for _, n := range g.Nodes {
		fmt.Fprintf(w, "  %q;\n", n.Name)
	}
	for _, n := range g.Nodes {
		for _, s := range n.Successors() {
			fmt.Fprintf(w, "  %q -> %q;\n", n.Name, s.Name)
		}
	}
	fmt.Fprintln(w, "}")
}
