// SPDX-License-Identifier: Apache-2.0
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"bril/internal/cfg"
	"bril/internal/errors"
	"bril/internal/ir"
	"bril/internal/opt"
	"bril/internal/semantic"
)

func main() {
	passName := flag.String("n", "nop", "optimization pass to run (nop, dce, indvar)")
	inPath := flag.String("i", "", "input file (defaults to stdin)")
	outPath := flag.String("o", "", "output file (defaults to stdout)")
	flag.Parse()

	in, err := openInput(*inPath)
	if err != nil {
		color.Red("%s", err)
		os.Exit(1)
	}
	defer in.Close()

	data, err := io.ReadAll(in)
	if err != nil {
		color.Red("failed to read input: %s", err)
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

	pipeline := opt.NewPipeline()
	for _, name := range prog.Order {
		fn := prog.Functions[name]
		g, err := cfg.Build(fn)
		if err != nil {
			color.Red("❌ %s", err)
			os.Exit(1)
		}
		if err := pipeline.Run(os.Stderr, *passName, g); err != nil {
			color.Red("❌ %s", err)
			os.Exit(1)
		}
		prog.Functions[name] = cfg.ToIR(g, fn.Name)
	}

	out, err := openOutput(*outPath)
	if err != nil {
		color.Red("%s", err)
		os.Exit(1)
	}
	defer out.Close()

	encoded, err := ir.Encode(prog)
	if err != nil {
		color.Red("❌ %s", err)
		os.Exit(1)
	}
	fmt.Fprintln(out, string(encoded))
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, nil
}

func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopWriteCloser{os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
