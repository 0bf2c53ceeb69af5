// SPDX-License-Identifier: Apache-2.0
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"bril/internal/errors"
	"bril/internal/interp"
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

	stats, err := interp.Run(prog, os.Stdout)
	if err != nil {
		if ce, ok := err.(*errors.CompilerError); ok {
			fmt.Fprint(os.Stderr, errors.NewReporter().Format(ce))
		} else {
			color.Red("❌ %s", err)
		}
		os.Exit(1)
	}

	fmt.Printf("Executed %d instructions.\n", stats.InstructionsExecuted)
}
