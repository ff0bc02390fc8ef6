// Command termctl is a thin operator surface over the engine: generate a
// term zoo from the fixture signature, fuzzy-search its symbol table, and
// dry-run or print a trace. It follows the teacher's cli/main.go shape —
// a cobra root command with persistent flags, one RunE per concern — kept
// far smaller here since spec.md declares a full CLI out of scope and
// this exists only to give the zoo generator and trace engine a real
// entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arkenfold/symterm/fixture"
	"github.com/arkenfold/symterm/sigctx"
	"github.com/arkenfold/symterm/signature"
)

var debug bool

func main() {
	rootCmd := &cobra.Command{
		Use:           "termctl",
		Short:         "Inspect and drive the symterm fuzzing engine",
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable verbose logging")

	rootCmd.AddCommand(newZooCmd())
	rootCmd.AddCommand(newSymbolsCmd())
	rootCmd.AddCommand(newTraceCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "termctl: %v\n", err)
		os.Exit(1)
	}
}

// loadFixtureSignature installs the fixture signature as the process-wide
// anchor if it is not already installed, and returns it. termctl runs as
// a single short-lived process per invocation, so "already installed"
// only happens if a command installs it more than once within a run.
func loadFixtureSignature() (*signature.Signature, error) {
	if sig, ok := sigctx.Current(); ok {
		return sig, nil
	}
	sig, err := fixture.Build()
	if err != nil {
		return nil, fmt.Errorf("building fixture signature: %w", err)
	}
	if err := sigctx.Install(sig); err != nil {
		return nil, fmt.Errorf("installing signature anchor: %w", err)
	}
	return sig, nil
}
