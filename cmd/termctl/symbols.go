package main

import (
	"fmt"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/spf13/cobra"
)

func newSymbolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "symbols [query]",
		Short: "Fuzzy-search the fixture signature's function symbols by name",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sig, err := loadFixtureSignature()
			if err != nil {
				return err
			}

			names := make([]string, 0, len(sig.Functions()))
			for _, fn := range sig.Functions() {
				names = append(names, fn.Name())
			}

			if len(args) == 0 {
				for _, name := range names {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			}

			matches := fuzzy.Find(args[0], names)
			if len(matches) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no symbol matches %q\n", args[0])
				return nil
			}
			for _, m := range matches {
				fmt.Fprintln(cmd.OutOrStdout(), m)
			}
			return nil
		},
	}
	return cmd
}
