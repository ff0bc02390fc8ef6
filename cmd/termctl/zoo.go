package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arkenfold/symterm/termzoo"
)

func newZooCmd() *cobra.Command {
	var seed uint64

	cmd := &cobra.Command{
		Use:   "zoo",
		Short: "Generate one closed term per function symbol and print them",
		RunE: func(cmd *cobra.Command, args []string) error {
			sig, err := loadFixtureSignature()
			if err != nil {
				return err
			}

			rng := termzoo.NewSeededRand(seed, seed)
			z := termzoo.Generate(sig, rng)

			fmt.Fprintf(cmd.OutOrStdout(), "zoo %s: generated %d/%d terms (seed=%d)\n\n", z.ID(), z.Len(), len(sig.Functions()), seed)
			for _, t := range z.Terms() {
				fmt.Fprintln(cmd.OutOrStdout(), t.String())
				fmt.Fprintln(cmd.OutOrStdout())
			}
			return nil
		},
	}
	cmd.Flags().Uint64Var(&seed, "seed", 1, "deterministic seed for term generation")
	return cmd
}
