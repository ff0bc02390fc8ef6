package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/arkenfold/symterm/config"
	"github.com/arkenfold/symterm/internal/fakeput"
	"github.com/arkenfold/symterm/knowledge"
	"github.com/arkenfold/symterm/signature"
	"github.com/arkenfold/symterm/term"
	"github.com/arkenfold/symterm/trace"
)

// demoTrace builds the one trace termctl knows how to run: a single
// "client" agent under the in-memory fake PUT, sent an HMAC tag as an
// Input step and read back as an Output step. It exists to give the
// trace engine a real, if small, end-to-end entry point — spec.md
// declares a scenario library out of scope, so termctl ships exactly one
// worked example rather than a corpus loader.
func demoTrace(sig *signature.Signature) (*trace.Trace, error) {
	newKey, ok := sig.Lookup("fn_hmac256_new_key")
	if !ok {
		return nil, fmt.Errorf("fixture signature missing fn_hmac256_new_key")
	}
	emptyMsg, ok := sig.Lookup("fn_empty_bytes_vec")
	if !ok {
		return nil, fmt.Errorf("fixture signature missing fn_empty_bytes_vec")
	}
	hmac256, ok := sig.Lookup("fn_hmac256")
	if !ok {
		return nil, fmt.Errorf("fixture signature missing fn_hmac256")
	}

	recipe := term.NewApplication(hmac256, []*term.Term{
		term.NewApplication(newKey, nil),
		term.NewApplication(emptyMsg, nil),
	})

	return &trace.Trace{
		ID: uuid.New(),
		Agents: []trace.AgentDescriptor{
			{
				Name: "client",
				Role: trace.RoleClient,
				Put:  trace.PutDescriptor{Name: "fake"},
			},
		},
		Steps: []trace.Step{
			{Agent: "client", Recipe: recipe},
			{Agent: "client", IsOutput: true},
		},
	}, nil
}

func newTraceCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Run (or print) the built-in demo trace against the fake PUT",
		RunE: func(cmd *cobra.Command, args []string) error {
			sig, err := loadFixtureSignature()
			if err != nil {
				return err
			}

			t, err := demoTrace(sig)
			if err != nil {
				return err
			}

			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "trace %s: %d step(s) across %d agent(s)\n", t.ID, len(t.Steps), len(t.Agents))
				for i, step := range t.Steps {
					kind := "Input"
					if step.IsOutput {
						kind = "Output"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "  step %d: %s agent=%s\n", i, kind, step.Agent)
				}
				return nil
			}

			registry := trace.NewPutRegistry()
			registry.Register("fake", fakeput.Factory(sig.Types))

			// Execute refuses the raw context.Background() singleton
			// (invariant.ContextNotBackground): termctl is the root
			// entry point, so it derives the step-timeout-bounded
			// context Execute actually runs under.
			cfg := config.Default()
			ctx, cancel := context.WithTimeout(context.Background(), cfg.StepTimeout)
			defer cancel()

			tc := trace.NewContext(sig.Types)
			if err := t.Execute(ctx, tc, registry, trace.NoPolicy{}, nil, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "trace completed: %d knowledge item(s) recorded\n", tc.Knowledge.Len())
			printKnowledge(cmd, tc.Knowledge)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the trace's steps without executing it")
	return cmd
}

func printKnowledge(cmd *cobra.Command, kb *knowledge.Base) {
	for _, item := range kb.Items() {
		fmt.Fprintf(cmd.OutOrStdout(), "  [%s] %s\n", item.Agent, item.Value.Shape().Name())
	}
}
