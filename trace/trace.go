package trace

import (
	"bytes"
	stdcontext "context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/arkenfold/symterm/claim"
	"github.com/arkenfold/symterm/dynfunc"
	"github.com/arkenfold/symterm/eval"
	"github.com/arkenfold/symterm/ferr"
	"github.com/arkenfold/symterm/invariant"
	"github.com/arkenfold/symterm/knowledge"
	"github.com/arkenfold/symterm/term"
)

// Step is one Input or Output action against a named agent (spec.md §3
// "Trace"). Exactly one of Recipe or IsOutput applies: Recipe set means
// Input, IsOutput true means Output.
type Step struct {
	Agent    string
	Recipe   *term.Term
	IsOutput bool
}

// Extractor decomposes a parsed Message into zero or more knowledge
// items (spec.md §4.F "extract_knowledge"). Implementations MUST be
// pure: same message, same items, every time.
type Extractor interface {
	Extract(agent string, msg Message) ([]knowledge.Item, error)
}

// ExtractorFunc adapts a plain function to Extractor.
type ExtractorFunc func(agent string, msg Message) ([]knowledge.Item, error)

func (f ExtractorFunc) Extract(agent string, msg Message) ([]knowledge.Item, error) {
	return f(agent, msg)
}

// Trace is an ordered sequence of Steps plus prior traces composed before
// it, and the agent descriptors it instantiates (spec.md §3 "Trace").
type Trace struct {
	ID          uuid.UUID
	Agents      []AgentDescriptor
	Steps       []Step
	PriorTraces []*Trace
}

// Execute runs t against tc: recursively executes prior traces, spawns
// every declared agent through registry, dispatches each step, drains
// claims, and checks policy after every step (spec.md §4.G).
//
// Every exit path — success, error, or ctx cancellation — releases every
// agent spawned by this call (and, transitively, by PriorTraces), via
// one deferred CloseAgents call once the whole composition has run, so
// agents spawned by a prior trace stay open for the steps that follow it
// (spec.md §3 "Lifecycles", §4.G step 2).
func (t *Trace) Execute(ctx stdcontext.Context, tc *Context, registry *PutRegistry, policy SecurityPolicy, extractor Extractor, log *slog.Logger) error {
	invariant.ContextNotBackground(ctx, "Trace.Execute")
	if log == nil {
		log = slog.Default()
	}
	defer func() {
		if err := tc.CloseAgents(); err != nil {
			log.Warn("agent close failed", "error", err)
		}
	}()
	return t.execute(ctx, tc, registry, policy, extractor, log, make(map[*Trace]bool))
}

func (t *Trace) execute(ctx stdcontext.Context, tc *Context, registry *PutRegistry, policy SecurityPolicy, extractor Extractor, log *slog.Logger, visited map[*Trace]bool) error {
	if visited[t] {
		return ferr.Term("trace composition cycle detected (prior_traces forms a cycle)")
	}
	visited[t] = true

	log = log.With("trace_id", t.ID.String())
	log.Info("trace execute start", "steps", len(t.Steps), "prior_traces", len(t.PriorTraces))

	// Step 1: recursively execute prior traces against the same context
	// (composition, spec.md §4.G step 1).
	for _, prior := range t.PriorTraces {
		if err := prior.execute(ctx, tc, registry, policy, extractor, log, visited); err != nil {
			return err
		}
	}

	// Step 2: instantiate every declared agent; Execute releases them.
	for _, desc := range t.Agents {
		if _, exists := tc.Agents[desc.Name]; exists {
			continue
		}
		sink := claim.NewSink(64)
		put, err := registry.New(desc.Put, sink.Callback())
		if err != nil {
			return err
		}
		a := NewAgent(desc, put, sink)
		tc.Agents[desc.Name] = a
		log.Info("agent spawned", "agent", desc.Name, "put", desc.Put.Name, "role", desc.Role.String())
	}

	deframers := make(map[string]MessageDeframer)

	// Steps 3-4.
	for i, step := range t.Steps {
		if ctx.Err() != nil {
			return ferr.IO(ctx.Err(), "trace cancelled at step %d", i)
		}
		agent, ok := tc.Agents[step.Agent]
		if !ok {
			return ferr.Agent("step %d references unknown agent %q", i, step.Agent)
		}

		if step.IsOutput {
			if err := t.dispatchOutput(step, agent, deframers, extractor, tc, log); err != nil {
				return err
			}
		} else {
			if err := t.dispatchInput(step, agent, tc, log); err != nil {
				return err
			}
		}

		claims := tc.DrainAllClaims()
		if msg, found := policy.Eval(claims); found {
			log.Error("security policy violation", "message", msg, "step", i)
			return ferr.SecurityClaim("%s", msg)
		}
	}

	log.Info("trace execute done")
	return nil
}

func (t *Trace) dispatchInput(step Step, agent *Agent, tc *Context, log *slog.Logger) error {
	log.Debug("dispatch input", "agent", step.Agent)
	cell, evalErr := eval.Evaluate(step.Recipe, tc, log)
	if evalErr != nil {
		return evalErr
	}
	wire, ok := dynfunc.Downcast[[]byte](cell)
	if !ok {
		return ferr.Stream("recipe for agent %q evaluated to %s, not a wire-encodable []byte", step.Agent, cell.Shape().Name())
	}
	if _, err := agent.Write(wire); err != nil {
		return err
	}
	return nil
}

func (t *Trace) dispatchOutput(step Step, agent *Agent, deframers map[string]MessageDeframer, extractor Extractor, tc *Context, log *slog.Logger) error {
	log.Debug("dispatch output", "agent", step.Agent)
	raw, err := agent.Read()
	if err != nil {
		return err
	}

	deframer, ok := deframers[step.Agent]
	if !ok {
		deframer = NewLengthPrefixedDeframer()
		deframers[step.Agent] = deframer
	}
	if _, err := deframer.Read(bytes.NewReader(raw)); err != nil {
		return ferr.Stream("deframing agent %q output: %v", step.Agent, err)
	}

	for {
		frame, ok := deframer.PopFrame()
		if !ok {
			break
		}
		opaqueBytes, err := frame.Encode()
		if err != nil {
			return ferr.Stream("encoding opaque frame from agent %q: %v", step.Agent, err)
		}
		tc.Knowledge.Append(knowledge.Item{
			Agent: step.Agent,
			Value: dynfunc.NewCell(tc.Types, opaqueBytes),
		})

		msg, parseErr := frame.IntoMessage()
		if parseErr != nil {
			log.Warn("extraction: could not parse frame into structured message", "agent", step.Agent, "error", parseErr)
			continue
		}
		if extractor == nil {
			continue
		}
		items, extractErr := extractor.Extract(step.Agent, msg)
		if extractErr != nil {
			log.Warn("extraction failed", "agent", step.Agent, "error", extractErr)
			continue
		}
		for _, item := range items {
			tc.Knowledge.Append(item)
		}
	}
	return nil
}
