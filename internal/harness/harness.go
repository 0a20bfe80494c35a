package harness

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/backpressure/internal/catalog"
	"github.com/roach88/backpressure/internal/engine"
	"github.com/roach88/backpressure/internal/state"
	"github.com/roach88/backpressure/internal/testutil"
)

// Setup-only actions.
const (
	setupSet       = "set"
	setupObjective = "objective"
)

// Harness runs one scenario against a fresh run.
//
// Each scenario gets its own engine, fake clock and run so that results
// are reproducible and golden traces stay stable.
type Harness struct {
	engine *engine.Engine
	clock  *testutil.FakeClock
	run    *state.State
	logger *slog.Logger
}

type options struct {
	catalog *catalog.Catalog
	logger  *slog.Logger
}

// Option configures Run.
type Option func(*options)

// WithCatalog sets the catalog used by scenarios that do not name their own.
func WithCatalog(cat *catalog.Catalog) Option {
	return func(o *options) {
		if cat != nil {
			o.catalog = cat
		}
	}
}

// WithLogger sets the logger for harness and engine records.
// Logs are discarded by default.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Resolve the catalog (scenario catalog, WithCatalog, or the default)
//  2. Start a fresh run stamped with the fake clock
//  3. Execute setup steps
//  4. Execute flow steps, tracing each and checking expect clauses
//  5. Evaluate assertions against the trace and final state
//
// A returned error means the scenario could not be executed at all.
// Failed expectations and assertions are reported in Result.Errors.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	o := options{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}

	cat, err := resolveCatalog(scenario, o.catalog)
	if err != nil {
		return nil, err
	}

	h := &Harness{
		engine: engine.New(cat, engine.WithLogger(o.logger)),
		clock:  testutil.NewFakeClock(testutil.DefaultEpoch),
		logger: o.logger,
	}
	h.run = h.engine.NewRun(state.Meta{Perks: map[string]int{}})
	h.run.LastAdvance = h.clock.Now().UnixMilli()

	if err := h.executeSetup(scenario.Setup); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}

	result := NewResult()
	if err := h.executeFlow(scenario.Flow, result); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}

	doc, err := toDocument(h.run)
	if err != nil {
		return nil, err
	}
	result.State = doc
	result.Fingerprint = state.MustFingerprint(h.run)

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	h.logger.Debug("scenario finished",
		"scenario", scenario.Name,
		"steps", len(result.Trace),
		"pass", result.Pass)
	return result, nil
}

func resolveCatalog(scenario *Scenario, fallback *catalog.Catalog) (*catalog.Catalog, error) {
	if scenario.Catalog != "" {
		cat, err := catalog.Load(scenario.Catalog)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
		return cat, nil
	}
	if fallback != nil {
		return fallback, nil
	}
	return catalog.Default()
}

// executeSetup applies setup steps. Every step must be applied.
func (h *Harness) executeSetup(setup []ActionStep) error {
	for i, step := range setup {
		var (
			next *state.State
			err  error
		)
		switch step.Action {
		case setupSet:
			next, err = applySet(h.run, step.Args)
		case setupObjective:
			next, err = applyObjective(h.run, step.Args)
		default:
			var reason engine.Reason
			next, _, reason, err = actions[step.Action](h, step.Args)
			if err == nil && reason != "" {
				err = fmt.Errorf("%s rejected: %s", step.Action, reason)
			}
		}
		if err != nil {
			return fmt.Errorf("setup step %d (%s): %w", i, step.Action, err)
		}
		h.run = next

		h.logger.Debug("setup step completed", "step", i, "action", step.Action)
	}
	return nil
}

// executeFlow runs flow steps, traces them and validates expect clauses.
// Rejected steps leave the run unchanged.
func (h *Harness) executeFlow(flow []FlowStep, result *Result) error {
	for i, step := range flow {
		next, res, reason, err := actions[step.Action](h, step.Args)
		if err != nil {
			return fmt.Errorf("flow step %d (%s): %w", i, step.Action, err)
		}

		got := CaseApplied
		if reason != "" {
			got = CaseRejected
			res = map[string]any{"reason": string(reason)}
		} else {
			h.run = next
		}
		ev := result.AddTrace(step.Action, step.Args, got, res)

		if step.Expect == nil {
			continue
		}
		if step.Expect.Case != got {
			result.AddError(fmt.Sprintf("flow[%d] %s: expected case %q, got %q (result %v)",
				i, step.Action, step.Expect.Case, got, res))
			continue
		}
		if !matchSubset(ev.Result, step.Expect.Result) {
			result.AddError(fmt.Sprintf("flow[%d] %s: expected result %v, got %v",
				i, step.Action, step.Expect.Result, ev.Result))
		}
	}
	return nil
}

// applySet writes each dotted path in args into the run, in sorted key order.
func applySet(s *state.State, args map[string]any) (*state.State, error) {
	doc, err := toDocument(s)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := setPath(doc, k, args[k]); err != nil {
			return nil, err
		}
	}
	return fromDocument(doc)
}

// applyObjective replaces the board with a single open objective.
func applyObjective(s *state.State, args map[string]any) (*state.State, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("objective: %w", err)
	}
	var o state.Objective
	if err := json.Unmarshal(raw, &o); err != nil {
		return nil, fmt.Errorf("objective: %w", err)
	}
	if o.ID == "" || o.Target <= 0 {
		return nil, fmt.Errorf("objective needs an id and a positive target")
	}
	if o.Status == "" {
		o.Status = state.StatusOpen
	}
	if o.Remaining == 0 {
		o.Remaining = o.TimeLimit
	}
	next := s.Clone()
	next.Board = state.Board{Objectives: []state.Objective{o}, Generation: s.Board.Generation}
	return next, nil
}

// toDocument converts s into its generic JSON form.
func toDocument(s *state.State) (map[string]any, error) {
	data, err := state.MarshalCanonical(s)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("state document: %w", err)
	}
	return doc, nil
}

// fromDocument rebuilds a State through the envelope decoder so that the
// usual normalization applies.
func fromDocument(doc map[string]any) (*state.State, error) {
	data, err := state.MarshalCanonical(doc)
	if err != nil {
		return nil, err
	}
	env, err := state.MarshalCanonical(state.Envelope{Version: state.SchemaVersion, Data: data})
	if err != nil {
		return nil, err
	}
	return state.Decode(env)
}

// setPath assigns value at a dotted path. Numeric segments index arrays.
// Missing object keys are created.
func setPath(doc map[string]any, path string, value any) error {
	parts := strings.Split(path, ".")
	var cur any = doc
	for i, part := range parts {
		last := i == len(parts)-1
		switch node := cur.(type) {
		case map[string]any:
			if last {
				node[part] = value
				return nil
			}
			child, ok := node[part]
			if !ok || child == nil {
				child = map[string]any{}
				node[part] = child
			}
			cur = child
		case []any:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(node) {
				return fmt.Errorf("set %s: bad index %q", path, part)
			}
			if last {
				node[idx] = value
				return nil
			}
			cur = node[idx]
		default:
			return fmt.Errorf("set %s: %q is not a container", path, strings.Join(parts[:i], "."))
		}
	}
	return nil
}

// lookupPath reads the value at a dotted path.
func lookupPath(doc map[string]any, path string) (any, bool) {
	var cur any = doc
	for _, part := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[part]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			cur = node[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}
