package harness

import (
	"fmt"
	"sort"
	"time"

	"github.com/roach88/backpressure/internal/engine"
	"github.com/roach88/backpressure/internal/state"
)

// actionFunc runs one action against the current run.
// A non-empty reason means the action was rejected and next is ignored.
// err reports malformed args only.
type actionFunc func(h *Harness, args map[string]any) (next *state.State, result map[string]any, reason engine.Reason, err error)

var actions = map[string]actionFunc{
	"advance":   doAdvance,
	"reconcile": doReconcile,
	"activate":  doActivate,
	"abandon":   doAbandon,
	"refresh":   doRefresh,
	"upgrade":   doUpgrade,
	"module":    doModule,
	"toggle":    doToggle,
	"protocol":  doProtocol,
	"lane":      doLane,
	"perk":      doPerk,
	"prestige":  doPrestige,
	"readings":  doReadings,
}

// Actions returns the names of every flow action, sorted.
func Actions() []string {
	names := make([]string, 0, len(actions))
	for name := range actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func knownAction(name string) bool {
	_, ok := actions[name]
	return ok
}

// outcome unpacks an engine.Outcome into the actionFunc shape.
func outcome(o engine.Outcome, result func(*state.State) map[string]any) (*state.State, map[string]any, engine.Reason, error) {
	if !o.OK() {
		return nil, nil, o.Reason, nil
	}
	return o.State, result(o.State), "", nil
}

func doAdvance(h *Harness, args map[string]any) (*state.State, map[string]any, engine.Reason, error) {
	seconds, err := argFloat(args, "seconds", 1)
	if err != nil {
		return nil, nil, "", err
	}
	steps, err := argInt(args, "steps", 1)
	if err != nil {
		return nil, nil, "", err
	}
	if seconds <= 0 || steps < 1 {
		return nil, nil, "", fmt.Errorf("advance needs seconds > 0 and steps >= 1")
	}

	next := h.run
	var output float64
	var completed, expired string
	ready := false
	for i := 0; i < steps; i++ {
		var report engine.StepReport
		next, report = h.engine.AdvanceReport(next, seconds)
		output += report.Refined
		if report.Completed != "" {
			completed = report.Completed
		}
		if report.Expired != "" {
			expired = report.Expired
		}
		ready = ready || report.Ready
	}

	result := map[string]any{
		"step":   next.Step,
		"output": output,
		"ready":  ready,
	}
	if completed != "" {
		result["completed"] = completed
	}
	if expired != "" {
		result["expired"] = expired
	}
	return next, result, "", nil
}

func doReconcile(h *Harness, args map[string]any) (*state.State, map[string]any, engine.Reason, error) {
	seconds, err := argFloat(args, "seconds", 0)
	if err != nil {
		return nil, nil, "", err
	}
	if seconds < 0 {
		return nil, nil, "", fmt.Errorf("reconcile needs seconds >= 0")
	}
	h.clock.Advance(time.Duration(seconds * float64(time.Second)))
	next, summary := h.engine.Reconcile(h.run, h.clock.Now())
	return next, map[string]any{
		"chunks":  summary.Chunks,
		"seconds": summary.Seconds,
		"step":    next.Step,
	}, "", nil
}

func doActivate(h *Harness, args map[string]any) (*state.State, map[string]any, engine.Reason, error) {
	id, err := argString(args, "id")
	if err != nil {
		return nil, nil, "", err
	}
	return outcome(h.engine.Activate(h.run, id), func(s *state.State) map[string]any {
		return map[string]any{"active": s.Board.Active}
	})
}

func doAbandon(h *Harness, _ map[string]any) (*state.State, map[string]any, engine.Reason, error) {
	active := h.run.Board.Active
	return outcome(h.engine.Abandon(h.run), func(*state.State) map[string]any {
		return map[string]any{"expired": active}
	})
}

func doRefresh(h *Harness, _ map[string]any) (*state.State, map[string]any, engine.Reason, error) {
	next := h.engine.RefreshBoard(h.run)
	return next, map[string]any{"generation": next.Board.Generation}, "", nil
}

func doUpgrade(h *Harness, args map[string]any) (*state.State, map[string]any, engine.Reason, error) {
	id, err := argString(args, "id")
	if err != nil {
		return nil, nil, "", err
	}
	return outcome(h.engine.PurchaseUpgrade(h.run, id), func(s *state.State) map[string]any {
		return map[string]any{"level": s.Upgrades[id]}
	})
}

func doModule(h *Harness, args map[string]any) (*state.State, map[string]any, engine.Reason, error) {
	kind, err := argString(args, "kind")
	if err != nil {
		return nil, nil, "", err
	}
	return outcome(h.engine.UpgradeModule(h.run, kind), func(s *state.State) map[string]any {
		return map[string]any{"level": s.Modules[kind]}
	})
}

func doToggle(h *Harness, args map[string]any) (*state.State, map[string]any, engine.Reason, error) {
	lane, err := argString(args, "lane")
	if err != nil {
		return nil, nil, "", err
	}
	kind, err := argString(args, "kind")
	if err != nil {
		return nil, nil, "", err
	}
	return outcome(h.engine.ToggleModule(h.run, lane, kind), func(s *state.State) map[string]any {
		i, _ := s.FindLane(lane)
		return map[string]any{"enabled": s.Lanes[i].HasModule(kind)}
	})
}

func doProtocol(h *Harness, args map[string]any) (*state.State, map[string]any, engine.Reason, error) {
	id, err := argString(args, "id")
	if err != nil {
		return nil, nil, "", err
	}
	return outcome(h.engine.SwitchProtocol(h.run, id), func(s *state.State) map[string]any {
		return map[string]any{"protocol": s.Protocol}
	})
}

func doLane(h *Harness, _ map[string]any) (*state.State, map[string]any, engine.Reason, error) {
	return outcome(h.engine.AddLane(h.run), func(s *state.State) map[string]any {
		return map[string]any{"lanes": len(s.Lanes)}
	})
}

func doPerk(h *Harness, args map[string]any) (*state.State, map[string]any, engine.Reason, error) {
	id, err := argString(args, "id")
	if err != nil {
		return nil, nil, "", err
	}
	return outcome(h.engine.PurchasePerk(h.run, id), func(s *state.State) map[string]any {
		return map[string]any{"level": s.Meta.Perks[id]}
	})
}

func doPrestige(h *Harness, _ map[string]any) (*state.State, map[string]any, engine.Reason, error) {
	reward := h.engine.RewardPreview(h.run)
	return outcome(h.engine.Prestige(h.run), func(s *state.State) map[string]any {
		return map[string]any{"resets": s.Meta.Resets, "reward": reward}
	})
}

// doReadings reports the latency penalty of every lane without changing the run.
func doReadings(h *Harness, _ map[string]any) (*state.State, map[string]any, engine.Reason, error) {
	result := map[string]any{}
	for _, r := range h.engine.Readings(h.run) {
		result[r.Lane.ID] = r.Latency.Penalty
	}
	return h.run, result, "", nil
}

func argString(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", fmt.Errorf("missing arg %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("arg %q: expected string, got %T", key, v)
	}
	return s, nil
}

func argFloat(args map[string]any, key string, def float64) (float64, error) {
	v, ok := args[key]
	if !ok {
		return def, nil
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, fmt.Errorf("arg %q: expected number, got %T", key, v)
	}
	return f, nil
}

func argInt(args map[string]any, key string, def int) (int, error) {
	v, ok := args[key]
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	}
	return 0, fmt.Errorf("arg %q: expected integer, got %T", key, v)
}

// toFloat widens any numeric value decoded from YAML or JSON.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	return 0, false
}
