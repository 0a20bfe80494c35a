package cli

import (
	"fmt"
	"strings"

	"github.com/roach88/backpressure/internal/engine"
	"github.com/roach88/backpressure/internal/state"
	"github.com/roach88/backpressure/internal/store"
)

// LaneView is one lane in status output.
type LaneView struct {
	ID         string   `json:"id"`
	Queue      float64  `json:"queue"`
	Heat       float64  `json:"heat"`
	Modules    []string `json:"modules"`
	Capacity   float64  `json:"capacity"`
	Multiplier float64  `json:"multiplier"`
	Latency    float64  `json:"latency_ms"`
	Penalty    float64  `json:"penalty"`
	Compliant  bool     `json:"compliant"`
}

// ObjectiveView is one board entry.
type ObjectiveView struct {
	ID        string  `json:"id"`
	Protocol  string  `json:"protocol"`
	Status    string  `json:"status"`
	Progress  float64 `json:"progress"`
	Target    float64 `json:"target"`
	Remaining float64 `json:"remaining,omitempty"`
	Tier      int     `json:"tier"`
}

// BoardView is the objective board.
type BoardView struct {
	Active     string          `json:"active,omitempty"`
	Generation int             `json:"generation"`
	Exhausted  bool            `json:"exhausted"`
	Objectives []ObjectiveView `json:"objectives"`
}

func newBoardView(e *engine.Engine, s *state.State) BoardView {
	v := BoardView{
		Active:     s.Board.Active,
		Generation: s.Board.Generation,
		Exhausted:  e.IsExhausted(s),
		Objectives: make([]ObjectiveView, len(s.Board.Objectives)),
	}
	for i, o := range s.Board.Objectives {
		v.Objectives[i] = ObjectiveView{
			ID:        o.ID,
			Protocol:  o.Protocol,
			Status:    string(o.Status),
			Progress:  o.Progress,
			Target:    o.Target,
			Remaining: o.Remaining,
			Tier:      o.Tier,
		}
	}
	return v
}

// Text renders the board as a table.
func (v BoardView) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Board (generation %d)\n", v.Generation)
	for _, o := range v.Objectives {
		marker := " "
		if o.ID == v.Active {
			marker = "*"
		}
		fmt.Fprintf(&b, " %s %-16s %-6s %-9s %s/%s", marker, o.ID, o.Protocol, o.Status, num(o.Progress), num(o.Target))
		if o.Remaining > 0 {
			fmt.Fprintf(&b, "  %ss left", num(o.Remaining))
		}
		b.WriteString("\n")
	}
	if v.Exhausted {
		b.WriteString("Board exhausted; run 'backpressure board refresh'.\n")
	}
	return b.String()
}

// StatusView is the full run summary.
type StatusView struct {
	Slot           string          `json:"slot"`
	Seq            int64           `json:"seq"`
	Step           int64           `json:"step"`
	Protocol       string          `json:"protocol"`
	ProtocolsUsed  []string        `json:"protocols_used"`
	Resources      state.Resources `json:"resources"`
	GenerationRate float64         `json:"generation_rate"`
	Lanes          []LaneView      `json:"lanes"`
	Modules        map[string]int  `json:"modules"`
	Upgrades       map[string]int  `json:"upgrades"`
	Board          BoardView       `json:"board"`
	Meta           state.Meta      `json:"meta"`
	Stats          state.Stats     `json:"stats"`
	Ready          bool            `json:"ready"`
	Reward         float64         `json:"reward"`
	Fingerprint    string          `json:"fingerprint"`
}

func newStatusView(e *engine.Engine, s *state.State, snap store.Snapshot) StatusView {
	readings := e.Readings(s)
	lanes := make([]LaneView, len(readings))
	for i, r := range readings {
		lanes[i] = LaneView{
			ID:         r.Lane.ID,
			Queue:      r.Lane.Queue,
			Heat:       r.Lane.Heat,
			Modules:    r.Lane.Modules,
			Capacity:   r.Throughput.Capacity,
			Multiplier: r.Throughput.OutputMultiplier,
			Latency:    r.Latency.Display,
			Penalty:    r.Latency.Penalty,
			Compliant:  r.Compliant,
		}
	}
	return StatusView{
		Slot:           snap.Slot,
		Seq:            snap.Seq,
		Step:           s.Step,
		Protocol:       s.Protocol,
		ProtocolsUsed:  s.ProtocolsUsed.IDs(),
		Resources:      s.Resources,
		GenerationRate: e.GenerationRate(s),
		Lanes:          lanes,
		Modules:        s.Modules,
		Upgrades:       s.Upgrades,
		Board:          newBoardView(e, s),
		Meta:           s.Meta,
		Stats:          s.Stats,
		Ready:          e.Ready(s),
		Reward:         e.RewardPreview(s),
		Fingerprint:    state.MustFingerprint(s),
	}
}

// Text renders the status summary.
func (v StatusView) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Slot %s (save %d), step %s, protocol %s\n", v.Slot, v.Seq, count(v.Step), v.Protocol)
	r := v.Resources
	fmt.Fprintf(&b, "Raw %s  Refined %s  Credits %s  Research %s\n", num(r.Raw), num(r.Refined), num(r.Credits), num(r.Research))
	fmt.Fprintf(&b, "Intake %s/s\n", num(v.GenerationRate))
	for _, l := range v.Lanes {
		mods := "-"
		if len(l.Modules) > 0 {
			mods = strings.Join(l.Modules, ",")
		}
		flag := ""
		if !l.Compliant {
			flag = "  (non-compliant)"
		}
		fmt.Fprintf(&b, "  %-7s queue %s  cap %s  x%.2f  %sms  penalty %.3f  [%s]%s\n",
			l.ID, num(l.Queue), num(l.Capacity), l.Multiplier, num(l.Latency), l.Penalty, mods, flag)
	}
	b.WriteString(v.Board.Text())
	fmt.Fprintf(&b, "Lifetime output %s, completed %d, expired %d\n",
		whole(v.Stats.LifetimeOutput), v.Stats.Completed, v.Stats.Expired)
	fmt.Fprintf(&b, "Resets %d, balance %s, prestige reward %s", v.Meta.Resets, num(v.Meta.Balance()), num(v.Reward))
	if v.Ready {
		b.WriteString(" (ready)")
	}
	b.WriteString("\n")
	return b.String()
}

// SavedView reports a successful mutation.
type SavedView struct {
	Action string `json:"action"`
	Slot   string `json:"slot"`
	Seq    int64  `json:"seq"`
	Step   int64  `json:"step"`
	Detail string `json:"detail,omitempty"`
}

// Text renders a one-line confirmation.
func (v SavedView) Text() string {
	if v.Detail != "" {
		return fmt.Sprintf("%s: %s (slot %s, save %d)\n", v.Action, v.Detail, v.Slot, v.Seq)
	}
	return fmt.Sprintf("%s (slot %s, save %d)\n", v.Action, v.Slot, v.Seq)
}

func savedView(action, detail string, snap store.Snapshot) SavedView {
	return SavedView{Action: action, Slot: snap.Slot, Seq: snap.Seq, Step: snap.Step, Detail: detail}
}
