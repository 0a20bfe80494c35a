package state

import "sort"

// State is the root value of a run.
type State struct {
	Resources     Resources      `json:"resources"`
	Lanes         []Lane         `json:"lanes"`
	Modules       map[string]int `json:"modules"`  // module kind -> unlock level (0 = locked)
	Upgrades      map[string]int `json:"upgrades"` // upgrade id -> purchased level
	Protocol      string         `json:"protocol"`
	ProtocolsUsed ProtocolSet    `json:"protocols_used"`
	Board         Board          `json:"board"`
	Meta          Meta           `json:"meta"`
	Stats         Stats          `json:"stats"`
	Step          int64          `json:"step"`         // steps since the last reset
	LastAdvance   int64          `json:"last_advance"` // unix millis of the last reconcile stamp, 0 = never
}

// Resources holds the run-local pools.
type Resources struct {
	Raw      float64 `json:"raw"`
	Refined  float64 `json:"refined"`
	Credits  float64 `json:"credits"`
	Research float64 `json:"research"`
}

// Lane is one processing pipeline.
type Lane struct {
	ID      string   `json:"id"`
	Queue   float64  `json:"queue"`
	Heat    float64  `json:"heat"`
	Modules []string `json:"modules"` // sorted, unique
}

// HasModule reports whether kind is enabled on the lane.
func (l Lane) HasModule(kind string) bool {
	i := sort.SearchStrings(l.Modules, kind)
	return i < len(l.Modules) && l.Modules[i] == kind
}

// WithModule returns a copy of the lane with kind enabled or disabled.
func (l Lane) WithModule(kind string, enabled bool) Lane {
	out := l
	out.Modules = make([]string, 0, len(l.Modules)+1)
	for _, m := range l.Modules {
		if m != kind {
			out.Modules = append(out.Modules, m)
		}
	}
	if enabled {
		out.Modules = append(out.Modules, kind)
		sort.Strings(out.Modules)
	}
	return out
}

// ObjectiveStatus is the lifecycle status of an objective.
type ObjectiveStatus string

const (
	StatusOpen      ObjectiveStatus = "open"
	StatusActive    ObjectiveStatus = "active"
	StatusCompleted ObjectiveStatus = "completed"
	StatusExpired   ObjectiveStatus = "expired"
)

// Objective is a contract instance on the board.
type Objective struct {
	ID             string          `json:"id"`
	Protocol       string          `json:"protocol"`
	Target         float64         `json:"target"`
	TimeLimit      float64         `json:"time_limit"` // seconds, 0 = open-ended
	Remaining      float64         `json:"remaining"`
	Progress       float64         `json:"progress"`
	RewardCredits  float64         `json:"reward_credits"`
	RewardResearch float64         `json:"reward_research"`
	Tier           int             `json:"tier"`
	Status         ObjectiveStatus `json:"status"`
}

// Timed reports whether the objective carries a time budget.
func (o Objective) Timed() bool {
	return o.TimeLimit > 0
}

// Settled reports whether the objective can no longer make progress.
func (o Objective) Settled() bool {
	return o.Status == StatusExpired || o.Status == StatusCompleted || o.Progress >= o.Target
}

// Board is the bounded set of objectives offered to the player.
type Board struct {
	Objectives []Objective `json:"objectives"`
	Active     string      `json:"active"` // id of the active objective, "" = none
	Generation int         `json:"generation"`
}

// Find returns the index of the objective with the given id.
func (b Board) Find(id string) (int, bool) {
	for i := range b.Objectives {
		if b.Objectives[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

// Meta is the persistent progress that survives a prestige reset.
type Meta struct {
	Earned float64        `json:"earned"`
	Spent  float64        `json:"spent"`
	Resets int            `json:"resets"`
	Perks  map[string]int `json:"perks"`
}

// Balance is the spendable persistent currency.
func (m Meta) Balance() float64 {
	return m.Earned - m.Spent
}

// Stats holds run statistics.
type Stats struct {
	LifetimeOutput    float64 `json:"lifetime_output"`
	LifetimeCredits   float64 `json:"lifetime_credits"`
	LifetimeResearch  float64 `json:"lifetime_research"`
	ElapsedSeconds    float64 `json:"elapsed_seconds"`
	Completed         int     `json:"completed"`
	HighTierCompleted int     `json:"high_tier_completed"`
	Expired           int     `json:"expired"`
	ReadyAtStep       int64   `json:"ready_at_step"` // 0 = threshold not yet crossed
}

// FindLane returns the index of the lane with the given id.
func (s *State) FindLane(id string) (int, bool) {
	for i := range s.Lanes {
		if s.Lanes[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

// ModuleLevel returns the global unlock level of a module kind.
func (s *State) ModuleLevel(kind string) int {
	return s.Modules[kind]
}
