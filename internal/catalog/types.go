package catalog

import "math"

// Category names an effect channel for upgrades and perks.
type Category string

// Upgrade categories.
const (
	CategorySpeed      Category = "speed"      // flat capacity per level
	CategoryGeneration Category = "generation" // fraction of base generation per level
	CategoryCredit     Category = "credit"     // fraction of credit rate per level
	CategoryLatency    Category = "latency"    // latency reduction fraction per level
	CategoryTolerance  Category = "tolerance"  // queue units ignored by congestion per level
	CategoryResearch   Category = "research"   // steps removed from the drop interval per level
)

// Perk-only categories. Perks also use generation, credit, latency and research.
const (
	CategoryCapacity  Category = "capacity"   // capacity multiplier per level
	CategoryOutput    Category = "output"     // output multiplier per level
	CategoryHeadStart Category = "head_start" // extra starting lanes per level
	CategoryOffline   Category = "offline"    // extra replay cap seconds per level
)

var upgradeCategories = map[Category]bool{
	CategorySpeed:      true,
	CategoryGeneration: true,
	CategoryCredit:     true,
	CategoryLatency:    true,
	CategoryTolerance:  true,
	CategoryResearch:   true,
}

var perkCategories = map[Category]bool{
	CategoryCapacity:   true,
	CategoryOutput:     true,
	CategoryGeneration: true,
	CategoryCredit:     true,
	CategoryLatency:    true,
	CategoryResearch:   true,
	CategoryHeadStart:  true,
	CategoryOffline:    true,
}

// Tuning holds the numeric constants of the simulation.
type Tuning struct {
	BaseCapacity      float64       `json:"base_capacity"`   // units per second per lane
	BaseGeneration    float64       `json:"base_generation"` // units per second per lane
	StartingLanes     int           `json:"starting_lanes"`
	MaxLanes          int           `json:"max_lanes"`
	LaneCost          float64       `json:"lane_cost"`
	LaneCostGrowth    float64       `json:"lane_cost_growth"`
	NonCompliance     float64       `json:"non_compliance"` // output factor when protocol requirements are unmet
	PrestigeThreshold float64       `json:"prestige_threshold"`
	HighTier          int           `json:"high_tier"`
	BoardSize         int           `json:"board_size"`
	MinDropInterval   int           `json:"min_drop_interval"`
	Latency           LatencyTuning `json:"latency"`
	Replay            ReplayTuning  `json:"replay"`
}

// LatencyTuning holds the constants of the latency model.
type LatencyTuning struct {
	Base         float64 `json:"base"`
	PerModule    float64 `json:"per_module"`
	PerUnit      float64 `json:"per_unit"`
	Depth        float64 `json:"depth"`
	FreeDepth    int     `json:"free_depth"`
	Congestion   float64 `json:"congestion"`
	Floor        float64 `json:"floor"`
	MaxReduction float64 `json:"max_reduction"`
}

// ReplayTuning holds the constants of the replay reconciler.
type ReplayTuning struct {
	ChunkSeconds float64 `json:"chunk_seconds"`
	CapSeconds   float64 `json:"cap_seconds"`
}

// LaneCostAt returns the credit cost of buying a lane when lanes lanes exist.
func (t Tuning) LaneCostAt(lanes int) float64 {
	return math.Floor(t.LaneCost * math.Pow(t.LaneCostGrowth, float64(lanes-1)))
}

// ModuleDef defines a processing stage.
type ModuleDef struct {
	Kind             string  `json:"kind"`
	UnlockCost       float64 `json:"unlock_cost"` // research
	CostGrowth       float64 `json:"cost_growth"`
	MaxLevel         int     `json:"max_level"`
	Capacity         float64 `json:"capacity"`
	CapacityPerLevel float64 `json:"capacity_per_level"`
	Output           float64 `json:"output"`
	OutputPerLevel   float64 `json:"output_per_level"`
}

// CostAt returns the research cost of raising the module from level to level+1.
func (d ModuleDef) CostAt(level int) float64 {
	return math.Floor(d.UnlockCost * math.Pow(d.CostGrowth, float64(level)))
}

// ProtocolDef defines a protocol family.
type ProtocolDef struct {
	ID           string   `json:"id"`
	Default      bool     `json:"default"`
	Throughput   float64  `json:"throughput"`
	Credit       float64  `json:"credit"`
	Requires     []string `json:"requires"`
	SwitchCost   float64  `json:"switch_cost"`
	DropInterval int      `json:"drop_interval"` // steps between research drops
}

// UpgradeDef defines a run-local upgrade bought with credits.
type UpgradeDef struct {
	ID       string   `json:"id"`
	Category Category `json:"category"`
	MaxLevel int      `json:"max_level"`
	BaseCost float64  `json:"base_cost"`
	Growth   float64  `json:"growth"`
	Effect   float64  `json:"effect"` // per level
}

// CostAt returns the credit cost of raising the upgrade from level to level+1.
func (d UpgradeDef) CostAt(level int) float64 {
	return math.Floor(d.BaseCost * math.Pow(d.Growth, float64(level)))
}

// ContractTemplate defines an objective that can appear on the board.
type ContractTemplate struct {
	ID             string  `json:"id"`
	Protocol       string  `json:"protocol"`
	Target         float64 `json:"target"`
	TimeLimit      float64 `json:"time_limit"` // seconds, 0 = open-ended
	RewardCredits  float64 `json:"reward_credits"`
	RewardResearch float64 `json:"reward_research"`
	Tier           int     `json:"tier"`
	MinResets      int     `json:"min_resets"`
}

// PerkDef defines a persistent upgrade bought with prestige currency.
type PerkDef struct {
	ID       string   `json:"id"`
	Category Category `json:"category"`
	MaxLevel int      `json:"max_level"`
	Cost     float64  `json:"cost"` // per level
	Effect   float64  `json:"effect"`
}
