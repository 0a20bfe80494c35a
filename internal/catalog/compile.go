package catalog

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"golang.org/x/text/unicode/norm"
)

//go:embed schema.cue
var schemaCUE []byte

// Compile unifies a CUE value with the catalog schema and builds a Catalog.
//
// The value must be the catalog root, with tuning, module, protocol,
// upgrade, contract and perk fields. Definition ids come from field labels.
func Compile(v cue.Value) (*Catalog, error) {
	c, err := CompileContent(v)
	if err != nil {
		return nil, err
	}
	return New(c)
}

// CompileContent extracts raw Content from a CUE value without validating it.
func CompileContent(v cue.Value) (Content, error) {
	if err := v.Err(); err != nil {
		return Content{}, formatCUEError(err)
	}

	schema := v.Context().CompileBytes(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Content{}, fmt.Errorf("compile catalog schema: %w", err)
	}
	unified := schema.LookupPath(cue.ParsePath("#Catalog")).Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return Content{}, formatCUEError(err)
	}

	var c Content
	var err error
	c.Tuning, err = compileTuning(unified.LookupPath(cue.ParsePath("tuning")))
	if err != nil {
		return Content{}, err
	}

	err = eachField(unified, "module", func(id string, r *fieldReader) {
		c.Modules = append(c.Modules, ModuleDef{
			Kind:             id,
			UnlockCost:       r.float("unlock_cost"),
			CostGrowth:       r.float("cost_growth"),
			MaxLevel:         r.integer("max_level"),
			Capacity:         r.float("capacity"),
			CapacityPerLevel: r.float("capacity_per_level"),
			Output:           r.float("output"),
			OutputPerLevel:   r.float("output_per_level"),
		})
	})
	if err != nil {
		return Content{}, err
	}

	err = eachField(unified, "protocol", func(id string, r *fieldReader) {
		c.Protocols = append(c.Protocols, ProtocolDef{
			ID:           id,
			Default:      r.flag("default"),
			Throughput:   r.float("throughput"),
			Credit:       r.float("credit"),
			Requires:     r.texts("requires"),
			SwitchCost:   r.float("switch_cost"),
			DropInterval: r.integer("drop_interval"),
		})
	})
	if err != nil {
		return Content{}, err
	}

	err = eachField(unified, "upgrade", func(id string, r *fieldReader) {
		c.Upgrades = append(c.Upgrades, UpgradeDef{
			ID:       id,
			Category: Category(r.text("category")),
			MaxLevel: r.integer("max_level"),
			BaseCost: r.float("base_cost"),
			Growth:   r.float("growth"),
			Effect:   r.float("effect"),
		})
	})
	if err != nil {
		return Content{}, err
	}

	err = eachField(unified, "contract", func(id string, r *fieldReader) {
		c.Contracts = append(c.Contracts, ContractTemplate{
			ID:             id,
			Protocol:       r.text("protocol"),
			Target:         r.float("target"),
			TimeLimit:      r.float("time_limit"),
			RewardCredits:  r.float("reward_credits"),
			RewardResearch: r.float("reward_research"),
			Tier:           r.integer("tier"),
			MinResets:      r.integer("min_resets"),
		})
	})
	if err != nil {
		return Content{}, err
	}

	err = eachField(unified, "perk", func(id string, r *fieldReader) {
		c.Perks = append(c.Perks, PerkDef{
			ID:       id,
			Category: Category(r.text("category")),
			MaxLevel: r.integer("max_level"),
			Cost:     r.float("cost"),
			Effect:   r.float("effect"),
		})
	})
	if err != nil {
		return Content{}, err
	}

	return c, nil
}

func compileTuning(v cue.Value) (Tuning, error) {
	r := &fieldReader{v: v, path: "tuning"}
	t := Tuning{
		BaseCapacity:      r.float("base_capacity"),
		BaseGeneration:    r.float("base_generation"),
		StartingLanes:     r.integer("starting_lanes"),
		MaxLanes:          r.integer("max_lanes"),
		LaneCost:          r.float("lane_cost"),
		LaneCostGrowth:    r.float("lane_cost_growth"),
		NonCompliance:     r.float("non_compliance"),
		PrestigeThreshold: r.float("prestige_threshold"),
		HighTier:          r.integer("high_tier"),
		BoardSize:         r.integer("board_size"),
		MinDropInterval:   r.integer("min_drop_interval"),
		Latency: LatencyTuning{
			Base:         r.float("latency.base"),
			PerModule:    r.float("latency.per_module"),
			PerUnit:      r.float("latency.per_unit"),
			Depth:        r.float("latency.depth"),
			FreeDepth:    r.integer("latency.free_depth"),
			Congestion:   r.float("latency.congestion"),
			Floor:        r.float("latency.floor"),
			MaxReduction: r.float("latency.max_reduction"),
		},
		Replay: ReplayTuning{
			ChunkSeconds: r.float("replay.chunk_seconds"),
			CapSeconds:   r.float("replay.cap_seconds"),
		},
	}
	return t, r.err
}

// eachField calls fn for every field of the struct at name, in label order
// as written. Labels are NFC-normalized before use as ids.
func eachField(root cue.Value, name string, fn func(id string, r *fieldReader)) error {
	v := root.LookupPath(cue.ParsePath(name))
	if !v.Exists() {
		return nil
	}
	iter, err := v.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		id := norm.NFC.String(iter.Label())
		r := &fieldReader{v: iter.Value(), path: name + "." + id}
		fn(id, r)
		if r.err != nil {
			return r.err
		}
	}
	return nil
}

// fieldReader reads concrete fields and keeps the first error.
type fieldReader struct {
	v    cue.Value
	path string
	err  error
}

func (r *fieldReader) lookup(name string) (cue.Value, bool) {
	if r.err != nil {
		return cue.Value{}, false
	}
	fv := r.v.LookupPath(cue.ParsePath(name))
	if !fv.Exists() {
		r.err = &CompileError{
			Field:   r.path + "." + name,
			Message: "field is required",
			Pos:     r.v.Pos(),
		}
		return cue.Value{}, false
	}
	if d, ok := fv.Default(); ok {
		fv = d
	}
	return fv, true
}

func (r *fieldReader) fail(name string, err error) {
	if cerr, ok := formatCUEError(err).(*CompileError); ok {
		cerr.Field = r.path + "." + name
		r.err = cerr
		return
	}
	r.err = &CompileError{Field: r.path + "." + name, Message: err.Error(), Pos: r.v.Pos()}
}

func (r *fieldReader) float(name string) float64 {
	fv, ok := r.lookup(name)
	if !ok {
		return 0
	}
	f, err := fv.Float64()
	if err != nil {
		r.fail(name, err)
	}
	return f
}

func (r *fieldReader) integer(name string) int {
	fv, ok := r.lookup(name)
	if !ok {
		return 0
	}
	n, err := fv.Int64()
	if err != nil {
		r.fail(name, err)
	}
	return int(n)
}

func (r *fieldReader) flag(name string) bool {
	fv, ok := r.lookup(name)
	if !ok {
		return false
	}
	b, err := fv.Bool()
	if err != nil {
		r.fail(name, err)
	}
	return b
}

func (r *fieldReader) text(name string) string {
	fv, ok := r.lookup(name)
	if !ok {
		return ""
	}
	s, err := fv.String()
	if err != nil {
		r.fail(name, err)
	}
	return norm.NFC.String(s)
}

func (r *fieldReader) texts(name string) []string {
	fv, ok := r.lookup(name)
	if !ok {
		return nil
	}
	iter, err := fv.List()
	if err != nil {
		r.fail(name, err)
		return nil
	}
	out := []string{}
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			r.fail(name, err)
			return nil
		}
		out = append(out, norm.NFC.String(s))
	}
	return out
}

// CompileError represents a catalog compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	positions := errors.Positions(first)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
