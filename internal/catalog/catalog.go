package catalog

import (
	"fmt"
	"sort"
)

// Content is raw catalog content before validation and indexing.
type Content struct {
	Tuning    Tuning             `json:"tuning"`
	Modules   []ModuleDef        `json:"modules"`
	Protocols []ProtocolDef      `json:"protocols"`
	Upgrades  []UpgradeDef       `json:"upgrades"`
	Contracts []ContractTemplate `json:"contracts"`
	Perks     []PerkDef          `json:"perks"`
}

// Catalog is validated, indexed content.
// It is read-only after New and safe to share between engines.
type Catalog struct {
	content         Content
	modules         map[string]int
	protocols       map[string]int
	upgrades        map[string]int
	perks           map[string]int
	defaultProtocol string
}

// New validates content and builds a Catalog from it.
//
// Definitions are sorted by id so that every iteration over the catalog is
// deterministic. Returns ValidationErrors if the content is malformed.
func New(c Content) (*Catalog, error) {
	c = c.clone()
	sort.Slice(c.Modules, func(i, j int) bool { return c.Modules[i].Kind < c.Modules[j].Kind })
	sort.Slice(c.Protocols, func(i, j int) bool { return c.Protocols[i].ID < c.Protocols[j].ID })
	sort.Slice(c.Upgrades, func(i, j int) bool { return c.Upgrades[i].ID < c.Upgrades[j].ID })
	sort.Slice(c.Contracts, func(i, j int) bool { return c.Contracts[i].ID < c.Contracts[j].ID })
	sort.Slice(c.Perks, func(i, j int) bool { return c.Perks[i].ID < c.Perks[j].ID })
	for i := range c.Protocols {
		sort.Strings(c.Protocols[i].Requires)
	}

	if errs := Validate(c); len(errs) > 0 {
		return nil, errs
	}

	cat := &Catalog{
		content:   c,
		modules:   make(map[string]int, len(c.Modules)),
		protocols: make(map[string]int, len(c.Protocols)),
		upgrades:  make(map[string]int, len(c.Upgrades)),
		perks:     make(map[string]int, len(c.Perks)),
	}
	for i, m := range c.Modules {
		cat.modules[m.Kind] = i
	}
	for i, p := range c.Protocols {
		cat.protocols[p.ID] = i
		if p.Default {
			cat.defaultProtocol = p.ID
		}
	}
	for i, u := range c.Upgrades {
		cat.upgrades[u.ID] = i
	}
	for i, p := range c.Perks {
		cat.perks[p.ID] = i
	}
	return cat, nil
}

// MustNew is like New but panics on error.
// Use only in tests or with content known to be valid.
func MustNew(c Content) *Catalog {
	cat, err := New(c)
	if err != nil {
		panic(err)
	}
	return cat
}

// Content returns a deep copy of the catalog content.
// Tests derive synthetic catalogs by editing the copy and calling New.
func (c *Catalog) Content() Content {
	return c.content.clone()
}

// Tuning returns the tuning constants.
func (c *Catalog) Tuning() Tuning {
	return c.content.Tuning
}

// DefaultProtocol returns the id of the protocol every run starts with.
func (c *Catalog) DefaultProtocol() string {
	return c.defaultProtocol
}

// Module looks up a module definition by kind.
func (c *Catalog) Module(kind string) (ModuleDef, bool) {
	i, ok := c.modules[kind]
	if !ok {
		return ModuleDef{}, false
	}
	return c.content.Modules[i], true
}

// Protocol looks up a protocol definition by id.
func (c *Catalog) Protocol(id string) (ProtocolDef, bool) {
	i, ok := c.protocols[id]
	if !ok {
		return ProtocolDef{}, false
	}
	return c.content.Protocols[i], true
}

// Upgrade looks up an upgrade definition by id.
func (c *Catalog) Upgrade(id string) (UpgradeDef, bool) {
	i, ok := c.upgrades[id]
	if !ok {
		return UpgradeDef{}, false
	}
	return c.content.Upgrades[i], true
}

// Perk looks up a perk definition by id.
func (c *Catalog) Perk(id string) (PerkDef, bool) {
	i, ok := c.perks[id]
	if !ok {
		return PerkDef{}, false
	}
	return c.content.Perks[i], true
}

// Modules returns all module definitions sorted by kind.
func (c *Catalog) Modules() []ModuleDef {
	return append([]ModuleDef(nil), c.content.Modules...)
}

// Protocols returns all protocol definitions sorted by id.
func (c *Catalog) Protocols() []ProtocolDef {
	return c.Content().Protocols
}

// Upgrades returns all upgrade definitions sorted by id.
func (c *Catalog) Upgrades() []UpgradeDef {
	return append([]UpgradeDef(nil), c.content.Upgrades...)
}

// Contracts returns all contract templates sorted by id.
func (c *Catalog) Contracts() []ContractTemplate {
	return append([]ContractTemplate(nil), c.content.Contracts...)
}

// Perks returns all perk definitions sorted by id.
func (c *Catalog) Perks() []PerkDef {
	return append([]PerkDef(nil), c.content.Perks...)
}

// UpgradeEffect sums Effect*level over the upgrades of a category.
// Iterates in id order so the floating-point sum is reproducible.
func (c *Catalog) UpgradeEffect(levels map[string]int, cat Category) float64 {
	total := 0.0
	for _, u := range c.content.Upgrades {
		if u.Category == cat {
			total += u.Effect * float64(levels[u.ID])
		}
	}
	return total
}

// PerkEffect sums Effect*level over the perks of a category.
func (c *Catalog) PerkEffect(levels map[string]int, cat Category) float64 {
	total := 0.0
	for _, p := range c.content.Perks {
		if p.Category == cat {
			total += p.Effect * float64(levels[p.ID])
		}
	}
	return total
}

// String summarizes the catalog for logs.
func (c *Catalog) String() string {
	return fmt.Sprintf("catalog{modules=%d protocols=%d upgrades=%d contracts=%d perks=%d}",
		len(c.content.Modules), len(c.content.Protocols), len(c.content.Upgrades),
		len(c.content.Contracts), len(c.content.Perks))
}

func (c Content) clone() Content {
	out := c
	out.Modules = append([]ModuleDef(nil), c.Modules...)
	out.Protocols = make([]ProtocolDef, len(c.Protocols))
	for i, p := range c.Protocols {
		out.Protocols[i] = p
		out.Protocols[i].Requires = append([]string{}, p.Requires...)
	}
	out.Upgrades = append([]UpgradeDef(nil), c.Upgrades...)
	out.Contracts = append([]ContractTemplate(nil), c.Contracts...)
	out.Perks = append([]PerkDef(nil), c.Perks...)
	return out
}
