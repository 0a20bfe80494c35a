// Package catalog holds the static content tables of the simulator.
//
// Modules, protocols, upgrades, contract templates and perks are defined in
// CUE and unified with an embedded schema before being read into Go values.
// A Catalog is validated once at construction and is read-only afterwards;
// the engine receives it by injection and never embeds content itself.
//
// The built-in content lives in default.cue. Alternative catalogs can be
// loaded from a directory with Load or derived in tests by editing the
// result of Catalog.Content and calling New.
package catalog
