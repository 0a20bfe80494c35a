// Package state defines the simulation state that every engine operation
// threads through.
//
// This package contains the data model only. All other internal packages
// import state; state imports nothing internal.
//
// Key design constraints:
//   - Operations never mutate a *State they receive; they Clone first
//   - Clone copies every slice and map explicitly (no serialization round trip)
//   - ProtocolSet is immutable; With returns a new set
//   - The serialized form is a versioned envelope; a version mismatch is a hard error
//   - All JSON tags use snake_case
package state
