// Package engine implements the backpressure simulation core.
//
// The engine is a set of pure functions over state.State. Every operation
// takes the current state and returns a new one; the input is never mutated
// and the output shares no memory with it. There is no wall clock, no
// randomness and no I/O inside the engine.
//
// ARCHITECTURE:
//
//	Reconcile -> Advance -> {LaneThroughput, Latency, objectives} -> new state
//
// Advance applies one simulation step of dt seconds. Reconcile catches up
// elapsed real time by calling Advance in fixed chunks, capped by the replay
// ceiling. The prestige controller (Ready, RewardPreview, Reset,
// PurchasePerk) is consulted by the caller on demand.
//
// Expected rejections (unknown id, insufficient funds, max level, another
// objective already active) are reported as an Outcome with a Reason, never
// as a Go error. Callers keep their previous state when an Outcome is not OK.
//
// DETERMINISM:
//
// Catalog definitions are iterated in id order, lanes in slice order and lane
// modules in sorted order, so floating-point sums are reproducible. Board
// generation is seeded from the step counter and board generation, hashed
// with SHA-256.
//
// CONCURRENCY:
//
// An Engine holds only the injected catalog and a logger and is safe for
// concurrent use. Callers that hold a "current" state must serialize their
// own calls against it.
package engine
