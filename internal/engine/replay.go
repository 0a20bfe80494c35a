package engine

import (
	"math"
	"time"

	"github.com/roach88/backpressure/internal/catalog"
	"github.com/roach88/backpressure/internal/state"
)

// Summary reports what a Reconcile replayed.
type Summary struct {
	Seconds  float64 `json:"seconds"`
	Chunks   int     `json:"chunks"`
	Output   float64 `json:"output"`
	Credits  float64 `json:"credits"`
	Research float64 `json:"research"`
}

// ReplayCap returns the maximum number of seconds a Reconcile will replay.
func (e *Engine) ReplayCap(s *state.State) float64 {
	return e.cat.Tuning().Replay.CapSeconds + e.cat.PerkEffect(s.Meta.Perks, catalog.CategoryOffline)
}

// Reconcile catches s up to now by advancing in fixed chunks.
//
// Elapsed time since s.LastAdvance is clamped to [0, ReplayCap]. Whole
// chunks are applied while the remainder exceeds one chunk, then a single
// partial chunk. The result is stamped with now. A state that was never
// stamped is only stamped.
//
// Latency is evaluated once per chunk at the chunk's ending queue depth, so
// the result approximates fine-grained stepping within a bounded tolerance.
func (e *Engine) Reconcile(s *state.State, now time.Time) (*state.State, Summary) {
	nowMillis := now.UnixMilli()
	if s.LastAdvance == 0 {
		next := s.Clone()
		next.LastAdvance = nowMillis
		return next, Summary{}
	}

	elapsed := float64(nowMillis-s.LastAdvance) / 1000
	elapsed = math.Min(math.Max(0, elapsed), e.ReplayCap(s))

	chunk := e.cat.Tuning().Replay.ChunkSeconds
	next := s.Clone()
	summary := Summary{Seconds: elapsed}
	remaining := elapsed
	for remaining > chunk {
		next = e.Advance(next, chunk)
		remaining -= chunk
		summary.Chunks++
	}
	if remaining > 0 {
		next = e.Advance(next, remaining)
		summary.Chunks++
	}
	next.LastAdvance = nowMillis

	summary.Output = next.Stats.LifetimeOutput - s.Stats.LifetimeOutput
	summary.Credits = next.Stats.LifetimeCredits - s.Stats.LifetimeCredits
	summary.Research = next.Stats.LifetimeResearch - s.Stats.LifetimeResearch

	if summary.Chunks > 0 {
		e.logger.Debug("reconciled",
			"seconds", summary.Seconds,
			"chunks", summary.Chunks,
			"output", summary.Output)
	}
	return next, summary
}
