package engine

import (
	"encoding/binary"
	"sort"

	"github.com/roach88/backpressure/internal/catalog"
	"github.com/roach88/backpressure/internal/state"
)

// DomainBoard separates board-shuffle hashes from other content hashes.
const DomainBoard = "backpressure/board/v1"

// GenerateBoard builds the objective board for a reset count and seed.
//
// Templates gated above resets are skipped. Candidates are ordered by
// (hash(id, seed), id) and taken greedily, preferring protocols not yet on
// the board. If distinct protocols run out before the board is full, the
// skipped candidates fill the remaining slots in the same order.
func (e *Engine) GenerateBoard(resets int, seed uint64) []state.Objective {
	type candidate struct {
		tmpl catalog.ContractTemplate
		key  uint64
	}

	var candidates []candidate
	for _, tmpl := range e.cat.Contracts() {
		if tmpl.MinResets <= resets {
			candidates = append(candidates, candidate{tmpl: tmpl, key: shuffleKey(tmpl.ID, seed)})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].key != candidates[j].key {
			return candidates[i].key < candidates[j].key
		}
		return candidates[i].tmpl.ID < candidates[j].tmpl.ID
	})

	size := e.cat.Tuning().BoardSize
	board := make([]state.Objective, 0, size)
	protocols := make(map[string]bool)
	var skipped []catalog.ContractTemplate
	for _, c := range candidates {
		if len(board) == size {
			break
		}
		if protocols[c.tmpl.Protocol] {
			skipped = append(skipped, c.tmpl)
			continue
		}
		protocols[c.tmpl.Protocol] = true
		board = append(board, newObjective(c.tmpl))
	}
	for _, tmpl := range skipped {
		if len(board) == size {
			break
		}
		board = append(board, newObjective(tmpl))
	}
	return board
}

func newObjective(t catalog.ContractTemplate) state.Objective {
	return state.Objective{
		ID:             t.ID,
		Protocol:       t.Protocol,
		Target:         t.Target,
		TimeLimit:      t.TimeLimit,
		Remaining:      t.TimeLimit,
		RewardCredits:  t.RewardCredits,
		RewardResearch: t.RewardResearch,
		Tier:           t.Tier,
		Status:         state.StatusOpen,
	}
}

func shuffleKey(id string, seed uint64) uint64 {
	data := make([]byte, 0, len(id)+8)
	data = append(data, id...)
	data = binary.BigEndian.AppendUint64(data, seed)
	return binary.BigEndian.Uint64(state.HashWithDomain(DomainBoard, data)[:8])
}

// boardSeed derives the refresh seed from the step counter and the board
// generation, so two refreshes in the same step still differ.
func boardSeed(s *state.State) uint64 {
	return uint64(s.Step)<<20 ^ uint64(s.Board.Generation+1)
}

// RefreshBoard replaces the board with a newly generated one.
// The active pointer is always cleared.
func (e *Engine) RefreshBoard(s *state.State) *state.State {
	next := s.Clone()
	next.Board = state.Board{
		Objectives: e.GenerateBoard(s.Meta.Resets, boardSeed(s)),
		Generation: s.Board.Generation + 1,
	}
	e.logger.Debug("board refreshed", "generation", next.Board.Generation, "step", next.Step)
	return next
}

// Activate makes the objective with id the single active objective.
func (e *Engine) Activate(s *state.State, id string) Outcome {
	i, ok := s.Board.Find(id)
	if !ok {
		return rejected(ReasonUnknownObjective)
	}
	o := s.Board.Objectives[i]
	if o.Status != state.StatusOpen {
		return rejected(ReasonNotOpen)
	}
	if o.Progress != 0 {
		return rejected(ReasonAlreadyProgressed)
	}
	if s.Board.Active != "" {
		return rejected(ReasonObjectiveActive)
	}

	next := s.Clone()
	next.Board.Objectives[i].Status = state.StatusActive
	next.Board.Objectives[i].Remaining = o.TimeLimit
	next.Board.Active = id
	return applied(next)
}

// Abandon expires the active objective.
func (e *Engine) Abandon(s *state.State) Outcome {
	if s.Board.Active == "" {
		return rejected(ReasonNoActiveObjective)
	}
	next := s.Clone()
	if i, ok := next.Board.Find(next.Board.Active); ok {
		next.Board.Objectives[i].Status = state.StatusExpired
		next.Stats.Expired++
	}
	next.Board.Active = ""
	return applied(next)
}

// IsExhausted reports whether every objective is settled and none is active.
func (e *Engine) IsExhausted(s *state.State) bool {
	if s.Board.Active != "" {
		return false
	}
	for _, o := range s.Board.Objectives {
		if !o.Settled() {
			return false
		}
	}
	return true
}
