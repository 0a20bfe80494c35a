package engine

import (
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/backpressure/internal/catalog"
	"github.com/roach88/backpressure/internal/state"
)

func objectiveIDs(objs []state.Objective) []string {
	ids := make([]string, len(objs))
	for i, o := range objs {
		ids[i] = o.ID
	}
	return ids
}

func TestGenerateBoard_Deterministic(t *testing.T) {
	e := newTestEngine(t)

	for _, seed := range []uint64{0, 1, 42, 1 << 40} {
		a := e.GenerateBoard(0, seed)
		b := e.GenerateBoard(0, seed)
		assert.Equal(t, a, b, "seed=%d", seed)
	}
}

func TestGenerateBoard_SeedsVary(t *testing.T) {
	cat := catalog.MustDefault()
	e := New(cat, WithLogger(DiscardLogger()))

	for _, resets := range []int{0, 2} {
		eligible := 0
		for _, ct := range cat.Contracts() {
			if ct.MinResets <= resets {
				eligible++
			}
		}
		require.Greater(t, eligible, cat.Tuning().BoardSize)

		boards := map[string]bool{}
		for seed := uint64(0); seed < 50; seed++ {
			ids := objectiveIDs(e.GenerateBoard(resets, seed))
			sort.Strings(ids)
			boards[strings.Join(ids, ",")] = true
		}
		assert.Greater(t, len(boards), 1, "resets=%d", resets)
	}
}

func TestGenerateBoard_HashOrderAndDiversity(t *testing.T) {
	e := newTestEngine(t)
	const seed = 7

	board := e.GenerateBoard(0, seed)
	require.Len(t, board, 3)

	ids := objectiveIDs(board)
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	assert.Equal(t, []string{"c-grpc", "c-http", "c-mqtt"}, sorted, "c-late is gated by resets")

	for i := 1; i < len(board); i++ {
		assert.LessOrEqual(t, shuffleKey(board[i-1].ID, seed), shuffleKey(board[i].ID, seed))
	}

	for _, o := range board {
		assert.Equal(t, state.StatusOpen, o.Status)
		assert.Equal(t, o.TimeLimit, o.Remaining)
	}
}

func TestGenerateBoard_ResetGate(t *testing.T) {
	e := newTestEngine(t)

	for seed := uint64(0); seed < 20; seed++ {
		board := e.GenerateBoard(1, seed)
		require.Len(t, board, 3)
		protocols := map[string]bool{}
		for _, o := range board {
			protocols[o.Protocol] = true
		}
		assert.Len(t, protocols, 3, "distinct protocols are preferred (seed=%d)", seed)
	}
}

func TestGenerateBoard_FillsFromSkipped(t *testing.T) {
	c := testContent()
	c.Contracts = nil
	for i := 0; i < 20; i++ {
		c.Contracts = append(c.Contracts, catalog.ContractTemplate{
			ID: fmt.Sprintf("h-%02d", i), Protocol: "http", Target: 10, Tier: 1,
		})
	}
	e := newEngineWith(t, c)

	sets := map[string]bool{}
	for seed := uint64(0); seed < 10; seed++ {
		board := e.GenerateBoard(0, seed)
		require.Len(t, board, 3, "board is filled even without protocol diversity")
		ids := objectiveIDs(board)
		sort.Strings(ids)
		sets[strings.Join(ids, ",")] = true
	}
	assert.Greater(t, len(sets), 1, "different seeds should yield different boards")
}

func TestGenerateBoard_FewerTemplatesThanSlots(t *testing.T) {
	c := testContent()
	c.Contracts = c.Contracts[:1]
	e := newEngineWith(t, c)

	assert.Len(t, e.GenerateBoard(0, 0), 1)
}

func TestActivate(t *testing.T) {
	e := newTestEngine(t)
	s := freshState(e)
	first, second := s.Board.Objectives[0].ID, s.Board.Objectives[1].ID
	before := state.MustFingerprint(s)

	out := e.Activate(s, "nope")
	assert.False(t, out.OK())
	assert.Nil(t, out.State)
	assert.Equal(t, ReasonUnknownObjective, out.Reason)

	out = e.Activate(s, first)
	require.True(t, out.OK())
	assert.Equal(t, first, out.State.Board.Active)
	assert.Equal(t, state.StatusActive, out.State.Board.Objectives[0].Status)
	assert.Equal(t, before, state.MustFingerprint(s), "input must not change")

	again := e.Activate(out.State, second)
	assert.Equal(t, ReasonObjectiveActive, again.Reason)
	assert.Equal(t, ReasonNotOpen, e.Activate(out.State, first).Reason)
}

func TestActivate_Rejections(t *testing.T) {
	e := newTestEngine(t)

	for _, status := range []state.ObjectiveStatus{state.StatusCompleted, state.StatusExpired} {
		s := withObjective(freshState(e), state.Objective{ID: "x", Target: 10, Status: status})
		assert.Equal(t, ReasonNotOpen, e.Activate(s, "x").Reason, string(status))
	}

	s := withObjective(freshState(e), state.Objective{ID: "x", Target: 10, Progress: 1})
	assert.Equal(t, ReasonAlreadyProgressed, e.Activate(s, "x").Reason)
}

func TestIsExhausted(t *testing.T) {
	e := newTestEngine(t)
	s := freshState(e)
	assert.False(t, e.IsExhausted(s))

	for i := range s.Board.Objectives {
		s.Board.Objectives[i].Status = state.StatusCompleted
	}
	assert.True(t, e.IsExhausted(s))

	s.Board.Objectives[1].Status = state.StatusExpired
	assert.True(t, e.IsExhausted(s))

	s.Board.Objectives[2].Status = state.StatusActive
	s.Board.Active = s.Board.Objectives[2].ID
	assert.False(t, e.IsExhausted(s))
}

func TestRefreshBoard(t *testing.T) {
	e := newTestEngine(t)
	s := mustApply(t, e.Activate(freshState(e), freshState(e).Board.Objectives[0].ID))
	s = e.AdvanceSteps(s, 3, 1)

	a := e.RefreshBoard(s)
	b := e.RefreshBoard(s)
	assert.Equal(t, state.MustFingerprint(a), state.MustFingerprint(b))

	assert.Equal(t, "", a.Board.Active)
	assert.Equal(t, 1, a.Board.Generation)
	assert.Len(t, a.Board.Objectives, 3)
	for _, o := range a.Board.Objectives {
		assert.Equal(t, state.StatusOpen, o.Status)
		assert.Equal(t, 0.0, o.Progress)
	}

	assert.Equal(t, 2, e.RefreshBoard(a).Board.Generation)
}

func TestAbandon(t *testing.T) {
	e := newTestEngine(t)
	s := freshState(e)

	assert.Equal(t, ReasonNoActiveObjective, e.Abandon(s).Reason)

	id := s.Board.Objectives[0].ID
	s = mustApply(t, e.Activate(s, id))
	s = mustApply(t, e.Abandon(s))

	assert.Equal(t, "", s.Board.Active)
	assert.Equal(t, state.StatusExpired, s.Board.Objectives[0].Status)
	assert.Equal(t, 1, s.Stats.Expired)
	assert.Equal(t, ReasonNotOpen, e.Activate(s, id).Reason)
}
