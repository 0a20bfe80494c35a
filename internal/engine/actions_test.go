package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/backpressure/internal/state"
)

func TestPurchaseUpgrade(t *testing.T) {
	e := newTestEngine(t)
	s := freshState(e)

	assert.Equal(t, ReasonUnknownUpgrade, e.PurchaseUpgrade(s, "nope").Reason)
	assert.Equal(t, ReasonInsufficientFunds, e.PurchaseUpgrade(s, "overclock").Reason)

	s.Resources.Credits = 25
	before := state.MustFingerprint(s)
	next := mustApply(t, e.PurchaseUpgrade(s, "overclock"))
	assert.Equal(t, before, state.MustFingerprint(s))
	assert.Equal(t, 1, next.Upgrades["overclock"])
	assert.Equal(t, 15.0, next.Resources.Credits)

	assert.Equal(t, ReasonInsufficientFunds, e.PurchaseUpgrade(next, "overclock").Reason, "level 2 costs 20")

	next.Upgrades["overclock"] = 3
	next.Resources.Credits = 1e6
	assert.Equal(t, ReasonMaxLevel, e.PurchaseUpgrade(next, "overclock").Reason)
}

func TestUpgradeModule(t *testing.T) {
	e := newTestEngine(t)
	s := freshState(e)

	assert.Equal(t, ReasonUnknownModule, e.UpgradeModule(s, "nope").Reason)
	assert.Equal(t, ReasonInsufficientFunds, e.UpgradeModule(s, "verify").Reason)

	s.Resources.Research = 30
	s = mustApply(t, e.UpgradeModule(s, "verify"))
	assert.Equal(t, 1, s.Modules["verify"])
	assert.Equal(t, 20.0, s.Resources.Research)

	s = mustApply(t, e.UpgradeModule(s, "verify"))
	assert.Equal(t, 2, s.Modules["verify"])
	assert.Equal(t, 0.0, s.Resources.Research)

	s.Modules["verify"] = 3
	s.Resources.Research = 1e6
	assert.Equal(t, ReasonMaxLevel, e.UpgradeModule(s, "verify").Reason)
}

func TestToggleModule(t *testing.T) {
	e := newTestEngine(t)
	s := freshState(e)

	assert.Equal(t, ReasonUnknownLane, e.ToggleModule(s, "lane-9", "verify").Reason)
	assert.Equal(t, ReasonUnknownModule, e.ToggleModule(s, "lane-1", "nope").Reason)
	assert.Equal(t, ReasonModuleLocked, e.ToggleModule(s, "lane-1", "verify").Reason)

	s.Modules["verify"] = 1
	on := mustApply(t, e.ToggleModule(s, "lane-1", "verify"))
	assert.True(t, on.Lanes[0].HasModule("verify"))
	assert.False(t, s.Lanes[0].HasModule("verify"), "input must not change")

	on.Modules["verify"] = 0
	off := mustApply(t, e.ToggleModule(on, "lane-1", "verify"))
	assert.False(t, off.Lanes[0].HasModule("verify"), "disabling a locked module is allowed")
}

func TestSwitchProtocol(t *testing.T) {
	e := newTestEngine(t)
	s := freshState(e)

	assert.Equal(t, ReasonUnknownProtocol, e.SwitchProtocol(s, "smtp").Reason)
	assert.Equal(t, ReasonSameProtocol, e.SwitchProtocol(s, "http").Reason)
	assert.Equal(t, ReasonInsufficientFunds, e.SwitchProtocol(s, "grpc").Reason)

	s.Resources.Credits = 100
	next := mustApply(t, e.SwitchProtocol(s, "grpc"))
	assert.Equal(t, "grpc", next.Protocol)
	assert.Equal(t, 50.0, next.Resources.Credits)
	assert.Equal(t, []string{"grpc", "http"}, next.ProtocolsUsed.IDs())
	assert.Equal(t, 1, s.ProtocolsUsed.Len(), "input must not change")

	back := mustApply(t, e.SwitchProtocol(next, "http"))
	assert.Equal(t, 2, back.ProtocolsUsed.Len())
}

func TestAddLane(t *testing.T) {
	e := newTestEngine(t)
	s := freshState(e)

	assert.Equal(t, 100.0, e.LaneCost(s))
	assert.Equal(t, ReasonInsufficientFunds, e.AddLane(s).Reason)

	s.Resources.Credits = 300
	s = mustApply(t, e.AddLane(s))
	require.Len(t, s.Lanes, 2)
	assert.Equal(t, "lane-2", s.Lanes[1].ID)
	assert.Equal(t, 200.0, s.Resources.Credits)
	assert.Equal(t, 200.0, e.LaneCost(s))

	s = mustApply(t, e.AddLane(s))
	assert.Len(t, s.Lanes, 3)
	assert.Equal(t, 0.0, s.Resources.Credits)

	s.Resources.Credits = 1e6
	assert.Equal(t, ReasonLaneLimit, e.AddLane(s).Reason)
}

func TestOutcome_Err(t *testing.T) {
	e := newTestEngine(t)
	s := freshState(e)

	assert.NoError(t, e.Abandon(mustApply(t, e.Activate(s, s.Board.Objectives[0].ID))).Err())

	err := e.Abandon(s).Err()
	require.Error(t, err)
	assert.True(t, IsRejected(err))
	assert.Contains(t, err.Error(), "no objective is active")

	wrapped := fmt.Errorf("abandon: %w", err)
	reason, ok := RejectionReason(wrapped)
	assert.True(t, ok)
	assert.Equal(t, ReasonNoActiveObjective, reason)

	_, ok = RejectionReason(fmt.Errorf("plain"))
	assert.False(t, ok)
}

func TestReason_Message(t *testing.T) {
	assert.Equal(t, "insufficient funds", ReasonInsufficientFunds.Message())
	assert.Equal(t, "custom", Reason("custom").Message())
}
