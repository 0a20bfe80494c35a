package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/backpressure/internal/state"
)

// Reason enumerates why an action was rejected.
type Reason string

const (
	// ReasonUnknownObjective indicates the objective id is not on the board.
	ReasonUnknownObjective Reason = "unknown_objective"

	// ReasonNotOpen indicates the objective is active, completed or expired.
	ReasonNotOpen Reason = "not_open"

	// ReasonAlreadyProgressed indicates the objective has nonzero progress.
	ReasonAlreadyProgressed Reason = "already_progressed"

	// ReasonObjectiveActive indicates another objective is already active.
	ReasonObjectiveActive Reason = "objective_active"

	// ReasonNoActiveObjective indicates there is nothing to abandon.
	ReasonNoActiveObjective Reason = "no_active_objective"

	ReasonUnknownPerk     Reason = "unknown_perk"
	ReasonUnknownUpgrade  Reason = "unknown_upgrade"
	ReasonUnknownModule   Reason = "unknown_module"
	ReasonUnknownLane     Reason = "unknown_lane"
	ReasonUnknownProtocol Reason = "unknown_protocol"

	// ReasonMaxLevel indicates the perk, upgrade or module is at max level.
	ReasonMaxLevel Reason = "max_level"

	// ReasonInsufficientFunds indicates the balance is below the cost.
	ReasonInsufficientFunds Reason = "insufficient_funds"

	// ReasonModuleLocked indicates a module with level 0 cannot be enabled.
	ReasonModuleLocked Reason = "module_locked"

	// ReasonSameProtocol indicates the protocol is already active.
	ReasonSameProtocol Reason = "same_protocol"

	// ReasonLaneLimit indicates the run already has the maximum lane count.
	ReasonLaneLimit Reason = "lane_limit"

	// ReasonNotReady indicates lifetime output is below the prestige threshold.
	ReasonNotReady Reason = "not_ready"
)

var reasonMessages = map[Reason]string{
	ReasonUnknownObjective:  "no such objective on the board",
	ReasonNotOpen:           "objective is not open",
	ReasonAlreadyProgressed: "objective already has progress",
	ReasonObjectiveActive:   "another objective is already active",
	ReasonNoActiveObjective: "no objective is active",
	ReasonUnknownPerk:       "no such perk",
	ReasonUnknownUpgrade:    "no such upgrade",
	ReasonUnknownModule:     "no such module",
	ReasonUnknownLane:       "no such lane",
	ReasonUnknownProtocol:   "no such protocol",
	ReasonMaxLevel:          "already at max level",
	ReasonInsufficientFunds: "insufficient funds",
	ReasonModuleLocked:      "module is locked",
	ReasonSameProtocol:      "protocol is already active",
	ReasonLaneLimit:         "lane limit reached",
	ReasonNotReady:          "run is not ready to prestige",
}

// Message returns a human-readable description of the reason.
func (r Reason) Message() string {
	if msg, ok := reasonMessages[r]; ok {
		return msg
	}
	return string(r)
}

// Outcome is the result of an action that may be rejected.
//
// Exactly one of State and Reason is set. A rejected Outcome carries no
// partial effects; the caller keeps its previous state.
type Outcome struct {
	State  *state.State
	Reason Reason
}

// OK reports whether the action was applied.
func (o Outcome) OK() bool {
	return o.Reason == "" && o.State != nil
}

// Err returns a *RejectedError for a rejected outcome, or nil.
func (o Outcome) Err() error {
	if o.OK() {
		return nil
	}
	return &RejectedError{Reason: o.Reason}
}

func applied(s *state.State) Outcome {
	return Outcome{State: s}
}

func rejected(r Reason) Outcome {
	return Outcome{Reason: r}
}

// RejectedError wraps a rejection Reason for callers that propagate errors.
type RejectedError struct {
	Reason Reason
	Detail string
}

// Error implements the error interface.
func (e *RejectedError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Reason, e.Reason.Message(), e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Reason.Message())
}

// IsRejected returns true if err is a RejectedError.
// Uses errors.As to handle wrapped errors.
func IsRejected(err error) bool {
	var re *RejectedError
	return errors.As(err, &re)
}

// RejectionReason extracts the Reason from a wrapped RejectedError.
func RejectionReason(err error) (Reason, bool) {
	var re *RejectedError
	if errors.As(err, &re) {
		return re.Reason, true
	}
	return "", false
}
