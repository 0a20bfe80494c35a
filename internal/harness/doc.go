// Package harness runs simulation scenarios written in YAML.
//
// A scenario starts from a fresh run on a fake clock, shapes it with setup
// steps, drives it through a flow of actions and checks the resulting trace
// and final state.
//
// # Scenario Format
//
//	name: target_one_completion
//	description: "A target-1 objective completes on the first step"
//	catalog: ./catalog          # optional CUE directory
//	setup:
//	  - action: objective
//	    args: { id: tiny, protocol: http, target: 1, reward_credits: 500 }
//	  - action: set
//	    args: { stats.lifetime_output: 2990 }
//	flow:
//	  - action: activate
//	    args: { id: tiny }
//	    expect: { case: applied }
//	  - action: advance
//	    args: { seconds: 1, steps: 1 }
//	    expect:
//	      case: applied
//	      result: { completed: tiny }
//	assertions:
//	  - type: trace_count
//	    action: advance
//	    result: { ready: true }
//	    count: 1
//	  - type: final_state
//	    expect: { stats.completed: 1, board.active: "" }
//
// # Actions
//
// advance, reconcile, activate, abandon, refresh, upgrade, module, toggle,
// protocol, lane, perk, prestige and readings. Each traced step records its
// case ("applied" or "rejected") and a small result; a rejected step
// records its reason and leaves the run unchanged.
//
// # Assertion Types
//
//   - trace_contains: an event matches action, case, args and result
//   - trace_order: first occurrences of actions appear in order
//   - trace_count: exactly N events match
//   - final_state: dotted paths of the final run equal expected values
//
// Numbers compare by value, so 4 matches 4.0.
//
// # Golden Traces
//
// RunWithGolden compares the canonical JSON trace with
// testdata/golden/{name}.golden using goldie.
package harness
