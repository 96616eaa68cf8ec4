// Package engine implements the assignment decision engine: candidate
// selection, fixed-width observation encoding, action masking, and
// action decoding against the latest observation snapshot.
package engine

import (
	"sort"

	"assignsim/models"
)

const (
	// MaxVisible is the number of customer slots in the observation
	// and the fixed width of the observation vector.
	MaxVisible = 20
	// HoldAction is the reserved action meaning "assign no one".
	HoldAction = MaxVisible
	// ActionSpace is the total number of discrete actions.
	ActionSpace = MaxVisible + 1
	// InvalidCustomerID is the sentinel filling empty observation slots.
	InvalidCustomerID = -1
	// MaxCustomerID bounds the id range the observation can carry.
	// A larger id space requires widening this bound.
	MaxCustomerID = 10_000
)

// Engine holds the visible-slot table bridging encode and decode within
// a single decision step. One Engine serves one simulation instance;
// steps must not interleave. The table is written once per Observe and
// read by Decode/ActionMask until the next Observe.
type Engine struct {
	visible []int
}

// New returns an engine with an empty slot table.
func New() *Engine {
	return &Engine{visible: make([]int, 0, MaxVisible)}
}

// Candidates returns the waiting customers the selected server is
// capable of serving, ordered ascending by arrival time with ties
// broken by ascending id. The ordering is a correctness requirement:
// it keeps observations and rewards reproducible across runs.
func Candidates(state *models.State) []models.Customer {
	candidates := make([]models.Customer, 0, len(state.Waiting))
	for _, c := range state.Waiting {
		if state.SelectedServer.CanServe(c.Task) {
			candidates = append(candidates, *c)
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].ArrivalTime != candidates[j].ArrivalTime {
			return candidates[i].ArrivalTime < candidates[j].ArrivalTime
		}
		return candidates[i].ID < candidates[j].ID
	})
	return candidates
}

// Observe rebuilds the visible-slot table from the current state and
// returns the fixed-width observation vector: candidate ids in order,
// right-padded with InvalidCustomerID. Total over any candidate count;
// lists longer than MaxVisible are truncated, never an error.
func (e *Engine) Observe(state *models.State) []int32 {
	candidates := Candidates(state)
	if len(candidates) > MaxVisible {
		candidates = candidates[:MaxVisible]
	}

	e.visible = e.visible[:0]
	for _, c := range candidates {
		e.visible = append(e.visible, c.ID)
	}

	obs := make([]int32, MaxVisible)
	for i := range obs {
		if i < len(e.visible) {
			obs[i] = int32(e.visible[i])
		} else {
			obs[i] = InvalidCustomerID
		}
	}
	return obs
}

// VisibleCount returns the number of populated slots in the current
// observation.
func (e *Engine) VisibleCount() int {
	return len(e.visible)
}

// ActionMask reports which of the ActionSpace actions are currently
// legal. It is derived purely from the slot table's populated length:
// slots below the populated count are legal, and HOLD always is.
func (e *Engine) ActionMask() []bool {
	mask := make([]bool, ActionSpace)
	for i := 0; i < len(e.visible) && i < MaxVisible; i++ {
		mask[i] = true
	}
	mask[HoldAction] = true
	return mask
}

// Decode maps an action back to the customer it selects, or nil when
// the action is HOLD or invalid. An action is invalid when it is
// negative, outside the slot range, beyond the populated slots, refers
// to a customer no longer waiting, or the selected server can no longer
// serve the customer's task. Decode never mutates state; invalid input
// yields nil rather than an error.
func (e *Engine) Decode(action int, state *models.State) *models.Customer {
	if action == HoldAction {
		return nil
	}
	if action < 0 || action >= MaxVisible {
		return nil
	}
	if action >= len(e.visible) {
		return nil
	}

	customer, ok := state.Waiting[e.visible[action]]
	if !ok {
		return nil
	}

	// The waiting set or selected server may have advanced between
	// encode and decode; compatibility must still hold now.
	if !state.SelectedServer.CanServe(customer.Task) {
		return nil
	}
	return customer
}
