package policy

import (
	"math"

	"assignsim/engine"
	"assignsim/models"
)

// Heuristic scores every legal service action and picks the best one,
// holding when no candidate can be scored. It needs no training and
// keeps no state between steps.
type Heuristic struct{}

// SelectAction returns the legal action with the highest score, or HOLD
// when the mask offers no legal service action or every candidate is
// stale. The score favors long waits and appointments close to now, and
// penalizes serving a future appointment too early.
func (Heuristic) SelectAction(mask []bool, obs []int32, state *models.State) int {
	if len(mask) == 0 {
		return engine.HoldAction
	}

	bestAction := engine.HoldAction
	bestScore := math.Inf(-1)

	for action := 0; action < len(mask) && action < engine.HoldAction; action++ {
		if !mask[action] || action >= len(obs) {
			continue
		}

		customerID := int(obs[action])
		if customerID < 0 {
			continue
		}
		customer, ok := state.Waiting[customerID]
		if !ok {
			continue
		}

		score := state.Now - customer.ArrivalTime

		// Strong priority for appointments close to current time.
		if appt, ok := state.Appointments[customerID]; ok && appt != nil {
			delta := math.Abs(state.Now - appt.Time)
			score += math.Max(0.0, 120.0-4.0*delta)

			// Penalize taking an appointment too early.
			if state.Now < appt.Time-30.0 {
				score -= (appt.Time - state.Now - 30.0) * 2.0
			}
		}

		// Small tie-breaker on lower customer id for reproducibility.
		score -= float64(customer.ID) * 1e-6

		if score > bestScore {
			bestScore = score
			bestAction = action
		}
	}

	return bestAction
}
