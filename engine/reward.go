package engine

import (
	"math"

	"assignsim/models"
)

// Reward shaping constants.
const (
	invalidActionReward = -10.0
	baseServeReward     = 2.0
	waitBonusDivisor    = 15.0
	waitBonusCap        = 6.0
	punctualityBase     = 4.0
	punctualityDivisor  = 5.0
)

// InvalidActionReward is the fixed penalty applied whenever decoding
// rejects a non-HOLD action. HOLD is never invalid and never penalized.
func InvalidActionReward() float64 {
	return invalidActionReward
}

// ValidReward computes the reward for assigning the given customer at
// the current simulation time:
//
//	2.0 base
//	+ min(wait/15, 6.0)                  bounded wait-time bonus
//	+ max(0, 4.0 - |now - appt.Time|/5)  punctuality bonus, if an
//	                                     appointment exists
//
// Customers without an appointment earn only the base and wait terms.
// Floating-point arithmetic throughout, no rounding.
func ValidReward(state *models.State, customer *models.Customer) float64 {
	reward := baseServeReward

	waitingTime := state.Now - customer.ArrivalTime
	reward += math.Min(waitingTime/waitBonusDivisor, waitBonusCap)

	if appt, ok := state.Appointments[customer.ID]; ok && appt != nil {
		delay := math.Abs(state.Now - appt.Time)
		reward += math.Max(0.0, punctualityBase-delay/punctualityDivisor)
	}
	return reward
}
