// Package policy defines the decision-maker abstraction and a
// training-free heuristic implementation. A policy picks one action per
// step from the action mask, the observation vector, and the live
// simulation state; the engine applies it without knowing which policy
// produced it.
package policy

import "assignsim/models"

// Policy chooses an action for one decision step. Implementations must
// be pure functions of their inputs so runs stay reproducible.
type Policy interface {
	SelectAction(mask []bool, obs []int32, state *models.State) int
}
