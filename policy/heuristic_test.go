package policy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"assignsim/engine"
	"assignsim/models"
	"assignsim/policy"
)

func buildState(now float64, customers ...models.Customer) *models.State {
	server := &models.Server{ID: 1, AvgServiceTime: map[int]float64{1: 10.0}}
	state := &models.State{
		Waiting:        make(map[int]*models.Customer),
		Appointments:   make(map[int]*models.Appointment),
		Servers:        map[int]*models.Server{1: server},
		SelectedServer: server,
		Now:            now,
	}
	for i := range customers {
		c := customers[i]
		state.Waiting[c.ID] = &c
	}
	return state
}

// observeAll runs a real observation so mask and obs always agree.
func observeAll(state *models.State) ([]bool, []int32) {
	eng := engine.New()
	obs := eng.Observe(state)
	return eng.ActionMask(), obs
}

func TestHeuristicSelectAction(t *testing.T) {
	h := policy.Heuristic{}

	t.Run("EmptyMaskHolds", func(t *testing.T) {
		state := buildState(0.0)
		assert.Equal(t, engine.HoldAction, h.SelectAction(nil, nil, state))
	})

	t.Run("NoServiceActionsHolds", func(t *testing.T) {
		state := buildState(0.0)
		mask, obs := observeAll(state)
		assert.Equal(t, engine.HoldAction, h.SelectAction(mask, obs, state))
	})

	t.Run("AppointmentDominatesLongWait", func(t *testing.T) {
		// A: arrival 0, no appointment -> score 50.
		// B: arrival 10, appointment at now -> score 40 + 120 = 160.
		a := models.Customer{ID: 1, ArrivalTime: 0.0, Task: 1}
		b := models.Customer{ID: 2, ArrivalTime: 10.0, Task: 1}
		state := buildState(50.0, a, b)
		state.Appointments[b.ID] = &models.Appointment{CustomerID: b.ID, Time: 50.0, Task: 1}

		mask, obs := observeAll(state)
		action := h.SelectAction(mask, obs, state)
		assert.Equal(t, int32(b.ID), obs[action])
	})

	t.Run("EarlyAppointmentPenalized", func(t *testing.T) {
		// Both arrived at 0, now=10. B has an appointment at 100:
		// delta=90 -> no proximity bonus, and 100-10-30=60 early
		// margin -> penalty 120. A wins despite the equal wait.
		a := models.Customer{ID: 1, ArrivalTime: 0.0, Task: 1}
		b := models.Customer{ID: 2, ArrivalTime: 0.0, Task: 1}
		state := buildState(10.0, a, b)
		state.Appointments[b.ID] = &models.Appointment{CustomerID: b.ID, Time: 100.0, Task: 1}

		mask, obs := observeAll(state)
		action := h.SelectAction(mask, obs, state)
		assert.Equal(t, int32(a.ID), obs[action])
	})

	t.Run("TieBreaksOnLowerID", func(t *testing.T) {
		a := models.Customer{ID: 4, ArrivalTime: 0.0, Task: 1}
		b := models.Customer{ID: 9, ArrivalTime: 0.0, Task: 1}
		state := buildState(25.0, a, b)

		mask, obs := observeAll(state)
		action := h.SelectAction(mask, obs, state)
		assert.Equal(t, int32(4), obs[action])
	})

	t.Run("StaleCandidatesSkipped", func(t *testing.T) {
		a := models.Customer{ID: 1, ArrivalTime: 0.0, Task: 1}
		state := buildState(10.0, a)
		mask, obs := observeAll(state)

		// The customer leaves the waiting set after the observation.
		delete(state.Waiting, a.ID)
		assert.Equal(t, engine.HoldAction, h.SelectAction(mask, obs, state))
	})

	t.Run("NegativeIDsSkipped", func(t *testing.T) {
		state := buildState(10.0)
		mask := make([]bool, engine.ActionSpace)
		mask[0] = true
		mask[engine.HoldAction] = true
		obs := make([]int32, engine.MaxVisible)
		for i := range obs {
			obs[i] = engine.InvalidCustomerID
		}

		assert.Equal(t, engine.HoldAction, h.SelectAction(mask, obs, state))
	})

	t.Run("Deterministic", func(t *testing.T) {
		a := models.Customer{ID: 1, ArrivalTime: 3.0, Task: 1}
		b := models.Customer{ID: 2, ArrivalTime: 1.0, Task: 1}
		c := models.Customer{ID: 3, ArrivalTime: 2.0, Task: 1}
		state := buildState(30.0, a, b, c)
		mask, obs := observeAll(state)

		first := h.SelectAction(mask, obs, state)
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, h.SelectAction(mask, obs, state))
		}
	})
}
