// Package sim replays a scenario as one simulated episode, running the
// assignment engine at every decision point. It owns the simulation
// clock and the waiting set; the engine only ever sees read-only
// per-step snapshots.
package sim

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"assignsim/engine"
	"assignsim/metrics"
	"assignsim/models"
	"assignsim/policy"
)

// Outcome labels for a single decision step.
const (
	OutcomeServed  = "served"
	OutcomeHold    = "hold"
	OutcomeInvalid = "invalid"
)

// DefaultMaxSteps bounds an episode when the policy never drains the queue.
const DefaultMaxSteps = 10_000

// StepRecord captures one decision step of an episode.
type StepRecord struct {
	Time       float64 `json:"time"`
	ServerID   int     `json:"server_id"`
	Action     int     `json:"action"`
	CustomerID int     `json:"customer_id"` // -1 when no customer was chosen
	Reward     float64 `json:"reward"`
	Outcome    string  `json:"outcome"`
	Visible    int     `json:"visible"`
}

// Result summarizes one episode run.
type Result struct {
	RunID       string       `json:"run_id"`
	Steps       []StepRecord `json:"steps"`
	TotalReward float64      `json:"total_reward"`
	Served      int          `json:"served"`
	Held        int          `json:"held"`
	Invalid     int          `json:"invalid"`
	Unserved    int          `json:"unserved"`
	EndTime     float64      `json:"end_time"`
}

// Runner drives episodes. Each Run uses its own engine instance, so a
// Runner may be reused but a single Run must not be shared across
// goroutines.
type Runner struct {
	Policy   policy.Policy
	MaxSteps int
}

// Run replays the scenario to completion and returns the episode
// result. It is deterministic given a scenario and a pure policy.
func (r *Runner) Run(scenario *models.Scenario) *Result {
	start := time.Now()
	maxSteps := r.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}

	result := &Result{RunID: uuid.NewString()}
	eng := engine.New()
	metrics.ResetEpisodeGauges()
	metrics.ScenarioCustomers.Observe(float64(len(scenario.Customers)))

	arrivals := make([]models.Customer, len(scenario.Customers))
	copy(arrivals, scenario.Customers)
	sort.Slice(arrivals, func(i, j int) bool {
		if arrivals[i].ArrivalTime != arrivals[j].ArrivalTime {
			return arrivals[i].ArrivalTime < arrivals[j].ArrivalTime
		}
		return arrivals[i].ID < arrivals[j].ID
	})

	serverIDs := make([]int, 0, len(scenario.Servers))
	for id := range scenario.Servers {
		serverIDs = append(serverIDs, id)
	}
	sort.Ints(serverIDs)

	waiting := make(map[int]*models.Customer)
	busyUntil := make(map[int]float64, len(serverIDs))

	now := 0.0
	next := 0
	if len(arrivals) > 0 {
		now = arrivals[0].ArrivalTime
	}

	log.Info().
		Str("run_id", result.RunID).
		Int("customers", len(arrivals)).
		Int("servers", len(serverIDs)).
		Msg("episode starting")

	for len(result.Steps) < maxSteps {
		// Admit every arrival up to the current time.
		for next < len(arrivals) && arrivals[next].ArrivalTime <= now {
			c := arrivals[next]
			waiting[c.ID] = &c
			next++
		}

		// Each idle server decides exactly once per event time; an
		// assignment makes the server busy, and its completion shows up
		// as a future event.
		r.decisionRound(eng, scenario, serverIDs, waiting, busyUntil, now, result)

		eventTime, ok := nextEventTime(arrivals, next, busyUntil, now)
		if !ok {
			break
		}
		now = eventTime
	}

	result.Unserved = len(waiting)
	result.EndTime = now
	metrics.EpisodeDurationSeconds.Observe(time.Since(start).Seconds())

	log.Info().
		Str("run_id", result.RunID).
		Int("served", result.Served).
		Int("held", result.Held).
		Int("invalid", result.Invalid).
		Int("unserved", result.Unserved).
		Float64("total_reward", result.TotalReward).
		Float64("end_time", result.EndTime).
		Msg("episode finished")

	return result
}

// decisionRound runs one decision step for every idle server at the
// current time.
func (r *Runner) decisionRound(eng *engine.Engine, scenario *models.Scenario, serverIDs []int,
	waiting map[int]*models.Customer, busyUntil map[int]float64, now float64, result *Result) {

	for _, id := range serverIDs {
		if busyUntil[id] > now {
			continue
		}
		if len(waiting) == 0 {
			break
		}

		server := scenario.Servers[id]
		state := &models.State{
			Waiting:        waiting,
			Appointments:   scenario.Appointments,
			Servers:        scenario.Servers,
			SelectedServer: server,
			Now:            now,
		}

		stepStart := time.Now()
		obs := eng.Observe(state)
		mask := eng.ActionMask()
		action := r.Policy.SelectAction(mask, obs, state)
		customer := eng.Decode(action, state)

		step := StepRecord{
			Time:       now,
			ServerID:   id,
			Action:     action,
			CustomerID: engine.InvalidCustomerID,
			Visible:    eng.VisibleCount(),
		}

		switch {
		case customer != nil:
			step.Reward = engine.ValidReward(state, customer)
			step.CustomerID = customer.ID
			step.Outcome = OutcomeServed
			delete(waiting, customer.ID)
			busyUntil[id] = now + server.AvgServiceTime[customer.Task]
			if _, ok := scenario.Appointments[customer.ID]; ok {
				metrics.AppointmentsServed.Inc()
			}
		case action == engine.HoldAction:
			step.Outcome = OutcomeHold
		default:
			step.Reward = engine.InvalidActionReward()
			step.Outcome = OutcomeInvalid
		}

		result.Steps = append(result.Steps, step)
		result.TotalReward += step.Reward
		switch step.Outcome {
		case OutcomeServed:
			result.Served++
		case OutcomeHold:
			result.Held++
		case OutcomeInvalid:
			result.Invalid++
		}

		metrics.DecisionsTotal.WithLabelValues(step.Outcome).Inc()
		metrics.RewardPerDecision.Observe(step.Reward)
		metrics.CandidatesVisible.Observe(float64(step.Visible))
		metrics.WaitingAtDecision.Observe(float64(len(waiting)))
		metrics.DecisionDurationSeconds.Observe(time.Since(stepStart).Seconds())
		metrics.EpisodeRewardTotal.Set(result.TotalReward)

		log.Debug().
			Str("run_id", result.RunID).
			Float64("time", now).
			Int("server_id", id).
			Int("action", action).
			Int("customer_id", step.CustomerID).
			Str("outcome", step.Outcome).
			Float64("reward", step.Reward).
			Msg("decision step")
	}
}

// nextEventTime returns the earliest future event: the next arrival or
// the next server completion. ok is false when no event remains.
func nextEventTime(arrivals []models.Customer, next int, busyUntil map[int]float64, now float64) (float64, bool) {
	t := math.Inf(1)
	if next < len(arrivals) {
		t = arrivals[next].ArrivalTime
	}
	for _, until := range busyUntil {
		if until > now && until < t {
			t = until
		}
	}
	if math.IsInf(t, 1) {
		return 0, false
	}
	return t, true
}
