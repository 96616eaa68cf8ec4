// Package httpapi exposes the per-step decision interface to an
// external agent harness over HTTP. Every request carries a full state
// snapshot and is served by a fresh engine instance, so no state is
// shared across requests or harness instances.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"assignsim/engine"
	"assignsim/metrics"
	"assignsim/models"
	"assignsim/policy"
)

// customerJSON mirrors models.Customer on the wire.
type customerJSON struct {
	ID          int     `json:"id"`
	ArrivalTime float64 `json:"arrival_time"`
	Task        int     `json:"task"`
}

// appointmentJSON mirrors models.Appointment on the wire.
type appointmentJSON struct {
	CustomerID  int     `json:"customer_id"`
	Time        float64 `json:"time"`
	Task        int     `json:"task"`
	ServiceTime float64 `json:"service_time"`
}

// serverJSON mirrors models.Server; task keys arrive as JSON strings.
type serverJSON struct {
	ID             int                `json:"id"`
	AvgServiceTime map[string]float64 `json:"avg_service_time"`
}

// stepRequest is a full state snapshot plus, for /v1/step, the action
// chosen by the external agent. Action is decoded as a json.Number so a
// non-integral value becomes an invalid action instead of a fault.
type stepRequest struct {
	Now            float64           `json:"now"`
	SelectedServer int               `json:"selected_server"`
	Customers      []customerJSON    `json:"customers"`
	Appointments   []appointmentJSON `json:"appointments"`
	Servers        []serverJSON      `json:"servers"`
	Action         json.RawMessage   `json:"action"`
}

// stepResponse is the per-step surface: observation, mask, the action
// taken, the chosen customer (null when none), and the reward.
type stepResponse struct {
	Observation []int32 `json:"observation"`
	ActionMask  []bool  `json:"action_mask"`
	Action      *int    `json:"action,omitempty"`
	CustomerID  *int    `json:"customer_id"`
	Reward      float64 `json:"reward"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewRouter returns the decision API router. pol serves /v1/decide.
func NewRouter(pol policy.Policy) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics",
		promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	r.Post("/v1/observe", handleObserve)
	r.Post("/v1/step", handleStep)
	r.Post("/v1/decide", handleDecide(pol))

	return r
}

func handleObserve(w http.ResponseWriter, r *http.Request) {
	state, _, ok := decodeState(w, r)
	if !ok {
		return
	}

	eng := engine.New()
	obs := eng.Observe(state)
	writeJSON(w, http.StatusOK, stepResponse{
		Observation: obs,
		ActionMask:  eng.ActionMask(),
		CustomerID:  nil,
	})
}

func handleStep(w http.ResponseWriter, r *http.Request) {
	state, req, ok := decodeState(w, r)
	if !ok {
		return
	}

	// A malformed or non-integral action value is an invalid action,
	// never a fault: it decodes to no customer with the fixed penalty.
	action, integral := integralAction(req.Action)
	if !integral {
		action = -1
	}

	runStep(w, state, action)
}

func handleDecide(pol policy.Policy) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, _, ok := decodeState(w, r)
		if !ok {
			return
		}

		eng := engine.New()
		obs := eng.Observe(state)
		mask := eng.ActionMask()
		action := pol.SelectAction(mask, obs, state)
		finishStep(w, eng, state, obs, mask, action)
	}
}

func runStep(w http.ResponseWriter, state *models.State, action int) {
	eng := engine.New()
	obs := eng.Observe(state)
	finishStep(w, eng, state, obs, eng.ActionMask(), action)
}

// finishStep decodes the action against the engine's current slot table
// and shapes the reward.
func finishStep(w http.ResponseWriter, eng *engine.Engine, state *models.State,
	obs []int32, mask []bool, action int) {

	customer := eng.Decode(action, state)
	resp := stepResponse{
		Observation: obs,
		ActionMask:  mask,
		Action:      &action,
	}

	outcome := simOutcome(customer, action)
	switch outcome {
	case "served":
		id := customer.ID
		resp.CustomerID = &id
		resp.Reward = engine.ValidReward(state, customer)
	case "invalid":
		resp.Reward = engine.InvalidActionReward()
	}

	metrics.DecisionsTotal.WithLabelValues(outcome).Inc()
	metrics.RewardPerDecision.Observe(resp.Reward)
	metrics.CandidatesVisible.Observe(float64(eng.VisibleCount()))

	log.Debug().
		Int("action", action).
		Str("outcome", outcome).
		Float64("reward", resp.Reward).
		Msg("http decision step")

	writeJSON(w, http.StatusOK, resp)
}

func simOutcome(customer *models.Customer, action int) string {
	switch {
	case customer != nil:
		return "served"
	case action == engine.HoldAction:
		return "hold"
	default:
		return "invalid"
	}
}

// decodeState parses the request body into an engine state snapshot.
// Structural problems (bad JSON, unknown selected server, bad task key)
// are client errors; they concern the snapshot, not the action.
func decodeState(w http.ResponseWriter, r *http.Request) (*models.State, *stepRequest, bool) {
	var req stepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return nil, nil, false
	}

	state := &models.State{
		Waiting:      make(map[int]*models.Customer, len(req.Customers)),
		Appointments: make(map[int]*models.Appointment, len(req.Appointments)),
		Servers:      make(map[int]*models.Server, len(req.Servers)),
		Now:          req.Now,
	}

	for _, c := range req.Customers {
		state.Waiting[c.ID] = &models.Customer{ID: c.ID, ArrivalTime: c.ArrivalTime, Task: c.Task}
	}
	for _, a := range req.Appointments {
		state.Appointments[a.CustomerID] = &models.Appointment{
			CustomerID:  a.CustomerID,
			Time:        a.Time,
			Task:        a.Task,
			ServiceTime: a.ServiceTime,
		}
	}
	for _, s := range req.Servers {
		avg := make(map[int]float64, len(s.AvgServiceTime))
		for task, dur := range s.AvgServiceTime {
			taskID, err := strconv.Atoi(task)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid task key: " + task})
				return nil, nil, false
			}
			avg[taskID] = dur
		}
		state.Servers[s.ID] = &models.Server{ID: s.ID, AvgServiceTime: avg}
	}

	server, ok := state.Servers[req.SelectedServer]
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown selected server"})
		return nil, nil, false
	}
	state.SelectedServer = server

	return state, &req, true
}

// integralAction reports whether the JSON action value is an integral
// number and returns it. Absent values, non-number types, and
// non-integral numbers are all not integral.
func integralAction(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false
	}
	v, err := n.Int64()
	if err != nil {
		return 0, false
	}
	return int(v), true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
