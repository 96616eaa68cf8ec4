package models

// Customer is a waiting customer as seen by the decision engine.
// It is owned by the simulation and immutable once created.
type Customer struct {
	ID          int
	ArrivalTime float64
	Task        int
}

// Appointment associates a customer with a scheduled target time.
// At most one appointment exists per customer id.
type Appointment struct {
	CustomerID  int
	Time        float64
	Task        int
	ServiceTime float64
}

// Server maps task ids to average service times. A value of zero or
// less, or a missing task key, means the server cannot serve that task.
type Server struct {
	ID             int
	AvgServiceTime map[int]float64
}

// CanServe reports whether the server is capable of performing the task.
func (s *Server) CanServe(task int) bool {
	return s != nil && s.AvgServiceTime[task] > 0
}

// State is the read-only per-step view of the simulation that the
// engine consumes. The engine never mutates it.
type State struct {
	// Waiting maps customer id to the waiting customer.
	Waiting map[int]*Customer
	// Appointments maps customer id to its appointment, if any.
	Appointments map[int]*Appointment
	// Servers maps server id to server.
	Servers map[int]*Server
	// SelectedServer is the server the current decision applies to.
	SelectedServer *Server
	// Now is the current simulation time.
	Now float64
}

// Scenario is a parsed scenario file: the full population of customers,
// appointments and servers an episode replays.
type Scenario struct {
	Customers    []Customer
	Appointments map[int]*Appointment
	Servers      map[int]*Server
}
