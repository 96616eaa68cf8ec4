package errors

import "fmt"

// ScenarioError wraps a specific error with context about where in the
// scenario file it occurred.
type ScenarioError struct {
	Line   int
	Record []string
	Err    error
}

func (e *ScenarioError) Error() string {
	return fmt.Sprintf("scenario error at line %d: %v (record: %v)", e.Line, e.Err, e.Record)
}

func (e *ScenarioError) Unwrap() error {
	return e.Err
}

// Define specific error types for better error handling
var (
	ErrInvalidFieldCount   = fmt.Errorf("invalid field count")
	ErrUnknownRecordKind   = fmt.Errorf("unknown record kind")
	ErrInvalidCustomerID   = fmt.Errorf("invalid customer id")
	ErrInvalidServerID     = fmt.Errorf("invalid server id")
	ErrInvalidArrivalTime  = fmt.Errorf("invalid arrival time")
	ErrInvalidTask         = fmt.Errorf("invalid task")
	ErrInvalidTime         = fmt.Errorf("invalid time")
	ErrInvalidServiceTime  = fmt.Errorf("invalid service time")
	ErrDuplicateCustomerID = fmt.Errorf("duplicate customer id")
	ErrDuplicateServerID   = fmt.Errorf("duplicate server id")
	ErrUnknownCustomer     = fmt.Errorf("appointment for unknown customer")
)
