package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"assignsim/errors"
	"assignsim/models"
)

// Parse reads a scenario from CSV data. Lines starting with '#' are
// headers/comments. Each record begins with a kind field:
//
//	server,<id>,<task=avg;task=avg;...>
//	customer,<id>,<arrival_time>,<task>
//	appointment,<customer_id>,<time>,<task>,<service_time>
//
// Service-time pairs with a value of zero or less mark tasks the server
// cannot serve; omitting a task entirely means the same thing.
// Appointments must reference an already declared customer.
func Parse(r io.Reader) (*models.Scenario, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	scenario := &models.Scenario{
		Appointments: make(map[int]*models.Appointment),
		Servers:      make(map[int]*models.Server),
	}
	seenCustomers := make(map[int]bool)
	lineNum := 0

	for {
		record, err := reader.Read()
		lineNum++
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV at line %d: %w", lineNum, err)
		}

		if len(record) == 0 || strings.HasPrefix(record[0], "#") {
			continue
		}

		kind := strings.ToLower(strings.TrimSpace(record[0]))
		switch kind {
		case "server":
			server, err := parseServer(record)
			if err != nil {
				return nil, &errors.ScenarioError{Line: lineNum, Record: record, Err: err}
			}
			if _, exists := scenario.Servers[server.ID]; exists {
				return nil, &errors.ScenarioError{Line: lineNum, Record: record, Err: errors.ErrDuplicateServerID}
			}
			scenario.Servers[server.ID] = server

		case "customer":
			customer, err := parseCustomer(record)
			if err != nil {
				return nil, &errors.ScenarioError{Line: lineNum, Record: record, Err: err}
			}
			if seenCustomers[customer.ID] {
				return nil, &errors.ScenarioError{Line: lineNum, Record: record, Err: errors.ErrDuplicateCustomerID}
			}
			seenCustomers[customer.ID] = true
			scenario.Customers = append(scenario.Customers, customer)

		case "appointment":
			appt, err := parseAppointment(record)
			if err != nil {
				return nil, &errors.ScenarioError{Line: lineNum, Record: record, Err: err}
			}
			if !seenCustomers[appt.CustomerID] {
				return nil, &errors.ScenarioError{Line: lineNum, Record: record, Err: errors.ErrUnknownCustomer}
			}
			scenario.Appointments[appt.CustomerID] = appt

		default:
			return nil, &errors.ScenarioError{Line: lineNum, Record: record, Err: errors.ErrUnknownRecordKind}
		}
	}

	return scenario, nil
}

func parseServer(record []string) (*models.Server, error) {
	if len(record) != 3 {
		return nil, errors.ErrInvalidFieldCount
	}

	id, err := strconv.Atoi(strings.TrimSpace(record[1]))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidServerID, err)
	}

	avg, err := parseServiceTimes(strings.TrimSpace(record[2]))
	if err != nil {
		return nil, err
	}
	return &models.Server{ID: id, AvgServiceTime: avg}, nil
}

// parseServiceTimes parses "task=avg" pairs separated by ';'.
func parseServiceTimes(value string) (map[int]float64, error) {
	avg := make(map[int]float64)
	if value == "" {
		return avg, nil
	}

	for _, pair := range strings.Split(value, ";") {
		task, dur, found := strings.Cut(strings.TrimSpace(pair), "=")
		if !found {
			return nil, fmt.Errorf("%w: missing '=' in %q", errors.ErrInvalidServiceTime, pair)
		}
		taskID, err := strconv.Atoi(strings.TrimSpace(task))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrInvalidTask, err)
		}
		d, err := strconv.ParseFloat(strings.TrimSpace(dur), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrInvalidServiceTime, err)
		}
		avg[taskID] = d
	}
	return avg, nil
}

func parseCustomer(record []string) (models.Customer, error) {
	if len(record) != 4 {
		return models.Customer{}, errors.ErrInvalidFieldCount
	}

	id, err := strconv.Atoi(strings.TrimSpace(record[1]))
	if err != nil {
		return models.Customer{}, fmt.Errorf("%w: %v", errors.ErrInvalidCustomerID, err)
	}

	arrival, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
	if err != nil {
		return models.Customer{}, fmt.Errorf("%w: %v", errors.ErrInvalidArrivalTime, err)
	}

	task, err := strconv.Atoi(strings.TrimSpace(record[3]))
	if err != nil {
		return models.Customer{}, fmt.Errorf("%w: %v", errors.ErrInvalidTask, err)
	}

	return models.Customer{ID: id, ArrivalTime: arrival, Task: task}, nil
}

func parseAppointment(record []string) (*models.Appointment, error) {
	if len(record) != 5 {
		return nil, errors.ErrInvalidFieldCount
	}

	customerID, err := strconv.Atoi(strings.TrimSpace(record[1]))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidCustomerID, err)
	}

	at, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidTime, err)
	}

	task, err := strconv.Atoi(strings.TrimSpace(record[3]))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidTask, err)
	}

	serviceTime, err := strconv.ParseFloat(strings.TrimSpace(record[4]), 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidServiceTime, err)
	}

	return &models.Appointment{
		CustomerID:  customerID,
		Time:        at,
		Task:        task,
		ServiceTime: serviceTime,
	}, nil
}
