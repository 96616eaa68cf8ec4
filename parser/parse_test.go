package parser_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	customerrors "assignsim/errors"
	"assignsim/models"
	"assignsim/parser"
)

func TestParse(t *testing.T) {
	tests := map[string]struct {
		input         string
		expected      *models.Scenario
		expectedError error
	}{
		"ValidScenario": {
			input: `
# kind, fields...
server, 1, 1=10;2=5
customer, 101, 0.0, 1
customer, 102, 5.5, 2
appointment, 102, 30.0, 2, 5.0
`,
			expected: &models.Scenario{
				Customers: []models.Customer{
					{ID: 101, ArrivalTime: 0.0, Task: 1},
					{ID: 102, ArrivalTime: 5.5, Task: 2},
				},
				Appointments: map[int]*models.Appointment{
					102: {CustomerID: 102, Time: 30.0, Task: 2, ServiceTime: 5.0},
				},
				Servers: map[int]*models.Server{
					1: {ID: 1, AvgServiceTime: map[int]float64{1: 10.0, 2: 5.0}},
				},
			},
		},
		"ServerWithNoCapabilities": {
			input: `server, 3, 1=0`,
			expected: &models.Scenario{
				Appointments: map[int]*models.Appointment{},
				Servers: map[int]*models.Server{
					3: {ID: 3, AvgServiceTime: map[int]float64{1: 0.0}},
				},
			},
		},
		"UnknownRecordKind": {
			input:         `widget, 1, 2`,
			expectedError: customerrors.ErrUnknownRecordKind,
		},
		"CustomerFieldCount": {
			input:         `customer, 101, 0.0`,
			expectedError: customerrors.ErrInvalidFieldCount,
		},
		"BadArrivalTime": {
			input:         `customer, 101, soon, 1`,
			expectedError: customerrors.ErrInvalidArrivalTime,
		},
		"DuplicateCustomer": {
			input: `
customer, 101, 0.0, 1
customer, 101, 2.0, 1
`,
			expectedError: customerrors.ErrDuplicateCustomerID,
		},
		"DuplicateServer": {
			input: `
server, 1, 1=10
server, 1, 2=5
`,
			expectedError: customerrors.ErrDuplicateServerID,
		},
		"AppointmentForUnknownCustomer": {
			input:         `appointment, 999, 30.0, 1, 5.0`,
			expectedError: customerrors.ErrUnknownCustomer,
		},
		"BadServiceTimePair": {
			input:         `server, 1, 1:10`,
			expectedError: customerrors.ErrInvalidServiceTime,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := parser.Parse(strings.NewReader(strings.TrimSpace(tt.input)))

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.True(t, errors.Is(err, tt.expectedError),
					"Parse() error = %v, expected %v", err, tt.expectedError)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseErrorContext(t *testing.T) {
	input := strings.TrimSpace(`
# header
customer, 101, 0.0, 1
customer, oops, 0.0, 1
`)
	_, err := parser.Parse(strings.NewReader(input))
	assert.Error(t, err)

	var scErr *customerrors.ScenarioError
	assert.True(t, errors.As(err, &scErr))
	assert.Equal(t, 3, scErr.Line)
	assert.Contains(t, scErr.Error(), "line 3")
}
