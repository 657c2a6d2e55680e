package domain

type Status string

const (
	StatusReceived       Status = "RECEIVED"
	StatusPaid           Status = "PAID"
	StatusPreparing      Status = "PREPARING"
	StatusReadyForPickup Status = "READY_FOR_PICKUP"
)

// statusRank orders the fixed status chain. An order may only move to a
// status with a strictly higher rank; regression is never permitted.
var statusRank = map[Status]int{
	StatusReceived:       0,
	StatusPaid:           1,
	StatusPreparing:      2,
	StatusReadyForPickup: 3,
}

// Valid reports whether s is one of the fixed enumeration values.
func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// ExecutionStatus is the lifecycle state of a workflow execution.
type ExecutionStatus string

const (
	ExecutionRunning   ExecutionStatus = "RUNNING"
	ExecutionSuspended ExecutionStatus = "SUSPENDED"
	ExecutionCompleted ExecutionStatus = "COMPLETED"
	ExecutionFailed    ExecutionStatus = "FAILED"
	ExecutionTimedOut  ExecutionStatus = "TIMED_OUT"
)

// Terminal reports whether the execution can never mutate again.
func (s ExecutionStatus) Terminal() bool {
	switch s {
	case ExecutionCompleted, ExecutionFailed, ExecutionTimedOut:
		return true
	}
	return false
}
