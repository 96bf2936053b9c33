package domain

type ReservationStatus string

const (
	StatusApproved ReservationStatus = "APPROVED"
	StatusRejected ReservationStatus = "REJECTED"
)

// Outcome is the terminal signal sent back for every processed command.
type Outcome struct {
	SalesID string            `json:"salesId"`
	Status  ReservationStatus `json:"status"`
}

// ProcessingState tracks a command through the engine.
type ProcessingState string

const (
	StateReceived   ProcessingState = "received"
	StateValidating ProcessingState = "validating"
	StateApplying   ProcessingState = "applying"
	StateApproved   ProcessingState = "approved"
	StateRejected   ProcessingState = "rejected"
)

func (s ProcessingState) Terminal() bool {
	return s == StateApproved || s == StateRejected
}
