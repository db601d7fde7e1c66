package events

import "time"

// Event types published on the bus. The NATS subject is "<stream prefix>.<type>".
const (
	RefundCreated       = "REFUND_CREATED"
	RefundTransitioned  = "REFUND_TRANSITIONED"
	RefundApproved      = "REFUND_APPROVED"
	RefundRejected      = "REFUND_REJECTED"
	RefundCompleted     = "REFUND_COMPLETED"
	RefundFailed        = "REFUND_FAILED"
	RefundCancelled     = "REFUND_CANCELLED"
	RefundAnnotated     = "REFUND_ANNOTATED"
	ProductionAdvanced  = "PRODUCTION_ADVANCED"
	ProductionScheduled = "PRODUCTION_SCHEDULED"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "REFUND_APPROVED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}
