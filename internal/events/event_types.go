package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/campusdesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventRequestCreated       EventType = "request_created"
	EventRequestStatusChanged EventType = "request_status_changed"
	EventRequestResubmitted   EventType = "request_resubmitted"
	EventRequestUpdated       EventType = "request_updated"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	StudentID string `json:"student_id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	RequestID string    `json:"request_id"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// NewEvent stamps a fresh id on an event for requestID.
func NewEvent(eventType EventType, requestID string, actor Actor, at time.Time, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		RequestID: requestID,
		Actor:     actor,
		Timestamp: at,
		Payload:   payload,
	}
}

// RequestCreatedPayload payload.
type RequestCreatedPayload struct {
	Department   domain.Department `json:"department"`
	AIConfidence domain.Confidence `json:"ai_confidence"`
}

// RequestStatusChangedPayload payload.
type RequestStatusChangedPayload struct {
	OldStatus domain.RequestStatus `json:"old_status"`
	NewStatus domain.RequestStatus `json:"new_status"`
}

// RequestResubmittedPayload payload.
type RequestResubmittedPayload struct {
	OldStatus  domain.RequestStatus `json:"old_status"`
	Department domain.Department    `json:"department"`
}

// RequestUpdatedPayload payload for changes that keep the current status.
type RequestUpdatedPayload struct {
	Status domain.RequestStatus `json:"status"`
}

// LifecycleEvents lists every event that changes the request set.
var LifecycleEvents = []EventType{
	EventRequestCreated,
	EventRequestStatusChanged,
	EventRequestResubmitted,
	EventRequestUpdated,
}
