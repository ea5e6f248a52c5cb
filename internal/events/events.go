// Package events carries appointment lifecycle notifications from the
// services to live subscribers (SSE streams, notification workers).
package events

import (
	"context"

	"github.com/google/uuid"

	"github.com/caretap/caretap_backend/internal/store"
)

// Type names the lifecycle change an event announces.
type Type string

const (
	TypeBooked    Type = "appointment.booked"
	TypeConfirmed Type = "appointment.confirmed"
	TypeCancelled Type = "appointment.cancelled"
	TypeStarted   Type = "appointment.started"
	TypeCompleted Type = "appointment.completed"
	TypeFeedback  Type = "appointment.feedback"
)

// Event is one lifecycle change of one appointment. The full record is
// embedded so subscribers never have to read back from the store.
type Event struct {
	Type        Type               `json:"type"`
	Appointment *store.Appointment `json:"appointment"`
}

// Recipients lists the users this event concerns: both parties of the
// appointment.
func (e Event) Recipients() []uuid.UUID {
	return []uuid.UUID{e.Appointment.PatientID, e.Appointment.DoctorID}
}

// Subscription is one live listener. Close it when the consumer goes
// away; the channel is closed afterwards.
type Subscription interface {
	C() <-chan Event
	Close() error
}

// Bus fans appointment events out to per-user subscriptions. Publish is
// best effort: delivery failures are logged by implementations, never
// surfaced to the caller's request path.
type Bus interface {
	Publish(ctx context.Context, e Event) error
	Subscribe(ctx context.Context, userID uuid.UUID) (Subscription, error)

	// SubscribeAll delivers every published event exactly once,
	// regardless of recipients. Used by notification workers.
	SubscribeAll(ctx context.Context) (Subscription, error)
}
