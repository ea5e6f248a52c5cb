package notify

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/caretap/caretap_backend/internal/events"
	"github.com/caretap/caretap_backend/internal/store"
)

func TestCompose_RecipientPerEvent(t *testing.T) {
	patient := uuid.New()
	doctor := uuid.New()
	a := &store.Appointment{
		ID:          uuid.New(),
		PatientID:   patient,
		DoctorID:    doctor,
		PatientName: "Sara Ahmadi",
		DoctorName:  "Karimi",
		Date:        "2026-09-01",
		Time:        "09:00",
	}

	n := New(nil, nil, nil, "")

	tests := []struct {
		typ  events.Type
		want uuid.UUID
	}{
		{events.TypeBooked, doctor},
		{events.TypeConfirmed, patient},
		{events.TypeCancelled, patient},
		{events.TypeCompleted, patient},
		{events.TypeStarted, uuid.Nil},  // no notice for starting a visit
		{events.TypeFeedback, uuid.Nil}, // nor for feedback
	}
	for _, tt := range tests {
		subject, _, recipient := n.compose(events.Event{Type: tt.typ, Appointment: a})
		if recipient != tt.want {
			t.Errorf("%s recipient = %s, want %s", tt.typ, recipient, tt.want)
		}
		if tt.want != uuid.Nil && subject == "" {
			t.Errorf("%s has empty subject", tt.typ)
		}
	}
}

// Handle with disabled channels must not touch the store beyond the
// recipient lookup and must never panic.
func TestHandle_NoChannelsConfigured(t *testing.T) {
	n := New(nil, nil, nil, "")
	n.Handle(context.Background(), events.Event{Type: events.TypeStarted, Appointment: &store.Appointment{}})
	n.Handle(context.Background(), events.Event{Type: events.TypeBooked})
}
