// Package appointment implements the booking rules, the status state
// machine and the prescription/feedback gates around the appointment
// record.
package appointment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/caretap/caretap_backend/internal/events"
	"github.com/caretap/caretap_backend/internal/store"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type BookRequest struct {
	PatientID uuid.UUID
	DoctorID  uuid.UUID
	Date      string // "2006-01-02"
	Time      string // clinic slot
	Note      string
}

type ListRequest struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Status    *store.Status
	Date      *string
}

type PrescriptionRequest struct {
	Medicine     string
	Dosage       string
	Frequency    string
	Instructions string
}

type FeedbackRequest struct {
	RequesterID uuid.UUID
	Rating      int
	Comment     string
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	Book(ctx context.Context, req BookRequest) (*store.Appointment, error)
	List(ctx context.Context, req ListRequest) ([]*store.Appointment, error)
	GetByID(ctx context.Context, requesterID, apptID uuid.UUID) (*store.Appointment, error)

	// Transitions, assigned doctor only.
	Accept(ctx context.Context, doctorID, apptID uuid.UUID) (*store.Appointment, error)
	Decline(ctx context.Context, doctorID, apptID uuid.UUID) (*store.Appointment, error)
	Start(ctx context.Context, doctorID, apptID uuid.UUID) (*store.Appointment, error)
	Complete(ctx context.Context, doctorID, apptID uuid.UUID, rx PrescriptionRequest) (*store.Appointment, error)

	// ViewPrescription returns (nil, nil) while the prescription is not
	// yet visible; absence is a normal state, not a fault.
	ViewPrescription(ctx context.Context, requesterID, apptID uuid.UUID) (*store.Prescription, error)

	SubmitFeedback(ctx context.Context, apptID uuid.UUID, req FeedbackRequest) (*store.Appointment, error)

	// Watch streams lifecycle events for appointments the user is a
	// party to. Close the subscription when the consumer goes away.
	Watch(ctx context.Context, userID uuid.UUID) (events.Subscription, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type appointmentService struct {
	db        store.Store
	bus       events.Bus
	maxPerDay int
	now       func() time.Time
}

func New(db store.Store, bus events.Bus, maxPerDay int) Service {
	return &appointmentService{db: db, bus: bus, maxPerDay: maxPerDay, now: time.Now}
}

func (s *appointmentService) Book(ctx context.Context, req BookRequest) (*store.Appointment, error) {
	doctor, err := s.db.GetUser(ctx, req.DoctorID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUnknownDoctor
		}
		return nil, fmt.Errorf("look up doctor: %w", err)
	}
	if doctor.Role != store.RoleDoctor {
		return nil, ErrUnknownDoctor
	}

	if _, err := time.Parse(store.DateLayout, req.Date); err != nil {
		return nil, ErrPastDate
	}
	if req.Date < s.now().Format(store.DateLayout) {
		return nil, ErrPastDate
	}

	if !store.ValidSlot(req.Time) {
		return nil, ErrInvalidSlot
	}

	patient, err := s.db.GetUser(ctx, req.PatientID)
	if err != nil {
		return nil, fmt.Errorf("look up patient: %w", err)
	}

	a := &store.Appointment{
		PatientID:   req.PatientID,
		DoctorID:    req.DoctorID,
		PatientName: patient.Name,
		DoctorName:  doctor.Name,
		Date:        req.Date,
		Time:        req.Time,
		Note:        req.Note,
		Status:      store.StatusPending,
		CreatedAt:   s.now(),
	}

	if err := s.db.InsertAppointment(ctx, a, s.maxPerDay); err != nil {
		if errors.Is(err, store.ErrDailyCapExceeded) {
			return nil, ErrDailyLimitExceeded
		}
		return nil, fmt.Errorf("insert appointment: %w", err)
	}

	s.publish(ctx, events.TypeBooked, a)
	return a, nil
}

func (s *appointmentService) List(ctx context.Context, req ListRequest) ([]*store.Appointment, error) {
	appts, err := s.db.ListAppointments(ctx, store.Filter{
		PatientID: req.PatientID,
		DoctorID:  req.DoctorID,
		Status:    req.Status,
		Date:      req.Date,
	})
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appts, nil
}

func (s *appointmentService) GetByID(ctx context.Context, requesterID, apptID uuid.UUID) (*store.Appointment, error) {
	a, err := s.load(ctx, apptID)
	if err != nil {
		return nil, err
	}
	if requesterID != a.PatientID && requesterID != a.DoctorID {
		return nil, ErrNotAllowed
	}
	return a, nil
}

func (s *appointmentService) Accept(ctx context.Context, doctorID, apptID uuid.UUID) (*store.Appointment, error) {
	return s.transition(ctx, doctorID, apptID, store.StatusPending, store.StatusConfirmed, events.TypeConfirmed)
}

func (s *appointmentService) Decline(ctx context.Context, doctorID, apptID uuid.UUID) (*store.Appointment, error) {
	return s.transition(ctx, doctorID, apptID, store.StatusPending, store.StatusCancelled, events.TypeCancelled)
}

func (s *appointmentService) Start(ctx context.Context, doctorID, apptID uuid.UUID) (*store.Appointment, error) {
	return s.transition(ctx, doctorID, apptID, store.StatusConfirmed, store.StatusInProgress, events.TypeStarted)
}

func (s *appointmentService) transition(ctx context.Context, doctorID, apptID uuid.UUID, from, to store.Status, ev events.Type) (*store.Appointment, error) {
	a, err := s.load(ctx, apptID)
	if err != nil {
		return nil, err
	}
	if a.DoctorID != doctorID {
		return nil, ErrNotAllowed
	}

	updated, err := s.db.TransitionStatus(ctx, apptID, from, to)
	if err != nil {
		return nil, s.mapConflict(ctx, apptID, to, err)
	}

	s.publish(ctx, ev, updated)
	return updated, nil
}

func (s *appointmentService) Complete(ctx context.Context, doctorID, apptID uuid.UUID, rx PrescriptionRequest) (*store.Appointment, error) {
	a, err := s.load(ctx, apptID)
	if err != nil {
		return nil, err
	}
	if a.DoctorID != doctorID {
		return nil, ErrNotAllowed
	}
	if rx.Medicine == "" {
		return nil, ErrMissingMedicine
	}

	updated, err := s.db.CompleteWithPrescription(ctx, apptID, store.Prescription{
		Medicine:     rx.Medicine,
		Dosage:       rx.Dosage,
		Frequency:    rx.Frequency,
		Instructions: rx.Instructions,
	})
	if err != nil {
		return nil, s.mapConflict(ctx, apptID, store.StatusCompleted, err)
	}

	s.publish(ctx, events.TypeCompleted, updated)
	return updated, nil
}

func (s *appointmentService) ViewPrescription(ctx context.Context, requesterID, apptID uuid.UUID) (*store.Prescription, error) {
	a, err := s.load(ctx, apptID)
	if err != nil {
		return nil, err
	}
	if requesterID != a.PatientID && requesterID != a.DoctorID {
		return nil, ErrNotAllowed
	}
	if a.Status != store.StatusCompleted || a.Prescription == nil {
		return nil, nil
	}
	return a.Prescription, nil
}

func (s *appointmentService) SubmitFeedback(ctx context.Context, apptID uuid.UUID, req FeedbackRequest) (*store.Appointment, error) {
	a, err := s.load(ctx, apptID)
	if err != nil {
		return nil, err
	}
	if req.RequesterID != a.PatientID {
		return nil, ErrNotAllowed
	}
	if a.Status != store.StatusCompleted {
		return nil, ErrNotCompleted
	}
	if a.Feedback != nil {
		return nil, ErrFeedbackExists
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, ErrInvalidRating
	}

	updated, err := s.db.AttachFeedback(ctx, apptID, store.Feedback{
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			// Lost a race with a concurrent submission.
			return nil, ErrFeedbackExists
		}
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("attach feedback: %w", err)
	}

	s.publish(ctx, events.TypeFeedback, updated)
	return updated, nil
}

func (s *appointmentService) Watch(ctx context.Context, userID uuid.UUID) (events.Subscription, error) {
	return s.bus.Subscribe(ctx, userID)
}

func (s *appointmentService) load(ctx context.Context, apptID uuid.UUID) (*store.Appointment, error) {
	a, err := s.db.GetAppointment(ctx, apptID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return a, nil
}

// mapConflict turns a failed conditional write into the caller-facing
// error, re-reading the record so the rejection names its actual state.
func (s *appointmentService) mapConflict(ctx context.Context, apptID uuid.UUID, attempted store.Status, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	if !errors.Is(err, store.ErrConflict) {
		return fmt.Errorf("transition to %s: %w", attempted, err)
	}

	current := store.Status("unknown")
	if a, readErr := s.db.GetAppointment(ctx, apptID); readErr == nil {
		current = a.Status
	}
	return &InvalidTransitionError{Current: current, Attempted: attempted}
}

func (s *appointmentService) publish(ctx context.Context, t events.Type, a *store.Appointment) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, events.Event{Type: t, Appointment: a}); err != nil {
		slog.Warn("appointment event publish failed", "type", t, "appointment_id", a.ID, "err", err)
	}
}
