// Package store defines the durable records of the clinic and the
// persistence contract the services run against. Implementations live in
// the postgres and memory subpackages.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Role is the declared role of an identity.
type Role string

const (
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Terminal reports whether no further status transition is legal.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Valid reports whether s is one of the five lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Prescription is written exactly once, atomically with the transition
// to completed.
type Prescription struct {
	Medicine     string `json:"medicine"`
	Dosage       string `json:"dosage"`
	Frequency    string `json:"frequency"`
	Instructions string `json:"instructions"`
}

// Feedback is patient-authored, written at most once after completion.
type Feedback struct {
	Rating  int    `json:"rating"` // 1..5
	Comment string `json:"comment"`
}

// Appointment is the aggregate record tying one patient, one doctor,
// a date/time slot and its evolving status, prescription and feedback.
type Appointment struct {
	ID uuid.UUID `json:"id"`

	PatientID uuid.UUID `json:"patient_id"`
	DoctorID  uuid.UUID `json:"doctor_id"`

	// Display names are snapshotted at booking time so later profile
	// changes do not retroactively alter historical records.
	PatientName string `json:"patient_name"`
	DoctorName  string `json:"doctor_name"`

	Date string `json:"date"` // calendar date, "2006-01-02"
	Time string `json:"time"` // clinic slot, e.g. "09:30"
	Note string `json:"note,omitempty"`

	Status Status `json:"status"`

	Prescription *Prescription `json:"prescription,omitempty"`
	Feedback     *Feedback     `json:"feedback,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// User is an identity known to the clinic.
type User struct {
	ID           uuid.UUID `json:"id"`
	Role         Role      `json:"role"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	Specialty    string    `json:"specialty,omitempty"` // doctors only
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Filter narrows appointment listings. Nil fields match everything.
type Filter struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Status    *Status
	Date      *string
}

var (
	// ErrNotFound is returned when no record matches the identifier.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a conditional write matched no row,
	// i.e. the record's current state differs from the expected one.
	ErrConflict = errors.New("conditional write conflict")

	// ErrDailyCapExceeded is returned by InsertAppointment when the
	// patient already holds the maximum number of appointments for the
	// requested date. The check and the insert are one transaction.
	ErrDailyCapExceeded = errors.New("daily booking cap exceeded")

	// ErrDuplicateEmail is returned by CreateUser on an email collision.
	ErrDuplicateEmail = errors.New("email already registered")
)

// Store is the persistence contract. Every mutating call is a single
// atomic write against one record; there are no cross-record locks.
type Store interface {
	// Users
	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	ListDoctors(ctx context.Context) ([]*User, error)

	// InsertAppointment persists a new appointment after counting the
	// patient's existing records for the same date inside the same
	// transaction. maxPerDay <= 0 disables the cap.
	InsertAppointment(ctx context.Context, a *Appointment, maxPerDay int) error

	GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// ListAppointments returns matches ordered by (date, time) descending.
	ListAppointments(ctx context.Context, f Filter) ([]*Appointment, error)

	// TransitionStatus is a compare-and-swap on the status column.
	// Returns ErrConflict when the record is not currently in `from`.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error)

	// CompleteWithPrescription atomically moves an in-progress
	// appointment to completed and attaches the prescription.
	CompleteWithPrescription(ctx context.Context, id uuid.UUID, rx Prescription) (*Appointment, error)

	// AttachFeedback writes feedback once: the record must be completed
	// and have no feedback yet, otherwise ErrConflict.
	AttachFeedback(ctx context.Context, id uuid.UUID, fb Feedback) (*Appointment, error)
}
