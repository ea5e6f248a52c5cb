// Package dashboard derives summary projections from a user's visible
// appointment set. It never mutates anything.
package dashboard

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/caretap/caretap_backend/internal/store"
)

// DoctorSummary counts the doctor's appointments by lifecycle stage.
// AverageRating is the mean of all submitted ratings, 0 when none exist.
type DoctorSummary struct {
	PendingCount   int     `json:"pending_count"`
	ActiveCount    int     `json:"active_count"`
	CompletedCount int     `json:"completed_count"`
	AverageRating  float64 `json:"average_rating"`
}

type PatientSummary struct {
	UpcomingCount     int `json:"upcoming_count"`
	PrescriptionCount int `json:"prescription_count"`
	CompletedCount    int `json:"completed_count"`
}

type Service interface {
	ForDoctor(ctx context.Context, doctorID uuid.UUID) (*DoctorSummary, error)
	ForPatient(ctx context.Context, patientID uuid.UUID) (*PatientSummary, error)
}

type dashboardService struct {
	db store.Store
}

func New(db store.Store) Service {
	return &dashboardService{db: db}
}

func (s *dashboardService) ForDoctor(ctx context.Context, doctorID uuid.UUID) (*DoctorSummary, error) {
	appts, err := s.db.ListAppointments(ctx, store.Filter{DoctorID: &doctorID})
	if err != nil {
		return nil, fmt.Errorf("list doctor appointments: %w", err)
	}

	var sum DoctorSummary
	var ratingTotal, ratingCount int
	for _, a := range appts {
		switch a.Status {
		case store.StatusPending:
			sum.PendingCount++
		case store.StatusConfirmed, store.StatusInProgress:
			sum.ActiveCount++
		case store.StatusCompleted:
			sum.CompletedCount++
		}
		if a.Feedback != nil {
			ratingTotal += a.Feedback.Rating
			ratingCount++
		}
	}
	if ratingCount > 0 {
		sum.AverageRating = float64(ratingTotal) / float64(ratingCount)
	}
	return &sum, nil
}

func (s *dashboardService) ForPatient(ctx context.Context, patientID uuid.UUID) (*PatientSummary, error) {
	appts, err := s.db.ListAppointments(ctx, store.Filter{PatientID: &patientID})
	if err != nil {
		return nil, fmt.Errorf("list patient appointments: %w", err)
	}

	var sum PatientSummary
	for _, a := range appts {
		switch a.Status {
		case store.StatusPending, store.StatusConfirmed, store.StatusInProgress:
			sum.UpcomingCount++
		case store.StatusCompleted:
			sum.CompletedCount++
		}
		if a.Prescription != nil {
			sum.PrescriptionCount++
		}
	}
	return &sum, nil
}
