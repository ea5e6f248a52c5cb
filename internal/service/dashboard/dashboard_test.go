package dashboard

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/caretap/caretap_backend/internal/store"
	"github.com/caretap/caretap_backend/internal/store/memory"
)

func seed(t *testing.T, db *memory.Memory, a *store.Appointment) {
	t.Helper()
	if err := db.InsertAppointment(context.Background(), a, 0); err != nil {
		t.Fatalf("seed appointment: %v", err)
	}
}

func TestForDoctor(t *testing.T) {
	db := memory.New()
	svc := New(db)
	doctor := uuid.New()
	patient := uuid.New()

	seed(t, db, &store.Appointment{PatientID: patient, DoctorID: doctor, Date: "2026-09-01", Time: "09:00", Status: store.StatusPending})
	seed(t, db, &store.Appointment{PatientID: patient, DoctorID: doctor, Date: "2026-09-02", Time: "09:00", Status: store.StatusConfirmed})
	seed(t, db, &store.Appointment{PatientID: patient, DoctorID: doctor, Date: "2026-09-03", Time: "09:00", Status: store.StatusInProgress})
	seed(t, db, &store.Appointment{
		PatientID: patient, DoctorID: doctor, Date: "2026-08-01", Time: "09:00",
		Status:       store.StatusCompleted,
		Prescription: &store.Prescription{Medicine: "Amoxicillin"},
		Feedback:     &store.Feedback{Rating: 5},
	})
	seed(t, db, &store.Appointment{
		PatientID: patient, DoctorID: doctor, Date: "2026-08-02", Time: "09:00",
		Status:       store.StatusCompleted,
		Prescription: &store.Prescription{Medicine: "Ibuprofen"},
		Feedback:     &store.Feedback{Rating: 3},
	})
	// Another doctor's record never leaks into the summary.
	seed(t, db, &store.Appointment{PatientID: patient, DoctorID: uuid.New(), Date: "2026-09-01", Time: "10:00", Status: store.StatusPending})

	sum, err := svc.ForDoctor(context.Background(), doctor)
	if err != nil {
		t.Fatalf("ForDoctor: %v", err)
	}
	if sum.PendingCount != 1 {
		t.Errorf("PendingCount = %d, want 1", sum.PendingCount)
	}
	if sum.ActiveCount != 2 {
		t.Errorf("ActiveCount = %d, want 2", sum.ActiveCount)
	}
	if sum.CompletedCount != 2 {
		t.Errorf("CompletedCount = %d, want 2", sum.CompletedCount)
	}
	if sum.AverageRating != 4.0 {
		t.Errorf("AverageRating = %v, want 4.0", sum.AverageRating)
	}
}

func TestForDoctor_NoFeedbackMeansZeroRating(t *testing.T) {
	db := memory.New()
	svc := New(db)
	doctor := uuid.New()

	seed(t, db, &store.Appointment{
		PatientID: uuid.New(), DoctorID: doctor, Date: "2026-08-01", Time: "09:00",
		Status:       store.StatusCompleted,
		Prescription: &store.Prescription{Medicine: "Amoxicillin"},
	})

	sum, err := svc.ForDoctor(context.Background(), doctor)
	if err != nil {
		t.Fatalf("ForDoctor: %v", err)
	}
	if sum.AverageRating != 0 {
		t.Errorf("AverageRating = %v, want 0", sum.AverageRating)
	}
}

func TestForPatient(t *testing.T) {
	db := memory.New()
	svc := New(db)
	patient := uuid.New()
	doctor := uuid.New()

	seed(t, db, &store.Appointment{PatientID: patient, DoctorID: doctor, Date: "2026-09-01", Time: "09:00", Status: store.StatusPending})
	seed(t, db, &store.Appointment{PatientID: patient, DoctorID: doctor, Date: "2026-09-02", Time: "09:00", Status: store.StatusConfirmed})
	seed(t, db, &store.Appointment{PatientID: patient, DoctorID: doctor, Date: "2026-08-01", Time: "09:00", Status: store.StatusCancelled})
	seed(t, db, &store.Appointment{
		PatientID: patient, DoctorID: doctor, Date: "2026-08-02", Time: "09:00",
		Status:       store.StatusCompleted,
		Prescription: &store.Prescription{Medicine: "Amoxicillin"},
	})

	sum, err := svc.ForPatient(context.Background(), patient)
	if err != nil {
		t.Fatalf("ForPatient: %v", err)
	}
	if sum.UpcomingCount != 2 {
		t.Errorf("UpcomingCount = %d, want 2", sum.UpcomingCount)
	}
	if sum.CompletedCount != 1 {
		t.Errorf("CompletedCount = %d, want 1", sum.CompletedCount)
	}
	if sum.PrescriptionCount != 1 {
		t.Errorf("PrescriptionCount = %d, want 1", sum.PrescriptionCount)
	}
}
