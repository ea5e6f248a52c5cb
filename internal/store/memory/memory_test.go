package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/caretap/caretap_backend/internal/store"
)

func newAppt(patient, doctor uuid.UUID, date, slot string) *store.Appointment {
	return &store.Appointment{
		PatientID: patient,
		DoctorID:  doctor,
		Date:      date,
		Time:      slot,
		Status:    store.StatusPending,
	}
}

func TestInsertAppointment_DailyCap(t *testing.T) {
	m := New()
	ctx := context.Background()
	patient := uuid.New()
	doctor := uuid.New()

	if err := m.InsertAppointment(ctx, newAppt(patient, doctor, "2026-09-01", "09:00"), 2); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if err := m.InsertAppointment(ctx, newAppt(patient, doctor, "2026-09-01", "09:30"), 2); err != nil {
		t.Fatalf("second insert: %v", err)
	}

	err := m.InsertAppointment(ctx, newAppt(patient, doctor, "2026-09-01", "10:00"), 2)
	if !errors.Is(err, store.ErrDailyCapExceeded) {
		t.Fatalf("third insert err = %v, want ErrDailyCapExceeded", err)
	}

	// A different date is unaffected.
	if err := m.InsertAppointment(ctx, newAppt(patient, doctor, "2026-09-02", "09:00"), 2); err != nil {
		t.Fatalf("next-day insert: %v", err)
	}
}

func TestInsertAppointment_CapUnderConcurrency(t *testing.T) {
	m := New()
	ctx := context.Background()
	patient := uuid.New()
	doctor := uuid.New()

	const attempts = 20
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = m.InsertAppointment(ctx, newAppt(patient, doctor, "2026-09-01", "09:00"), 2)
		}(i)
	}
	wg.Wait()

	accepted := 0
	for _, err := range errs {
		if err == nil {
			accepted++
		} else if !errors.Is(err, store.ErrDailyCapExceeded) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if accepted != 2 {
		t.Fatalf("accepted = %d, want exactly 2", accepted)
	}
}

func TestTransitionStatus_CompareAndSwap(t *testing.T) {
	m := New()
	ctx := context.Background()

	a := newAppt(uuid.New(), uuid.New(), "2026-09-01", "09:00")
	if err := m.InsertAppointment(ctx, a, 0); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := m.TransitionStatus(ctx, a.ID, store.StatusPending, store.StatusConfirmed)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if got.Status != store.StatusConfirmed {
		t.Errorf("Status = %q, want confirmed", got.Status)
	}

	// Same swap again: the record is no longer pending.
	_, err = m.TransitionStatus(ctx, a.ID, store.StatusPending, store.StatusConfirmed)
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("repeat confirm err = %v, want ErrConflict", err)
	}

	_, err = m.TransitionStatus(ctx, uuid.New(), store.StatusPending, store.StatusConfirmed)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("missing record err = %v, want ErrNotFound", err)
	}
}

func TestCompleteWithPrescription(t *testing.T) {
	m := New()
	ctx := context.Background()

	a := newAppt(uuid.New(), uuid.New(), "2026-09-01", "09:00")
	if err := m.InsertAppointment(ctx, a, 0); err != nil {
		t.Fatalf("insert: %v", err)
	}

	rx := store.Prescription{Medicine: "Amoxicillin", Dosage: "500mg"}

	// Completing from pending is refused.
	if _, err := m.CompleteWithPrescription(ctx, a.ID, rx); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("complete from pending err = %v, want ErrConflict", err)
	}

	if _, err := m.TransitionStatus(ctx, a.ID, store.StatusPending, store.StatusConfirmed); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, err := m.TransitionStatus(ctx, a.ID, store.StatusConfirmed, store.StatusInProgress); err != nil {
		t.Fatalf("start: %v", err)
	}

	got, err := m.CompleteWithPrescription(ctx, a.ID, rx)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got.Status != store.StatusCompleted {
		t.Errorf("Status = %q, want completed", got.Status)
	}
	if got.Prescription == nil || got.Prescription.Medicine != "Amoxicillin" {
		t.Errorf("Prescription = %+v, want Amoxicillin", got.Prescription)
	}
}

func TestAttachFeedback_AtMostOnce(t *testing.T) {
	m := New()
	ctx := context.Background()

	a := newAppt(uuid.New(), uuid.New(), "2026-09-01", "09:00")
	a.Status = store.StatusCompleted
	if err := m.InsertAppointment(ctx, a, 0); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if _, err := m.AttachFeedback(ctx, a.ID, store.Feedback{Rating: 4}); err != nil {
		t.Fatalf("first feedback: %v", err)
	}
	_, err := m.AttachFeedback(ctx, a.ID, store.Feedback{Rating: 5})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("second feedback err = %v, want ErrConflict", err)
	}
}

func TestListAppointments_FilterAndOrder(t *testing.T) {
	m := New()
	ctx := context.Background()
	patient := uuid.New()
	doctor := uuid.New()

	for _, v := range []struct{ date, slot string }{
		{"2026-09-01", "09:00"},
		{"2026-09-03", "10:00"},
		{"2026-09-03", "14:30"},
		{"2026-09-02", "11:00"},
	} {
		if err := m.InsertAppointment(ctx, newAppt(patient, doctor, v.date, v.slot), 0); err != nil {
			t.Fatalf("insert %s %s: %v", v.date, v.slot, err)
		}
	}
	// Someone else's booking must not leak into the patient's list.
	if err := m.InsertAppointment(ctx, newAppt(uuid.New(), doctor, "2026-09-05", "09:00"), 0); err != nil {
		t.Fatalf("insert other: %v", err)
	}

	got, err := m.ListAppointments(ctx, store.Filter{PatientID: &patient})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("len = %d, want 4", len(got))
	}

	want := []struct{ date, slot string }{
		{"2026-09-03", "14:30"},
		{"2026-09-03", "10:00"},
		{"2026-09-02", "11:00"},
		{"2026-09-01", "09:00"},
	}
	for i, w := range want {
		if got[i].Date != w.date || got[i].Time != w.slot {
			t.Errorf("item %d = %s %s, want %s %s", i, got[i].Date, got[i].Time, w.date, w.slot)
		}
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	m := New()
	ctx := context.Background()

	u := &store.User{Role: store.RolePatient, Name: "Sara", Email: "sara@example.com"}
	if err := m.CreateUser(ctx, u); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := m.CreateUser(ctx, &store.User{Role: store.RolePatient, Name: "Sara2", Email: "SARA@example.com"})
	if !errors.Is(err, store.ErrDuplicateEmail) {
		t.Fatalf("duplicate err = %v, want ErrDuplicateEmail", err)
	}
}
