package appointment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/caretap/caretap_backend/internal/events"
	"github.com/caretap/caretap_backend/internal/store"
	"github.com/caretap/caretap_backend/internal/store/memory"
)

type fixture struct {
	svc     *appointmentService
	db      *memory.Memory
	bus     *events.MemoryBus
	patient *store.User
	doctor  *store.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := memory.New()
	bus := events.NewMemoryBus()
	ctx := context.Background()

	patient := &store.User{Role: store.RolePatient, Name: "Sara Ahmadi", Email: "sara@example.com"}
	doctor := &store.User{Role: store.RoleDoctor, Name: "Dr. Karimi", Email: "karimi@example.com", Specialty: "cardiology"}
	for _, u := range []*store.User{patient, doctor} {
		if err := db.CreateUser(ctx, u); err != nil {
			t.Fatalf("seed user %s: %v", u.Name, err)
		}
	}

	svc := New(db, bus, 2).(*appointmentService)
	// Fixed clock so date comparisons are deterministic.
	svc.now = func() time.Time {
		return time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	}
	return &fixture{svc: svc, db: db, bus: bus, patient: patient, doctor: doctor}
}

func (f *fixture) book(t *testing.T, date, slot string) *store.Appointment {
	t.Helper()
	a, err := f.svc.Book(context.Background(), BookRequest{
		PatientID: f.patient.ID,
		DoctorID:  f.doctor.ID,
		Date:      date,
		Time:      slot,
	})
	if err != nil {
		t.Fatalf("book %s %s: %v", date, slot, err)
	}
	return a
}

func TestBook_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  BookRequest
		want error
	}{
		{
			name: "unknown doctor",
			req:  BookRequest{PatientID: f.patient.ID, DoctorID: uuid.New(), Date: "2026-08-02", Time: "09:00"},
			want: ErrUnknownDoctor,
		},
		{
			name: "patient id is not a doctor",
			req:  BookRequest{PatientID: f.patient.ID, DoctorID: f.patient.ID, Date: "2026-08-02", Time: "09:00"},
			want: ErrUnknownDoctor,
		},
		{
			name: "past date",
			req:  BookRequest{PatientID: f.patient.ID, DoctorID: f.doctor.ID, Date: "2026-07-31", Time: "09:00"},
			want: ErrPastDate,
		},
		{
			name: "malformed date",
			req:  BookRequest{PatientID: f.patient.ID, DoctorID: f.doctor.ID, Date: "soon", Time: "09:00"},
			want: ErrPastDate,
		},
		{
			name: "lunch break slot",
			req:  BookRequest{PatientID: f.patient.ID, DoctorID: f.doctor.ID, Date: "2026-08-02", Time: "12:00"},
			want: ErrInvalidSlot,
		},
		{
			name: "off-grid slot",
			req:  BookRequest{PatientID: f.patient.ID, DoctorID: f.doctor.ID, Date: "2026-08-02", Time: "09:15"},
			want: ErrInvalidSlot,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Book(ctx, tt.req)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestBook_SameDayIsBookable(t *testing.T) {
	f := newFixture(t)

	a := f.book(t, "2026-08-01", "14:00")
	if a.Status != store.StatusPending {
		t.Errorf("Status = %q, want pending", a.Status)
	}
	if a.PatientName != "Sara Ahmadi" || a.DoctorName != "Dr. Karimi" {
		t.Errorf("names = %q / %q, want snapshots", a.PatientName, a.DoctorName)
	}
}

// Scenario A: two bookings on one day succeed, the third is refused.
func TestBook_DailyLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.book(t, "2026-08-10", "09:00")
	f.book(t, "2026-08-10", "09:30")

	_, err := f.svc.Book(ctx, BookRequest{
		PatientID: f.patient.ID, DoctorID: f.doctor.ID, Date: "2026-08-10", Time: "10:00",
	})
	if !errors.Is(err, ErrDailyLimitExceeded) {
		t.Fatalf("third booking err = %v, want ErrDailyLimitExceeded", err)
	}

	// Another date and another patient stay unaffected.
	f.book(t, "2026-08-11", "09:00")

	other := &store.User{Role: store.RolePatient, Name: "Reza", Email: "reza@example.com"}
	if err := f.db.CreateUser(ctx, other); err != nil {
		t.Fatalf("seed other patient: %v", err)
	}
	if _, err := f.svc.Book(ctx, BookRequest{
		PatientID: other.ID, DoctorID: f.doctor.ID, Date: "2026-08-10", Time: "10:00",
	}); err != nil {
		t.Fatalf("other patient same day: %v", err)
	}
}

// The clinic has no slot exclusivity: two patients may hold the same
// doctor, date and time.
func TestBook_NoDoctorDoubleBookingCheck(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	other := &store.User{Role: store.RolePatient, Name: "Reza", Email: "reza@example.com"}
	if err := f.db.CreateUser(ctx, other); err != nil {
		t.Fatalf("seed other patient: %v", err)
	}

	f.book(t, "2026-08-10", "09:00")
	if _, err := f.svc.Book(ctx, BookRequest{
		PatientID: other.ID, DoctorID: f.doctor.ID, Date: "2026-08-10", Time: "09:00",
	}); err != nil {
		t.Fatalf("same slot, different patient: %v", err)
	}
}

func TestTransitions_HappyPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.book(t, "2026-08-10", "09:00")

	got, err := f.svc.Accept(ctx, f.doctor.ID, a.ID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if got.Status != store.StatusConfirmed {
		t.Errorf("after accept Status = %q, want confirmed", got.Status)
	}

	got, err = f.svc.Start(ctx, f.doctor.ID, a.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if got.Status != store.StatusInProgress {
		t.Errorf("after start Status = %q, want in-progress", got.Status)
	}

	got, err = f.svc.Complete(ctx, f.doctor.ID, a.ID, PrescriptionRequest{Medicine: "Amoxicillin"})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got.Status != store.StatusCompleted {
		t.Errorf("after complete Status = %q, want completed", got.Status)
	}
	if got.Prescription == nil || got.Prescription.Medicine != "Amoxicillin" {
		t.Errorf("Prescription = %+v, want Amoxicillin", got.Prescription)
	}
}

// P1: off-path transition calls leave the status unchanged and report
// the actual state.
func TestTransitions_OffPathRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.book(t, "2026-08-10", "09:00")

	// pending -> in-progress skips confirmed.
	_, err := f.svc.Start(ctx, f.doctor.ID, a.ID)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("start from pending err = %v, want ErrInvalidTransition", err)
	}
	var ite *InvalidTransitionError
	if !errors.As(err, &ite) {
		t.Fatalf("err %T does not carry transition detail", err)
	}
	if ite.Current != store.StatusPending || ite.Attempted != store.StatusInProgress {
		t.Errorf("detail = %s -> %s, want pending -> in-progress", ite.Current, ite.Attempted)
	}

	got, err := f.svc.GetByID(ctx, f.doctor.ID, a.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Status != store.StatusPending {
		t.Errorf("Status = %q, want pending untouched", got.Status)
	}
}

// Scenario B: declined appointments are terminal.
func TestDecline_IsTerminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.book(t, "2026-08-10", "09:00")

	got, err := f.svc.Decline(ctx, f.doctor.ID, a.ID)
	if err != nil {
		t.Fatalf("decline: %v", err)
	}
	if got.Status != store.StatusCancelled {
		t.Errorf("Status = %q, want cancelled", got.Status)
	}

	if _, err := f.svc.Start(ctx, f.doctor.ID, a.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("start after decline err = %v, want ErrInvalidTransition", err)
	}
	if _, err := f.svc.Accept(ctx, f.doctor.ID, a.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("accept after decline err = %v, want ErrInvalidTransition", err)
	}
}

func TestTransitions_OnlyAssignedDoctor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.book(t, "2026-08-10", "09:00")

	intruder := &store.User{Role: store.RoleDoctor, Name: "Dr. Other", Email: "other@example.com"}
	if err := f.db.CreateUser(ctx, intruder); err != nil {
		t.Fatalf("seed intruder: %v", err)
	}

	if _, err := f.svc.Accept(ctx, intruder.ID, a.ID); !errors.Is(err, ErrNotAllowed) {
		t.Fatalf("foreign accept err = %v, want ErrNotAllowed", err)
	}
	if _, err := f.svc.Accept(ctx, f.patient.ID, a.ID); !errors.Is(err, ErrNotAllowed) {
		t.Fatalf("patient accept err = %v, want ErrNotAllowed", err)
	}

	got, err := f.svc.GetByID(ctx, f.patient.ID, a.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Status != store.StatusPending {
		t.Errorf("Status = %q, want pending untouched", got.Status)
	}
}

func TestComplete_RequiresMedicine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.book(t, "2026-08-10", "09:00")

	if _, err := f.svc.Accept(ctx, f.doctor.ID, a.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := f.svc.Start(ctx, f.doctor.ID, a.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	_, err := f.svc.Complete(ctx, f.doctor.ID, a.ID, PrescriptionRequest{Dosage: "500mg"})
	if !errors.Is(err, ErrMissingMedicine) {
		t.Fatalf("err = %v, want ErrMissingMedicine", err)
	}
}

// Scenario C, including the second complete on a terminal record. Also
// covers P2: the prescription stays invisible until completed.
func TestPrescriptionGate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.book(t, "2026-08-10", "09:00")

	rx, err := f.svc.ViewPrescription(ctx, f.patient.ID, a.ID)
	if err != nil {
		t.Fatalf("view on pending: %v", err)
	}
	if rx != nil {
		t.Fatalf("prescription visible on pending record: %+v", rx)
	}

	if _, err := f.svc.Accept(ctx, f.doctor.ID, a.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := f.svc.Start(ctx, f.doctor.ID, a.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	rx, err = f.svc.ViewPrescription(ctx, f.patient.ID, a.ID)
	if err != nil || rx != nil {
		t.Fatalf("view on in-progress = (%+v, %v), want (nil, nil)", rx, err)
	}

	if _, err := f.svc.Complete(ctx, f.doctor.ID, a.ID, PrescriptionRequest{Medicine: "Amoxicillin"}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	rx, err = f.svc.ViewPrescription(ctx, f.patient.ID, a.ID)
	if err != nil {
		t.Fatalf("view on completed: %v", err)
	}
	if rx == nil || rx.Medicine != "Amoxicillin" {
		t.Fatalf("prescription = %+v, want Amoxicillin", rx)
	}

	// Strangers never see it.
	stranger := &store.User{Role: store.RolePatient, Name: "Reza", Email: "reza@example.com"}
	if err := f.db.CreateUser(ctx, stranger); err != nil {
		t.Fatalf("seed stranger: %v", err)
	}
	if _, err := f.svc.ViewPrescription(ctx, stranger.ID, a.ID); !errors.Is(err, ErrNotAllowed) {
		t.Fatalf("stranger view err = %v, want ErrNotAllowed", err)
	}

	// Completing again hits a terminal record.
	_, err = f.svc.Complete(ctx, f.doctor.ID, a.ID, PrescriptionRequest{Medicine: "Ibuprofen"})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second complete err = %v, want ErrInvalidTransition", err)
	}
}

func (f *fixture) completed(t *testing.T, date, slot string) *store.Appointment {
	t.Helper()
	ctx := context.Background()
	a := f.book(t, date, slot)
	if _, err := f.svc.Accept(ctx, f.doctor.ID, a.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := f.svc.Start(ctx, f.doctor.ID, a.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	got, err := f.svc.Complete(ctx, f.doctor.ID, a.ID, PrescriptionRequest{Medicine: "Amoxicillin"})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	return got
}

// P3 and P4.
func TestSubmitFeedback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.completed(t, "2026-08-10", "09:00")

	// Doctor cannot rate their own work.
	_, err := f.svc.SubmitFeedback(ctx, a.ID, FeedbackRequest{RequesterID: f.doctor.ID, Rating: 5})
	if !errors.Is(err, ErrNotAllowed) {
		t.Fatalf("doctor feedback err = %v, want ErrNotAllowed", err)
	}

	for _, bad := range []int{0, 6, -1} {
		_, err := f.svc.SubmitFeedback(ctx, a.ID, FeedbackRequest{RequesterID: f.patient.ID, Rating: bad})
		if !errors.Is(err, ErrInvalidRating) {
			t.Fatalf("rating %d err = %v, want ErrInvalidRating", bad, err)
		}
	}

	got, err := f.svc.SubmitFeedback(ctx, a.ID, FeedbackRequest{RequesterID: f.patient.ID, Rating: 4, Comment: "helpful"})
	if err != nil {
		t.Fatalf("feedback: %v", err)
	}
	if got.Feedback == nil || got.Feedback.Rating != 4 || got.Feedback.Comment != "helpful" {
		t.Fatalf("Feedback = %+v, want rating 4 / helpful", got.Feedback)
	}

	// At most once: the second submission is refused and the stored
	// record keeps the first input.
	_, err = f.svc.SubmitFeedback(ctx, a.ID, FeedbackRequest{RequesterID: f.patient.ID, Rating: 1})
	if !errors.Is(err, ErrFeedbackExists) {
		t.Fatalf("second feedback err = %v, want ErrFeedbackExists", err)
	}
	got, err = f.svc.GetByID(ctx, f.patient.ID, a.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Feedback.Rating != 4 {
		t.Errorf("stored rating = %d, want the first submission's 4", got.Feedback.Rating)
	}
}

func TestSubmitFeedback_RequiresCompletion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.book(t, "2026-08-10", "09:00")

	_, err := f.svc.SubmitFeedback(ctx, a.ID, FeedbackRequest{RequesterID: f.patient.ID, Rating: 5})
	if !errors.Is(err, ErrNotCompleted) {
		t.Fatalf("feedback on pending err = %v, want ErrNotCompleted", err)
	}
}

func TestWatch_ReceivesLifecycleEvents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sub, err := f.svc.Watch(ctx, f.patient.ID)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer sub.Close()

	a := f.book(t, "2026-08-10", "09:00")
	if _, err := f.svc.Accept(ctx, f.doctor.ID, a.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	want := []events.Type{events.TypeBooked, events.TypeConfirmed}
	for _, w := range want {
		select {
		case e := <-sub.C():
			if e.Type != w {
				t.Errorf("event = %q, want %q", e.Type, w)
			}
			if e.Appointment.ID != a.ID {
				t.Errorf("event appointment = %s, want %s", e.Appointment.ID, a.ID)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %q", w)
		}
	}
}
