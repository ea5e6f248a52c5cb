// Package memory provides a mutex-guarded in-memory Store. It backs the
// service test suites and local development without a database.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/caretap/caretap_backend/internal/store"
)

type Memory struct {
	mu           sync.Mutex
	users        map[uuid.UUID]*store.User
	appointments map[uuid.UUID]*store.Appointment
}

func New() *Memory {
	return &Memory{
		users:        make(map[uuid.UUID]*store.User),
		appointments: make(map[uuid.UUID]*store.Appointment),
	}
}

var _ store.Store = (*Memory)(nil)

func (m *Memory) CreateUser(ctx context.Context, u *store.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return store.ErrDuplicateEmail
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	m.users[u.ID] = cloneUser(u)
	return nil
}

func (m *Memory) GetUser(ctx context.Context, id uuid.UUID) (*store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneUser(u), nil
}

func (m *Memory) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return cloneUser(u), nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *Memory) ListDoctors(ctx context.Context) ([]*store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*store.User
	for _, u := range m.users {
		if u.Role == store.RoleDoctor {
			out = append(out, cloneUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) InsertAppointment(ctx context.Context, a *store.Appointment, maxPerDay int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if maxPerDay > 0 {
		count := 0
		for _, existing := range m.appointments {
			if existing.PatientID == a.PatientID && existing.Date == a.Date {
				count++
			}
		}
		if count >= maxPerDay {
			return store.ErrDailyCapExceeded
		}
	}

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	m.appointments[a.ID] = cloneAppointment(a)
	return nil
}

func (m *Memory) GetAppointment(ctx context.Context, id uuid.UUID) (*store.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.appointments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneAppointment(a), nil
}

func (m *Memory) ListAppointments(ctx context.Context, f store.Filter) ([]*store.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*store.Appointment
	for _, a := range m.appointments {
		if f.PatientID != nil && a.PatientID != *f.PatientID {
			continue
		}
		if f.DoctorID != nil && a.DoctorID != *f.DoctorID {
			continue
		}
		if f.Status != nil && a.Status != *f.Status {
			continue
		}
		if f.Date != nil && a.Date != *f.Date {
			continue
		}
		out = append(out, cloneAppointment(a))
	}

	// Descending by (date, time): most-future first.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].Time > out[j].Time
	})
	return out, nil
}

func (m *Memory) TransitionStatus(ctx context.Context, id uuid.UUID, from, to store.Status) (*store.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.appointments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if a.Status != from {
		return nil, store.ErrConflict
	}
	a.Status = to
	return cloneAppointment(a), nil
}

func (m *Memory) CompleteWithPrescription(ctx context.Context, id uuid.UUID, rx store.Prescription) (*store.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.appointments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if a.Status != store.StatusInProgress {
		return nil, store.ErrConflict
	}
	a.Status = store.StatusCompleted
	a.Prescription = &rx
	return cloneAppointment(a), nil
}

func (m *Memory) AttachFeedback(ctx context.Context, id uuid.UUID, fb store.Feedback) (*store.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.appointments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if a.Status != store.StatusCompleted || a.Feedback != nil {
		return nil, store.ErrConflict
	}
	a.Feedback = &fb
	return cloneAppointment(a), nil
}

func cloneUser(u *store.User) *store.User {
	out := *u
	return &out
}

func cloneAppointment(a *store.Appointment) *store.Appointment {
	out := *a
	if a.Prescription != nil {
		rx := *a.Prescription
		out.Prescription = &rx
	}
	if a.Feedback != nil {
		fb := *a.Feedback
		out.Feedback = &fb
	}
	return &out
}
