package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/caretap/caretap_backend/internal/store"
)

// apptColumns is the select list every appointment query shares.
// visit_date is a DATE column; casting to text yields the canonical
// "2006-01-02" form the model carries.
const apptColumns = `id, patient_id, doctor_id, patient_name, doctor_name,
	visit_date::text, slot, note, status,
	rx_medicine, rx_dosage, rx_frequency, rx_instructions,
	fb_rating, fb_comment, created_at`

func (p *Postgres) InsertAppointment(ctx context.Context, a *store.Appointment, maxPerDay int) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}

	tx, err := p.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin booking tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if maxPerDay > 0 {
		// Serialize concurrent bookings for the same (patient, date) so
		// the cap check and the insert are one unit.
		if _, err := tx.Exec(ctx,
			`SELECT pg_advisory_xact_lock(hashtext($1 || ':' || $2))`,
			a.PatientID.String(), a.Date,
		); err != nil {
			return fmt.Errorf("acquire booking lock: %w", err)
		}

		var count int
		if err := tx.QueryRow(ctx,
			`SELECT count(*) FROM appointments WHERE patient_id = $1 AND visit_date = $2`,
			a.PatientID, a.Date,
		).Scan(&count); err != nil {
			return fmt.Errorf("count daily bookings: %w", err)
		}
		if count >= maxPerDay {
			return store.ErrDailyCapExceeded
		}
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO appointments
			(id, patient_id, doctor_id, patient_name, doctor_name, visit_date, slot, note, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		a.ID, a.PatientID, a.DoctorID, a.PatientName, a.DoctorName,
		a.Date, a.Time, a.Note, a.Status, a.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}

	return tx.Commit(ctx)
}

func (p *Postgres) GetAppointment(ctx context.Context, id uuid.UUID) (*store.Appointment, error) {
	row := p.db.QueryRow(ctx,
		`SELECT `+apptColumns+` FROM appointments WHERE id = $1`, id)

	a, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return a, nil
}

func (p *Postgres) ListAppointments(ctx context.Context, f store.Filter) ([]*store.Appointment, error) {
	q := `SELECT ` + apptColumns + ` FROM appointments WHERE 1=1`
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.PatientID != nil {
		q += ` AND patient_id = ` + arg(*f.PatientID)
	}
	if f.DoctorID != nil {
		q += ` AND doctor_id = ` + arg(*f.DoctorID)
	}
	if f.Status != nil {
		q += ` AND status = ` + arg(*f.Status)
	}
	if f.Date != nil {
		q += ` AND visit_date = ` + arg(*f.Date)
	}

	q += ` ORDER BY visit_date DESC, slot DESC`

	rows, err := p.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	var out []*store.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (p *Postgres) TransitionStatus(ctx context.Context, id uuid.UUID, from, to store.Status) (*store.Appointment, error) {
	row := p.db.QueryRow(ctx,
		`UPDATE appointments SET status = $3
		 WHERE id = $1 AND status = $2
		 RETURNING `+apptColumns,
		id, from, to)

	a, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, p.conflictOrMissing(ctx, id)
		}
		return nil, fmt.Errorf("transition status: %w", err)
	}
	return a, nil
}

func (p *Postgres) CompleteWithPrescription(ctx context.Context, id uuid.UUID, rx store.Prescription) (*store.Appointment, error) {
	row := p.db.QueryRow(
		ctx,
		`UPDATE appointments SET status = $2,
			rx_medicine = $3, rx_dosage = $4, rx_frequency = $5, rx_instructions = $6
		 WHERE id = $1 AND status = $7
		 RETURNING `+apptColumns,
		id, store.StatusCompleted,
		rx.Medicine, rx.Dosage, rx.Frequency, rx.Instructions,
		store.StatusInProgress)

	a, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, p.conflictOrMissing(ctx, id)
		}
		return nil, fmt.Errorf("complete with prescription: %w", err)
	}
	return a, nil
}

func (p *Postgres) AttachFeedback(ctx context.Context, id uuid.UUID, fb store.Feedback) (*store.Appointment, error) {
	row := p.db.QueryRow(ctx,
		`UPDATE appointments SET fb_rating = $2, fb_comment = $3
		 WHERE id = $1 AND status = $4 AND fb_rating IS NULL
		 RETURNING `+apptColumns,
		id, fb.Rating, fb.Comment, store.StatusCompleted)

	a, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, p.conflictOrMissing(ctx, id)
		}
		return nil, fmt.Errorf("attach feedback: %w", err)
	}
	return a, nil
}

// conflictOrMissing disambiguates a zero-row conditional write.
func (p *Postgres) conflictOrMissing(ctx context.Context, id uuid.UUID) error {
	var exists bool
	if err := p.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM appointments WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return fmt.Errorf("check appointment existence: %w", err)
	}
	if exists {
		return store.ErrConflict
	}
	return store.ErrNotFound
}

func scanAppointment(row pgx.Row) (*store.Appointment, error) {
	var (
		a       store.Appointment
		med     *string
		dosage  *string
		freq    *string
		instr   *string
		rating  *int
		comment *string
	)

	err := row.Scan(
		&a.ID, &a.PatientID, &a.DoctorID, &a.PatientName, &a.DoctorName,
		&a.Date, &a.Time, &a.Note, &a.Status,
		&med, &dosage, &freq, &instr,
		&rating, &comment, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if med != nil {
		a.Prescription = &store.Prescription{
			Medicine:     *med,
			Dosage:       deref(dosage),
			Frequency:    deref(freq),
			Instructions: deref(instr),
		}
	}
	if rating != nil {
		a.Feedback = &store.Feedback{
			Rating:  *rating,
			Comment: deref(comment),
		}
	}

	return &a, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
