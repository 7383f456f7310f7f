package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	var dob, gender *string

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Phone,
		&dob,
		&gender,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	p.DOB = dob
	p.Gender = gender
	return &p, nil
}

func scanService(row pgx.Row) (*ClinicService, error) {
	var s ClinicService

	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.DurationMinutes,
		&s.Price,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}

	return &s, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var checkedIn *time.Time
	var notes *string
	var invoiceID *uuid.UUID
	var vitalsRaw, prescriptionRaw []byte

	err := row.Scan(
		&a.ID,
		&a.BranchID,
		&a.DoctorID,
		&a.PatientID,
		&a.ServiceID,
		&a.StartTime,
		&a.EndTime,
		&a.Status,
		&checkedIn,
		&vitalsRaw,
		&notes,
		&prescriptionRaw,
		&invoiceID,
		&a.ReminderSent,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.CheckedInTime = checkedIn
	a.Notes = notes
	a.InvoiceID = invoiceID

	if len(vitalsRaw) > 0 {
		var v Vitals
		if err := json.Unmarshal(vitalsRaw, &v); err != nil {
			return nil, fmt.Errorf("decode vitals: %w", err)
		}
		a.Vitals = &v
	}
	if len(prescriptionRaw) > 0 {
		if err := json.Unmarshal(prescriptionRaw, &a.Prescription); err != nil {
			return nil, fmt.Errorf("decode prescription: %w", err)
		}
	}

	return &a, nil
}

func scanBlocker(row pgx.Row) (*CalendarBlocker, error) {
	var b CalendarBlocker

	err := row.Scan(
		&b.ID,
		&b.DoctorID,
		&b.StartTime,
		&b.EndTime,
		&b.Reason,
		&b.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBlockerNotFound
		}
		return nil, err
	}

	return &b, nil
}

const appointmentColumns = `id, branch_id, doctor_id, patient_id, service_id, start_time, end_time,
		       status, checked_in_time, vitals, notes, prescription, invoice_id,
		       reminder_sent, created_at, updated_at`

// Interface methods

func (r *PgRepository) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, phone, dob, gender, created_at, updated_at
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

func (r *PgRepository) GetServiceByID(ctx context.Context, id uuid.UUID) (*ClinicService, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, duration_minutes, price
		FROM services
		WHERE id = $1
	`, id)
	return scanService(row)
}

func (r *PgRepository) ListServices(ctx context.Context) ([]ClinicService, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, duration_minutes, price
		FROM services
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ClinicService
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}

	return result, rows.Err()
}

func (r *PgRepository) ListAppointmentsByDate(ctx context.Context, day time.Time, branchID *uuid.UUID) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE start_time::date = $1::date
		  AND ($2::uuid IS NULL OR branch_id = $2)
		ORDER BY start_time
	`, day, branchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	return result, rows.Err()
}

func (r *PgRepository) ListBlockersByDate(ctx context.Context, day time.Time, doctorID uuid.UUID) ([]CalendarBlocker, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, doctor_id, start_time, end_time, reason, created_at
		FROM calendar_blockers
		WHERE start_time::date = $1::date
		  AND doctor_id = $2
		ORDER BY start_time
	`, day, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []CalendarBlocker
	for rows.Next() {
		b, err := scanBlocker(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *b)
	}

	return result, rows.Err()
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE patient_id = $1
		ORDER BY start_time DESC
	`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	return result, rows.Err()
}

func (r *PgRepository) CreateAppointment(ctx context.Context, appt Appointment) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (id, branch_id, doctor_id, patient_id, service_id,
		                          start_time, end_time, status, reminder_sent,
		                          created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, false, now(), now())
		RETURNING `+appointmentColumns+`
	`, appt.ID, appt.BranchID, appt.DoctorID, appt.PatientID, appt.ServiceID,
		appt.StartTime, appt.EndTime, appt.Status)

	return scanAppointment(row)
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus, upd AppointmentUpdate) (*Appointment, error) {
	var vitalsRaw, prescriptionRaw []byte
	var err error

	if upd.Vitals != nil {
		vitalsRaw, err = json.Marshal(upd.Vitals)
		if err != nil {
			return nil, fmt.Errorf("encode vitals: %w", err)
		}
	}
	if upd.Prescription != nil {
		prescriptionRaw, err = json.Marshal(upd.Prescription)
		if err != nil {
			return nil, fmt.Errorf("encode prescription: %w", err)
		}
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    checked_in_time = COALESCE($4, checked_in_time),
		    vitals = COALESCE($5, vitals),
		    notes = COALESCE($6, notes),
		    prescription = COALESCE($7, prescription),
		    invoice_id = COALESCE($8, invoice_id),
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+appointmentColumns+`
	`, id, to, from, upd.CheckedInTime, vitalsRaw, upd.Notes, prescriptionRaw, upd.InvoiceID)

	return scanAppointment(row)
}

func (r *PgRepository) CreateBlocker(ctx context.Context, blocker CalendarBlocker) (*CalendarBlocker, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO calendar_blockers (id, doctor_id, start_time, end_time, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING id, doctor_id, start_time, end_time, reason, created_at
	`, blocker.ID, blocker.DoctorID, blocker.StartTime, blocker.EndTime, blocker.Reason)

	return scanBlocker(row)
}

func (r *PgRepository) DeleteBlocker(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM calendar_blockers
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBlockerNotFound
	}
	return nil
}

func (r *PgRepository) FindDueReminders(ctx context.Context, from, until time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE status = 'confirmed'
		  AND reminder_sent = false
		  AND start_time >= $1
		  AND start_time < $2
	`, from, until)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	return result, rows.Err()
}

func (r *PgRepository) MarkReminderSent(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments
		SET reminder_sent = true,
		    updated_at = now()
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, subject_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.SubjectID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
