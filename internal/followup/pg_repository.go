package followup

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

const followupColumns = `f.id, f.patient_id, p.name, p.phone, f.doctor_id, f.branch_id,
		       f.scheduled_date, f.scheduled_time, f.status, f.priority,
		       f.recurrence, f.notes, f.created_by, f.created_at, f.updated_at`

func scanFollowup(row pgx.Row) (*Followup, error) {
	var f Followup
	var scheduledTime, notes *string
	var recurrenceRaw []byte

	err := row.Scan(
		&f.ID,
		&f.PatientID,
		&f.PatientName,
		&f.PatientPhone,
		&f.DoctorID,
		&f.BranchID,
		&f.ScheduledDate,
		&scheduledTime,
		&f.Status,
		&f.Priority,
		&recurrenceRaw,
		&notes,
		&f.CreatedBy,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFollowupNotFound
		}
		return nil, err
	}

	f.ScheduledTime = scheduledTime
	f.Notes = notes

	if len(recurrenceRaw) > 0 {
		var rec Recurrence
		if err := json.Unmarshal(recurrenceRaw, &rec); err != nil {
			return nil, fmt.Errorf("decode recurrence: %w", err)
		}
		f.Recurrence = &rec
	}

	return &f, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Followup, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+followupColumns+`
		FROM followups f
		JOIN patients p ON p.id = f.patient_id
		WHERE f.id = $1
	`, id)
	return scanFollowup(row)
}

func (r *PgRepository) ListByDate(ctx context.Context, day time.Time, branchID *uuid.UUID) ([]Followup, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+followupColumns+`
		FROM followups f
		JOIN patients p ON p.id = f.patient_id
		WHERE f.scheduled_date = $1::date
		  AND ($2::uuid IS NULL OR f.branch_id = $2)
		  AND f.status <> 'canceled'
		ORDER BY f.created_at
	`, day, branchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectFollowups(rows)
}

func (r *PgRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Followup, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+followupColumns+`
		FROM followups f
		JOIN patients p ON p.id = f.patient_id
		WHERE f.patient_id = $1
		ORDER BY f.scheduled_date DESC
	`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectFollowups(rows)
}

func (r *PgRepository) Create(ctx context.Context, f Followup) (*Followup, error) {
	var recurrenceRaw []byte
	if f.Recurrence != nil {
		var err error
		recurrenceRaw, err = json.Marshal(f.Recurrence)
		if err != nil {
			return nil, fmt.Errorf("encode recurrence: %w", err)
		}
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO followups (id, patient_id, doctor_id, branch_id, scheduled_date,
		                       scheduled_time, status, priority, recurrence, notes,
		                       created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now(), now())
	`, f.ID, f.PatientID, f.DoctorID, f.BranchID, f.ScheduledDate,
		f.ScheduledTime, f.Status, f.Priority, recurrenceRaw, f.Notes, f.CreatedBy)
	if err != nil {
		return nil, err
	}

	return r.GetByID(ctx, f.ID)
}

func (r *PgRepository) Update(ctx context.Context, id uuid.UUID, upd FollowupUpdate) (*Followup, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE followups
		SET status = COALESCE($2, status),
		    scheduled_date = COALESCE($3::date, scheduled_date),
		    updated_at = now()
		WHERE id = $1
	`, id, upd.Status, upd.ScheduledDate)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrFollowupNotFound
	}

	return r.GetByID(ctx, id)
}

func (r *PgRepository) CountPendingInRange(ctx context.Context, from, to time.Time, branchID *uuid.UUID) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT scheduled_date, count(*)
		FROM followups
		WHERE scheduled_date BETWEEN $1::date AND $2::date
		  AND ($3::uuid IS NULL OR branch_id = $3)
		  AND status = 'pending'
		GROUP BY scheduled_date
	`, from, to, branchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var day time.Time
		var n int
		if err := rows.Scan(&day, &n); err != nil {
			return nil, err
		}
		counts[day.Format("2006-01-02")] = n
	}

	return counts, rows.Err()
}

func collectFollowups(rows pgx.Rows) ([]Followup, error) {
	var result []Followup
	for rows.Next() {
		f, err := scanFollowup(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *f)
	}
	return result, rows.Err()
}
