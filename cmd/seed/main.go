package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meditrack/clinic-ops/internal/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	serviceIDs, err := seedServices(context.Background(), pool)
	if err != nil {
		log.Fatalf("seed services: %v", err)
	}
	patientIDs, err := seedPatients(context.Background(), pool, 500)
	if err != nil {
		log.Fatalf("seed patients: %v", err)
	}
	if err := seedSchedule(context.Background(), pool, patientIDs, serviceIDs); err != nil {
		log.Fatalf("seed schedule: %v", err)
	}

	log.Println("seed complete")
}

func seedServices(ctx context.Context, pool *pgxpool.Pool) ([]uuid.UUID, error) {
	log.Println("seeding service catalog")

	catalog := []struct {
		name     string
		duration int
		price    int
	}{
		{"Consultation", 30, 500},
		{"Routine Check-up", 20, 300},
		{"Extended Consultation", 60, 900},
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, len(catalog))
	for _, svc := range catalog {
		id := uuid.New()

		_, err := tx.Exec(ctx, `
			INSERT INTO services (id, name, duration_minutes, price)
			VALUES ($1, $2, $3, $4)
		`, id, svc.name, svc.duration, svc.price)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("service catalog seeded")
	return ids, nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d patients", count)

	const batchSize = 100

	ids := make([]uuid.UUID, 0, count)
	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return nil, err
		}

		for i := offset; i < end; i++ {
			id := uuid.New()
			name := gofakeit.Name()
			phone := gofakeit.Phone()
			dob := gofakeit.DateRange(
				time.Date(1940, 1, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2010, 12, 31, 0, 0, 0, 0, time.UTC),
			).Format("2006-01-02")
			gender := gofakeit.RandomString([]string{"F", "M"})

			_, err := tx.Exec(ctx, `
				INSERT INTO patients (id, name, phone, dob, gender, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, now(), now())
			`, id, name, phone, dob, gender)
			if err != nil {
				_ = tx.Rollback(ctx)
				return nil, err
			}
			ids = append(ids, id)
		}

		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}

		log.Printf("patients seeded: %d/%d", end, count)
	}

	log.Println("patients seeded")
	return ids, nil
}

// seedSchedule books a plausible day: morning appointments, a lunch blocker,
// and a handful of pending follow-ups.
func seedSchedule(ctx context.Context, pool *pgxpool.Pool, patientIDs, serviceIDs []uuid.UUID) error {
	log.Println("seeding appointments, blockers, followups")

	branchID := uuid.New()
	doctorID := uuid.New()
	creatorID := uuid.New()

	y, m, d := time.Now().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.Local)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	starts := []int{9 * 60, 10 * 60, 11*60 + 30, 14*60 + 15}
	for i, minute := range starts {
		patientID := patientIDs[gofakeit.Number(0, len(patientIDs)-1)]
		serviceID := serviceIDs[i%len(serviceIDs)]

		var duration int
		if err := tx.QueryRow(ctx, `SELECT duration_minutes FROM services WHERE id = $1`, serviceID).Scan(&duration); err != nil {
			return err
		}

		start := today.Add(time.Duration(minute) * time.Minute)
		end := start.Add(time.Duration(duration) * time.Minute)

		_, err := tx.Exec(ctx, `
			INSERT INTO appointments (id, branch_id, doctor_id, patient_id, service_id,
			                          start_time, end_time, status, reminder_sent,
			                          created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, 'confirmed', false, now(), now())
		`, uuid.New(), branchID, doctorID, patientID, serviceID, start, end)
		if err != nil {
			return err
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO calendar_blockers (id, doctor_id, start_time, end_time, reason, created_at)
		VALUES ($1, $2, $3, $4, 'Lunch Break', now())
	`, uuid.New(), doctorID, today.Add(13*time.Hour), today.Add(14*time.Hour))
	if err != nil {
		return err
	}

	priorities := []string{"low", "normal", "high", "urgent"}
	notes := []string{
		"Check sugar levels.",
		"Weekly BP check.",
		"Follow up on lab reports.",
		"Routine check-up call.",
	}
	for i := 0; i < 8; i++ {
		patientID := patientIDs[gofakeit.Number(0, len(patientIDs)-1)]
		day := today.AddDate(0, 0, gofakeit.Number(-2, 3))

		var recurrence *string
		if i%4 == 1 {
			rec := `{"type":"daily","interval":7}`
			recurrence = &rec
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO followups (id, patient_id, doctor_id, branch_id, scheduled_date,
			                       scheduled_time, status, priority, recurrence, notes,
			                       created_by, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, NULL, 'pending', $6, $7, $8, $9, now(), now())
		`, uuid.New(), patientID, doctorID, branchID, day,
			priorities[i%len(priorities)], recurrence, notes[i%len(notes)], creatorID)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("schedule seeded")
	return nil
}
