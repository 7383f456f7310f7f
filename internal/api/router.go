package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/meditrack/clinic-ops/internal/billing"
	"github.com/meditrack/clinic-ops/internal/followup"
	"github.com/meditrack/clinic-ops/internal/patient"
	"github.com/meditrack/clinic-ops/internal/schedule"
)

type RouterConfig struct {
	Schedule *schedule.Service
	Followup *followup.Service
	Patient  *patient.Service
	Billing  *billing.Service
	PgPool   *pgxpool.Pool
	Redis    *redis.Client
	Env      string
	Version  string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Scheduling
	r.Get("/slots", listSlotsHandler(cfg.Schedule))
	r.Get("/services", listServicesHandler(cfg.Schedule))
	r.Get("/appointments", listAppointmentsHandler(cfg.Schedule))
	r.Post("/appointments", bookAppointmentHandler(cfg.Schedule))
	r.Post("/appointments/{id}/check-in", checkInHandler(cfg.Schedule))
	r.Post("/appointments/{id}/start-consult", startConsultHandler(cfg.Schedule))
	r.Post("/appointments/{id}/complete", completeAppointmentHandler(cfg.Schedule))
	r.Post("/appointments/{id}/cancel", cancelAppointmentHandler(cfg.Schedule))
	r.Get("/appointments/{id}/invoice", getInvoiceForAppointmentHandler(cfg.Billing))

	// Blockers
	r.Get("/blockers", listBlockersHandler(cfg.Schedule))
	r.Post("/blockers", createBlockerHandler(cfg.Schedule))
	r.Delete("/blockers/{id}", deleteBlockerHandler(cfg.Schedule))

	// Follow-ups
	r.Get("/followups", listFollowupsHandler(cfg.Followup))
	r.Get("/followups/counts", followupCountsHandler(cfg.Followup))
	r.Post("/followups", createFollowupHandler(cfg.Followup))
	r.Post("/followups/{id}/done", markFollowupDoneHandler(cfg.Followup))
	r.Post("/followups/{id}/snooze", snoozeFollowupHandler(cfg.Followup))
	r.Post("/followups/bulk/done", bulkMarkDoneHandler(cfg.Followup))
	r.Post("/followups/bulk/snooze", bulkSnoozeHandler(cfg.Followup))

	// Patients
	r.Get("/patients", searchPatientsHandler(cfg.Patient))
	r.Post("/patients", createPatientHandler(cfg.Patient))
	r.Get("/patients/{id}/history", patientHistoryHandler(cfg.Patient))

	// Billing
	r.Get("/invoices", listInvoicesHandler(cfg.Billing))
	r.Post("/invoices/{id}/pay", recordPaymentHandler(cfg.Billing))

	return r
}
