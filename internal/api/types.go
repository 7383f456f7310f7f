package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/meditrack/clinic-ops/internal/billing"
	"github.com/meditrack/clinic-ops/internal/followup"
	"github.com/meditrack/clinic-ops/internal/schedule"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Scheduling

type SlotResponse struct {
	Time          string `json:"time"`
	IsRecommended bool   `json:"is_recommended"`
}

type BookAppointmentRequest struct {
	PatientID string `json:"patient_id"`
	ServiceID string `json:"service_id"`
	BranchID  string `json:"branch_id"`
	DoctorID  string `json:"doctor_id"`
	StartTime string `json:"start_time"` // RFC 3339
}

type CompleteAppointmentRequest struct {
	Vitals       *schedule.Vitals            `json:"vitals,omitempty"`
	Notes        *string                     `json:"notes,omitempty"`
	Prescription []schedule.PrescriptionItem `json:"prescription,omitempty"`
}

type AppointmentResponse struct {
	ID            uuid.UUID                   `json:"id"`
	BranchID      uuid.UUID                   `json:"branch_id"`
	DoctorID      uuid.UUID                   `json:"doctor_id"`
	PatientID     uuid.UUID                   `json:"patient_id"`
	ServiceID     uuid.UUID                   `json:"service_id"`
	StartTime     time.Time                   `json:"start_time"`
	EndTime       time.Time                   `json:"end_time"`
	Status        string                      `json:"status"`
	CheckedInTime *time.Time                  `json:"checked_in_time,omitempty"`
	Vitals        *schedule.Vitals            `json:"vitals,omitempty"`
	Notes         *string                     `json:"notes,omitempty"`
	Prescription  []schedule.PrescriptionItem `json:"prescription,omitempty"`
	InvoiceID     *uuid.UUID                  `json:"invoice_id,omitempty"`
	ReminderSent  bool                        `json:"reminder_sent"`
}

func toAppointmentResponse(a *schedule.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:            a.ID,
		BranchID:      a.BranchID,
		DoctorID:      a.DoctorID,
		PatientID:     a.PatientID,
		ServiceID:     a.ServiceID,
		StartTime:     a.StartTime,
		EndTime:       a.EndTime,
		Status:        string(a.Status),
		CheckedInTime: a.CheckedInTime,
		Vitals:        a.Vitals,
		Notes:         a.Notes,
		Prescription:  a.Prescription,
		InvoiceID:     a.InvoiceID,
		ReminderSent:  a.ReminderSent,
	}
}

type CreateBlockerRequest struct {
	DoctorID  string `json:"doctor_id"`
	StartTime string `json:"start_time"` // RFC 3339
	EndTime   string `json:"end_time"`   // RFC 3339
	Reason    string `json:"reason"`
}

type BlockerResponse struct {
	ID        uuid.UUID `json:"id"`
	DoctorID  uuid.UUID `json:"doctor_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Reason    string    `json:"reason"`
}

func toBlockerResponse(b *schedule.CalendarBlocker) BlockerResponse {
	return BlockerResponse{
		ID:        b.ID,
		DoctorID:  b.DoctorID,
		StartTime: b.StartTime,
		EndTime:   b.EndTime,
		Reason:    b.Reason,
	}
}

type ServiceResponse struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	DurationMinutes int       `json:"duration_minutes"`
	Price           int       `json:"price"`
}

// Follow-ups

type CreateFollowupRequest struct {
	PatientID     string               `json:"patient_id"`
	DoctorID      string               `json:"doctor_id"`
	BranchID      string               `json:"branch_id"`
	ScheduledDate string               `json:"scheduled_date"` // YYYY-MM-DD
	ScheduledTime *string              `json:"scheduled_time,omitempty"`
	Priority      string               `json:"priority"`
	Recurrence    *followup.Recurrence `json:"recurrence,omitempty"`
	Notes         *string              `json:"notes,omitempty"`
}

type SnoozeRequest struct {
	Days int `json:"days"`
}

type BulkFollowupRequest struct {
	IDs  []string `json:"ids"`
	Days int      `json:"days,omitempty"` // snooze only
}

type FollowupResponse struct {
	ID            uuid.UUID            `json:"id"`
	PatientID     uuid.UUID            `json:"patient_id"`
	PatientName   string               `json:"patient_name"`
	PatientPhone  string               `json:"patient_phone"`
	DoctorID      uuid.UUID            `json:"doctor_id"`
	BranchID      uuid.UUID            `json:"branch_id"`
	ScheduledDate string               `json:"scheduled_date"`
	ScheduledTime *string              `json:"scheduled_time,omitempty"`
	Status        string               `json:"status"`
	Priority      string               `json:"priority"`
	Recurrence    *followup.Recurrence `json:"recurrence,omitempty"`
	Notes         *string              `json:"notes,omitempty"`
	Overdue       bool                 `json:"overdue"`
}

func toFollowupResponse(f *followup.Followup, now time.Time) FollowupResponse {
	return FollowupResponse{
		ID:            f.ID,
		PatientID:     f.PatientID,
		PatientName:   f.PatientName,
		PatientPhone:  f.PatientPhone,
		DoctorID:      f.DoctorID,
		BranchID:      f.BranchID,
		ScheduledDate: f.ScheduledDate.Format("2006-01-02"),
		ScheduledTime: f.ScheduledTime,
		Status:        string(f.Status),
		Priority:      string(f.Priority),
		Recurrence:    f.Recurrence,
		Notes:         f.Notes,
		Overdue:       f.Overdue(now),
	}
}

// Patients

type CreatePatientRequest struct {
	Name   string  `json:"name"`
	Phone  string  `json:"phone"`
	DOB    *string `json:"dob,omitempty"`
	Gender *string `json:"gender,omitempty"`
}

type PatientResponse struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Phone  string    `json:"phone"`
	DOB    *string   `json:"dob,omitempty"`
	Gender *string   `json:"gender,omitempty"`
}

type HistoryItemResponse struct {
	Type        string               `json:"type"`
	EventDate   time.Time            `json:"event_date"`
	Appointment *AppointmentResponse `json:"appointment,omitempty"`
	Followup    *FollowupResponse    `json:"followup,omitempty"`
}

// Billing

type InvoiceResponse struct {
	ID            uuid.UUID `json:"id"`
	AppointmentID uuid.UUID `json:"appointment_id"`
	ServiceName   string    `json:"service_name"`
	Amount        int       `json:"amount"`
	Status        string    `json:"status"`
	PatientName   string    `json:"patient_name"`
	InvoiceDate   string    `json:"invoice_date"`
}

func toInvoiceResponse(inv *billing.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:            inv.ID,
		AppointmentID: inv.AppointmentID,
		ServiceName:   inv.ServiceName,
		Amount:        inv.Amount,
		Status:        string(inv.Status),
		PatientName:   inv.PatientName,
		InvoiceDate:   inv.InvoiceDate.Format("2006-01-02"),
	}
}
