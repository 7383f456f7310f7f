package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	redisclient "github.com/meditrack/clinic-ops/internal/redis"
	"github.com/meditrack/clinic-ops/internal/schedule"
)

func listSlotsHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		day, ok := parseDateQuery(w, r, "date")
		if !ok {
			return
		}
		serviceID, ok := parseUUIDQuery(w, r, "service_id")
		if !ok {
			return
		}
		doctorID, ok := parseUUIDQuery(w, r, "doctor_id")
		if !ok {
			return
		}
		branchID, ok := parseOptionalUUIDQuery(w, r, "branch_id")
		if !ok {
			return
		}

		slots, err := svc.AvailableSlots(r.Context(), day, serviceID, branchID, doctorID)
		if err != nil {
			handleScheduleError(w, err)
			return
		}

		resp := make([]SlotResponse, 0, len(slots))
		for _, s := range slots {
			resp = append(resp, SlotResponse{Time: s.Time, IsRecommended: s.Recommended})
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func listServicesHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services, err := svc.ListServices(r.Context())
		if err != nil {
			handleScheduleError(w, err)
			return
		}

		resp := make([]ServiceResponse, 0, len(services))
		for _, s := range services {
			resp = append(resp, ServiceResponse{
				ID:              s.ID,
				Name:            s.Name,
				DurationMinutes: s.DurationMinutes,
				Price:           s.Price,
			})
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func listAppointmentsHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		day, ok := parseDateQuery(w, r, "date")
		if !ok {
			return
		}
		branchID, ok := parseOptionalUUIDQuery(w, r, "branch_id")
		if !ok {
			return
		}

		appts, err := svc.ListAppointments(r.Context(), day, branchID)
		if err != nil {
			handleScheduleError(w, err)
			return
		}

		resp := make([]AppointmentResponse, 0, len(appts))
		for i := range appts {
			resp = append(resp, toAppointmentResponse(&appts[i]))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func bookAppointmentHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BookAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		patientID, err := uuid.Parse(req.PatientID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
			return
		}
		serviceID, err := uuid.Parse(req.ServiceID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_service_id", "service_id must be a valid UUID")
			return
		}
		branchID, err := uuid.Parse(req.BranchID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_branch_id", "branch_id must be a valid UUID")
			return
		}
		doctorID, err := uuid.Parse(req.DoctorID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
			return
		}
		startTime, err := time.Parse(time.RFC3339, req.StartTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start_time", "start_time must be RFC 3339")
			return
		}

		appt, err := svc.BookAppointment(r.Context(), schedule.BookingRequest{
			PatientID: patientID,
			ServiceID: serviceID,
			BranchID:  branchID,
			DoctorID:  doctorID,
			StartTime: startTime,
		})
		if err != nil {
			handleScheduleError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func checkInHandler(svc *schedule.Service) http.HandlerFunc {
	return appointmentTransitionHandler(func(r *http.Request, id uuid.UUID) (*schedule.Appointment, error) {
		return svc.CheckIn(r.Context(), id)
	})
}

func startConsultHandler(svc *schedule.Service) http.HandlerFunc {
	return appointmentTransitionHandler(func(r *http.Request, id uuid.UUID) (*schedule.Appointment, error) {
		return svc.StartConsult(r.Context(), id)
	})
}

func cancelAppointmentHandler(svc *schedule.Service) http.HandlerFunc {
	return appointmentTransitionHandler(func(r *http.Request, id uuid.UUID) (*schedule.Appointment, error) {
		return svc.Cancel(r.Context(), id)
	})
}

func completeAppointmentHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseUUIDParam(w, r, "id")
		if !ok {
			return
		}

		var req CompleteAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		appt, err := svc.Complete(r.Context(), id, schedule.ConsultOutcome{
			Vitals:       req.Vitals,
			Notes:        req.Notes,
			Prescription: req.Prescription,
		})
		if err != nil {
			handleScheduleError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func appointmentTransitionHandler(op func(r *http.Request, id uuid.UUID) (*schedule.Appointment, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseUUIDParam(w, r, "id")
		if !ok {
			return
		}

		appt, err := op(r, id)
		if err != nil {
			handleScheduleError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func listBlockersHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		day, ok := parseDateQuery(w, r, "date")
		if !ok {
			return
		}
		doctorID, ok := parseUUIDQuery(w, r, "doctor_id")
		if !ok {
			return
		}

		blockers, err := svc.ListBlockers(r.Context(), day, doctorID)
		if err != nil {
			handleScheduleError(w, err)
			return
		}

		resp := make([]BlockerResponse, 0, len(blockers))
		for i := range blockers {
			resp = append(resp, toBlockerResponse(&blockers[i]))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func createBlockerHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateBlockerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		doctorID, err := uuid.Parse(req.DoctorID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
			return
		}
		start, err := time.Parse(time.RFC3339, req.StartTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start_time", "start_time must be RFC 3339")
			return
		}
		end, err := time.Parse(time.RFC3339, req.EndTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_end_time", "end_time must be RFC 3339")
			return
		}

		blocker, err := svc.CreateBlocker(r.Context(), doctorID, start, end, req.Reason)
		if err != nil {
			handleScheduleError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toBlockerResponse(blocker))
	}
}

func deleteBlockerHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseUUIDParam(w, r, "id")
		if !ok {
			return
		}

		if err := svc.DeleteBlocker(r.Context(), id); err != nil {
			handleScheduleError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func handleScheduleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, schedule.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, schedule.ErrServiceNotFound):
		writeError(w, http.StatusNotFound, "service_not_found", err.Error())
	case errors.Is(err, schedule.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, schedule.ErrBlockerNotFound):
		writeError(w, http.StatusNotFound, "blocker_not_found", err.Error())
	case errors.Is(err, schedule.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot_taken", err.Error())
	case errors.Is(err, schedule.ErrSlotBeingBooked),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "slot_being_booked", "time is currently being booked, please retry shortly")
	case errors.Is(err, schedule.ErrPastStartTime):
		writeError(w, http.StatusUnprocessableEntity, "start_in_past", err.Error())
	case errors.Is(err, schedule.ErrInvalidTransition),
		errors.Is(err, schedule.ErrNotCancelable):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	case errors.Is(err, schedule.ErrInvalidTimeRange):
		writeError(w, http.StatusUnprocessableEntity, "invalid_time_range", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

// Query/path parsing helpers shared by the handlers.

func parseDateQuery(w http.ResponseWriter, r *http.Request, key string) (time.Time, bool) {
	raw := r.URL.Query().Get(key)
	day, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_"+key, key+" must be YYYY-MM-DD")
		return time.Time{}, false
	}
	return day, true
}

func parseUUIDQuery(w http.ResponseWriter, r *http.Request, key string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.URL.Query().Get(key))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_"+key, key+" must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func parseOptionalUUIDQuery(w http.ResponseWriter, r *http.Request, key string) (*uuid.UUID, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" || raw == "all" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_"+key, key+" must be a valid UUID or \"all\"")
		return nil, false
	}
	return &id, true
}

func parseUUIDParam(w http.ResponseWriter, r *http.Request, key string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, key))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_"+key, key+" must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}
