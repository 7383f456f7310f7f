package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/meditrack/clinic-ops/internal/followup"
)

// actingUser identifies the staff member behind a mutation, carried in a
// header until a real auth layer exists.
func actingUser(r *http.Request) uuid.UUID {
	id, err := uuid.Parse(r.Header.Get("X-Acting-User"))
	if err != nil {
		return uuid.Nil
	}
	return id
}

func listFollowupsHandler(svc *followup.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		day, ok := parseDateQuery(w, r, "date")
		if !ok {
			return
		}
		branchID, ok := parseOptionalUUIDQuery(w, r, "branch_id")
		if !ok {
			return
		}

		filter := followup.ListFilter{
			Status: followup.StatusFilter(r.URL.Query().Get("status")),
			Search: r.URL.Query().Get("search"),
		}

		records, err := svc.ListForDate(r.Context(), day, branchID, filter)
		if err != nil {
			handleFollowupError(w, err)
			return
		}

		now := time.Now()
		resp := make([]FollowupResponse, 0, len(records))
		for i := range records {
			resp = append(resp, toFollowupResponse(&records[i], now))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func followupCountsHandler(svc *followup.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, ok := parseDateQuery(w, r, "from")
		if !ok {
			return
		}
		to, ok := parseDateQuery(w, r, "to")
		if !ok {
			return
		}
		branchID, ok := parseOptionalUUIDQuery(w, r, "branch_id")
		if !ok {
			return
		}

		counts, err := svc.PendingCounts(r.Context(), from, to, branchID)
		if err != nil {
			handleFollowupError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, counts)
	}
}

func createFollowupHandler(svc *followup.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateFollowupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		patientID, err := uuid.Parse(req.PatientID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
			return
		}
		doctorID, err := uuid.Parse(req.DoctorID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
			return
		}
		branchID, err := uuid.Parse(req.BranchID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_branch_id", "branch_id must be a valid UUID")
			return
		}
		day, err := time.ParseInLocation("2006-01-02", req.ScheduledDate, time.Local)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_scheduled_date", "scheduled_date must be YYYY-MM-DD")
			return
		}

		created, err := svc.Create(r.Context(), followup.CreateParams{
			PatientID:     patientID,
			DoctorID:      doctorID,
			BranchID:      branchID,
			ScheduledDate: day,
			ScheduledTime: req.ScheduledTime,
			Priority:      followup.Priority(req.Priority),
			Recurrence:    req.Recurrence,
			Notes:         req.Notes,
			CreatedBy:     actingUser(r),
		})
		if err != nil {
			handleFollowupError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toFollowupResponse(created, time.Now()))
	}
}

func markFollowupDoneHandler(svc *followup.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseUUIDParam(w, r, "id")
		if !ok {
			return
		}

		updated, err := svc.MarkDone(r.Context(), id, actingUser(r))
		if err != nil {
			handleFollowupError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toFollowupResponse(updated, time.Now()))
	}
}

func snoozeFollowupHandler(svc *followup.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseUUIDParam(w, r, "id")
		if !ok {
			return
		}

		var req SnoozeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		updated, err := svc.Snooze(r.Context(), id, req.Days)
		if err != nil {
			handleFollowupError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toFollowupResponse(updated, time.Now()))
	}
}

func bulkMarkDoneHandler(svc *followup.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BulkFollowupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		ids, ok := parseUUIDList(w, req.IDs)
		if !ok {
			return
		}

		if err := svc.BulkMarkDone(r.Context(), ids, actingUser(r)); err != nil {
			// Partial failure: successes are retained; the caller must
			// re-query for true state.
			writeError(w, http.StatusMultiStatus, "bulk_partial_failure", err.Error())
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func bulkSnoozeHandler(svc *followup.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BulkFollowupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		ids, ok := parseUUIDList(w, req.IDs)
		if !ok {
			return
		}

		if err := svc.BulkSnooze(r.Context(), ids, req.Days); err != nil {
			if errors.Is(err, followup.ErrInvalidSnoozeDays) {
				writeError(w, http.StatusBadRequest, "invalid_snooze_days", err.Error())
				return
			}
			writeError(w, http.StatusMultiStatus, "bulk_partial_failure", err.Error())
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func parseUUIDList(w http.ResponseWriter, raw []string) ([]uuid.UUID, bool) {
	if len(raw) == 0 {
		writeError(w, http.StatusBadRequest, "empty_selection", "ids must not be empty")
		return nil, false
	}
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_id", "ids must be valid UUIDs")
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, true
}

func handleFollowupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, followup.ErrFollowupNotFound):
		writeError(w, http.StatusNotFound, "followup_not_found", err.Error())
	case errors.Is(err, followup.ErrTerminalState):
		writeError(w, http.StatusConflict, "followup_terminal", err.Error())
	case errors.Is(err, followup.ErrUnsupportedRecurrence):
		writeError(w, http.StatusUnprocessableEntity, "unsupported_recurrence", err.Error())
	case errors.Is(err, followup.ErrInvalidSnoozeDays):
		writeError(w, http.StatusBadRequest, "invalid_snooze_days", err.Error())
	case errors.Is(err, followup.ErrMissingPatient),
		errors.Is(err, followup.ErrMissingDate):
		writeError(w, http.StatusUnprocessableEntity, "validation_failed", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
