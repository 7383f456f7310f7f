package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/meditrack/clinic-ops/internal/patient"
)

func searchPatientsHandler(svc *patient.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results, err := svc.Search(r.Context(), r.URL.Query().Get("q"))
		if err != nil {
			handlePatientError(w, err)
			return
		}

		resp := make([]PatientResponse, 0, len(results))
		for _, p := range results {
			resp = append(resp, PatientResponse{
				ID:     p.ID,
				Name:   p.Name,
				Phone:  p.Phone,
				DOB:    p.DOB,
				Gender: p.Gender,
			})
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func createPatientHandler(svc *patient.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreatePatientRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		created, err := svc.Create(r.Context(), patient.Patient{
			Name:   req.Name,
			Phone:  req.Phone,
			DOB:    req.DOB,
			Gender: req.Gender,
		})
		if err != nil {
			handlePatientError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, PatientResponse{
			ID:     created.ID,
			Name:   created.Name,
			Phone:  created.Phone,
			DOB:    created.DOB,
			Gender: created.Gender,
		})
	}
}

func patientHistoryHandler(svc *patient.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseUUIDParam(w, r, "id")
		if !ok {
			return
		}

		items, err := svc.History(r.Context(), id)
		if err != nil {
			handlePatientError(w, err)
			return
		}

		now := time.Now()
		resp := make([]HistoryItemResponse, 0, len(items))
		for _, item := range items {
			h := HistoryItemResponse{
				Type:      string(item.Kind),
				EventDate: item.EventDate,
			}
			if item.Appointment != nil {
				a := toAppointmentResponse(item.Appointment)
				h.Appointment = &a
			}
			if item.Followup != nil {
				f := toFollowupResponse(item.Followup, now)
				h.Followup = &f
			}
			resp = append(resp, h)
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func handlePatientError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, patient.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, patient.ErrMissingName),
		errors.Is(err, patient.ErrMissingPhone):
		writeError(w, http.StatusUnprocessableEntity, "validation_failed", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
