package api

import (
	"errors"
	"net/http"

	"github.com/meditrack/clinic-ops/internal/billing"
)

func getInvoiceForAppointmentHandler(svc *billing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		apptID, ok := parseUUIDParam(w, r, "id")
		if !ok {
			return
		}

		inv, err := svc.GetForAppointment(r.Context(), apptID)
		if err != nil {
			handleBillingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toInvoiceResponse(inv))
	}
}

func listInvoicesHandler(svc *billing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, ok := parseDateQuery(w, r, "from")
		if !ok {
			return
		}
		to, ok := parseDateQuery(w, r, "to")
		if !ok {
			return
		}

		invoices, err := svc.ListForRange(r.Context(), from, to)
		if err != nil {
			handleBillingError(w, err)
			return
		}

		out := make([]InvoiceResponse, 0, len(invoices))
		for i := range invoices {
			out = append(out, toInvoiceResponse(&invoices[i]))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func recordPaymentHandler(svc *billing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseUUIDParam(w, r, "id")
		if !ok {
			return
		}

		inv, err := svc.RecordPayment(r.Context(), id)
		if err != nil {
			handleBillingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toInvoiceResponse(inv))
	}
}

func handleBillingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, billing.ErrInvoiceNotFound):
		writeError(w, http.StatusNotFound, "invoice_not_found", err.Error())
	case errors.Is(err, billing.ErrAlreadyPaid):
		writeError(w, http.StatusConflict, "invoice_already_paid", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
