package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/supplierhq/suppliers-backend/api/responses"
	"github.com/supplierhq/suppliers-backend/api/validators"
	"github.com/supplierhq/suppliers-backend/internal/dispatch"
	"github.com/supplierhq/suppliers-backend/pkg/logger"
)

// OrderNotify triggers the supplier notification run for an order on
// demand, independent of the status transition trigger.
func OrderNotify(svc dispatch.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Dispatch(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
