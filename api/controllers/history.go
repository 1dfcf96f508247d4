package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/supplierhq/suppliers-backend/api/responses"
	"github.com/supplierhq/suppliers-backend/api/validators"
	"github.com/supplierhq/suppliers-backend/internal/history"
	"github.com/supplierhq/suppliers-backend/pkg/enums"
	pkgerrors "github.com/supplierhq/suppliers-backend/pkg/errors"
	"github.com/supplierhq/suppliers-backend/pkg/logger"
	"github.com/supplierhq/suppliers-backend/pkg/pagination"
)

// HistoryList returns a filterable, cursor-paginated slice of the
// notification audit log.
func HistoryList(svc history.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := history.Filter{}

		orderID, err := validators.ParseQueryUUID(r, "order_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.OrderID = orderID

		supplierID, err := validators.ParseQueryUUID(r, "supplier_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.SupplierID = supplierID

		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseEmailStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			filter.Status = &status
		}

		sentAfter, err := validators.ParseQueryDate(r, "sent_after")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.SentAfter = sentAfter

		sentBefore, err := validators.ParseQueryDate(r, "sent_before")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.SentBefore = sentBefore

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), filter, strings.TrimSpace(r.URL.Query().Get("cursor")), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// HistoryStats returns the dashboard counters.
func HistoryStats(svc history.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.Stats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

// OrderHistory lists the notification attempts for one order.
func OrderHistory(svc history.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListForOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}
