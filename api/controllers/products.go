package controllers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/supplierhq/suppliers-backend/api/responses"
	"github.com/supplierhq/suppliers-backend/api/validators"
	"github.com/supplierhq/suppliers-backend/internal/relationships"
	pkgerrors "github.com/supplierhq/suppliers-backend/pkg/errors"
	"github.com/supplierhq/suppliers-backend/pkg/logger"
)

type assignSupplierRequest struct {
	SupplierID uuid.UUID `json:"supplier_id" validate:"required"`
	IsPrimary  bool      `json:"is_primary"`
}

type replaceSuppliersRequest struct {
	SupplierIDs       []uuid.UUID `json:"supplier_ids" validate:"required"`
	PrimarySupplierID *uuid.UUID  `json:"primary_supplier_id"`
}

type setPrimaryRequest struct {
	SupplierID uuid.UUID `json:"supplier_id" validate:"required"`
}

// ProductSuppliers lists a product's suppliers, primary first.
func ProductSuppliers(svc relationships.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParsePathUUID(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ids, err := svc.SuppliersOf(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		primary, err := svc.PrimaryOf(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"supplier_ids":        ids,
			"primary_supplier_id": primary,
		})
	}
}

// ProductAssignSupplier adds one supplier to a product. Assigning an
// already-assigned supplier reports the existing state instead of failing.
func ProductAssignSupplier(svc relationships.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParsePathUUID(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req assignSupplierRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := svc.Add(r.Context(), productID, req.SupplierID, req.IsPrimary)
		if err != nil {
			if errors.Is(err, relationships.ErrDuplicateRelationship) {
				responses.WriteSuccess(w, map[string]any{"status": "already-assigned"})
				return
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"relationship_id": id})
	}
}

// ProductReplaceSuppliers swaps the full supplier set of a product.
func ProductReplaceSuppliers(svc relationships.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParsePathUUID(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req replaceSuppliersRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.ReplaceAll(r.Context(), productID, req.SupplierIDs, req.PrimarySupplierID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "replaced"})
	}
}

// ProductUnassignSupplier removes one supplier from a product.
func ProductUnassignSupplier(svc relationships.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParsePathUUID(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		supplierID, err := validators.ParsePathUUID(chi.URLParam(r, "supplierId"), "supplierId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		removed, err := svc.Remove(r.Context(), productID, supplierID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"removed": removed})
	}
}

// ProductSetPrimary promotes an assigned supplier to primary.
func ProductSetPrimary(svc relationships.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParsePathUUID(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req setPrimaryRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ok, err := svc.SetPrimary(r.Context(), productID, req.SupplierID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "supplier is not assigned to the product"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "primary-set"})
	}
}

// ProductClearPrimary demotes the product's primary supplier.
func ProductClearPrimary(svc relationships.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParsePathUUID(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cleared, err := svc.ClearPrimary(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"cleared": cleared})
	}
}
