package relationships

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/supplierhq/suppliers-backend/pkg/db"
	"github.com/supplierhq/suppliers-backend/pkg/db/models"
	pkgerrors "github.com/supplierhq/suppliers-backend/pkg/errors"
)

// ErrDuplicateRelationship signals an insert of an already-assigned pair.
// Callers treat it as benign: the assignment they asked for already holds.
var ErrDuplicateRelationship = errors.New("product-supplier relationship already exists")

const pairConstraint = "uq_product_suppliers_pair"

// Service owns the product↔supplier mapping and the primary-supplier flag.
type Service interface {
	Add(ctx context.Context, productID, supplierID uuid.UUID, isPrimary bool) (int64, error)
	Remove(ctx context.Context, productID, supplierID uuid.UUID) (int64, error)
	SuppliersOf(ctx context.Context, productID uuid.UUID) ([]uuid.UUID, error)
	ProductsOf(ctx context.Context, supplierID uuid.UUID) ([]uuid.UUID, error)
	PrimaryOf(ctx context.Context, productID uuid.UUID) (*uuid.UUID, error)
	SetPrimary(ctx context.Context, productID, supplierID uuid.UUID) (bool, error)
	ClearPrimary(ctx context.Context, productID uuid.UUID) (int64, error)
	ReplaceAll(ctx context.Context, productID uuid.UUID, supplierIDs []uuid.UUID, primary *uuid.UUID) error
	RemoveAllForProduct(ctx context.Context, productID uuid.UUID) (int64, error)
	RemoveAllForSupplier(ctx context.Context, supplierID uuid.UUID) (int64, error)
	Exists(ctx context.Context, productID, supplierID uuid.UUID) (bool, error)
	CountForSupplier(ctx context.Context, supplierID uuid.UUID) (int64, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService wires the relationship store dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "relationships repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// Add assigns a supplier to a product. When isPrimary is set, any existing
// primary flag for the product is cleared first. The clear and the insert
// run as two statements; admin edits are effectively single-user per
// product, so the window is accepted.
func (s *service) Add(ctx context.Context, productID, supplierID uuid.UUID, isPrimary bool) (int64, error) {
	if productID == uuid.Nil || supplierID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "product id and supplier id required")
	}

	if isPrimary {
		if _, err := s.repo.ClearPrimary(ctx, productID); err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear primary supplier")
		}
	}

	row := &models.ProductSupplier{
		ProductID:  productID,
		SupplierID: supplierID,
		IsPrimary:  isPrimary,
	}
	if err := s.repo.Insert(ctx, row); err != nil {
		if db.IsUniqueViolation(err, pairConstraint) {
			return 0, pkgerrors.Wrap(pkgerrors.CodeConflict, ErrDuplicateRelationship, "supplier already assigned to product")
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert relationship")
	}
	return row.ID, nil
}

// Remove deletes the pair if present and reports how many rows went away.
// Removing a pair that does not exist is not an error.
func (s *service) Remove(ctx context.Context, productID, supplierID uuid.UUID) (int64, error) {
	count, err := s.repo.Delete(ctx, productID, supplierID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete relationship")
	}
	return count, nil
}

// SuppliersOf lists the suppliers assigned to a product, primary first,
// then in assignment order.
func (s *service) SuppliersOf(ctx context.Context, productID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.repo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list product suppliers")
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.SupplierID)
	}
	return ids, nil
}

// ProductsOf lists the products a supplier is assigned to, in assignment order.
func (s *service) ProductsOf(ctx context.Context, supplierID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.repo.ListBySupplier(ctx, supplierID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list supplier products")
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ProductID)
	}
	return ids, nil
}

// PrimaryOf returns the product's primary supplier, or nil when none is set.
func (s *service) PrimaryOf(ctx context.Context, productID uuid.UUID) (*uuid.UUID, error) {
	row, err := s.repo.Primary(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load primary supplier")
	}
	if row == nil {
		return nil, nil
	}
	id := row.SupplierID
	return &id, nil
}

var errPairMissing = errors.New("pair not assigned")

// SetPrimary promotes an existing pair to primary, demoting any other row
// for the product in the same transaction. It reports false when the pair
// is not assigned; the supplier must be added before it can be primary.
func (s *service) SetPrimary(ctx context.Context, productID, supplierID uuid.UUID) (bool, error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.ClearPrimary(ctx, productID); err != nil {
			return err
		}
		updated, err := repo.MarkPrimary(ctx, productID, supplierID)
		if err != nil {
			return err
		}
		if updated == 0 {
			return errPairMissing
		}
		return nil
	})
	if errors.Is(err, errPairMissing) {
		return false, nil
	}
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set primary supplier")
	}
	return true, nil
}

// ClearPrimary demotes whatever primary row the product has.
func (s *service) ClearPrimary(ctx context.Context, productID uuid.UUID) (int64, error) {
	count, err := s.repo.ClearPrimary(ctx, productID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear primary supplier")
	}
	return count, nil
}

// ReplaceAll swaps the product's full supplier set in one transaction:
// delete everything, insert the new set, flag the requested primary when it
// is part of the set. Any failure rolls the whole operation back so a
// reader never observes a half-replaced product.
func (s *service) ReplaceAll(ctx context.Context, productID uuid.UUID, supplierIDs []uuid.UUID, primary *uuid.UUID) error {
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}

	deduped := dedupe(supplierIDs)

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.DeleteByProduct(ctx, productID); err != nil {
			return err
		}
		for _, supplierID := range deduped {
			row := &models.ProductSupplier{
				ProductID:  productID,
				SupplierID: supplierID,
				IsPrimary:  primary != nil && *primary == supplierID,
			}
			if err := repo.Insert(ctx, row); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace product suppliers")
	}
	return nil
}

// RemoveAllForProduct cascades a product deletion into the mapping table.
func (s *service) RemoveAllForProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	count, err := s.repo.DeleteByProduct(ctx, productID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product relationships")
	}
	return count, nil
}

// RemoveAllForSupplier cascades a supplier deletion into the mapping table.
func (s *service) RemoveAllForSupplier(ctx context.Context, supplierID uuid.UUID) (int64, error) {
	count, err := s.repo.DeleteBySupplier(ctx, supplierID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete supplier relationships")
	}
	return count, nil
}

func (s *service) Exists(ctx context.Context, productID, supplierID uuid.UUID) (bool, error) {
	ok, err := s.repo.Exists(ctx, productID, supplierID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check relationship")
	}
	return ok, nil
}

func (s *service) CountForSupplier(ctx context.Context, supplierID uuid.UUID) (int64, error) {
	count, err := s.repo.CountBySupplier(ctx, supplierID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count supplier products")
	}
	return count, nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
