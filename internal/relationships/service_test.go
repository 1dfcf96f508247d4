package relationships

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/supplierhq/suppliers-backend/pkg/db/models"
	pkgerrors "github.com/supplierhq/suppliers-backend/pkg/errors"
)

type fakeRepo struct {
	nextID int64
	rows   []models.ProductSupplier

	insertErr error
	markErr   error
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) Insert(ctx context.Context, row *models.ProductSupplier) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	for _, existing := range f.rows {
		if existing.ProductID == row.ProductID && existing.SupplierID == row.SupplierID {
			return errors.New(`duplicate key value violates unique constraint "uq_product_suppliers_pair"`)
		}
	}
	f.nextID++
	row.ID = f.nextID
	f.rows = append(f.rows, *row)
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context, productID, supplierID uuid.UUID) (int64, error) {
	return f.deleteWhere(func(r models.ProductSupplier) bool {
		return r.ProductID == productID && r.SupplierID == supplierID
	}), nil
}

func (f *fakeRepo) ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.ProductSupplier, error) {
	var primary, rest []models.ProductSupplier
	for _, r := range f.rows {
		if r.ProductID != productID {
			continue
		}
		if r.IsPrimary {
			primary = append(primary, r)
		} else {
			rest = append(rest, r)
		}
	}
	return append(primary, rest...), nil
}

func (f *fakeRepo) ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]models.ProductSupplier, error) {
	var out []models.ProductSupplier
	for _, r := range f.rows {
		if r.SupplierID == supplierID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRepo) Primary(ctx context.Context, productID uuid.UUID) (*models.ProductSupplier, error) {
	for _, r := range f.rows {
		if r.ProductID == productID && r.IsPrimary {
			row := r
			return &row, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) MarkPrimary(ctx context.Context, productID, supplierID uuid.UUID) (int64, error) {
	if f.markErr != nil {
		return 0, f.markErr
	}
	var updated int64
	for i := range f.rows {
		if f.rows[i].ProductID == productID && f.rows[i].SupplierID == supplierID {
			f.rows[i].IsPrimary = true
			updated++
		}
	}
	return updated, nil
}

func (f *fakeRepo) ClearPrimary(ctx context.Context, productID uuid.UUID) (int64, error) {
	var cleared int64
	for i := range f.rows {
		if f.rows[i].ProductID == productID && f.rows[i].IsPrimary {
			f.rows[i].IsPrimary = false
			cleared++
		}
	}
	return cleared, nil
}

func (f *fakeRepo) DeleteByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	return f.deleteWhere(func(r models.ProductSupplier) bool { return r.ProductID == productID }), nil
}

func (f *fakeRepo) DeleteBySupplier(ctx context.Context, supplierID uuid.UUID) (int64, error) {
	return f.deleteWhere(func(r models.ProductSupplier) bool { return r.SupplierID == supplierID }), nil
}

func (f *fakeRepo) Exists(ctx context.Context, productID, supplierID uuid.UUID) (bool, error) {
	for _, r := range f.rows {
		if r.ProductID == productID && r.SupplierID == supplierID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) CountBySupplier(ctx context.Context, supplierID uuid.UUID) (int64, error) {
	var count int64
	for _, r := range f.rows {
		if r.SupplierID == supplierID {
			count++
		}
	}
	return count, nil
}

func (f *fakeRepo) deleteWhere(match func(models.ProductSupplier) bool) int64 {
	var kept []models.ProductSupplier
	var deleted int64
	for _, r := range f.rows {
		if match(r) {
			deleted++
			continue
		}
		kept = append(kept, r)
	}
	f.rows = kept
	return deleted
}

type fakeTx struct {
	snapshot func() []models.ProductSupplier
	restore  func([]models.ProductSupplier)
}

func (f *fakeTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	before := f.snapshot()
	if err := fn(nil); err != nil {
		f.restore(before)
		return err
	}
	return nil
}

func newTestService(t *testing.T) (Service, *fakeRepo) {
	t.Helper()
	repo := &fakeRepo{}
	tx := &fakeTx{
		snapshot: func() []models.ProductSupplier {
			return append([]models.ProductSupplier(nil), repo.rows...)
		},
		restore: func(rows []models.ProductSupplier) { repo.rows = rows },
	}
	svc, err := NewService(repo, tx)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return svc, repo
}

func TestAddAndSuppliersOfOrdering(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	productID := uuid.New()
	first := uuid.New()
	second := uuid.New()
	third := uuid.New()

	for _, supplierID := range []uuid.UUID{first, second} {
		if _, err := svc.Add(ctx, productID, supplierID, false); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}
	if _, err := svc.Add(ctx, productID, third, true); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	ids, err := svc.SuppliersOf(ctx, productID)
	if err != nil {
		t.Fatalf("SuppliersOf() error = %v", err)
	}
	want := []uuid.UUID{third, first, second}
	if len(ids) != len(want) {
		t.Fatalf("SuppliersOf() returned %d ids, want %d", len(ids), len(want))
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("SuppliersOf()[%d] = %s, want %s", i, ids[i], want[i])
		}
	}
}

func TestAddDuplicateReturnsConflict(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	productID := uuid.New()
	supplierID := uuid.New()

	if _, err := svc.Add(ctx, productID, supplierID, false); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	_, err := svc.Add(ctx, productID, supplierID, true)
	if err == nil {
		t.Fatal("Add() expected error for duplicate pair")
	}
	if !errors.Is(err, ErrDuplicateRelationship) {
		t.Errorf("Add() error = %v, want ErrDuplicateRelationship", err)
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Errorf("Add() error code = %v, want CONFLICT", err)
	}
}

func TestAddPrimaryDemotesExisting(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	productID := uuid.New()
	old := uuid.New()
	replacement := uuid.New()

	if _, err := svc.Add(ctx, productID, old, true); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if _, err := svc.Add(ctx, productID, replacement, true); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	primary, err := svc.PrimaryOf(ctx, productID)
	if err != nil {
		t.Fatalf("PrimaryOf() error = %v", err)
	}
	if primary == nil || *primary != replacement {
		t.Errorf("PrimaryOf() = %v, want %s", primary, replacement)
	}
}

func TestAddRejectsNilIDs(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Add(context.Background(), uuid.Nil, uuid.New(), false)
	if err == nil {
		t.Fatal("Add() expected validation error for nil product id")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Errorf("Add() error code = %v, want VALIDATION_ERROR", err)
	}
}

func TestRemoveReportsAffectedRows(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	productID := uuid.New()
	supplierID := uuid.New()

	count, err := svc.Remove(ctx, productID, supplierID)
	if err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if count != 0 {
		t.Errorf("Remove() = %d, want 0 for missing pair", count)
	}

	if _, err := svc.Add(ctx, productID, supplierID, false); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	count, err = svc.Remove(ctx, productID, supplierID)
	if err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if count != 1 {
		t.Errorf("Remove() = %d, want 1", count)
	}
}

func TestSetPrimaryRequiresExistingPair(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	productID := uuid.New()
	assigned := uuid.New()
	stranger := uuid.New()

	if _, err := svc.Add(ctx, productID, assigned, true); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	ok, err := svc.SetPrimary(ctx, productID, stranger)
	if err != nil {
		t.Fatalf("SetPrimary() error = %v", err)
	}
	if ok {
		t.Error("SetPrimary() = true for unassigned supplier, want false")
	}

	// the failed promotion must not have cleared the existing primary
	primary, err := svc.PrimaryOf(ctx, productID)
	if err != nil {
		t.Fatalf("PrimaryOf() error = %v", err)
	}
	if primary == nil || *primary != assigned {
		t.Errorf("PrimaryOf() after failed SetPrimary = %v, want %s", primary, assigned)
	}

	ok, err = svc.SetPrimary(ctx, productID, assigned)
	if err != nil {
		t.Fatalf("SetPrimary() error = %v", err)
	}
	if !ok {
		t.Error("SetPrimary() = false for assigned supplier, want true")
	}
}

func TestClearPrimary(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	productID := uuid.New()
	if _, err := svc.Add(ctx, productID, uuid.New(), true); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	cleared, err := svc.ClearPrimary(ctx, productID)
	if err != nil {
		t.Fatalf("ClearPrimary() error = %v", err)
	}
	if cleared != 1 {
		t.Errorf("ClearPrimary() = %d, want 1", cleared)
	}

	primary, err := svc.PrimaryOf(ctx, productID)
	if err != nil {
		t.Fatalf("PrimaryOf() error = %v", err)
	}
	if primary != nil {
		t.Errorf("PrimaryOf() = %v after clear, want nil", primary)
	}
}

func TestReplaceAllDedupesAndFlagsPrimary(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	productID := uuid.New()
	stale := uuid.New()
	if _, err := svc.Add(ctx, productID, stale, false); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	a := uuid.New()
	b := uuid.New()
	if err := svc.ReplaceAll(ctx, productID, []uuid.UUID{a, b, a, uuid.Nil}, &b); err != nil {
		t.Fatalf("ReplaceAll() error = %v", err)
	}

	ids, err := svc.SuppliersOf(ctx, productID)
	if err != nil {
		t.Fatalf("SuppliersOf() error = %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("SuppliersOf() returned %d ids, want 2", len(ids))
	}
	if ids[0] != b {
		t.Errorf("SuppliersOf()[0] = %s, want primary %s first", ids[0], b)
	}

	primary, err := svc.PrimaryOf(ctx, productID)
	if err != nil {
		t.Fatalf("PrimaryOf() error = %v", err)
	}
	if primary == nil || *primary != b {
		t.Errorf("PrimaryOf() = %v, want %s", primary, b)
	}
}

func TestReplaceAllRollsBackOnInsertFailure(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	productID := uuid.New()
	existing := uuid.New()
	if _, err := svc.Add(ctx, productID, existing, false); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	repo.insertErr = errors.New("connection reset")
	err := svc.ReplaceAll(ctx, productID, []uuid.UUID{uuid.New()}, nil)
	repo.insertErr = nil
	if err == nil {
		t.Fatal("ReplaceAll() expected error when insert fails")
	}

	ids, err := svc.SuppliersOf(ctx, productID)
	if err != nil {
		t.Fatalf("SuppliersOf() error = %v", err)
	}
	if len(ids) != 1 || ids[0] != existing {
		t.Errorf("SuppliersOf() after rollback = %v, want [%s]", ids, existing)
	}
}

func TestRemoveAllCascades(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	productID := uuid.New()
	supplierID := uuid.New()

	if _, err := svc.Add(ctx, productID, supplierID, false); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if _, err := svc.Add(ctx, productID, uuid.New(), false); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if _, err := svc.Add(ctx, uuid.New(), supplierID, false); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	deleted, err := svc.RemoveAllForProduct(ctx, productID)
	if err != nil {
		t.Fatalf("RemoveAllForProduct() error = %v", err)
	}
	if deleted != 2 {
		t.Errorf("RemoveAllForProduct() = %d, want 2", deleted)
	}

	deleted, err = svc.RemoveAllForSupplier(ctx, supplierID)
	if err != nil {
		t.Fatalf("RemoveAllForSupplier() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("RemoveAllForSupplier() = %d, want 1", deleted)
	}
}

func TestExistsAndCountForSupplier(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	productID := uuid.New()
	supplierID := uuid.New()

	ok, err := svc.Exists(ctx, productID, supplierID)
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if ok {
		t.Error("Exists() = true before Add, want false")
	}

	if _, err := svc.Add(ctx, productID, supplierID, false); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	ok, err = svc.Exists(ctx, productID, supplierID)
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if !ok {
		t.Error("Exists() = false after Add, want true")
	}

	count, err := svc.CountForSupplier(ctx, supplierID)
	if err != nil {
		t.Fatalf("CountForSupplier() error = %v", err)
	}
	if count != 1 {
		t.Errorf("CountForSupplier() = %d, want 1", count)
	}
}
