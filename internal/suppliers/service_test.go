package suppliers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/supplierhq/suppliers-backend/internal/events"
	"github.com/supplierhq/suppliers-backend/pkg/db/models"
	"github.com/supplierhq/suppliers-backend/pkg/enums"
	pkgerrors "github.com/supplierhq/suppliers-backend/pkg/errors"
)

type fakeRepo struct {
	rows map[uuid.UUID]models.Supplier
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: make(map[uuid.UUID]models.Supplier)}
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) Insert(ctx context.Context, row *models.Supplier) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	f.rows[row.ID] = *row
	return nil
}

func (f *fakeRepo) Update(ctx context.Context, row *models.Supplier) error {
	f.rows[row.ID] = *row
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	if _, ok := f.rows[id]; !ok {
		return 0, nil
	}
	delete(f.rows, id)
	return 1, nil
}

func (f *fakeRepo) Get(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	row, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (f *fakeRepo) GetMany(ctx context.Context, ids []uuid.UUID) ([]models.Supplier, error) {
	var out []models.Supplier
	for _, id := range ids {
		if row, ok := f.rows[id]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeRepo) List(ctx context.Context, publishedOnly bool) ([]models.Supplier, error) {
	var out []models.Supplier
	for _, row := range f.rows {
		if publishedOnly && !row.Published {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

type fakeCounter struct {
	count int64
}

func (f *fakeCounter) CountForSupplier(ctx context.Context, supplierID uuid.UUID) (int64, error) {
	return f.count, nil
}

type fakeEmitter struct {
	events   []enums.EventType
	payloads []any
}

func (f *fakeEmitter) Emit(ctx context.Context, event enums.EventType, payload any) error {
	f.events = append(f.events, event)
	f.payloads = append(f.payloads, payload)
	return nil
}

func newTestService(t *testing.T) (Service, *fakeRepo, *fakeEmitter) {
	t.Helper()
	repo := newFakeRepo()
	emitter := &fakeEmitter{}
	svc, err := NewService(repo, &fakeCounter{count: 3}, emitter)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return svc, repo, emitter
}

func TestCreateValidatesInput(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, Input{Name: "  "})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Errorf("Create() without name = %v, want VALIDATION_ERROR", err)
	}

	_, err = svc.Create(ctx, Input{Name: "Acme", Email: "not-an-email"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Errorf("Create() with bad email = %v, want VALIDATION_ERROR", err)
	}

	row, err := svc.Create(ctx, Input{Name: " Acme Wholesale ", Email: "orders@acme.test", Published: true})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if row.Name != "Acme Wholesale" {
		t.Errorf("Create() name = %q, want trimmed", row.Name)
	}
	if row.ID == uuid.Nil {
		t.Error("Create() did not assign an id")
	}
}

func TestUpdateMissingSupplier(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Update(context.Background(), uuid.New(), Input{Name: "Acme"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Errorf("Update() on missing supplier = %v, want NOT_FOUND", err)
	}
}

func TestDeleteEmitsEntityDeleted(t *testing.T) {
	svc, _, emitter := newTestService(t)
	ctx := context.Background()

	row, err := svc.Create(ctx, Input{Name: "Acme"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := svc.Delete(ctx, row.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if len(emitter.events) != 1 || emitter.events[0] != enums.EventEntityDeleted {
		t.Fatalf("Delete() emitted %v, want [entity.deleted]", emitter.events)
	}
	payload, ok := emitter.payloads[0].(events.EntityDeleted)
	if !ok {
		t.Fatalf("Delete() payload type = %T, want events.EntityDeleted", emitter.payloads[0])
	}
	if payload.Kind != enums.EntityKindSupplier || payload.ID != row.ID {
		t.Errorf("Delete() payload = %+v", payload)
	}
}

func TestDeleteMissingSupplier(t *testing.T) {
	svc, _, emitter := newTestService(t)

	err := svc.Delete(context.Background(), uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Errorf("Delete() on missing supplier = %v, want NOT_FOUND", err)
	}
	if len(emitter.events) != 0 {
		t.Errorf("Delete() emitted %v for a missing supplier, want none", emitter.events)
	}
}

func TestGetIncludesProductsCount(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	row, err := svc.Create(ctx, Input{Name: "Acme"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	detail, err := svc.Get(ctx, row.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if detail.ProductsCount != 3 {
		t.Errorf("Get() products count = %d, want 3", detail.ProductsCount)
	}
}

func TestGetManyKeysByID(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	a, _ := svc.Create(ctx, Input{Name: "Acme"})
	b, _ := svc.Create(ctx, Input{Name: "Blue Ridge"})

	got, err := svc.GetMany(ctx, []uuid.UUID{a.ID, b.ID, uuid.New()})
	if err != nil {
		t.Fatalf("GetMany() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("GetMany() returned %d suppliers, want 2", len(got))
	}
	if got[a.ID].Name != "Acme" || got[b.ID].Name != "Blue Ridge" {
		t.Errorf("GetMany() = %v", got)
	}
}
