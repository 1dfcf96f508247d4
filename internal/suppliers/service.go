package suppliers

import (
	"context"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/supplierhq/suppliers-backend/internal/events"
	"github.com/supplierhq/suppliers-backend/pkg/db/models"
	"github.com/supplierhq/suppliers-backend/pkg/enums"
	pkgerrors "github.com/supplierhq/suppliers-backend/pkg/errors"
)

// Input carries the writable supplier fields for create/update.
type Input struct {
	Name      string
	Email     string
	Phone     *string
	Address   *string
	Published bool
}

// Detail is a supplier plus the derived counts the admin screens show.
type Detail struct {
	models.Supplier
	ProductsCount int64 `json:"products_count"`
}

type relationshipCounter interface {
	CountForSupplier(ctx context.Context, supplierID uuid.UUID) (int64, error)
}

// Service manages supplier entities.
type Service interface {
	Create(ctx context.Context, input Input) (*models.Supplier, error)
	Update(ctx context.Context, id uuid.UUID, input Input) (*models.Supplier, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*Detail, error)
	GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Supplier, error)
	List(ctx context.Context, publishedOnly bool) ([]models.Supplier, error)
}

type service struct {
	repo    Repository
	counter relationshipCounter
	emitter events.Emitter
}

// NewService wires the supplier dependencies.
func NewService(repo Repository, counter relationshipCounter, emitter events.Emitter) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "suppliers repository required")
	}
	if counter == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "relationship counter required")
	}
	if emitter == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "event emitter required")
	}
	return &service{repo: repo, counter: counter, emitter: emitter}, nil
}

func validateInput(input Input) error {
	if strings.TrimSpace(input.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "supplier name is required")
	}
	if email := strings.TrimSpace(input.Email); email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid supplier email")
		}
	}
	return nil
}

func (s *service) Create(ctx context.Context, input Input) (*models.Supplier, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	row := &models.Supplier{
		Name:      strings.TrimSpace(input.Name),
		Email:     strings.TrimSpace(input.Email),
		Phone:     input.Phone,
		Address:   input.Address,
		Published: input.Published,
	}
	if err := s.repo.Insert(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert supplier")
	}
	return row, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input Input) (*models.Supplier, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	row, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load supplier")
	}
	if row == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
	}

	row.Name = strings.TrimSpace(input.Name)
	row.Email = strings.TrimSpace(input.Email)
	row.Phone = input.Phone
	row.Address = input.Address
	row.Published = input.Published

	if err := s.repo.Update(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update supplier")
	}
	return row, nil
}

// Delete removes the supplier and announces the deletion so dependent
// modules (the relationship table today) can clean up after it.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete supplier")
	}
	if deleted == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
	}

	payload := events.EntityDeleted{Kind: enums.EntityKindSupplier, ID: id}
	if err := s.emitter.Emit(ctx, enums.EventEntityDeleted, payload); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "supplier deletion cascade")
	}
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Detail, error) {
	row, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load supplier")
	}
	if row == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
	}

	count, err := s.counter.CountForSupplier(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Detail{Supplier: *row, ProductsCount: count}, nil
}

func (s *service) GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Supplier, error) {
	rows, err := s.repo.GetMany(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load suppliers")
	}
	out := make(map[uuid.UUID]models.Supplier, len(rows))
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

func (s *service) List(ctx context.Context, publishedOnly bool) ([]models.Supplier, error) {
	rows, err := s.repo.List(ctx, publishedOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list suppliers")
	}
	return rows, nil
}
