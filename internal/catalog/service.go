package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/supplierhq/suppliers-backend/pkg/db/models"
	pkgerrors "github.com/supplierhq/suppliers-backend/pkg/errors"
)

// Service resolves catalog products, including variant parents.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	// ResolveAssignable maps a product id to the id that carries supplier
	// assignments: the product itself, or its parent when the id names a
	// variant. Unknown ids resolve to themselves so stale order lines
	// still group deterministically.
	ResolveAssignable(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

type service struct {
	repo Repository
}

// NewService wires the catalog dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	row, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if row == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return row, nil
}

func (s *service) ResolveAssignable(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row, err := s.repo.Get(ctx, id)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if row == nil || row.ParentID == nil {
		return id, nil
	}
	return *row.ParentID, nil
}
