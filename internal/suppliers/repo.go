package suppliers

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/supplierhq/suppliers-backend/pkg/db/models"
)

// Repository exposes persistence helpers for supplier entities.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Insert(ctx context.Context, row *models.Supplier) error
	Update(ctx context.Context, row *models.Supplier) error
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Supplier, error)
	GetMany(ctx context.Context, ids []uuid.UUID) ([]models.Supplier, error)
	List(ctx context.Context, publishedOnly bool) ([]models.Supplier, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a suppliers repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Insert(ctx context.Context, row *models.Supplier) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *repositoryImpl) Update(ctx context.Context, row *models.Supplier) error {
	return r.db.WithContext(ctx).Save(row).Error
}

func (r *repositoryImpl) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Supplier{})
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) Get(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	var row models.Supplier
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repositoryImpl) GetMany(ctx context.Context, ids []uuid.UUID) ([]models.Supplier, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Supplier
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) List(ctx context.Context, publishedOnly bool) ([]models.Supplier, error) {
	query := r.db.WithContext(ctx).Model(&models.Supplier{})
	if publishedOnly {
		query = query.Where("published = ?", true)
	}
	var rows []models.Supplier
	err := query.Order("name ASC").Find(&rows).Error
	return rows, err
}
