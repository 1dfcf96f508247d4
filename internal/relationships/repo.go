package relationships

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/supplierhq/suppliers-backend/pkg/db/models"
)

// Repository exposes persistence helpers for product↔supplier rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Insert(ctx context.Context, row *models.ProductSupplier) error
	Delete(ctx context.Context, productID, supplierID uuid.UUID) (int64, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.ProductSupplier, error)
	ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]models.ProductSupplier, error)
	Primary(ctx context.Context, productID uuid.UUID) (*models.ProductSupplier, error)
	MarkPrimary(ctx context.Context, productID, supplierID uuid.UUID) (int64, error)
	ClearPrimary(ctx context.Context, productID uuid.UUID) (int64, error)
	DeleteByProduct(ctx context.Context, productID uuid.UUID) (int64, error)
	DeleteBySupplier(ctx context.Context, supplierID uuid.UUID) (int64, error)
	Exists(ctx context.Context, productID, supplierID uuid.UUID) (bool, error)
	CountBySupplier(ctx context.Context, supplierID uuid.UUID) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a relationships repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Insert(ctx context.Context, row *models.ProductSupplier) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *repositoryImpl) Delete(ctx context.Context, productID, supplierID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("product_id = ? AND supplier_id = ?", productID, supplierID).
		Delete(&models.ProductSupplier{})
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.ProductSupplier, error) {
	var rows []models.ProductSupplier
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("is_primary DESC, id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]models.ProductSupplier, error) {
	var rows []models.ProductSupplier
	err := r.db.WithContext(ctx).
		Where("supplier_id = ?", supplierID).
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) Primary(ctx context.Context, productID uuid.UUID) (*models.ProductSupplier, error) {
	var row models.ProductSupplier
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND is_primary = ?", productID, true).
		Limit(1).
		Take(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repositoryImpl) MarkPrimary(ctx context.Context, productID, supplierID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ProductSupplier{}).
		Where("product_id = ? AND supplier_id = ?", productID, supplierID).
		UpdateColumn("is_primary", true)
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) ClearPrimary(ctx context.Context, productID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ProductSupplier{}).
		Where("product_id = ? AND is_primary = ?", productID, true).
		UpdateColumn("is_primary", false)
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) DeleteByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Delete(&models.ProductSupplier{})
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) DeleteBySupplier(ctx context.Context, supplierID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("supplier_id = ?", supplierID).
		Delete(&models.ProductSupplier{})
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) Exists(ctx context.Context, productID, supplierID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ProductSupplier{}).
		Where("product_id = ? AND supplier_id = ?", productID, supplierID).
		Count(&count).Error
	return count > 0, err
}

func (r *repositoryImpl) CountBySupplier(ctx context.Context, supplierID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ProductSupplier{}).
		Where("supplier_id = ?", supplierID).
		Count(&count).Error
	return count, err
}
