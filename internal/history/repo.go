package history

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/supplierhq/suppliers-backend/pkg/db/models"
	"github.com/supplierhq/suppliers-backend/pkg/enums"
	"github.com/supplierhq/suppliers-backend/pkg/pagination"
)

// Filter narrows a history listing. Zero values mean "no constraint".
type Filter struct {
	OrderID    *uuid.UUID
	SupplierID *uuid.UUID
	Status     *enums.EmailStatus
	SentAfter  *time.Time
	SentBefore *time.Time
}

// Stats summarises the audit log for the dashboard widget.
type Stats struct {
	TotalSent   int64 `json:"total_sent"`
	TotalFailed int64 `json:"total_failed"`
	ThisMonth   int64 `json:"this_month"`
	Today       int64 `json:"today"`
}

// Repository exposes persistence helpers for supplier notification logs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, row *models.EmailLog) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.EmailLog, error)
	List(ctx context.Context, filter Filter, cursor *pagination.Cursor, limit int) ([]models.EmailLog, error)
	Stats(ctx context.Context, now time.Time) (*Stats, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a history repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, row *models.EmailLog) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *repositoryImpl) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.EmailLog, error) {
	var rows []models.EmailLog
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("sent_at DESC, id DESC").
		Find(&rows).Error
	return rows, err
}

// List pages through the log newest-first. The cursor encodes the last seen
// (sent_at, id) pair; ties on sent_at fall back to the id ordering.
func (r *repositoryImpl) List(ctx context.Context, filter Filter, cursor *pagination.Cursor, limit int) ([]models.EmailLog, error) {
	query := r.db.WithContext(ctx).Model(&models.EmailLog{})
	query = applyFilter(query, filter)

	if cursor != nil {
		query = query.Where(
			"(sent_at < ?) OR (sent_at = ? AND id < ?)",
			cursor.SentAt, cursor.SentAt, cursor.ID,
		)
	}

	var rows []models.EmailLog
	err := query.
		Order("sent_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func applyFilter(query *gorm.DB, filter Filter) *gorm.DB {
	if filter.OrderID != nil {
		query = query.Where("order_id = ?", *filter.OrderID)
	}
	if filter.SupplierID != nil {
		query = query.Where("supplier_id = ?", *filter.SupplierID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.SentAfter != nil {
		query = query.Where("sent_at >= ?", *filter.SentAfter)
	}
	if filter.SentBefore != nil {
		query = query.Where("sent_at < ?", *filter.SentBefore)
	}
	return query
}

func (r *repositoryImpl) Stats(ctx context.Context, now time.Time) (*Stats, error) {
	stats := &Stats{}
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&models.EmailLog{})
	}

	if err := base().Where("status = ?", enums.EmailStatusSent).Count(&stats.TotalSent).Error; err != nil {
		return nil, err
	}
	if err := base().Where("status = ?", enums.EmailStatusFailed).Count(&stats.TotalFailed).Error; err != nil {
		return nil, err
	}

	now = now.UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	if err := base().Where("sent_at >= ?", monthStart).Count(&stats.ThisMonth).Error; err != nil {
		return nil, err
	}
	if err := base().Where("sent_at >= ?", dayStart).Count(&stats.Today).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *repositoryImpl) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("sent_at < ?", cutoff).
		Delete(&models.EmailLog{})
	return result.RowsAffected, result.Error
}
