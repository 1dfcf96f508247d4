package history

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/supplierhq/suppliers-backend/pkg/config"
	"github.com/supplierhq/suppliers-backend/pkg/db/models"
	"github.com/supplierhq/suppliers-backend/pkg/enums"
	pkgerrors "github.com/supplierhq/suppliers-backend/pkg/errors"
	"github.com/supplierhq/suppliers-backend/pkg/pagination"
)

// Entry captures one notification attempt to be persisted.
type Entry struct {
	OrderID        uuid.UUID
	SupplierID     uuid.UUID
	SupplierName   string
	SupplierEmail  string
	RecipientEmail string
	Subject        string
	Status         enums.EmailStatus
	ItemsCount     int
	SentAt         time.Time
}

// Page is one slice of the audit log plus the cursor for the next slice.
type Page struct {
	Items      []models.EmailLog `json:"items"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

// Service reads and maintains the supplier notification audit log.
type Service interface {
	Record(ctx context.Context, entry Entry) error
	ListForOrder(ctx context.Context, orderID uuid.UUID) ([]models.EmailLog, error)
	List(ctx context.Context, filter Filter, cursorToken string, limit int) (*Page, error)
	Stats(ctx context.Context) (*Stats, error)
	PurgeExpired(ctx context.Context) (int64, error)
	RetentionDays() int
}

type service struct {
	repo Repository
	cfg  config.NotificationsConfig
	now  func() time.Time
}

// NewService wires the history dependencies.
func NewService(repo Repository, cfg config.NotificationsConfig) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "history repository required")
	}
	return &service{repo: repo, cfg: cfg, now: time.Now}, nil
}

// Record appends one audit row. When history is disabled the entry is
// silently dropped; notification sending never depends on the log.
func (s *service) Record(ctx context.Context, entry Entry) error {
	if !s.cfg.EnableHistory {
		return nil
	}
	if entry.OrderID == uuid.Nil || entry.SupplierID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id and supplier id required")
	}
	if !entry.Status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid email status")
	}

	sentAt := entry.SentAt
	if sentAt.IsZero() {
		sentAt = s.now().UTC()
	}

	row := &models.EmailLog{
		OrderID:        entry.OrderID,
		SupplierID:     entry.SupplierID,
		SupplierName:   entry.SupplierName,
		SupplierEmail:  entry.SupplierEmail,
		RecipientEmail: entry.RecipientEmail,
		Subject:        entry.Subject,
		Status:         entry.Status,
		ItemsCount:     entry.ItemsCount,
		SentAt:         sentAt,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert history row")
	}
	return nil
}

func (s *service) ListForOrder(ctx context.Context, orderID uuid.UUID) ([]models.EmailLog, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	rows, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list order history")
	}
	return rows, nil
}

// List pages through the log newest-first and hands back an opaque cursor
// when more rows remain.
func (s *service) List(ctx context.Context, filter Filter, cursorToken string, limit int) (*Page, error) {
	cursor, err := pagination.ParseCursor(cursorToken)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	pageSize := pagination.NormalizeLimit(limit)
	rows, err := s.repo.List(ctx, filter, cursor, pagination.LimitWithBuffer(limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list history")
	}

	page := &Page{}
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{SentAt: last.SentAt, ID: last.ID})
	}
	page.Items = rows
	return page, nil
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	stats, err := s.repo.Stats(ctx, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load history stats")
	}
	return stats, nil
}

// PurgeExpired drops rows older than the configured retention window and
// reports how many went away.
func (s *service) PurgeExpired(ctx context.Context) (int64, error) {
	cutoff := s.now().UTC().AddDate(0, 0, -s.cfg.HistoryRetentionDays)
	deleted, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "purge history")
	}
	return deleted, nil
}

func (s *service) RetentionDays() int {
	return s.cfg.HistoryRetentionDays
}
