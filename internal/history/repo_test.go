package history

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/supplierhq/suppliers-backend/pkg/db/models"
	"github.com/supplierhq/suppliers-backend/pkg/enums"
	"github.com/supplierhq/suppliers-backend/pkg/pagination"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	err = conn.Exec(`
		CREATE TABLE email_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			order_id TEXT NOT NULL,
			supplier_id TEXT NOT NULL,
			supplier_name TEXT NOT NULL,
			supplier_email TEXT NOT NULL,
			recipient_email TEXT NOT NULL,
			subject TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'sent',
			items_count INTEGER NOT NULL DEFAULT 0,
			sent_at DATETIME NOT NULL,
			created_at DATETIME
		)
	`).Error
	require.NoError(t, err)

	return conn
}

func seedLog(t *testing.T, repo Repository, orderID, supplierID uuid.UUID, status enums.EmailStatus, sentAt time.Time) *models.EmailLog {
	t.Helper()
	row := &models.EmailLog{
		OrderID:        orderID,
		SupplierID:     supplierID,
		SupplierName:   "Acme Wholesale",
		SupplierEmail:  "orders@acme.test",
		RecipientEmail: "orders@acme.test",
		Subject:        "New Order #1001",
		Status:         status,
		ItemsCount:     2,
		SentAt:         sentAt,
	}
	require.NoError(t, repo.Create(context.Background(), row))
	return row
}

func TestRepositoryListByOrder(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	orderID := uuid.New()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	older := seedLog(t, repo, orderID, uuid.New(), enums.EmailStatusSent, base)
	newer := seedLog(t, repo, orderID, uuid.New(), enums.EmailStatusFailed, base.Add(time.Hour))
	seedLog(t, repo, uuid.New(), uuid.New(), enums.EmailStatusSent, base)

	rows, err := repo.ListByOrder(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, newer.ID, rows[0].ID)
	assert.Equal(t, older.ID, rows[1].ID)
}

func TestRepositoryListFiltersAndCursor(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	supplierID := uuid.New()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	var seeded []*models.EmailLog
	for i := 0; i < 5; i++ {
		seeded = append(seeded, seedLog(t, repo, uuid.New(), supplierID, enums.EmailStatusSent, base.Add(time.Duration(i)*time.Hour)))
	}
	seedLog(t, repo, uuid.New(), uuid.New(), enums.EmailStatusFailed, base)

	filter := Filter{SupplierID: &supplierID}

	rows, err := repo.List(ctx, filter, nil, 3)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, seeded[4].ID, rows[0].ID)
	assert.Equal(t, seeded[2].ID, rows[2].ID)

	cursor := &pagination.Cursor{SentAt: rows[2].SentAt, ID: rows[2].ID}
	rows, err = repo.List(ctx, filter, cursor, 3)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, seeded[1].ID, rows[0].ID)
	assert.Equal(t, seeded[0].ID, rows[1].ID)
}

func TestRepositoryListStatusAndDateFilters(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	sent := seedLog(t, repo, uuid.New(), uuid.New(), enums.EmailStatusSent, base)
	seedLog(t, repo, uuid.New(), uuid.New(), enums.EmailStatusFailed, base)
	seedLog(t, repo, uuid.New(), uuid.New(), enums.EmailStatusSent, base.Add(-48*time.Hour))

	status := enums.EmailStatusSent
	after := base.Add(-time.Hour)
	rows, err := repo.List(ctx, Filter{Status: &status, SentAfter: &after}, nil, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, sent.ID, rows[0].ID)
}

func TestRepositoryStats(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	now := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)

	// one today, one earlier this month, two in prior months
	seedLog(t, repo, uuid.New(), uuid.New(), enums.EmailStatusSent, now.Add(-time.Hour))
	seedLog(t, repo, uuid.New(), uuid.New(), enums.EmailStatusFailed, now.AddDate(0, 0, -3))
	seedLog(t, repo, uuid.New(), uuid.New(), enums.EmailStatusSent, now.AddDate(0, -2, 0))
	seedLog(t, repo, uuid.New(), uuid.New(), enums.EmailStatusSent, now.AddDate(0, -5, 0))

	stats, err := repo.Stats(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalSent)
	assert.Equal(t, int64(1), stats.TotalFailed)
	assert.Equal(t, int64(2), stats.ThisMonth)
	assert.Equal(t, int64(1), stats.Today)
}

func TestRepositoryDeleteOlderThan(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	now := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)
	keep := seedLog(t, repo, uuid.New(), uuid.New(), enums.EmailStatusSent, now.AddDate(0, 0, -10))
	seedLog(t, repo, uuid.New(), uuid.New(), enums.EmailStatusSent, now.AddDate(0, 0, -100))
	seedLog(t, repo, uuid.New(), uuid.New(), enums.EmailStatusFailed, now.AddDate(0, 0, -91))

	deleted, err := repo.DeleteOlderThan(ctx, now.AddDate(0, 0, -90))
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	rows, err := repo.List(ctx, Filter{}, nil, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, keep.ID, rows[0].ID)
}
