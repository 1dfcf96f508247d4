package dispatch

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/supplierhq/suppliers-backend/internal/history"
	"github.com/supplierhq/suppliers-backend/pkg/config"
	"github.com/supplierhq/suppliers-backend/pkg/db/models"
	"github.com/supplierhq/suppliers-backend/pkg/enums"
	pkgerrors "github.com/supplierhq/suppliers-backend/pkg/errors"
	"github.com/supplierhq/suppliers-backend/pkg/logger"
	"github.com/supplierhq/suppliers-backend/pkg/mailer"
	"github.com/supplierhq/suppliers-backend/pkg/metrics"
)

type orderProvider interface {
	GetWithItems(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

type productResolver interface {
	ResolveAssignable(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

type supplierProvider interface {
	GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Supplier, error)
}

type relationshipReader interface {
	SuppliersOf(ctx context.Context, productID uuid.UUID) ([]uuid.UUID, error)
}

type historyRecorder interface {
	Record(ctx context.Context, entry history.Entry) error
}

type sender interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// Result summarises one dispatch run.
type Result struct {
	Suppliers int `json:"suppliers"`
	Sent      int `json:"sent"`
	Failed    int `json:"failed"`
}

// Service fans an order out to the suppliers of its products.
type Service interface {
	Dispatch(ctx context.Context, orderID uuid.UUID) (*Result, error)
}

type service struct {
	orders        orderProvider
	catalog       productResolver
	suppliers     supplierProvider
	relationships relationshipReader
	hist          historyRecorder
	mail          sender
	renderer      *Renderer
	cfg           config.NotificationsConfig
	metrics       *metrics.DispatchMetrics
	logg          *logger.Logger
	now           func() time.Time
}

// NewService wires the dispatcher dependencies.
func NewService(
	orders orderProvider,
	catalog productResolver,
	suppliers supplierProvider,
	relationships relationshipReader,
	hist historyRecorder,
	mailClient sender,
	renderer *Renderer,
	cfg config.NotificationsConfig,
	dispatchMetrics *metrics.DispatchMetrics,
	logg *logger.Logger,
) (Service, error) {
	if orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "order provider required")
	}
	if catalog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "product resolver required")
	}
	if suppliers == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "supplier provider required")
	}
	if relationships == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "relationship reader required")
	}
	if hist == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "history recorder required")
	}
	if mailClient == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "mail sender required")
	}
	if renderer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "renderer required")
	}
	return &service{
		orders:        orders,
		catalog:       catalog,
		suppliers:     suppliers,
		relationships: relationships,
		hist:          hist,
		mail:          mailClient,
		renderer:      renderer,
		cfg:           cfg,
		metrics:       dispatchMetrics,
		logg:          logg,
		now:           time.Now,
	}, nil
}

// group is the per-supplier slice of line items, in line-item order.
type group struct {
	supplierID uuid.UUID
	items      []models.OrderLineItem
}

// Dispatch resolves the order's suppliers and sends one notification per
// supplier. Suppliers are processed independently: one failed send or log
// write never blocks the rest. An order with no assigned suppliers sends
// nothing and logs nothing.
func (s *service) Dispatch(ctx context.Context, orderID uuid.UUID) (*Result, error) {
	started := s.now()
	defer func() {
		s.metrics.ObserveDispatch(s.now().Sub(started))
	}()

	if s.logg != nil {
		ctx = s.logg.WithOrderID(ctx, orderID.String())
	}

	order, err := s.orders.GetWithItems(ctx, orderID)
	if err != nil {
		return nil, err
	}

	groups, err := s.groupBySupplier(ctx, order.Items)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		if s.logg != nil {
			s.logg.Info(ctx, "order has no assigned suppliers, nothing to dispatch")
		}
		return &Result{}, nil
	}

	supplierIDs := make([]uuid.UUID, 0, len(groups))
	for _, g := range groups {
		supplierIDs = append(supplierIDs, g.supplierID)
	}
	supplierRows, err := s.suppliers.GetMany(ctx, supplierIDs)
	if err != nil {
		return nil, err
	}

	result := &Result{Suppliers: len(groups)}
	for _, g := range groups {
		if s.notifySupplier(ctx, order, g, supplierRows) {
			result.Sent++
		} else {
			result.Failed++
		}
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"suppliers": result.Suppliers,
			"sent":      result.Sent,
			"failed":    result.Failed,
		})
		s.logg.Info(logCtx, "order dispatch finished")
	}
	return result, nil
}

// groupBySupplier buckets line items per supplier, keeping suppliers in
// the order they are first encountered while walking the items. A line
// item assigned to several suppliers lands in every one of their buckets.
func (s *service) groupBySupplier(ctx context.Context, items []models.OrderLineItem) ([]group, error) {
	index := make(map[uuid.UUID]int)
	var groups []group

	for _, item := range items {
		if item.ProductID == nil {
			continue
		}
		assignable, err := s.catalog.ResolveAssignable(ctx, *item.ProductID)
		if err != nil {
			return nil, err
		}
		supplierIDs, err := s.relationships.SuppliersOf(ctx, assignable)
		if err != nil {
			return nil, err
		}
		for _, supplierID := range supplierIDs {
			pos, ok := index[supplierID]
			if !ok {
				pos = len(groups)
				index[supplierID] = pos
				groups = append(groups, group{supplierID: supplierID})
			}
			groups[pos].items = append(groups[pos].items, item)
		}
	}
	return groups, nil
}

// notifySupplier handles one supplier end to end and reports whether the
// email went out.
func (s *service) notifySupplier(ctx context.Context, order *models.Order, g group, supplierRows map[uuid.UUID]models.Supplier) bool {
	if s.logg != nil {
		ctx = s.logg.WithSupplierID(ctx, g.supplierID.String())
	}

	supplier, ok := supplierRows[g.supplierID]
	if !ok || !supplier.Published {
		s.recordOutcome(ctx, history.Entry{
			OrderID:       order.ID,
			SupplierID:    g.supplierID,
			SupplierName:  supplier.Name,
			SupplierEmail: supplier.Email,
			Subject:       s.renderer.Render(order, supplier.Name, g.items).Subject,
			Status:        enums.EmailStatusFailed,
			ItemsCount:    len(g.items),
		})
		if s.logg != nil {
			s.logg.Warn(ctx, "supplier missing or unpublished, notification skipped")
		}
		return false
	}

	rendered := s.renderer.Render(order, supplier.Name, g.items)
	recipient := strings.TrimSpace(supplier.Email)

	if !isValidAddress(recipient) {
		s.recordOutcome(ctx, history.Entry{
			OrderID:        order.ID,
			SupplierID:     supplier.ID,
			SupplierName:   supplier.Name,
			SupplierEmail:  supplier.Email,
			RecipientEmail: supplier.Email,
			Subject:        rendered.Subject,
			Status:         enums.EmailStatusFailed,
			ItemsCount:     len(g.items),
		})
		if s.logg != nil {
			s.logg.Warn(ctx, "supplier email missing or invalid, notification skipped")
		}
		return false
	}

	msg := mailer.Message{
		To:       recipient,
		ToName:   supplier.Name,
		Subject:  rendered.Subject,
		HTMLBody: rendered.HTMLBody,
		TextBody: rendered.TextBody,
		BCC:      s.adminBCC(recipient),
	}

	sendErr := s.mail.Send(ctx, msg)
	status := enums.EmailStatusSent
	if sendErr != nil {
		status = enums.EmailStatusFailed
		if s.logg != nil {
			s.logg.Error(ctx, "supplier notification send failed", sendErr)
		}
	}

	s.recordOutcome(ctx, history.Entry{
		OrderID:        order.ID,
		SupplierID:     supplier.ID,
		SupplierName:   supplier.Name,
		SupplierEmail:  supplier.Email,
		RecipientEmail: recipient,
		Subject:        rendered.Subject,
		Status:         status,
		ItemsCount:     len(g.items),
	})
	return sendErr == nil
}

// recordOutcome writes the audit row. Log failures are swallowed: the
// audit trail must never block or fail a notification run.
func (s *service) recordOutcome(ctx context.Context, entry history.Entry) {
	s.metrics.IncEmail(string(entry.Status))
	entry.SentAt = s.now().UTC()
	if err := s.hist.Record(ctx, entry); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "history write failed: "+err.Error())
	}
}

// adminBCC returns the admin copy address when the feature is on, the
// address is usable, and it differs from the supplier recipient.
func (s *service) adminBCC(recipient string) string {
	if !s.cfg.BCCAdmin {
		return ""
	}
	admin := strings.TrimSpace(s.cfg.AdminEmail)
	if !isValidAddress(admin) {
		return ""
	}
	if strings.EqualFold(admin, recipient) {
		return ""
	}
	return admin
}

func isValidAddress(addr string) bool {
	if addr == "" {
		return false
	}
	parsed, err := mail.ParseAddress(addr)
	return err == nil && parsed.Address == addr
}
