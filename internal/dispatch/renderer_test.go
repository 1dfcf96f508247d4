package dispatch

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/supplierhq/suppliers-backend/pkg/db/models"
)

func TestRenderFillsPlaceholders(t *testing.T) {
	r := NewRenderer("Corner Shop")
	order := &models.Order{
		OrderNumber: 2042,
		PlacedAt:    time.Date(2026, 8, 20, 23, 15, 0, 0, time.UTC),
	}
	items := []models.OrderLineItem{
		{Name: "Widget", SKU: "W-1", Qty: 2, UnitPrice: decimal.NewFromFloat(9.5)},
	}

	rendered := r.Render(order, "Acme Wholesale", items)

	if rendered.Subject != "New Order #2042 - Corner Shop" {
		t.Errorf("subject = %q", rendered.Subject)
	}
	for _, fragment := range []string{"Acme Wholesale", "Corner Shop", "2026-08-20"} {
		if !strings.Contains(rendered.TextBody, fragment) {
			t.Errorf("text body missing %q:\n%s", fragment, rendered.TextBody)
		}
	}
	if !strings.Contains(rendered.TextBody, "Widget (W-1) x2 @ 9.50") {
		t.Errorf("text body missing line item:\n%s", rendered.TextBody)
	}
	if !strings.Contains(rendered.HTMLBody, "<td>Widget</td>") {
		t.Errorf("html body missing line item row:\n%s", rendered.HTMLBody)
	}
}

func TestRenderEscapesHTML(t *testing.T) {
	r := NewRenderer("Shop <script>")
	order := &models.Order{OrderNumber: 7, PlacedAt: time.Now()}
	items := []models.OrderLineItem{{Name: "A & B", Qty: 1, UnitPrice: decimal.NewFromInt(1)}}

	rendered := r.Render(order, "X<Y", items)

	if strings.Contains(rendered.HTMLBody, "<script>") {
		t.Error("html body contains unescaped site title")
	}
	if !strings.Contains(rendered.HTMLBody, "A &amp; B") {
		t.Errorf("html body did not escape item name:\n%s", rendered.HTMLBody)
	}
}

func TestRenderEmptySiteTitleFallsBack(t *testing.T) {
	r := NewRenderer("  ")
	order := &models.Order{OrderNumber: 1, PlacedAt: time.Now()}

	rendered := r.Render(order, "Acme", nil)
	if !strings.Contains(rendered.Subject, "Store") {
		t.Errorf("subject = %q, want fallback title", rendered.Subject)
	}
}
