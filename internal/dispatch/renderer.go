package dispatch

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/supplierhq/suppliers-backend/pkg/db/models"
)

const (
	defaultSubjectTemplate = "New Order #{order_number} - {site_title}"

	defaultIntroTemplate = "Hello {supplier_name}, a new order containing your " +
		"products was placed on {site_title} on {order_date}."
)

// Renderer turns an order slice into the subject and bodies of one
// supplier notification.
type Renderer struct {
	siteTitle string
}

// NewRenderer builds a renderer branded with the store title.
func NewRenderer(siteTitle string) *Renderer {
	if strings.TrimSpace(siteTitle) == "" {
		siteTitle = "Store"
	}
	return &Renderer{siteTitle: siteTitle}
}

// Rendered is the outcome of one render pass.
type Rendered struct {
	Subject  string
	HTMLBody string
	TextBody string
}

// Render fills the subject and intro templates and appends the supplier's
// line items. Only items belonging to the supplier are included.
func (r *Renderer) Render(order *models.Order, supplierName string, items []models.OrderLineItem) Rendered {
	replacer := strings.NewReplacer(
		"{site_title}", r.siteTitle,
		"{order_number}", fmt.Sprintf("%d", order.OrderNumber),
		"{order_date}", orderDate(order.PlacedAt),
		"{supplier_name}", supplierName,
	)

	subject := replacer.Replace(defaultSubjectTemplate)
	intro := replacer.Replace(defaultIntroTemplate)

	return Rendered{
		Subject:  subject,
		HTMLBody: renderHTML(intro, items),
		TextBody: renderText(intro, items),
	}
}

func renderHTML(intro string, items []models.OrderLineItem) string {
	var b strings.Builder
	b.WriteString("<p>")
	b.WriteString(html.EscapeString(intro))
	b.WriteString("</p>\n")
	b.WriteString("<table>\n<tr><th>Product</th><th>SKU</th><th>Qty</th><th>Unit price</th></tr>\n")
	for _, item := range items {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td><td>%d</td><td>%s</td></tr>\n",
			html.EscapeString(item.Name),
			html.EscapeString(item.SKU),
			item.Qty,
			item.UnitPrice.StringFixed(2),
		)
	}
	b.WriteString("</table>\n")
	return b.String()
}

func renderText(intro string, items []models.OrderLineItem) string {
	var b strings.Builder
	b.WriteString(intro)
	b.WriteString("\n\n")
	for _, item := range items {
		fmt.Fprintf(&b, "- %s (%s) x%d @ %s\n",
			item.Name, item.SKU, item.Qty, item.UnitPrice.StringFixed(2))
	}
	return b.String()
}

// orderDate is exposed for tests that pin the formatting.
func orderDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
