// Package documents renders order receipts into the local spool
// directory, where the back office picks them up for printing.
package documents

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/casahojaldre/chatbot-backend/pkg/config"
	"github.com/casahojaldre/chatbot-backend/pkg/db/models"
	"github.com/casahojaldre/chatbot-backend/pkg/logger"
	"github.com/casahojaldre/chatbot-backend/pkg/types"
)

// Renderer writes one HTML receipt per confirmed order.
type Renderer struct {
	logg     *logger.Logger
	dir      string
	business config.BusinessConfig
	tmpl     *template.Template
}

func NewRenderer(logg *logger.Logger, cfg config.DocumentsConfig, business config.BusinessConfig) (*Renderer, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.SpoolDir == "" {
		return nil, fmt.Errorf("documents spool dir required")
	}
	if err := os.MkdirAll(cfg.SpoolDir, 0o755); err != nil {
		return nil, fmt.Errorf("create spool dir: %w", err)
	}
	tmpl, err := template.New("receipt").Funcs(template.FuncMap{
		"cop": types.FormatCOP,
	}).Parse(receiptTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse receipt template: %w", err)
	}
	return &Renderer{logg: logg, dir: cfg.SpoolDir, business: business, tmpl: tmpl}, nil
}

type receiptData struct {
	Business    config.BusinessConfig
	Order       *models.Order
	Customer    *models.Customer
	GeneratedAt time.Time
}

// Render writes the receipt and returns its path.
func (r *Renderer) Render(ctx context.Context, order *models.Order, customer *models.Customer) (string, error) {
	if order == nil {
		return "", fmt.Errorf("order required")
	}

	var buf bytes.Buffer
	data := receiptData{
		Business:    r.business,
		Order:       order,
		Customer:    customer,
		GeneratedAt: time.Now(),
	}
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render receipt: %w", err)
	}

	path := filepath.Join(r.dir, fmt.Sprintf("receipt_%s.html", order.ID))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write receipt: %w", err)
	}

	r.logg.Info(r.logg.WithOrderID(ctx, order.ID.String()), "order receipt rendered")
	return path, nil
}

const receiptTemplate = `<!DOCTYPE html>
<html lang="es">
<head>
<meta charset="utf-8">
<title>Recibo {{.Order.ID}}</title>
<style>
  body { font-family: sans-serif; max-width: 640px; margin: 2rem auto; }
  table { width: 100%; border-collapse: collapse; }
  th, td { text-align: left; padding: 0.4rem; border-bottom: 1px solid #ddd; }
  td.amount, th.amount { text-align: right; }
  .totals td { border: none; }
</style>
</head>
<body>
<h1>{{.Business.Name}}</h1>
<p>Recibo del pedido <strong>{{.Order.ID}}</strong><br>
Estado: {{.Order.Status}}<br>
{{- if .Customer}}
Cliente: {{.Customer.Name}}<br>
{{- end}}
Generado: {{.GeneratedAt.Format "2006-01-02 15:04"}}</p>
{{- if .Order.PickupDate}}
<p>Recogida: {{.Order.PickupDate.Format "2006-01-02"}}{{if .Order.PickupTime}} a las {{.Order.PickupTime}}{{end}}</p>
{{- end}}
<table>
<tr><th>Producto</th><th class="amount">Cantidad</th><th class="amount">Precio</th><th class="amount">Subtotal</th></tr>
{{- range .Order.Items}}
<tr><td>{{.Name}}</td><td class="amount">{{.Quantity}}</td><td class="amount">{{cop .UnitPrice}}</td><td class="amount">{{cop .Subtotal}}</td></tr>
{{- end}}
</table>
<table class="totals">
<tr><td>Subtotal</td><td class="amount">{{cop .Order.Subtotal}}</td></tr>
{{- if .Order.Discount}}
<tr><td>Descuento ({{.Order.DiscountPercent}}%)</td><td class="amount">-{{cop .Order.Discount}}</td></tr>
{{- end}}
<tr><td><strong>Total</strong></td><td class="amount"><strong>{{cop .Order.Total}}</strong></td></tr>
</table>
<p>Pagos: {{.Business.PaymentMethods}} al {{.Business.PaymentPhone}}</p>
</body>
</html>
`
