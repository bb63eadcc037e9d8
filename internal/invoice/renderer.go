package invoice

import (
	"fmt"
	"strings"
	"text/template"

	"retail-pos-backend/internal/models"
)

const receiptTemplate = `{{.StoreName}}
{{if .StoreAddress}}{{.StoreAddress}}
{{end}}--------------------------------
Order    {{.Order.Number}}
Date     {{.Order.CreatedAt.Format "2006-01-02 15:04"}}
Cashier  {{.Order.User.Username}}
{{if .Order.Customer}}Customer {{.Order.Customer.Name}}
{{end}}--------------------------------
{{range .Order.Items}}{{.Name}}
  {{.Quantity}} x {{money .UnitPrice}} = {{money .Subtotal}}
{{end}}--------------------------------
Subtotal  {{money .Order.Subtotal}}
{{if gt .Order.Discount 0.0}}Discount  -{{money .Order.Discount}}
{{end}}Total     {{money .Order.Total}}
{{range .Order.Payments}}Paid ({{.Method}}) {{money .Amount}}
{{end}}--------------------------------
Thank you for shopping with us
`

// Renderer produces the printable receipt for a finalized order. It only
// consumes the hydrated order; fetching and printing live elsewhere.
type Renderer struct {
	storeName    string
	storeAddress string
	currency     string
	tmpl         *template.Template
}

func NewRenderer(storeName, storeAddress, currency string) (*Renderer, error) {
	r := &Renderer{
		storeName:    storeName,
		storeAddress: storeAddress,
		currency:     currency,
	}

	tmpl, err := template.New("receipt").Funcs(template.FuncMap{
		"money": r.formatMoney,
	}).Parse(receiptTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse receipt template: %w", err)
	}

	r.tmpl = tmpl
	return r, nil
}

func (r *Renderer) Render(order *models.Order) (string, error) {
	if order == nil {
		return "", fmt.Errorf("order is required")
	}

	var buf strings.Builder
	data := struct {
		StoreName    string
		StoreAddress string
		Order        *models.Order
	}{
		StoreName:    r.storeName,
		StoreAddress: r.storeAddress,
		Order:        order,
	}

	if err := r.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render receipt: %w", err)
	}
	return buf.String(), nil
}

func (r *Renderer) formatMoney(amount float64) string {
	return fmt.Sprintf("%s %.2f", r.currency, amount)
}
