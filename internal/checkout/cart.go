package checkout

import (
	"sync"

	"retail-pos-backend/internal/models"
)

// Line is one product entry in the active sale. The unit price is
// snapshotted when the line is added; later catalog price changes do not
// reprice an open cart.
type Line struct {
	ProductSKU string  `json:"product_sku"`
	Name       string  `json:"name"`
	UnitPrice  float64 `json:"unit_price"`
	Quantity   int     `json:"quantity"`
	Subtotal   float64 `json:"subtotal"`
}

// AppliedPromotion is a promotion drawn from the catalog and attached to the
// cart, keyed by code.
type AppliedPromotion struct {
	ID            uint    `json:"id"`
	Code          string  `json:"code"`
	DiscountType  string  `json:"discount_type"`
	DiscountValue float64 `json:"discount_value"`
}

// Snapshot is an immutable copy of the cart taken at the commit boundary so
// concurrent mutation cannot corrupt an in-flight order submission.
type Snapshot struct {
	Lines   []Line
	Applied []AppliedPromotion
	Summary PriceSummary
}

// Cart owns the lines and applied promotions of one checkout session. All
// mutation goes through its methods; handlers observe it from request
// goroutines, so a mutex guards the state.
type Cart struct {
	mu      sync.Mutex
	lines   []Line
	applied []AppliedPromotion
}

func NewCart() *Cart {
	return &Cart{}
}

// AddProduct adds a product to the cart, merging into an existing line for
// the same SKU. Quantities below one are treated as one.
func (c *Cart) AddProduct(product *models.Product, quantity int) Line {
	if quantity < 1 {
		quantity = 1
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.lines {
		if c.lines[i].ProductSKU == product.SKU {
			c.lines[i].Quantity += quantity
			c.lines[i].Subtotal = c.lines[i].UnitPrice * float64(c.lines[i].Quantity)
			return c.lines[i]
		}
	}

	line := Line{
		ProductSKU: product.SKU,
		Name:       product.Name,
		UnitPrice:  product.Price,
		Quantity:   quantity,
		Subtotal:   product.Price * float64(quantity),
	}
	c.lines = append(c.lines, line)
	return line
}

// UpdateQuantity sets the quantity of a line. A quantity of zero or less is
// defined as removal, never a zero-quantity line. Returns false when no line
// matches the sku.
func (c *Cart) UpdateQuantity(sku string, quantity int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.lines {
		if c.lines[i].ProductSKU != sku {
			continue
		}
		if quantity <= 0 {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return true
		}
		c.lines[i].Quantity = quantity
		c.lines[i].Subtotal = c.lines[i].UnitPrice * float64(quantity)
		return true
	}
	return false
}

// RemoveLine removes the line for the sku; absent skus are a no-op.
func (c *Cart) RemoveLine(sku string) bool {
	return c.UpdateQuantity(sku, 0)
}

// ApplyPromotion validates a user-entered code against the catalog and adds
// it to the applied set. Application order is preserved for display.
func (c *Cart) ApplyPromotion(code string, catalog []models.Promotion) (AppliedPromotion, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	applied, err := ApplyPromotion(c.applied, code, catalog)
	if err != nil {
		return AppliedPromotion{}, err
	}
	c.applied = applied
	return applied[len(applied)-1], nil
}

// RemovePromotion removes at most one applied promotion by id; removing an
// absent id is a no-op, not an error.
func (c *Cart) RemovePromotion(id uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.applied = RemovePromotion(c.applied, id)
}

// Clear resets the cart after a completed sale or an explicit reset.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
	c.applied = nil
}

// Restore replaces the cart contents from a snapshot, used to hand the cart
// back untouched when a commit fails before the order exists.
func (c *Cart) Restore(snapshot Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append([]Line(nil), snapshot.Lines...)
	c.applied = append([]AppliedPromotion(nil), snapshot.Applied...)
}

func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Line(nil), c.lines...)
}

func (c *Cart) Applied() []AppliedPromotion {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]AppliedPromotion(nil), c.applied...)
}

// Summary recomputes pricing from the current lines and promotions.
func (c *Cart) Summary() PriceSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ComputeSummary(c.lines, c.applied)
}

// Snapshot copies the cart state and its derived summary in one critical
// section, giving the commit pipeline a stable view of the sale.
func (c *Cart) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Lines:   append([]Line(nil), c.lines...),
		Applied: append([]AppliedPromotion(nil), c.applied...),
		Summary: ComputeSummary(c.lines, c.applied),
	}
}
