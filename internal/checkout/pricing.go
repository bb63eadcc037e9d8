package checkout

import "retail-pos-backend/internal/models"

// PriceSummary is derived from the cart lines and applied promotions and is
// recomputed on every mutation, never stored.
type PriceSummary struct {
	Subtotal       float64 `json:"subtotal"`
	DiscountAmount float64 `json:"discount_amount"`
	Total          float64 `json:"total"`
}

// ComputeSummary prices the cart. Each promotion contributes independently
// against the full subtotal: promotions are additive, not compounded. The
// total is floored at zero when the combined discount exceeds the subtotal.
func ComputeSummary(lines []Line, applied []AppliedPromotion) PriceSummary {
	var subtotal float64
	for _, line := range lines {
		subtotal += line.Subtotal
	}

	var discount float64
	for _, promo := range applied {
		switch promo.DiscountType {
		case models.DiscountTypePercentage:
			discount += subtotal * promo.DiscountValue / 100
		case models.DiscountTypeFixed:
			discount += promo.DiscountValue
		}
	}

	total := subtotal - discount
	if total < 0 {
		total = 0
	}

	return PriceSummary{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		Total:          total,
	}
}
