package payments

import (
	"context"
	"strings"

	"retail-pos-backend/internal/models"
)

// PaymentLister is the slice of the order store the confirmation source
// needs: the payments currently attached to an order.
type PaymentLister interface {
	GetPayments(orderID uint) ([]models.Payment, error)
}

// StoreSource adapts the order store into a ConfirmationSource, normalizing
// each record into the canonical ConfirmedPayment shape at the boundary so
// upstream naming quirks never leak into the confirmation logic.
type StoreSource struct {
	store PaymentLister
}

func NewStoreSource(store PaymentLister) *StoreSource {
	return &StoreSource{store: store}
}

func (s *StoreSource) Payments(ctx context.Context, orderID uint) ([]ConfirmedPayment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records, err := s.store.GetPayments(orderID)
	if err != nil {
		return nil, err
	}

	confirmed := make([]ConfirmedPayment, 0, len(records))
	for _, p := range records {
		paidAt := p.PaidAt
		if paidAt.IsZero() {
			paidAt = p.CreatedAt
		}
		confirmed = append(confirmed, ConfirmedPayment{
			ID:      p.ID,
			OrderID: p.OrderID,
			Amount:  p.Amount,
			Method:  strings.TrimSpace(p.Method),
			PaidAt:  paidAt,
		})
	}
	return confirmed, nil
}
