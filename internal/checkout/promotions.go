package checkout

import (
	"strings"

	"retail-pos-backend/internal/models"
)

// ApplyPromotion resolves a user-entered code against the catalog and
// returns the applied set with the promotion appended. Lookup is a
// case-insensitive exact match. A code already on the cart is rejected with
// ErrAlreadyApplied so the caller can tell "already there" apart from
// "invalid"; a code absent from the catalog fails with ErrUnknownCode.
func ApplyPromotion(applied []AppliedPromotion, code string, catalog []models.Promotion) ([]AppliedPromotion, error) {
	code = strings.TrimSpace(code)

	for _, existing := range applied {
		if strings.EqualFold(existing.Code, code) {
			return nil, ErrAlreadyApplied
		}
	}

	for _, promo := range catalog {
		if !strings.EqualFold(promo.Code, code) {
			continue
		}
		next := append(append([]AppliedPromotion(nil), applied...), AppliedPromotion{
			ID:            promo.ID,
			Code:          promo.Code,
			DiscountType:  promo.DiscountType,
			DiscountValue: promo.DiscountValue,
		})
		return next, nil
	}

	return nil, ErrUnknownCode
}

// RemovePromotion removes at most one entry matching the id. An absent id
// returns the set unchanged.
func RemovePromotion(applied []AppliedPromotion, id uint) []AppliedPromotion {
	for i, promo := range applied {
		if promo.ID == id {
			next := append([]AppliedPromotion(nil), applied[:i]...)
			return append(next, applied[i+1:]...)
		}
	}
	return applied
}
