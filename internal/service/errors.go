package service

import "errors"

var (
	// ErrEmptyCart rejects a commit with no lines; nothing remote has run.
	ErrEmptyCart = errors.New("cart is empty, nothing to commit")
	// ErrInvalidLine rejects a commit with a malformed line; nothing remote has run.
	ErrInvalidLine = errors.New("cart contains an invalid line")
	// ErrOrderCreateFailed is the fatal commit error: the sale did not go
	// through and the cart is preserved for retry.
	ErrOrderCreateFailed = errors.New("order creation failed")
	// ErrInsufficientTender rejects a cash payment below the total due.
	ErrInsufficientTender = errors.New("tendered amount is below the total due")
)
