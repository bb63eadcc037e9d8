package checkout

import "errors"

var (
	// ErrUnknownCode is returned when a promotion code matches nothing in the catalog.
	ErrUnknownCode = errors.New("unknown promotion code")
	// ErrAlreadyApplied is returned when a promotion code is already on the cart.
	ErrAlreadyApplied = errors.New("promotion already applied")
	// ErrUnknownMethod is returned for a payment method the store does not offer.
	ErrUnknownMethod = errors.New("unknown payment method")
	// ErrMethodSynchronous is returned when starting confirmation polling for
	// a method that settles at the counter and needs no confirmation.
	ErrMethodSynchronous = errors.New("payment method settles synchronously")
	// ErrNoActiveAttempt is returned when cancelling or reading a confirmation
	// attempt that does not exist.
	ErrNoActiveAttempt = errors.New("no active payment attempt")
	// ErrAttemptTerminal is returned when cancelling an attempt that already
	// reached a terminal state.
	ErrAttemptTerminal = errors.New("payment attempt already finished")
)
