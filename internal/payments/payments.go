package payments

import (
	"context"
	"strings"
	"time"
)

// Kind distinguishes payments that settle at the counter from payments that
// are confirmed asynchronously by an external source.
type Kind string

const (
	// KindSynchronous settles immediately (cash handed over the counter).
	KindSynchronous Kind = "synchronous"
	// KindAsynchronous requires observing an external confirmation (QR scan-and-pay).
	KindAsynchronous Kind = "asynchronous"
)

// Method describes a payment method offered at checkout.
type Method struct {
	Type  string
	Label string
	Kind  Kind
}

// Methods lists the payment methods the checkout screen offers. The method
// type is the canonical identifier; the label is what the cashier sees.
var Methods = []Method{
	{Type: "cash", Label: "Cash", Kind: KindSynchronous},
	{Type: "qris", Label: "QRIS", Kind: KindAsynchronous},
	{Type: "ewallet", Label: "E-Wallet", Kind: KindAsynchronous},
	{Type: "transfer", Label: "Bank Transfer", Kind: KindAsynchronous},
}

// MethodByType resolves a method from its canonical type, case-insensitively.
func MethodByType(methodType string) (Method, bool) {
	for _, m := range Methods {
		if strings.EqualFold(m.Type, methodType) {
			return m, true
		}
	}
	return Method{}, false
}

// ConfirmedPayment is the canonical shape of a payment observed at the
// confirmation source, normalized from whatever the upstream store returns.
type ConfirmedPayment struct {
	ID      uint
	OrderID uint
	Amount  float64
	Method  string
	PaidAt  time.Time
}

// ConfirmationSource exposes the external record of payments attached to an
// order, polled to detect asynchronous payment completion.
type ConfirmationSource interface {
	Payments(ctx context.Context, orderID uint) ([]ConfirmedPayment, error)
}

// ChangeDue returns the change owed for a cash payment. It never reports
// negative change for underpayment; callers reject short tenders separately.
func ChangeDue(total, tendered float64) float64 {
	change := tendered - total
	if change < 0 {
		return 0
	}
	return change
}
