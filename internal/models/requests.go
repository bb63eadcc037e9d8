package models

// LoginRequest represents an operator login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest represents operator account creation
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AddLineRequest adds a product to the active cart
type AddLineRequest struct {
	SKU      string `json:"sku" binding:"required,sku"`
	Quantity int    `json:"quantity"`
}

// UpdateLineRequest changes the quantity of a cart line; a quantity of zero
// or less removes the line. A pointer so that an explicit zero survives
// binding.
type UpdateLineRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// ApplyPromotionRequest applies a promotion code to the active cart
type ApplyPromotionRequest struct {
	Code string `json:"code" binding:"required,promo_code"`
}

// StartConfirmationRequest begins polling for an asynchronous payment.
// OrderRef is the order/transaction identifier the external confirmation
// source attaches observed payments to.
type StartConfirmationRequest struct {
	Method     string `json:"method" binding:"required,payment_method"`
	OrderRef   uint   `json:"order_ref" binding:"required"`
	CustomerID *uint  `json:"customer_id"`
}

// CommitSaleRequest finalizes the sale after payment is confirmed
type CommitSaleRequest struct {
	Method     string  `json:"method" binding:"required,payment_method"`
	CustomerID *uint   `json:"customer_id"`
	AmountPaid float64 `json:"amount_paid"`
}
