package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Username string `gorm:"uniqueIndex;not null" json:"username"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`
	Role     string `gorm:"type:varchar(32);default:'cashier'" json:"role"`

	Status string `gorm:"default:'active'" json:"status"`

	Orders []Order `gorm:"foreignKey:UserID" json:"orders,omitempty"`
}

type Product struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	SKU     string  `gorm:"uniqueIndex;not null" json:"sku"`
	Name    string  `gorm:"not null" json:"name"`
	Price   float64 `gorm:"not null;default:0" json:"price"`
	Barcode string  `gorm:"index" json:"barcode"`
	Unit    string  `gorm:"default:'pcs'" json:"unit"`
}

type InventoryRecord struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	ProductSKU string `gorm:"uniqueIndex;not null" json:"product_sku"`
	Quantity   int    `gorm:"not null;default:0" json:"quantity"`

	Product Product `gorm:"foreignKey:ProductSKU;references:SKU" json:"product,omitempty"`
}

type Customer struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name          string `gorm:"not null" json:"name"`
	Phone         string `gorm:"index" json:"phone"`
	Email         string `json:"email"`
	LoyaltyPoints int    `gorm:"not null;default:0" json:"loyalty_points"`
}

const (
	DiscountTypePercentage = "percentage"
	DiscountTypeFixed      = "fixed"
)

type Promotion struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Code          string  `gorm:"uniqueIndex;not null" json:"code"`
	Description   string  `json:"description"`
	DiscountType  string  `gorm:"type:varchar(16);not null" json:"discount_type"`
	DiscountValue float64 `gorm:"not null;default:0" json:"discount_value"`
	IsActive      bool    `gorm:"default:true" json:"is_active"`
}

const (
	OrderStatusCompleted = "completed"
	OrderStatusVoided    = "voided"
)

type Order struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Number string `gorm:"uniqueIndex;not null" json:"number"`
	Status string `gorm:"type:varchar(16);default:'completed'" json:"status"`

	Subtotal float64 `gorm:"not null;default:0" json:"subtotal"`
	Discount float64 `gorm:"not null;default:0" json:"discount"`
	Total    float64 `gorm:"not null;default:0" json:"total"`

	// CustomerID is nil for guest sales, PromotionID is nil when no code was
	// applied; a zero-value reference would break downstream lookups.
	CustomerID  *uint `json:"customer_id,omitempty"`
	UserID      uint  `gorm:"not null" json:"user_id"`
	PromotionID *uint `json:"promotion_id,omitempty"`

	Customer  *Customer  `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	User      User       `gorm:"foreignKey:UserID" json:"user"`
	Promotion *Promotion `gorm:"foreignKey:PromotionID" json:"promotion,omitempty"`

	Items    []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
	Payments []Payment   `gorm:"foreignKey:OrderID" json:"payments,omitempty"`
}

type OrderItem struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	OrderID    uint    `gorm:"not null;index" json:"order_id"`
	ProductSKU string  `gorm:"not null" json:"product_sku"`
	Name       string  `gorm:"not null" json:"name"`
	UnitPrice  float64 `gorm:"not null" json:"unit_price"`
	Quantity   int     `gorm:"not null" json:"quantity"`
	Subtotal   float64 `gorm:"not null" json:"subtotal"`
}

type Payment struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	OrderID uint      `gorm:"not null;index" json:"order_id"`
	Amount  float64   `gorm:"not null" json:"amount"`
	Method  string    `gorm:"not null" json:"method"`
	PaidAt  time.Time `json:"paid_at"`
}

type PointsConfig struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	IsActive      bool    `gorm:"default:false" json:"is_active"`
	MoneyPerUnit  float64 `gorm:"not null;default:0" json:"money_per_unit"`
	PointsPerUnit int     `gorm:"not null;default:1" json:"points_per_unit"`
}

type PointsEntry struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	CustomerID uint   `gorm:"not null;index" json:"customer_id"`
	OrderID    *uint  `json:"order_id,omitempty"`
	Points     int    `gorm:"not null" json:"points"`
	Note       string `json:"note"`
}
