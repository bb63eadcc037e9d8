package repository

import (
	"retail-pos-backend/internal/models"

	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(order *models.Order) error
	GetByID(id uint) (*models.Order, error)
	GetByNumber(number string) (*models.Order, error)
	GetPayments(orderID uint) ([]models.Payment, error)
	List(limit, offset int) ([]models.Order, error)
	Count() (int64, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// Create persists the order together with its items in one transaction.
func (r *orderRepository) Create(order *models.Order) error {
	return r.db.Create(order).Error
}

// GetByID returns the fully hydrated order used for invoice rendering.
func (r *orderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.
		Preload("Items").
		Preload("Customer").
		Preload("User").
		Preload("Promotion").
		Preload("Payments").
		First(&order, id).Error
	return &order, err
}

func (r *orderRepository) GetByNumber(number string) (*models.Order, error) {
	var order models.Order
	err := r.db.
		Preload("Items").
		Preload("Payments").
		Where("number = ?", number).
		First(&order).Error
	return &order, err
}

func (r *orderRepository) GetPayments(orderID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Where("order_id = ?", orderID).Order("created_at ASC").Find(&payments).Error
	return payments, err
}

func (r *orderRepository) List(limit, offset int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.
		Preload("Items").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&orders).Error
	return orders, err
}

func (r *orderRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Order{}).Count(&count).Error
	return count, err
}
