package repository

import (
	"retail-pos-backend/internal/models"

	"gorm.io/gorm"
)

type LoyaltyRepository interface {
	GetPointsConfigs() ([]models.PointsConfig, error)
	AddPoints(customerID uint, orderID *uint, points int, note string) error
	GetEntries(customerID uint) ([]models.PointsEntry, error)
}

type loyaltyRepository struct {
	db *gorm.DB
}

func NewLoyaltyRepository(db *gorm.DB) LoyaltyRepository {
	return &loyaltyRepository{db: db}
}

func (r *loyaltyRepository) GetPointsConfigs() ([]models.PointsConfig, error) {
	var configs []models.PointsConfig
	err := r.db.Order("created_at ASC").Find(&configs).Error
	return configs, err
}

// AddPoints records a ledger entry and moves the customer balance in one
// transaction so the ledger never disagrees with the balance.
func (r *loyaltyRepository) AddPoints(customerID uint, orderID *uint, points int, note string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		entry := models.PointsEntry{
			CustomerID: customerID,
			OrderID:    orderID,
			Points:     points,
			Note:       note,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		return tx.Model(&models.Customer{}).
			Where("id = ?", customerID).
			Update("loyalty_points", gorm.Expr("loyalty_points + ?", points)).Error
	})
}

func (r *loyaltyRepository) GetEntries(customerID uint) ([]models.PointsEntry, error) {
	var entries []models.PointsEntry
	err := r.db.Where("customer_id = ?", customerID).Order("created_at DESC").Find(&entries).Error
	return entries, err
}
