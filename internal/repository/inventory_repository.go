package repository

import (
	"retail-pos-backend/internal/models"

	"gorm.io/gorm"
)

type InventoryRepository interface {
	Create(record *models.InventoryRecord) error
	GetAll() ([]models.InventoryRecord, error)
	GetByProductSKU(sku string) (*models.InventoryRecord, error)
	UpdateQuantity(id uint, newQuantity int, productSKU string) error
}

type inventoryRepository struct {
	db *gorm.DB
}

func NewInventoryRepository(db *gorm.DB) InventoryRepository {
	return &inventoryRepository{db: db}
}

func (r *inventoryRepository) Create(record *models.InventoryRecord) error {
	return r.db.Create(record).Error
}

func (r *inventoryRepository) GetAll() ([]models.InventoryRecord, error) {
	var records []models.InventoryRecord
	err := r.db.Find(&records).Error
	return records, err
}

func (r *inventoryRepository) GetByProductSKU(sku string) (*models.InventoryRecord, error) {
	var record models.InventoryRecord
	err := r.db.Where("product_sku = ?", sku).First(&record).Error
	return &record, err
}

// UpdateQuantity writes an absolute quantity back; the sku is matched along
// with the id so a stale record id cannot adjust another product's stock.
func (r *inventoryRepository) UpdateQuantity(id uint, newQuantity int, productSKU string) error {
	result := r.db.Model(&models.InventoryRecord{}).
		Where("id = ? AND product_sku = ?", id, productSKU).
		Update("quantity", newQuantity)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
