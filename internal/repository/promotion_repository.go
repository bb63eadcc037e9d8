package repository

import (
	"retail-pos-backend/internal/models"

	"gorm.io/gorm"
)

type PromotionRepository interface {
	Create(promotion *models.Promotion) error
	GetByID(id uint) (*models.Promotion, error)
	List() ([]models.Promotion, error)
	ListActive() ([]models.Promotion, error)
	Update(promotion *models.Promotion) error
	Delete(id uint) error
}

type promotionRepository struct {
	db *gorm.DB
}

func NewPromotionRepository(db *gorm.DB) PromotionRepository {
	return &promotionRepository{db: db}
}

func (r *promotionRepository) Create(promotion *models.Promotion) error {
	return r.db.Create(promotion).Error
}

func (r *promotionRepository) GetByID(id uint) (*models.Promotion, error) {
	var promotion models.Promotion
	err := r.db.First(&promotion, id).Error
	return &promotion, err
}

func (r *promotionRepository) List() ([]models.Promotion, error) {
	var promotions []models.Promotion
	err := r.db.Order("created_at ASC").Find(&promotions).Error
	return promotions, err
}

func (r *promotionRepository) ListActive() ([]models.Promotion, error) {
	var promotions []models.Promotion
	err := r.db.Where("is_active = ?", true).Order("created_at ASC").Find(&promotions).Error
	return promotions, err
}

func (r *promotionRepository) Update(promotion *models.Promotion) error {
	return r.db.Save(promotion).Error
}

func (r *promotionRepository) Delete(id uint) error {
	return r.db.Delete(&models.Promotion{}, id).Error
}
