package service

import (
	"retail-pos-backend/internal/models"
	"retail-pos-backend/internal/repository"
	"retail-pos-backend/pkg/cache"
	"retail-pos-backend/pkg/logger"
)

// PromotionService serves the promotion catalog the validator resolves codes
// against. The catalog is externally owned reference data; this service only
// reads it, with a short-lived cache in front.
type PromotionService struct {
	promotionRepo repository.PromotionRepository
	cache         *cache.Cache
}

func NewPromotionService(promotionRepo repository.PromotionRepository, c *cache.Cache) *PromotionService {
	return &PromotionService{
		promotionRepo: promotionRepo,
		cache:         c,
	}
}

// Catalog returns the active promotions, cache-aside.
func (s *PromotionService) Catalog() ([]models.Promotion, error) {
	var cached []models.Promotion
	if err := s.cache.GetCachedPromotions(&cached); err == nil {
		return cached, nil
	}

	promotions, err := s.promotionRepo.ListActive()
	if err != nil {
		return nil, err
	}

	if err := s.cache.CachePromotions(promotions); err != nil {
		logger.Warn("Failed to cache promotions", map[string]interface{}{"error": err.Error()})
	}

	return promotions, nil
}

// RefreshCatalog repopulates the cache; the background scheduler calls this
// periodically so a code added in the back office shows up at the register.
func (s *PromotionService) RefreshCatalog() error {
	promotions, err := s.promotionRepo.ListActive()
	if err != nil {
		return err
	}
	return s.cache.CachePromotions(promotions)
}

func (s *PromotionService) GetAll() ([]models.Promotion, error) {
	return s.promotionRepo.List()
}
