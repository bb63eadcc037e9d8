package service

import (
	"retail-pos-backend/internal/models"
	"retail-pos-backend/internal/repository"
	"retail-pos-backend/pkg/cache"
	"retail-pos-backend/pkg/logger"
)

// OrderService reads back committed sales for the order history screen and
// reprints invoices.
type OrderService struct {
	orderRepo repository.OrderRepository
	renderer  InvoiceRenderer
	cache     *cache.Cache
}

func NewOrderService(orderRepo repository.OrderRepository, renderer InvoiceRenderer, c *cache.Cache) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		renderer:  renderer,
		cache:     c,
	}
}

func (s *OrderService) List(limit, offset int) ([]models.Order, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	orders, err := s.orderRepo.List(limit, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.orderRepo.Count()
	if err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (s *OrderService) GetByID(id uint) (*models.Order, error) {
	var cached models.Order
	if err := s.cache.GetCachedOrder(id, &cached); err == nil {
		return &cached, nil
	}

	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if err := s.cache.CacheOrder(id, order); err != nil {
		logger.Warn("Failed to cache order", map[string]interface{}{"order_id": id, "error": err.Error()})
	}

	return order, nil
}

// Invoice re-renders the printable document for a past order.
func (s *OrderService) Invoice(id uint) (string, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return "", err
	}
	return s.renderer.Render(order)
}
