package service

import (
	"retail-pos-backend/internal/models"
	"retail-pos-backend/internal/repository"
	"retail-pos-backend/pkg/validator"
)

// CatalogService answers the product and customer lookups the checkout
// screen issues while a sale is being rung up.
type CatalogService struct {
	productRepo   repository.ProductRepository
	inventoryRepo repository.InventoryRepository
	customerRepo  repository.CustomerRepository
}

func NewCatalogService(
	productRepo repository.ProductRepository,
	inventoryRepo repository.InventoryRepository,
	customerRepo repository.CustomerRepository,
) *CatalogService {
	return &CatalogService{
		productRepo:   productRepo,
		inventoryRepo: inventoryRepo,
		customerRepo:  customerRepo,
	}
}

// GetInventory lists current stock levels for the stock screen.
func (s *CatalogService) GetInventory() ([]models.InventoryRecord, error) {
	return s.inventoryRepo.GetAll()
}

func (s *CatalogService) GetProducts() ([]models.Product, error) {
	return s.productRepo.GetAll()
}

// GetProductBySKU resolves a scanned or typed SKU. Lookup is whitespace
// tolerant because barcode scanners occasionally emit trailing spaces.
func (s *CatalogService) GetProductBySKU(sku string) (*models.Product, error) {
	return s.productRepo.GetBySKU(validator.TrimSpaces(sku))
}

func (s *CatalogService) SearchProducts(query string, limit int) ([]models.Product, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	return s.productRepo.Search(validator.SanitizeString(validator.TrimSpaces(query)), limit)
}

func (s *CatalogService) GetCustomer(id uint) (*models.Customer, error) {
	return s.customerRepo.GetByID(id)
}

func (s *CatalogService) SearchCustomers(query string, limit int) ([]models.Customer, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	return s.customerRepo.Search(validator.SanitizeString(validator.TrimSpaces(query)), limit)
}
