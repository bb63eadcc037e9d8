package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"retail-pos-backend/internal/service"
)

type CatalogHandler struct {
	catalogService   *service.CatalogService
	promotionService *service.PromotionService
}

func NewCatalogHandler(catalogService *service.CatalogService, promotionService *service.PromotionService) *CatalogHandler {
	return &CatalogHandler{
		catalogService:   catalogService,
		promotionService: promotionService,
	}
}

func (h *CatalogHandler) GetProducts(c *gin.Context) {
	if query := c.Query("q"); query != "" {
		limit, _ := strconv.Atoi(c.Query("limit"))
		products, err := h.catalogService.SearchProducts(query, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"products": products})
		return
	}

	products, err := h.catalogService.GetProducts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (h *CatalogHandler) GetProductBySKU(c *gin.Context) {
	product, err := h.catalogService.GetProductBySKU(c.Param("sku"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"product": product})
}

func (h *CatalogHandler) GetInventory(c *gin.Context) {
	records, err := h.catalogService.GetInventory()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"inventory": records})
}

// GetPromotions returns the active catalog the register resolves codes
// against.
func (h *CatalogHandler) GetPromotions(c *gin.Context) {
	promotions, err := h.promotionService.Catalog()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"promotions": promotions})
}

// GetAllPromotions lists the full catalog including inactive codes, for the
// back office.
func (h *CatalogHandler) GetAllPromotions(c *gin.Context) {
	promotions, err := h.promotionService.GetAll()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"promotions": promotions})
}

func (h *CatalogHandler) SearchCustomers(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	customers, err := h.catalogService.SearchCustomers(c.Query("q"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"customers": customers})
}

func (h *CatalogHandler) GetCustomer(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer id"})
		return
	}

	customer, err := h.catalogService.GetCustomer(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "customer not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"customer": customer})
}
