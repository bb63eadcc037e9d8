package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"retail-pos-backend/internal/checkout"
	"retail-pos-backend/internal/models"
	"retail-pos-backend/internal/payments"
	"retail-pos-backend/internal/service"
	"retail-pos-backend/pkg/logger"
)

// CheckoutHandler serves the checkout screen: the cart, promotion codes,
// asynchronous payment confirmation, and the final commit. Each operator
// works against their own session, resolved from the authenticated user.
type CheckoutHandler struct {
	sessions         *checkout.Manager
	catalogService   *service.CatalogService
	promotionService *service.PromotionService
	checkoutService  *service.CheckoutService

	mu      sync.Mutex
	reports map[uint]*service.CommitReport
}

func NewCheckoutHandler(
	sessions *checkout.Manager,
	catalogService *service.CatalogService,
	promotionService *service.PromotionService,
	checkoutService *service.CheckoutService,
) *CheckoutHandler {
	return &CheckoutHandler{
		sessions:         sessions,
		catalogService:   catalogService,
		promotionService: promotionService,
		checkoutService:  checkoutService,
		reports:          make(map[uint]*service.CommitReport),
	}
}

func (h *CheckoutHandler) session(c *gin.Context) (*checkout.Session, uint, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return nil, 0, false
	}
	id := userID.(uint)
	return h.sessions.Session(id), id, true
}

func cartPayload(session *checkout.Session) gin.H {
	return gin.H{
		"lines":      session.Cart.Lines(),
		"promotions": session.Cart.Applied(),
		"summary":    session.Cart.Summary(),
	}
}

// GetCart returns the active sale with its computed price summary.
func (h *CheckoutHandler) GetCart(c *gin.Context) {
	session, _, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, cartPayload(session))
}

func (h *CheckoutHandler) AddLine(c *gin.Context) {
	session, _, ok := h.session(c)
	if !ok {
		return
	}

	var req models.AddLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, err := h.catalogService.GetProductBySKU(req.SKU)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	line := session.Cart.AddProduct(product, req.Quantity)

	c.JSON(http.StatusOK, gin.H{
		"line":    line,
		"summary": session.Cart.Summary(),
	})
}

func (h *CheckoutHandler) UpdateLine(c *gin.Context) {
	session, _, ok := h.session(c)
	if !ok {
		return
	}

	var req models.UpdateLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !session.Cart.UpdateQuantity(c.Param("sku"), *req.Quantity) {
		c.JSON(http.StatusNotFound, gin.H{"error": "line not found"})
		return
	}

	c.JSON(http.StatusOK, cartPayload(session))
}

func (h *CheckoutHandler) RemoveLine(c *gin.Context) {
	session, _, ok := h.session(c)
	if !ok {
		return
	}

	session.Cart.RemoveLine(c.Param("sku"))
	c.JSON(http.StatusOK, cartPayload(session))
}

func (h *CheckoutHandler) ClearCart(c *gin.Context) {
	session, _, ok := h.session(c)
	if !ok {
		return
	}

	session.Cart.Clear()
	c.JSON(http.StatusOK, gin.H{"message": "cart cleared"})
}

// ApplyPromotion validates a user-entered code against the active catalog and
// stacks it onto the cart.
func (h *CheckoutHandler) ApplyPromotion(c *gin.Context) {
	session, _, ok := h.session(c)
	if !ok {
		return
	}

	var req models.ApplyPromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	catalog, err := h.promotionService.Catalog()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "promotion catalog unavailable"})
		return
	}

	applied, err := session.Cart.ApplyPromotion(req.Code, catalog)
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrUnknownCode):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, checkout.ErrAlreadyApplied):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"promotion": applied,
		"summary":   session.Cart.Summary(),
	})
}

func (h *CheckoutHandler) RemovePromotion(c *gin.Context) {
	session, _, ok := h.session(c)
	if !ok {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid promotion id"})
		return
	}

	session.Cart.RemovePromotion(uint(id))
	c.JSON(http.StatusOK, cartPayload(session))
}

// GetMethods lists the payment methods the store offers so the UI can build
// the payment selector.
func (h *CheckoutHandler) GetMethods(c *gin.Context) {
	methods := make([]gin.H, 0, len(payments.Methods))
	for _, m := range payments.Methods {
		methods = append(methods, gin.H{
			"type":  m.Type,
			"label": m.Label,
			"async": m.Kind == payments.KindAsynchronous,
		})
	}
	c.JSON(http.StatusOK, gin.H{"methods": methods})
}

// StartConfirmation opens the asynchronous payment flow: it snapshots the
// amount due and starts polling for a matching payment. On confirmation the
// sale commits server-side; the resulting report is exposed through
// GetConfirmation.
func (h *CheckoutHandler) StartConfirmation(c *gin.Context) {
	session, userID, ok := h.session(c)
	if !ok {
		return
	}

	var req models.StartConfirmationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summary := session.Cart.Summary()
	if len(session.Cart.Lines()) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cart is empty"})
		return
	}

	h.mu.Lock()
	delete(h.reports, userID)
	h.mu.Unlock()

	commitReq := models.CommitSaleRequest{
		Method:     req.Method,
		CustomerID: req.CustomerID,
	}

	onComplete := func(p payments.ConfirmedPayment) {
		// Runs on the poller goroutine after the original request is long
		// gone, so the commit gets its own context.
		report, err := h.checkoutService.CommitSale(context.Background(), session, userID, commitReq, p.Amount)
		if err != nil {
			logger.Error(err, "Commit after payment confirmation failed", map[string]interface{}{
				"user_id":   userID,
				"order_ref": req.OrderRef,
			})
			return
		}
		h.mu.Lock()
		h.reports[userID] = report
		h.mu.Unlock()
	}

	attempt, err := session.Confirmer.Start(context.Background(), req.OrderRef, summary.Total, req.Method, onComplete)
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrUnknownMethod), errors.Is(err, checkout.ErrMethodSynchronous):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"attempt": attempt})
}

// GetConfirmation reports the active attempt. Once the attempt completes and
// the commit has run, the commit report rides along.
func (h *CheckoutHandler) GetConfirmation(c *gin.Context) {
	session, userID, ok := h.session(c)
	if !ok {
		return
	}

	attempt, err := session.Confirmer.Status()
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	payload := gin.H{"attempt": attempt}

	if attempt.Status == checkout.StatusCompleted {
		h.mu.Lock()
		if report, ok := h.reports[userID]; ok {
			payload["report"] = report
		}
		h.mu.Unlock()
	}

	c.JSON(http.StatusOK, payload)
}

func (h *CheckoutHandler) CancelConfirmation(c *gin.Context) {
	session, _, ok := h.session(c)
	if !ok {
		return
	}

	if err := session.Confirmer.Cancel(); err != nil {
		switch {
		case errors.Is(err, checkout.ErrNoActiveAttempt):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, checkout.ErrAttemptTerminal):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "payment attempt cancelled"})
}

// Commit finalizes a synchronous sale. Cash is validated against the total
// due and change is computed; asynchronous methods commit automatically from
// the confirmation callback and are rejected here.
func (h *CheckoutHandler) Commit(c *gin.Context) {
	session, userID, ok := h.session(c)
	if !ok {
		return
	}

	var req models.CommitSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	method, found := payments.MethodByType(req.Method)
	if !found {
		c.JSON(http.StatusBadRequest, gin.H{"error": checkout.ErrUnknownMethod.Error()})
		return
	}
	if method.Kind == payments.KindAsynchronous {
		c.JSON(http.StatusConflict, gin.H{"error": "asynchronous payments commit on confirmation"})
		return
	}

	total := session.Cart.Summary().Total
	if req.AmountPaid < total {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": service.ErrInsufficientTender.Error(),
			"total": total,
		})
		return
	}

	report, err := h.checkoutService.CommitSale(c.Request.Context(), session, userID, req, total)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyCart), errors.Is(err, service.ErrInvalidLine):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	report.ChangeDue = payments.ChangeDue(total, req.AmountPaid)

	c.JSON(http.StatusOK, gin.H{"report": report})
}
