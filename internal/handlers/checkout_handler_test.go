package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"retail-pos-backend/internal/checkout"
	"retail-pos-backend/internal/models"
	"retail-pos-backend/internal/payments"
)

type stubConfirmationSource struct{}

func (s *stubConfirmationSource) Payments(ctx context.Context, orderID uint) ([]payments.ConfirmedPayment, error) {
	return nil, nil
}

var _ payments.ConfirmationSource = (*stubConfirmationSource)(nil)

func newTestCheckoutHandler() *CheckoutHandler {
	manager := checkout.NewManager(checkout.ConfirmerConfig{
		SettleDelay:   time.Millisecond,
		PollInterval:  time.Millisecond,
		MaxAttempts:   3,
		AmountEpsilon: 0.01,
		CloseDelay:    time.Millisecond,
	}, &stubConfirmationSource{})
	return NewCheckoutHandler(manager, nil, nil, nil)
}

func updateLineContext(w *httptest.ResponseRecorder, sku, body string) *gin.Context {
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodPut, "/checkout/cart/lines/"+sku, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "sku", Value: sku}}
	c.Set("user_id", uint(1))
	return c
}

func TestCheckoutHandlerUpdateLineZeroQuantityRemovesLine(t *testing.T) {
	gin.SetMode(gin.TestMode)

	handler := newTestCheckoutHandler()
	cart := handler.sessions.Session(1).Cart
	cart.AddProduct(&models.Product{SKU: "SKU-1", Name: "Mineral Water", Price: 5000}, 2)

	w := httptest.NewRecorder()
	c := updateLineContext(w, "SKU-1", `{"quantity":0}`)

	handler.UpdateLine(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if lines := cart.Lines(); len(lines) != 0 {
		t.Fatalf("expected line removed, got %d lines", len(lines))
	}
}

func TestCheckoutHandlerUpdateLineChangesQuantity(t *testing.T) {
	gin.SetMode(gin.TestMode)

	handler := newTestCheckoutHandler()
	cart := handler.sessions.Session(1).Cart
	cart.AddProduct(&models.Product{SKU: "SKU-1", Name: "Mineral Water", Price: 5000}, 2)

	w := httptest.NewRecorder()
	c := updateLineContext(w, "SKU-1", `{"quantity":5}`)

	handler.UpdateLine(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	lines := cart.Lines()
	if len(lines) != 1 || lines[0].Quantity != 5 {
		t.Fatalf("expected single line with quantity 5, got %+v", lines)
	}
}

func TestCheckoutHandlerUpdateLineMissingQuantityRejected(t *testing.T) {
	gin.SetMode(gin.TestMode)

	handler := newTestCheckoutHandler()
	cart := handler.sessions.Session(1).Cart
	cart.AddProduct(&models.Product{SKU: "SKU-1", Name: "Mineral Water", Price: 5000}, 2)

	w := httptest.NewRecorder()
	c := updateLineContext(w, "SKU-1", `{}`)

	handler.UpdateLine(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
	if lines := cart.Lines(); len(lines) != 1 || lines[0].Quantity != 2 {
		t.Fatalf("expected cart untouched, got %+v", lines)
	}
}

func TestCheckoutHandlerUpdateLineUnknownSKU(t *testing.T) {
	gin.SetMode(gin.TestMode)

	handler := newTestCheckoutHandler()

	w := httptest.NewRecorder()
	c := updateLineContext(w, "SKU-MISSING", `{"quantity":1}`)

	handler.UpdateLine(c)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
}
