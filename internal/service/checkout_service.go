package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"retail-pos-backend/internal/checkout"
	"retail-pos-backend/internal/models"
	"retail-pos-backend/internal/repository"
	"retail-pos-backend/pkg/logger"
)

// StepOutcome is the tri-state result of one commit step.
type StepOutcome string

const (
	StepSucceeded StepOutcome = "succeeded"
	StepWarning   StepOutcome = "warning"
	StepSkipped   StepOutcome = "skipped"
)

// StepResult names a commit step and how it went.
type StepResult struct {
	Name    string      `json:"name"`
	Outcome StepOutcome `json:"outcome"`
	Detail  string      `json:"detail,omitempty"`
}

// CommitReport aggregates the commit sequence's per-step outcomes. The sale
// counts as completed once the order of record exists; everything after that
// is best-effort and surfaces as warnings, reported once in aggregate.
type CommitReport struct {
	Completed     bool         `json:"completed"`
	OrderID       uint         `json:"order_id"`
	OrderNumber   string       `json:"order_number"`
	Total         float64      `json:"total"`
	ChangeDue     float64      `json:"change_due"`
	PointsAwarded int          `json:"points_awarded"`
	Steps         []StepResult `json:"steps"`
	Warnings      []string     `json:"warnings"`
	Invoice       string       `json:"invoice,omitempty"`
}

func (r *CommitReport) step(name string, outcome StepOutcome, detail string) {
	r.Steps = append(r.Steps, StepResult{Name: name, Outcome: outcome, Detail: detail})
	if outcome == StepWarning {
		r.Warnings = append(r.Warnings, detail)
	}
}

// InvoiceRenderer turns a hydrated order into a printable document.
type InvoiceRenderer interface {
	Render(order *models.Order) (string, error)
}

// CheckoutService runs the transaction commit sequence once a payment is
// confirmed: create order, attach payment record, decrement inventory, award
// loyalty points, render the invoice, then clear the cart. Only the order
// creation is fatal; later steps fail independently without aborting the
// sale, and nothing is rolled back once the order exists.
type CheckoutService struct {
	orderRepo     repository.OrderRepository
	paymentRepo   repository.PaymentRepository
	inventoryRepo repository.InventoryRepository
	loyaltyRepo   repository.LoyaltyRepository
	customerRepo  repository.CustomerRepository
	renderer      InvoiceRenderer
	loyaltyOn     bool
}

func NewCheckoutService(
	orderRepo repository.OrderRepository,
	paymentRepo repository.PaymentRepository,
	inventoryRepo repository.InventoryRepository,
	loyaltyRepo repository.LoyaltyRepository,
	customerRepo repository.CustomerRepository,
	renderer InvoiceRenderer,
	loyaltyOn bool,
) *CheckoutService {
	return &CheckoutService{
		orderRepo:     orderRepo,
		paymentRepo:   paymentRepo,
		inventoryRepo: inventoryRepo,
		loyaltyRepo:   loyaltyRepo,
		customerRepo:  customerRepo,
		renderer:      renderer,
		loyaltyOn:     loyaltyOn,
	}
}

// CommitSale executes the commit sequence against the snapshot taken at
// invocation, so UI mutation during an in-flight commit cannot change what
// is submitted. Steps run strictly sequentially; later steps need the
// identifiers earlier ones produce.
//
// Precondition failures and order-creation failures return an error and
// leave the cart untouched. Once the order exists the cart is cleared and
// the report carries any step warnings.
func (s *CheckoutService) CommitSale(ctx context.Context, session *checkout.Session, userID uint, req models.CommitSaleRequest, amount float64) (*CommitReport, error) {
	snapshot := session.Cart.Snapshot()

	if err := validateSnapshot(snapshot); err != nil {
		return nil, err
	}

	report := &CommitReport{Total: snapshot.Summary.Total}

	// Step 2: create the order of record. Fatal on failure, cart kept intact.
	order, err := s.createOrder(snapshot, userID, req)
	if err != nil {
		logger.Error(err, "Order creation failed, sale aborted", map[string]interface{}{
			"user_id": userID,
			"total":   snapshot.Summary.Total,
		})
		return nil, fmt.Errorf("%w: %v", ErrOrderCreateFailed, err)
	}
	report.Completed = true
	report.OrderID = order.ID
	report.OrderNumber = order.Number
	report.step("order", StepSucceeded, "")

	if ctxErr := ctx.Err(); ctxErr != nil {
		// The order exists; finish the remaining best-effort steps anyway
		// rather than dropping the sale's side effects on a slow client.
		logger.Warn("Commit context done after order creation, continuing", map[string]interface{}{
			"order_id": order.ID,
		})
	}

	s.recordPayment(report, order, req.Method, amount)
	s.adjustInventory(report, snapshot)
	s.awardPoints(report, order, req.CustomerID, snapshot.Summary.Total)
	s.renderInvoice(report, order.ID)

	// Step 7: the order of record exists, so the cart can be cleared; a
	// fatal failure above left it intact for retry.
	session.Cart.Clear()
	session.Confirmer.Clear()

	logger.Info("Sale committed", map[string]interface{}{
		"order_id":     order.ID,
		"order_number": order.Number,
		"total":        snapshot.Summary.Total,
		"warnings":     len(report.Warnings),
	})

	return report, nil
}

// validateSnapshot is the commit precondition check; it runs before any
// remote call so a rejection is never partially applied.
func validateSnapshot(snapshot checkout.Snapshot) error {
	if len(snapshot.Lines) == 0 {
		return ErrEmptyCart
	}
	for _, line := range snapshot.Lines {
		if strings.TrimSpace(line.ProductSKU) == "" {
			return fmt.Errorf("%w: line %q has no product identifier", ErrInvalidLine, line.Name)
		}
		if line.Quantity <= 0 {
			return fmt.Errorf("%w: %s has non-positive quantity", ErrInvalidLine, line.ProductSKU)
		}
		if line.UnitPrice <= 0 {
			return fmt.Errorf("%w: %s has non-positive price", ErrInvalidLine, line.ProductSKU)
		}
	}
	return nil
}

func (s *CheckoutService) createOrder(snapshot checkout.Snapshot, userID uint, req models.CommitSaleRequest) (*models.Order, error) {
	items := make([]models.OrderItem, 0, len(snapshot.Lines))
	for _, line := range snapshot.Lines {
		items = append(items, models.OrderItem{
			ProductSKU: line.ProductSKU,
			Name:       line.Name,
			UnitPrice:  line.UnitPrice,
			Quantity:   line.Quantity,
			Subtotal:   line.Subtotal,
		})
	}

	// The promotion reference stays nil when nothing was applied; a zero
	// reference would trip referential integrity downstream.
	var promotionID *uint
	if len(snapshot.Applied) > 0 {
		id := snapshot.Applied[0].ID
		promotionID = &id
	}

	order := &models.Order{
		Number:      "POS-" + strings.ToUpper(uuid.NewString()[:8]),
		Status:      models.OrderStatusCompleted,
		Subtotal:    snapshot.Summary.Subtotal,
		Discount:    snapshot.Summary.DiscountAmount,
		Total:       snapshot.Summary.Total,
		CustomerID:  req.CustomerID,
		UserID:      userID,
		PromotionID: promotionID,
		Items:       items,
	}

	if err := s.orderRepo.Create(order); err != nil {
		return nil, err
	}
	return order, nil
}

// recordPayment attaches the confirmed payment to the order. A failure here
// is deliberately not compensated: the order already exists, so it surfaces
// as a warning for manual reconciliation instead of a rollback.
func (s *CheckoutService) recordPayment(report *CommitReport, order *models.Order, method string, amount float64) {
	payment := &models.Payment{
		OrderID: order.ID,
		Amount:  amount,
		Method:  strings.ToLower(method),
		PaidAt:  time.Now(),
	}
	if err := s.paymentRepo.Create(payment); err != nil {
		logger.Error(err, "Payment record failed", map[string]interface{}{"order_id": order.ID})
		report.step("payment", StepWarning,
			fmt.Sprintf("payment record for order %s failed and needs manual reconciliation: %v", order.Number, err))
		return
	}
	report.step("payment", StepSucceeded, "")
}

// adjustInventory writes back max(stock-sold, 0) per line. Missing records
// and short stock are warnings; this step never aborts the sequence.
func (s *CheckoutService) adjustInventory(report *CommitReport, snapshot checkout.Snapshot) {
	outcome := StepSucceeded
	for _, line := range snapshot.Lines {
		record, err := s.inventoryRepo.GetByProductSKU(line.ProductSKU)
		if err != nil {
			outcome = StepWarning
			detail := fmt.Sprintf("no inventory record for %s, stock not adjusted", line.ProductSKU)
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				detail = fmt.Sprintf("inventory lookup for %s failed: %v", line.ProductSKU, err)
			}
			logger.Warn("Inventory adjustment skipped", map[string]interface{}{"sku": line.ProductSKU, "error": err.Error()})
			report.Warnings = append(report.Warnings, detail)
			continue
		}

		newQuantity := record.Quantity - line.Quantity
		if newQuantity < 0 {
			outcome = StepWarning
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("insufficient stock for %s (%d on hand, %d sold), clamped at zero", line.ProductSKU, record.Quantity, line.Quantity))
			newQuantity = 0
		}

		if err := s.inventoryRepo.UpdateQuantity(record.ID, newQuantity, line.ProductSKU); err != nil {
			outcome = StepWarning
			logger.Error(err, "Inventory write-back failed", map[string]interface{}{"sku": line.ProductSKU})
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("inventory update for %s failed: %v", line.ProductSKU, err))
		}
	}
	report.Steps = append(report.Steps, StepResult{Name: "inventory", Outcome: outcome})
}

// awardPoints runs only for a known customer under an active configuration
// with a positive money-per-point ratio; every other case is a skip, not an
// error.
func (s *CheckoutService) awardPoints(report *CommitReport, order *models.Order, customerID *uint, total float64) {
	if customerID == nil {
		report.step("loyalty", StepSkipped, "guest sale")
		return
	}
	if !s.loyaltyOn {
		report.step("loyalty", StepSkipped, "loyalty disabled")
		return
	}

	if _, err := s.customerRepo.GetByID(*customerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			report.step("loyalty", StepWarning, fmt.Sprintf("customer %d not found, points not awarded", *customerID))
		} else {
			report.step("loyalty", StepWarning, fmt.Sprintf("customer lookup failed: %v", err))
		}
		return
	}

	configs, err := s.loyaltyRepo.GetPointsConfigs()
	if err != nil {
		report.step("loyalty", StepWarning, fmt.Sprintf("points configuration unavailable: %v", err))
		return
	}

	config := pickPointsConfig(configs)
	if config == nil || !config.IsActive || config.MoneyPerUnit <= 0 {
		report.step("loyalty", StepSkipped, "no active points configuration")
		return
	}

	points := int(math.Floor(total/config.MoneyPerUnit)) * config.PointsPerUnit
	if points <= 0 {
		report.step("loyalty", StepSkipped, "sale total below points threshold")
		return
	}

	if err := s.loyaltyRepo.AddPoints(*customerID, &order.ID, points, "sale "+order.Number); err != nil {
		logger.Error(err, "Loyalty award failed", map[string]interface{}{"order_id": order.ID, "customer_id": *customerID})
		report.step("loyalty", StepWarning, fmt.Sprintf("failed to record %d loyalty points: %v", points, err))
		return
	}

	report.PointsAwarded = points
	report.step("loyalty", StepSucceeded, "")
}

// renderInvoice fetches the hydrated order and renders the printable
// document; failure skips printing and nothing else.
func (s *CheckoutService) renderInvoice(report *CommitReport, orderID uint) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		report.step("invoice", StepWarning, fmt.Sprintf("could not load order for invoice: %v", err))
		return
	}

	doc, err := s.renderer.Render(order)
	if err != nil {
		report.step("invoice", StepWarning, fmt.Sprintf("invoice rendering failed: %v", err))
		return
	}

	report.Invoice = doc
	report.step("invoice", StepSucceeded, "")
}

// pickPointsConfig returns the first active configuration, falling back to
// the first entry when none is marked active.
func pickPointsConfig(configs []models.PointsConfig) *models.PointsConfig {
	if len(configs) == 0 {
		return nil
	}
	for i := range configs {
		if configs[i].IsActive {
			return &configs[i]
		}
	}
	return &configs[0]
}
