package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"gorm.io/gorm"

	"retail-pos-backend/internal/checkout"
	"retail-pos-backend/internal/models"
	"retail-pos-backend/internal/repository"
)

type memoryOrderRepository struct {
	orders    map[uint]*models.Order
	nextID    uint
	createErr error
}

func newMemoryOrderRepository() *memoryOrderRepository {
	return &memoryOrderRepository{orders: make(map[uint]*models.Order), nextID: 1}
}

func (m *memoryOrderRepository) Create(order *models.Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	order.ID = m.nextID
	m.nextID++
	m.orders[order.ID] = order
	return nil
}

func (m *memoryOrderRepository) GetByID(id uint) (*models.Order, error) {
	order, ok := m.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

func (m *memoryOrderRepository) GetByNumber(number string) (*models.Order, error) {
	for _, order := range m.orders {
		if order.Number == number {
			return order, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memoryOrderRepository) GetPayments(orderID uint) ([]models.Payment, error) {
	return nil, nil
}

func (m *memoryOrderRepository) List(limit, offset int) ([]models.Order, error) {
	return nil, nil
}

func (m *memoryOrderRepository) Count() (int64, error) {
	return int64(len(m.orders)), nil
}

var _ repository.OrderRepository = (*memoryOrderRepository)(nil)

type memoryPaymentRepository struct {
	payments  []models.Payment
	createErr error
}

func (m *memoryPaymentRepository) Create(payment *models.Payment) error {
	if m.createErr != nil {
		return m.createErr
	}
	payment.ID = uint(len(m.payments) + 1)
	m.payments = append(m.payments, *payment)
	return nil
}

func (m *memoryPaymentRepository) GetByOrderID(orderID uint) ([]models.Payment, error) {
	var out []models.Payment
	for _, p := range m.payments {
		if p.OrderID == orderID {
			out = append(out, p)
		}
	}
	return out, nil
}

var _ repository.PaymentRepository = (*memoryPaymentRepository)(nil)

type memoryInventoryRepository struct {
	records   map[string]*models.InventoryRecord
	updateErr error
}

func newMemoryInventoryRepository() *memoryInventoryRepository {
	return &memoryInventoryRepository{records: make(map[string]*models.InventoryRecord)}
}

func (m *memoryInventoryRepository) Create(record *models.InventoryRecord) error {
	m.records[record.ProductSKU] = record
	return nil
}

func (m *memoryInventoryRepository) GetAll() ([]models.InventoryRecord, error) {
	var out []models.InventoryRecord
	for _, r := range m.records {
		out = append(out, *r)
	}
	return out, nil
}

func (m *memoryInventoryRepository) GetByProductSKU(sku string) (*models.InventoryRecord, error) {
	record, ok := m.records[sku]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *record
	return &clone, nil
}

func (m *memoryInventoryRepository) UpdateQuantity(id uint, newQuantity int, productSKU string) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	record, ok := m.records[productSKU]
	if !ok || record.ID != id {
		return gorm.ErrRecordNotFound
	}
	record.Quantity = newQuantity
	return nil
}

var _ repository.InventoryRepository = (*memoryInventoryRepository)(nil)

type memoryLoyaltyRepository struct {
	configs   []models.PointsConfig
	entries   []models.PointsEntry
	addErr    error
	configErr error
}

func (m *memoryLoyaltyRepository) GetPointsConfigs() ([]models.PointsConfig, error) {
	if m.configErr != nil {
		return nil, m.configErr
	}
	return m.configs, nil
}

func (m *memoryLoyaltyRepository) AddPoints(customerID uint, orderID *uint, points int, note string) error {
	if m.addErr != nil {
		return m.addErr
	}
	m.entries = append(m.entries, models.PointsEntry{
		CustomerID: customerID,
		OrderID:    orderID,
		Points:     points,
		Note:       note,
	})
	return nil
}

func (m *memoryLoyaltyRepository) GetEntries(customerID uint) ([]models.PointsEntry, error) {
	return m.entries, nil
}

var _ repository.LoyaltyRepository = (*memoryLoyaltyRepository)(nil)

type memoryCustomerRepository struct {
	getErr error
}

func (m *memoryCustomerRepository) Create(customer *models.Customer) error { return nil }
func (m *memoryCustomerRepository) GetByID(id uint) (*models.Customer, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return &models.Customer{ID: id, Name: "Customer"}, nil
}
func (m *memoryCustomerRepository) Search(query string, limit int) ([]models.Customer, error) {
	return nil, nil
}
func (m *memoryCustomerRepository) Update(customer *models.Customer) error { return nil }

var _ repository.CustomerRepository = (*memoryCustomerRepository)(nil)

type stubRenderer struct {
	doc string
	err error
}

func (r *stubRenderer) Render(order *models.Order) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	if r.doc != "" {
		return r.doc, nil
	}
	return "RECEIPT " + order.Number, nil
}

type commitFixture struct {
	orders    *memoryOrderRepository
	payments  *memoryPaymentRepository
	inventory *memoryInventoryRepository
	loyalty   *memoryLoyaltyRepository
	customers *memoryCustomerRepository
	renderer  *stubRenderer
	service   *CheckoutService
	session   *checkout.Session
}

func newCommitFixture() *commitFixture {
	f := &commitFixture{
		orders:    newMemoryOrderRepository(),
		payments:  &memoryPaymentRepository{},
		inventory: newMemoryInventoryRepository(),
		loyalty:   &memoryLoyaltyRepository{},
		customers: &memoryCustomerRepository{},
		renderer:  &stubRenderer{},
	}
	f.service = NewCheckoutService(
		f.orders,
		f.payments,
		f.inventory,
		f.loyalty,
		f.customers,
		f.renderer,
		true,
	)
	f.session = &checkout.Session{
		Cart:      checkout.NewCart(),
		Confirmer: checkout.NewConfirmer(checkout.ConfirmerConfig{}, nil),
	}
	return f
}

func (f *commitFixture) stock(sku string, quantity int) {
	f.inventory.Create(&models.InventoryRecord{
		ID:         uint(len(f.inventory.records) + 1),
		ProductSKU: sku,
		Quantity:   quantity,
	})
}

func (f *commitFixture) addProduct(sku string, price float64, quantity int) {
	f.session.Cart.AddProduct(&models.Product{SKU: sku, Name: "Product " + sku, Price: price}, quantity)
}

func TestCommitSale_HappyPath(t *testing.T) {
	f := newCommitFixture()
	f.addProduct("COF-001", 120000, 2)
	f.stock("COF-001", 10)

	report, err := f.service.CommitSale(context.Background(), f.session, 1, models.CommitSaleRequest{Method: "cash"}, 240000)
	if err != nil {
		t.Fatalf("CommitSale returned error: %v", err)
	}

	if !report.Completed {
		t.Fatal("expected completed sale")
	}
	if len(report.Warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", report.Warnings)
	}
	if report.OrderNumber == "" {
		t.Fatal("expected order number assigned")
	}
	if report.Invoice == "" {
		t.Fatal("expected rendered invoice on report")
	}

	if len(f.payments.payments) != 1 || f.payments.payments[0].Amount != 240000 {
		t.Fatalf("expected payment recorded, got %+v", f.payments.payments)
	}

	record, _ := f.inventory.GetByProductSKU("COF-001")
	if record.Quantity != 8 {
		t.Fatalf("expected stock 8 after sale, got %d", record.Quantity)
	}

	if len(f.session.Cart.Lines()) != 0 {
		t.Fatal("expected cart cleared after commit")
	}
}

func TestCommitSale_EmptyCartRejected(t *testing.T) {
	f := newCommitFixture()

	_, err := f.service.CommitSale(context.Background(), f.session, 1, models.CommitSaleRequest{Method: "cash"}, 0)
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
}

func TestCommitSale_OrderCreateFailurePreservesCart(t *testing.T) {
	f := newCommitFixture()
	f.addProduct("COF-001", 120000, 1)
	f.orders.createErr = errors.New("connection refused")

	_, err := f.service.CommitSale(context.Background(), f.session, 1, models.CommitSaleRequest{Method: "cash"}, 120000)
	if !errors.Is(err, ErrOrderCreateFailed) {
		t.Fatalf("expected ErrOrderCreateFailed, got %v", err)
	}

	// A fatal failure must leave the cart intact for retry.
	if len(f.session.Cart.Lines()) != 1 {
		t.Fatalf("expected cart preserved, got %d lines", len(f.session.Cart.Lines()))
	}
}

func TestCommitSale_PaymentFailureIsWarningNotRollback(t *testing.T) {
	f := newCommitFixture()
	f.addProduct("COF-001", 120000, 1)
	f.stock("COF-001", 5)
	f.payments.createErr = errors.New("write failed")

	report, err := f.service.CommitSale(context.Background(), f.session, 1, models.CommitSaleRequest{Method: "cash"}, 120000)
	if err != nil {
		t.Fatalf("CommitSale returned error: %v", err)
	}

	if !report.Completed {
		t.Fatal("sale must still count as completed")
	}
	if len(report.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", report.Warnings)
	}
	if len(f.orders.orders) != 1 {
		t.Fatal("order must not be rolled back")
	}
	if len(f.session.Cart.Lines()) != 0 {
		t.Fatal("cart must clear once the order exists")
	}
}

func TestCommitSale_MissingInventoryIsWarning(t *testing.T) {
	f := newCommitFixture()
	f.addProduct("COF-001", 120000, 1)
	f.addProduct("MUG-010", 35000, 1)
	f.stock("COF-001", 5)
	// no stock record for MUG-010

	report, err := f.service.CommitSale(context.Background(), f.session, 1, models.CommitSaleRequest{Method: "cash"}, 155000)
	if err != nil {
		t.Fatalf("CommitSale returned error: %v", err)
	}

	if len(report.Warnings) != 1 {
		t.Fatalf("expected 1 warning for missing inventory, got %v", report.Warnings)
	}

	// The line with a record still adjusts.
	record, _ := f.inventory.GetByProductSKU("COF-001")
	if record.Quantity != 4 {
		t.Fatalf("expected stock 4, got %d", record.Quantity)
	}
}

func TestCommitSale_ShortStockClampedAtZero(t *testing.T) {
	f := newCommitFixture()
	f.addProduct("COF-001", 120000, 5)
	f.stock("COF-001", 2)

	report, err := f.service.CommitSale(context.Background(), f.session, 1, models.CommitSaleRequest{Method: "cash"}, 600000)
	if err != nil {
		t.Fatalf("CommitSale returned error: %v", err)
	}

	if len(report.Warnings) != 1 {
		t.Fatalf("expected short-stock warning, got %v", report.Warnings)
	}

	record, _ := f.inventory.GetByProductSKU("COF-001")
	if record.Quantity != 0 {
		t.Fatalf("expected stock clamped at zero, got %d", record.Quantity)
	}
}

func TestCommitSale_MultipleWarningsAggregate(t *testing.T) {
	f := newCommitFixture()
	f.addProduct("COF-001", 120000, 1)
	f.payments.createErr = errors.New("payment store down")
	f.renderer.err = errors.New("template broken")
	// no inventory record either

	report, err := f.service.CommitSale(context.Background(), f.session, 1, models.CommitSaleRequest{Method: "cash"}, 120000)
	if err != nil {
		t.Fatalf("CommitSale returned error: %v", err)
	}

	if !report.Completed {
		t.Fatal("sale must complete despite step failures")
	}
	if len(report.Warnings) != 3 {
		t.Fatalf("expected 3 aggregated warnings, got %d: %v", len(report.Warnings), report.Warnings)
	}
}

func TestCommitSale_LoyaltyAward(t *testing.T) {
	f := newCommitFixture()
	customerID := uint(9)
	f.addProduct("COF-001", 120000, 1)
	f.addProduct("MUG-010", 115000, 1)
	f.stock("COF-001", 5)
	f.stock("MUG-010", 5)
	f.loyalty.configs = []models.PointsConfig{
		{ID: 1, IsActive: true, MoneyPerUnit: 10000, PointsPerUnit: 1},
	}

	report, err := f.service.CommitSale(context.Background(), f.session, 1,
		models.CommitSaleRequest{Method: "cash", CustomerID: &customerID}, 235000)
	if err != nil {
		t.Fatalf("CommitSale returned error: %v", err)
	}

	// floor(235000 / 10000) * 1 = 23
	if report.PointsAwarded != 23 {
		t.Fatalf("expected 23 points awarded, got %d", report.PointsAwarded)
	}
	if len(f.loyalty.entries) != 1 || f.loyalty.entries[0].Points != 23 {
		t.Fatalf("expected ledger entry with 23 points, got %+v", f.loyalty.entries)
	}
	if f.loyalty.entries[0].CustomerID != customerID {
		t.Fatalf("entry attributed to wrong customer: %+v", f.loyalty.entries[0])
	}
}

func TestCommitSale_GuestSaleSkipsLoyalty(t *testing.T) {
	f := newCommitFixture()
	f.addProduct("COF-001", 120000, 1)
	f.stock("COF-001", 5)
	f.loyalty.configs = []models.PointsConfig{
		{ID: 1, IsActive: true, MoneyPerUnit: 10000, PointsPerUnit: 1},
	}

	report, err := f.service.CommitSale(context.Background(), f.session, 1, models.CommitSaleRequest{Method: "cash"}, 120000)
	if err != nil {
		t.Fatalf("CommitSale returned error: %v", err)
	}

	if report.PointsAwarded != 0 {
		t.Fatalf("guest sale must not award points, got %d", report.PointsAwarded)
	}
	if len(f.loyalty.entries) != 0 {
		t.Fatalf("unexpected ledger entries: %+v", f.loyalty.entries)
	}
	if len(report.Warnings) != 0 {
		t.Fatalf("a skip is not a warning: %v", report.Warnings)
	}
}

func TestCommitSale_NoActiveConfigSkipsLoyalty(t *testing.T) {
	f := newCommitFixture()
	customerID := uint(9)
	f.addProduct("COF-001", 120000, 1)
	f.stock("COF-001", 5)
	f.loyalty.configs = []models.PointsConfig{
		{ID: 1, IsActive: false, MoneyPerUnit: 10000, PointsPerUnit: 1},
	}

	report, err := f.service.CommitSale(context.Background(), f.session, 1,
		models.CommitSaleRequest{Method: "cash", CustomerID: &customerID}, 120000)
	if err != nil {
		t.Fatalf("CommitSale returned error: %v", err)
	}

	if report.PointsAwarded != 0 || len(f.loyalty.entries) != 0 {
		t.Fatal("inactive configuration must not award points")
	}
}

func TestCommitSale_LoyaltyFailureIsWarning(t *testing.T) {
	f := newCommitFixture()
	customerID := uint(9)
	f.addProduct("COF-001", 120000, 1)
	f.stock("COF-001", 5)
	f.loyalty.configs = []models.PointsConfig{
		{ID: 1, IsActive: true, MoneyPerUnit: 10000, PointsPerUnit: 1},
	}
	f.loyalty.addErr = errors.New("ledger unavailable")

	report, err := f.service.CommitSale(context.Background(), f.session, 1,
		models.CommitSaleRequest{Method: "cash", CustomerID: &customerID}, 120000)
	if err != nil {
		t.Fatalf("CommitSale returned error: %v", err)
	}

	if report.PointsAwarded != 0 {
		t.Fatalf("failed award must not report points, got %d", report.PointsAwarded)
	}
	if len(report.Warnings) != 1 {
		t.Fatalf("expected loyalty warning, got %v", report.Warnings)
	}
}

func TestCommitSale_UnknownCustomerLoyaltyWarning(t *testing.T) {
	f := newCommitFixture()
	customerID := uint(9)
	f.addProduct("COF-001", 120000, 1)
	f.stock("COF-001", 5)
	f.loyalty.configs = []models.PointsConfig{
		{ID: 1, IsActive: true, MoneyPerUnit: 10000, PointsPerUnit: 1},
	}
	f.customers.getErr = gorm.ErrRecordNotFound

	report, err := f.service.CommitSale(context.Background(), f.session, 1,
		models.CommitSaleRequest{Method: "cash", CustomerID: &customerID}, 120000)
	if err != nil {
		t.Fatalf("CommitSale returned error: %v", err)
	}

	if report.PointsAwarded != 0 || len(f.loyalty.entries) != 0 {
		t.Fatal("points must not be awarded to an unknown customer")
	}
	if len(report.Warnings) != 1 || !strings.Contains(report.Warnings[0], "not found") {
		t.Fatalf("expected a customer-not-found warning, got %v", report.Warnings)
	}
	if !report.Completed {
		t.Fatal("sale must still complete")
	}
}

func TestCommitSale_PromotionReferenceOnOrder(t *testing.T) {
	f := newCommitFixture()
	f.addProduct("COF-001", 120000, 1)
	f.stock("COF-001", 5)
	f.session.Cart.ApplyPromotion("WELCOME10", []models.Promotion{
		{ID: 4, Code: "WELCOME10", DiscountType: models.DiscountTypePercentage, DiscountValue: 10, IsActive: true},
	})

	report, err := f.service.CommitSale(context.Background(), f.session, 1, models.CommitSaleRequest{Method: "cash"}, 108000)
	if err != nil {
		t.Fatalf("CommitSale returned error: %v", err)
	}

	order := f.orders.orders[report.OrderID]
	if order.PromotionID == nil || *order.PromotionID != 4 {
		t.Fatalf("expected promotion reference 4 on order, got %v", order.PromotionID)
	}
	if order.Discount != 12000 {
		t.Fatalf("expected discount 12000 persisted, got %v", order.Discount)
	}
}

func TestCommitSale_NoPromotionLeavesReferenceNil(t *testing.T) {
	f := newCommitFixture()
	f.addProduct("COF-001", 120000, 1)
	f.stock("COF-001", 5)

	report, err := f.service.CommitSale(context.Background(), f.session, 1, models.CommitSaleRequest{Method: "cash"}, 120000)
	if err != nil {
		t.Fatalf("CommitSale returned error: %v", err)
	}

	if f.orders.orders[report.OrderID].PromotionID != nil {
		t.Fatal("expected nil promotion reference for an undiscounted sale")
	}
}
