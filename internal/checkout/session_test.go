package checkout

import (
	"context"
	"testing"
	"time"

	"retail-pos-backend/internal/models"
	"retail-pos-backend/internal/payments"
)

func TestManager_SessionPerOperator(t *testing.T) {
	manager := NewManager(fastConfig(), &fakeSource{})

	first := manager.Session(1)
	second := manager.Session(2)

	if first == second {
		t.Fatal("operators must not share a session")
	}
	if manager.Session(1) != first {
		t.Fatal("expected the same session on repeat lookup")
	}

	first.Cart.AddProduct(&models.Product{SKU: "COF-001", Name: "Coffee", Price: 120000}, 1)
	if len(second.Cart.Lines()) != 0 {
		t.Fatal("cart mutation leaked across sessions")
	}
}

func TestManager_SweepDropsTerminalAttempts(t *testing.T) {
	source := &fakeSource{} // never matches, attempts time out
	manager := NewManager(fastConfig(), source)

	session := manager.Session(1)
	session.Confirmer.Start(context.Background(), 42, 50000, "qris", func(payments.ConfirmedPayment) {})

	waitFor(t, time.Second, func() bool {
		attempt, err := session.Confirmer.Status()
		return err == nil && attempt.Status == StatusFailed
	})

	if swept := manager.Sweep(); swept != 1 {
		t.Fatalf("expected 1 attempt swept, got %d", swept)
	}

	if _, err := session.Confirmer.Status(); err == nil {
		t.Fatal("expected attempt gone after sweep")
	}
}

func TestManager_SweepLeavesLiveAttempts(t *testing.T) {
	cfg := fastConfig()
	cfg.SettleDelay = 100 * time.Millisecond
	cfg.MaxAttempts = 1000
	manager := NewManager(cfg, &fakeSource{})

	session := manager.Session(1)
	session.Confirmer.Start(context.Background(), 42, 50000, "qris", func(payments.ConfirmedPayment) {})
	defer session.Confirmer.Cancel()

	if swept := manager.Sweep(); swept != 0 {
		t.Fatalf("sweep must not touch live attempts, swept %d", swept)
	}
}
