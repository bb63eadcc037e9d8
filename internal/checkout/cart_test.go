package checkout

import (
	"testing"

	"retail-pos-backend/internal/models"
)

func testProduct(sku string, price float64) *models.Product {
	return &models.Product{SKU: sku, Name: "Product " + sku, Price: price}
}

func TestCart_AddProductMergesSameSKU(t *testing.T) {
	cart := NewCart()

	cart.AddProduct(testProduct("COF-001", 120000), 1)
	line := cart.AddProduct(testProduct("COF-001", 120000), 2)

	if line.Quantity != 3 {
		t.Fatalf("expected merged quantity 3, got %d", line.Quantity)
	}
	if len(cart.Lines()) != 1 {
		t.Fatalf("expected a single line, got %d", len(cart.Lines()))
	}
	if line.Subtotal != 360000 {
		t.Fatalf("expected subtotal 360000, got %v", line.Subtotal)
	}
}

func TestCart_AddProductSnapshotsPrice(t *testing.T) {
	cart := NewCart()
	product := testProduct("COF-001", 120000)

	cart.AddProduct(product, 1)

	// A catalog price change after the line exists must not reprice it.
	product.Price = 999999

	lines := cart.Lines()
	if lines[0].UnitPrice != 120000 {
		t.Fatalf("expected snapshotted price 120000, got %v", lines[0].UnitPrice)
	}
}

func TestCart_AddProductQuantityBelowOne(t *testing.T) {
	cart := NewCart()

	line := cart.AddProduct(testProduct("COF-001", 120000), 0)
	if line.Quantity != 1 {
		t.Fatalf("expected quantity clamped to 1, got %d", line.Quantity)
	}
}

func TestCart_UpdateQuantityZeroRemovesLine(t *testing.T) {
	cart := NewCart()
	cart.AddProduct(testProduct("COF-001", 120000), 2)

	if !cart.UpdateQuantity("COF-001", 0) {
		t.Fatal("expected update to find the line")
	}
	if len(cart.Lines()) != 0 {
		t.Fatalf("expected line removed, got %+v", cart.Lines())
	}
}

func TestCart_UpdateQuantityNegativeRemovesLine(t *testing.T) {
	cart := NewCart()
	cart.AddProduct(testProduct("COF-001", 120000), 2)

	cart.UpdateQuantity("COF-001", -3)
	if len(cart.Lines()) != 0 {
		t.Fatalf("expected line removed for negative quantity, got %+v", cart.Lines())
	}
}

func TestCart_UpdateQuantityUnknownSKU(t *testing.T) {
	cart := NewCart()
	if cart.UpdateQuantity("NOPE", 2) {
		t.Fatal("expected update of unknown sku to return false")
	}
}

func TestCart_SnapshotIsIsolated(t *testing.T) {
	cart := NewCart()
	cart.AddProduct(testProduct("COF-001", 120000), 1)
	cart.ApplyPromotion("FLAT5K", testCatalog())

	snapshot := cart.Snapshot()

	// Mutations after the snapshot must not leak into it.
	cart.AddProduct(testProduct("MUG-010", 35000), 1)
	cart.RemovePromotion(2)
	cart.UpdateQuantity("COF-001", 5)

	if len(snapshot.Lines) != 1 || snapshot.Lines[0].Quantity != 1 {
		t.Fatalf("snapshot lines mutated: %+v", snapshot.Lines)
	}
	if len(snapshot.Applied) != 1 {
		t.Fatalf("snapshot promotions mutated: %+v", snapshot.Applied)
	}
	if snapshot.Summary.Subtotal != 120000 {
		t.Fatalf("snapshot summary mutated: %+v", snapshot.Summary)
	}
}

func TestCart_RestoreRoundTrip(t *testing.T) {
	cart := NewCart()
	cart.AddProduct(testProduct("COF-001", 120000), 2)
	cart.ApplyPromotion("WELCOME10", testCatalog())

	snapshot := cart.Snapshot()
	cart.Clear()

	if len(cart.Lines()) != 0 {
		t.Fatal("expected cleared cart")
	}

	cart.Restore(snapshot)

	if len(cart.Lines()) != 1 || len(cart.Applied()) != 1 {
		t.Fatalf("restore incomplete: lines=%d applied=%d", len(cart.Lines()), len(cart.Applied()))
	}
	if cart.Summary().Subtotal != 240000 {
		t.Fatalf("unexpected restored subtotal: %v", cart.Summary().Subtotal)
	}
}

func TestCart_ClearResetsEverything(t *testing.T) {
	cart := NewCart()
	cart.AddProduct(testProduct("COF-001", 120000), 1)
	cart.ApplyPromotion("FLAT5K", testCatalog())

	cart.Clear()

	summary := cart.Summary()
	if summary.Subtotal != 0 || summary.DiscountAmount != 0 || summary.Total != 0 {
		t.Fatalf("expected zero summary after clear, got %+v", summary)
	}
}
