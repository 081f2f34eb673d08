package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"suitepos/backend/internal/domain"
	"suitepos/backend/internal/store"
)

func TestCreateBillDeductsStockAtomically(t *testing.T) {
	databaseURL := os.Getenv("SUITEPOS_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set SUITEPOS_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	stamp := time.Now().UnixNano()
	name := fmt.Sprintf("Bill IT Item %d", stamp)

	item, err := s.CreateItem(ctx, domain.Item{
		Name:        name,
		SKU:         fmt.Sprintf("IT-%d", stamp),
		Category:    "Beverages",
		Quantity:    10,
		Price:       decimal.RequireFromString("2.50"),
		MinQuantity: 2,
	})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	t.Cleanup(func() {
		// Deleting the bills cascades to their bill_items rows.
		_, _ = s.db.ExecContext(ctx, `
			DELETE FROM bills WHERE id IN (
				SELECT bill_id FROM bill_items WHERE item_id = $1
			)`, item.ID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, item.ID)
	})

	bill, err := s.CreateBill(ctx, domain.CreateBillRequest{
		CustomerName:  "Room 204",
		PaymentMethod: domain.PaymentMethodCash,
		Items:         []domain.BillLineRequest{{ItemID: item.ID, Quantity: 3}},
	})
	if err != nil {
		t.Fatalf("create bill: %v", err)
	}
	if !bill.TotalAmount.Equal(decimal.RequireFromString("7.50")) {
		t.Fatalf("expected total 7.50, got %s", bill.TotalAmount)
	}

	after, err := s.GetItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if after.Quantity != 7 {
		t.Fatalf("expected quantity 7 after sale, got %d", after.Quantity)
	}

	// Overselling must abort the whole bill and leave stock untouched.
	_, err = s.CreateBill(ctx, domain.CreateBillRequest{
		CustomerName:  "Room 204",
		PaymentMethod: domain.PaymentMethodCash,
		Items:         []domain.BillLineRequest{{ItemID: item.ID, Quantity: 8}},
	})
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	after, err = s.GetItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("get item after failed sale: %v", err)
	}
	if after.Quantity != 7 {
		t.Fatalf("expected quantity still 7 after rejected sale, got %d", after.Quantity)
	}
}
