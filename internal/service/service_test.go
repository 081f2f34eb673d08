package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"suitepos/backend/internal/domain"
	"suitepos/backend/internal/store"
	"suitepos/backend/internal/store/memory"
)

func newTestService() *Service {
	return New(memory.NewSeeded(), nil, 0)
}

func findItemByName(t *testing.T, items []domain.Item, name string) domain.Item {
	t.Helper()
	for _, item := range items {
		if item.Name == name {
			return item
		}
	}
	t.Fatalf("item %q not in catalog", name)
	return domain.Item{}
}

func TestCreateBillComputesTotalAndDecrementsStock(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	items, err := svc.ListItems(ctx)
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	water := findItemByName(t, items, "Mineral Water (500ml)")

	bill, err := svc.CreateBill(ctx, domain.CreateBillRequest{
		CustomerName:  "Room 204",
		PaymentMethod: domain.PaymentMethodCash,
		Items:         []domain.BillLineRequest{{ItemID: water.ID, Quantity: 3}},
	})
	if err != nil {
		t.Fatalf("create bill: %v", err)
	}

	if !bill.TotalAmount.Equal(decimal.RequireFromString("7.50")) {
		t.Fatalf("expected total 7.50, got %s", bill.TotalAmount)
	}
	if bill.CustomerName != "Room 204" {
		t.Fatalf("expected customer Room 204, got %q", bill.CustomerName)
	}

	after, err := svc.GetItem(ctx, water.ID)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if after.Quantity != 97 {
		t.Fatalf("expected quantity 97 after sale, got %d", after.Quantity)
	}
}

func TestCreateBillInsufficientStockLeavesStoreUntouched(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	items, err := svc.ListItems(ctx)
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	sandwich := findItemByName(t, items, "Club Sandwich")

	_, err = svc.CreateBill(ctx, domain.CreateBillRequest{
		CustomerName:  "Room 101",
		PaymentMethod: domain.PaymentMethodCard,
		Items:         []domain.BillLineRequest{{ItemID: sandwich.ID, Quantity: sandwich.Quantity + 1}},
	})
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock error, got %v", err)
	}

	after, err := svc.GetItem(ctx, sandwich.ID)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if after.Quantity != sandwich.Quantity {
		t.Fatalf("stock changed on failed sale: %d -> %d", sandwich.Quantity, after.Quantity)
	}

	bills, err := svc.ListBills(ctx)
	if err != nil {
		t.Fatalf("list bills: %v", err)
	}
	if len(bills) != 0 {
		t.Fatalf("expected no bills after failed sale, got %d", len(bills))
	}
}

func TestCreateBillDuplicateLinesValidatedAgainstOneStockView(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	items, err := svc.ListItems(ctx)
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	sandwich := findItemByName(t, items, "Club Sandwich")

	// 10 + 10 exceeds the 15 on hand even though each line alone fits.
	_, err = svc.CreateBill(ctx, domain.CreateBillRequest{
		CustomerName:  "Room 305",
		PaymentMethod: domain.PaymentMethodCash,
		Items: []domain.BillLineRequest{
			{ItemID: sandwich.ID, Quantity: 10},
			{ItemID: sandwich.ID, Quantity: 10},
		},
	})
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock error, got %v", err)
	}

	bill, err := svc.CreateBill(ctx, domain.CreateBillRequest{
		CustomerName:  "Room 305",
		PaymentMethod: domain.PaymentMethodCash,
		Items: []domain.BillLineRequest{
			{ItemID: sandwich.ID, Quantity: 10},
			{ItemID: sandwich.ID, Quantity: 5},
		},
	})
	if err != nil {
		t.Fatalf("create bill: %v", err)
	}
	if !bill.TotalAmount.Equal(decimal.RequireFromString("180.00")) {
		t.Fatalf("expected total 180.00, got %s", bill.TotalAmount)
	}

	after, err := svc.GetItem(ctx, sandwich.ID)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if after.Quantity != 0 {
		t.Fatalf("expected quantity 0 after selling out, got %d", after.Quantity)
	}
}

func TestCreateBillValidation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	cases := []struct {
		name string
		req  domain.CreateBillRequest
		want string
	}{
		{
			name: "missing customer",
			req: domain.CreateBillRequest{
				PaymentMethod: domain.PaymentMethodCash,
				Items:         []domain.BillLineRequest{{ItemID: 1, Quantity: 1}},
			},
			want: "customerName is required",
		},
		{
			name: "bad payment method",
			req: domain.CreateBillRequest{
				CustomerName:  "Room 204",
				PaymentMethod: "Crypto",
				Items:         []domain.BillLineRequest{{ItemID: 1, Quantity: 1}},
			},
			want: "paymentMethod must be one of Cash, Card, Room Charge",
		},
		{
			name: "empty lines",
			req: domain.CreateBillRequest{
				CustomerName:  "Room 204",
				PaymentMethod: domain.PaymentMethodCash,
			},
			want: "at least one bill line is required",
		},
		{
			name: "zero quantity",
			req: domain.CreateBillRequest{
				CustomerName:  "Room 204",
				PaymentMethod: domain.PaymentMethodCash,
				Items:         []domain.BillLineRequest{{ItemID: 1, Quantity: 0}},
			},
			want: "quantity must be at least 1",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateBill(ctx, tc.req)
			if !errors.Is(err, store.ErrInvalidInput) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if err.Error() != tc.want {
				t.Fatalf("expected message %q, got %q", tc.want, err.Error())
			}
		})
	}
}

func TestCreateBillUnknownItem(t *testing.T) {
	svc := newTestService()

	_, err := svc.CreateBill(context.Background(), domain.CreateBillRequest{
		CustomerName:  "Room 204",
		PaymentMethod: domain.PaymentMethodCash,
		Items:         []domain.BillLineRequest{{ItemID: 9999, Quantity: 1}},
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestBillLinesSnapshotSurviveCatalogEdits(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	items, err := svc.ListItems(ctx)
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	soda := findItemByName(t, items, "Soda Can (Coke)")

	if _, err := svc.CreateBill(ctx, domain.CreateBillRequest{
		CustomerName:  "Room 110",
		PaymentMethod: domain.PaymentMethodRoomCharge,
		Items:         []domain.BillLineRequest{{ItemID: soda.ID, Quantity: 2}},
	}); err != nil {
		t.Fatalf("create bill: %v", err)
	}

	newName := "Soda Can (Pepsi)"
	newPrice := decimal.RequireFromString("4.25")
	if _, err := svc.UpdateItem(ctx, soda.ID, domain.ItemUpdateRequest{
		Name:  &newName,
		Price: &newPrice,
	}); err != nil {
		t.Fatalf("update item: %v", err)
	}
	if err := svc.DeleteItem(ctx, soda.ID); err != nil {
		t.Fatalf("delete item: %v", err)
	}

	bills, err := svc.ListBills(ctx)
	if err != nil {
		t.Fatalf("list bills: %v", err)
	}
	if len(bills) != 1 || len(bills[0].Items) != 1 {
		t.Fatalf("expected one bill with one line, got %+v", bills)
	}

	line := bills[0].Items[0]
	if line.ItemName != "Soda Can (Coke)" {
		t.Fatalf("line name mutated after edit: %q", line.ItemName)
	}
	if !line.PriceAtTime.Equal(decimal.RequireFromString("3.00")) {
		t.Fatalf("line price mutated after edit: %s", line.PriceAtTime)
	}
	if !bills[0].TotalAmount.Equal(decimal.RequireFromString("6.00")) {
		t.Fatalf("bill total mutated after edit: %s", bills[0].TotalAmount)
	}
}

func TestCreateItemDefaultsMinQuantity(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, err := svc.CreateItem(ctx, domain.InsertItem{
		Name:     "Bath Robe",
		Category: "Amenities",
		Quantity: 40,
		Price:    decimal.RequireFromString("25.00"),
	})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	if created.MinQuantity != 5 {
		t.Fatalf("expected default minQuantity 5, got %d", created.MinQuantity)
	}

	zero := 0
	virtual, err := svc.CreateItem(ctx, domain.InsertItem{
		Name:        "Late Checkout",
		Category:    "Services",
		Quantity:    999,
		Price:       decimal.RequireFromString("30.00"),
		MinQuantity: &zero,
	})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	if virtual.MinQuantity != 0 {
		t.Fatalf("explicit minQuantity 0 not preserved, got %d", virtual.MinQuantity)
	}
}

func TestCreateItemValidation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.CreateItem(ctx, domain.InsertItem{
		Name:     "   ",
		Category: "Food",
		Price:    decimal.RequireFromString("1.00"),
	})
	if !errors.Is(err, store.ErrInvalidInput) || err.Error() != "name is required" {
		t.Fatalf("expected name validation error, got %v", err)
	}

	_, err = svc.CreateItem(ctx, domain.InsertItem{
		Name:     "Mystery Box",
		Category: "Food",
		Price:    decimal.RequireFromString("-1.00"),
	})
	if !errors.Is(err, store.ErrInvalidInput) || err.Error() != "price must be a non-negative decimal" {
		t.Fatalf("expected price validation error, got %v", err)
	}
}

func TestUpdateItemPartialFields(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	items, err := svc.ListItems(ctx)
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	kit := findItemByName(t, items, "Toiletries Kit")

	quantity := 180
	updated, err := svc.UpdateItem(ctx, kit.ID, domain.ItemUpdateRequest{Quantity: &quantity})
	if err != nil {
		t.Fatalf("update item: %v", err)
	}

	if updated.Quantity != 180 {
		t.Fatalf("expected quantity 180, got %d", updated.Quantity)
	}
	if updated.Name != kit.Name || updated.Category != kit.Category || !updated.Price.Equal(kit.Price) {
		t.Fatalf("untouched fields changed: %+v", updated)
	}
}

func TestUpdateItemUnknownID(t *testing.T) {
	svc := newTestService()

	name := "Ghost"
	_, err := svc.UpdateItem(context.Background(), 9999, domain.ItemUpdateRequest{Name: &name})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestDashboardReflectsSales(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	before, err := svc.Dashboard(ctx)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if before.BillCount != 0 {
		t.Fatalf("expected no bills on fresh store, got %d", before.BillCount)
	}
	if !before.TodaysRevenue.Equal(decimal.Zero) {
		t.Fatalf("expected zero revenue, got %s", before.TodaysRevenue)
	}

	items, err := svc.ListItems(ctx)
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	water := findItemByName(t, items, "Mineral Water (500ml)")

	if _, err := svc.CreateBill(ctx, domain.CreateBillRequest{
		CustomerName:  "Room 204",
		PaymentMethod: domain.PaymentMethodCash,
		Items:         []domain.BillLineRequest{{ItemID: water.ID, Quantity: 4}},
	}); err != nil {
		t.Fatalf("create bill: %v", err)
	}

	after, err := svc.Dashboard(ctx)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if after.BillCount != 1 {
		t.Fatalf("expected 1 bill, got %d", after.BillCount)
	}
	if !after.TodaysRevenue.Equal(decimal.RequireFromString("10.00")) {
		t.Fatalf("expected revenue 10.00, got %s", after.TodaysRevenue)
	}
	if after.GeneratedAt.IsZero() || time.Since(after.GeneratedAt) > time.Minute {
		t.Fatalf("generatedAt looks wrong: %s", after.GeneratedAt)
	}
}
