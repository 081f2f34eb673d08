package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item is a sellable catalog entry. Price is an exact decimal so repeated
// read-modify-write cycles never accumulate binary-float drift; it marshals
// as a quoted decimal string ("2.50") on the wire.
type Item struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	SKU         string          `json:"sku,omitempty"`
	Category    string          `json:"category"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	MinQuantity int             `json:"minQuantity"`
	Description string          `json:"description,omitempty"`
}

// InsertItem carries the client-supplied fields for item creation.
// MinQuantity is a pointer so an omitted field can default to 5 while an
// explicit 0 (virtual stock, e.g. service vouchers) is preserved.
type InsertItem struct {
	Name        string          `json:"name"`
	SKU         string          `json:"sku,omitempty"`
	Category    string          `json:"category"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	MinQuantity *int            `json:"minQuantity,omitempty"`
	Description string          `json:"description,omitempty"`
}

type ItemUpdateRequest struct {
	Name        *string          `json:"name,omitempty"`
	SKU         *string          `json:"sku,omitempty"`
	Category    *string          `json:"category,omitempty"`
	Quantity    *int             `json:"quantity,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	MinQuantity *int             `json:"minQuantity,omitempty"`
	Description *string          `json:"description,omitempty"`
}

// Bill is an immutable record of a completed sale. TotalAmount is always
// server-computed at commit time.
type Bill struct {
	ID            int64           `json:"id"`
	CustomerName  string          `json:"customerName"`
	PaymentMethod string          `json:"paymentMethod"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// BillItem is one sold line within a bill. ItemName and PriceAtTime are
// snapshots taken at commit time; later catalog edits or deletes never
// change them.
type BillItem struct {
	ID          int64           `json:"id"`
	BillID      int64           `json:"billId"`
	ItemID      int64           `json:"itemId"`
	ItemName    string          `json:"itemName"`
	Quantity    int             `json:"quantity"`
	PriceAtTime decimal.Decimal `json:"priceAtTime"`
}

type BillWithItems struct {
	Bill
	Items []BillItem `json:"items"`
}

type BillLineRequest struct {
	ItemID   int64 `json:"itemId"`
	Quantity int   `json:"quantity"`
}

type CreateBillRequest struct {
	CustomerName  string            `json:"customerName"`
	PaymentMethod string            `json:"paymentMethod"`
	Items         []BillLineRequest `json:"items"`
}

// DashboardSummary aggregates the catalog and sale history for the
// cashier dashboard.
type DashboardSummary struct {
	TodaysRevenue decimal.Decimal `json:"todaysRevenue"`
	StockValue    decimal.Decimal `json:"stockValue"`
	LowStockItems []Item          `json:"lowStockItems"`
	BillCount     int             `json:"billCount"`
	GeneratedAt   time.Time       `json:"generatedAt"`
}

const (
	PaymentMethodCash       = "Cash"
	PaymentMethodCard       = "Card"
	PaymentMethodRoomCharge = "Room Charge"
)

// PaymentMethods lists the accepted values for Bill.PaymentMethod.
var PaymentMethods = []string{PaymentMethodCash, PaymentMethodCard, PaymentMethodRoomCharge}

func IsSupportedPaymentMethod(method string) bool {
	for _, m := range PaymentMethods {
		if method == m {
			return true
		}
	}
	return false
}
