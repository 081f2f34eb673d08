// Package reporting holds the dashboard aggregation helpers. They are pure
// functions over already-loaded collections and never touch the store.
package reporting

import (
	"time"

	"github.com/shopspring/decimal"

	"suitepos/backend/internal/domain"
)

// LowStock returns the items whose quantity has fallen to or below their
// reorder threshold. The threshold is the stored min_quantity as-is; items
// created without one default to 5 at creation time.
func LowStock(items []domain.Item) []domain.Item {
	low := make([]domain.Item, 0)
	for _, item := range items {
		if item.Quantity <= item.MinQuantity {
			low = append(low, item)
		}
	}
	return low
}

// StockValue is the exact-decimal sum of price x quantity over the catalog.
func StockValue(items []domain.Item) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// TodaysRevenue sums totalAmount over bills created on the same calendar day
// as now. Bills are stored in UTC, so both sides are compared as UTC dates.
func TodaysRevenue(bills []domain.Bill, now time.Time) decimal.Decimal {
	todayYear, todayMonth, todayDay := now.UTC().Date()
	total := decimal.Zero
	for _, bill := range bills {
		year, month, day := bill.CreatedAt.UTC().Date()
		if year == todayYear && month == todayMonth && day == todayDay {
			total = total.Add(bill.TotalAmount)
		}
	}
	return total
}

// Summarize assembles the dashboard payload from loaded items and bills.
func Summarize(items []domain.Item, bills []domain.BillWithItems, now time.Time) domain.DashboardSummary {
	headers := make([]domain.Bill, 0, len(bills))
	for _, bill := range bills {
		headers = append(headers, bill.Bill)
	}

	return domain.DashboardSummary{
		TodaysRevenue: TodaysRevenue(headers, now),
		StockValue:    StockValue(items),
		LowStockItems: LowStock(items),
		BillCount:     len(bills),
		GeneratedAt:   now.UTC(),
	}
}
