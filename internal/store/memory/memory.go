package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"suitepos/backend/internal/domain"
	"suitepos/backend/internal/store"
)

// Store is an in-process Repository used for dev mode (no DATABASE_URL) and
// unit tests. All methods serialize on a single RWMutex, which trivially
// satisfies the atomicity contract of CreateBill.
type Store struct {
	mu         sync.RWMutex
	items      map[int64]domain.Item
	bills      map[int64]domain.Bill
	billItems  map[int64][]domain.BillItem
	nextItemID int64
	nextBillID int64
	nextLineID int64
}

func New() *Store {
	return &Store{
		items:     make(map[int64]domain.Item),
		bills:     make(map[int64]domain.Bill),
		billItems: make(map[int64][]domain.BillItem),
	}
}

// NewSeeded returns a store preloaded with the starter catalog, matching
// what the server seeds into an empty persistent store on first start.
func NewSeeded() *Store {
	s := New()
	ctx := context.Background()
	for _, item := range StarterCatalog() {
		if _, err := s.CreateItem(ctx, item); err != nil {
			panic("memory: seed starter catalog: " + err.Error())
		}
	}
	return s
}

// StarterCatalog is the fixed demo catalog installed when the items table is
// empty.
func StarterCatalog() []domain.Item {
	return []domain.Item{
		{Name: "Mineral Water (500ml)", SKU: "BEV-001", Category: "Beverages", Quantity: 100, Price: decimal.RequireFromString("2.50"), MinQuantity: 20, Description: "Standard bottled water"},
		{Name: "Soda Can (Coke)", SKU: "BEV-002", Category: "Beverages", Quantity: 50, Price: decimal.RequireFromString("3.00"), MinQuantity: 10, Description: "Chilled soda"},
		{Name: "Club Sandwich", SKU: "FOOD-001", Category: "Food", Quantity: 15, Price: decimal.RequireFromString("12.00"), MinQuantity: 5, Description: "Freshly made sandwich"},
		{Name: "Toiletries Kit", SKU: "AMEN-001", Category: "Amenities", Quantity: 200, Price: decimal.RequireFromString("5.00"), MinQuantity: 30, Description: "Toothbrush, paste, soap"},
		{Name: "Spa Voucher (1hr)", SKU: "SVC-001", Category: "Services", Quantity: 999, Price: decimal.RequireFromString("80.00"), MinQuantity: 0, Description: "Access to spa services"},
	}
}

func (s *Store) ListItems(_ context.Context) ([]domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]domain.Item, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, item)
	}
	slices.SortFunc(items, func(a, b domain.Item) int {
		if a.Name == b.Name {
			return cmpInt64(a.ID, b.ID)
		}
		return strings.Compare(a.Name, b.Name)
	})
	return items, nil
}

func (s *Store) GetItem(_ context.Context, id int64) (*domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.items[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copied := item
	return &copied, nil
}

func (s *Store) CreateItem(_ context.Context, item domain.Item) (*domain.Item, error) {
	if item.Name == "" || item.Category == "" || item.Quantity < 0 || item.MinQuantity < 0 || item.Price.IsNegative() {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextItemID++
	item.ID = s.nextItemID
	s.items[item.ID] = item
	created := item
	return &created, nil
}

func (s *Store) UpdateItem(_ context.Context, item domain.Item) (*domain.Item, error) {
	if item.Name == "" || item.Category == "" || item.Quantity < 0 || item.MinQuantity < 0 || item.Price.IsNegative() {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[item.ID]; !exists {
		return nil, store.ErrNotFound
	}
	s.items[item.ID] = item
	updated := item
	return &updated, nil
}

func (s *Store) DeleteItem(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Historical bill lines keep their snapshots; deleting is a no-op when
	// the id is already gone.
	delete(s.items, id)
	return nil
}

func (s *Store) ListBills(_ context.Context) ([]domain.BillWithItems, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bills := make([]domain.BillWithItems, 0, len(s.bills))
	for id, bill := range s.bills {
		lines := s.billItems[id]
		copied := make([]domain.BillItem, len(lines))
		copy(copied, lines)
		bills = append(bills, domain.BillWithItems{Bill: bill, Items: copied})
	}
	slices.SortFunc(bills, func(a, b domain.BillWithItems) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpInt64(b.ID, a.ID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	return bills, nil
}

func (s *Store) CreateBill(_ context.Context, req domain.CreateBillRequest) (*domain.Bill, error) {
	if len(req.Items) == 0 {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Validation pass: every line is checked against a working copy of the
	// stock levels before anything mutates, so a request naming the same
	// item twice is judged against one consistent view.
	available := make(map[int64]int, len(req.Items))
	total := decimal.Zero
	for _, line := range req.Items {
		if line.Quantity < 1 {
			return nil, store.ErrInvalidInput
		}
		item, exists := s.items[line.ItemID]
		if !exists {
			return nil, &store.ItemNotFoundError{ItemID: line.ItemID}
		}
		if _, seen := available[line.ItemID]; !seen {
			available[line.ItemID] = item.Quantity
		}
		if available[line.ItemID] < line.Quantity {
			return nil, &store.InsufficientStockError{ItemName: item.Name, Available: item.Quantity}
		}
		available[line.ItemID] -= line.Quantity
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	// Commit pass.
	s.nextBillID++
	bill := domain.Bill{
		ID:            s.nextBillID,
		CustomerName:  req.CustomerName,
		PaymentMethod: req.PaymentMethod,
		TotalAmount:   total,
		CreatedAt:     time.Now().UTC(),
	}
	s.bills[bill.ID] = bill

	for _, line := range req.Items {
		item := s.items[line.ItemID]
		s.nextLineID++
		s.billItems[bill.ID] = append(s.billItems[bill.ID], domain.BillItem{
			ID:          s.nextLineID,
			BillID:      bill.ID,
			ItemID:      item.ID,
			ItemName:    item.Name,
			Quantity:    line.Quantity,
			PriceAtTime: item.Price,
		})
		item.Quantity -= line.Quantity
		s.items[item.ID] = item
	}

	created := bill
	return &created, nil
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
