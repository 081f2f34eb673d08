package store

import (
	"context"
	"errors"
	"fmt"

	"suitepos/backend/internal/domain"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidInput      = errors.New("invalid input")
)

// ValidationError reports the first offending field of a malformed request.
// errors.Is(err, ErrInvalidInput) matches it.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ItemNotFoundError reports a bill line referencing an item id that does not
// exist. errors.Is(err, ErrNotFound) matches it.
type ItemNotFoundError struct {
	ItemID int64
}

func (e *ItemNotFoundError) Error() string {
	return fmt.Sprintf("item %d not found", e.ItemID)
}

func (e *ItemNotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// InsufficientStockError reports a bill line requesting more units than the
// item currently has. errors.Is(err, ErrInsufficientStock) matches it.
type InsufficientStockError struct {
	ItemName  string
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s. Available: %d", e.ItemName, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// Repository is the capability contract the sale engine and inventory ledger
// run against. CreateBill must be atomic: either the bill header, every line
// snapshot and every stock decrement commit together, or none of them do,
// and no item quantity may ever go negative.
type Repository interface {
	ListItems(ctx context.Context) ([]domain.Item, error)
	GetItem(ctx context.Context, id int64) (*domain.Item, error)
	CreateItem(ctx context.Context, item domain.Item) (*domain.Item, error)
	UpdateItem(ctx context.Context, item domain.Item) (*domain.Item, error)
	DeleteItem(ctx context.Context, id int64) error
	ListBills(ctx context.Context) ([]domain.BillWithItems, error)
	CreateBill(ctx context.Context, req domain.CreateBillRequest) (*domain.Bill, error)
}
