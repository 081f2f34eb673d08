package service

import (
	"context"
	"log"
	"strings"
	"time"

	"suitepos/backend/internal/cache"
	"suitepos/backend/internal/domain"
	"suitepos/backend/internal/reporting"
	"suitepos/backend/internal/store"
)

const summaryCacheKey = "dashboard:summary"

const defaultMinQuantity = 5

type Service struct {
	repo       store.Repository
	summaries  cache.SummaryCache
	summaryTTL time.Duration
}

func New(repo store.Repository, summaries cache.SummaryCache, summaryTTL time.Duration) *Service {
	if summaries == nil {
		summaries = cache.NoopSummaryCache{}
	}
	if summaryTTL < time.Second {
		summaryTTL = 15 * time.Second
	}

	return &Service{
		repo:       repo,
		summaries:  summaries,
		summaryTTL: summaryTTL,
	}
}

func (s *Service) ListItems(ctx context.Context) ([]domain.Item, error) {
	return s.repo.ListItems(ctx)
}

func (s *Service) GetItem(ctx context.Context, id int64) (*domain.Item, error) {
	return s.repo.GetItem(ctx, id)
}

func (s *Service) CreateItem(ctx context.Context, req domain.InsertItem) (*domain.Item, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.SKU = strings.TrimSpace(req.SKU)
	req.Category = strings.TrimSpace(req.Category)
	req.Description = strings.TrimSpace(req.Description)

	if req.Name == "" {
		return nil, &store.ValidationError{Message: "name is required"}
	}
	if req.Category == "" {
		return nil, &store.ValidationError{Message: "category is required"}
	}
	if req.Quantity < 0 {
		return nil, &store.ValidationError{Message: "quantity must be a non-negative integer"}
	}
	if req.Price.IsNegative() {
		return nil, &store.ValidationError{Message: "price must be a non-negative decimal"}
	}

	minQuantity := defaultMinQuantity
	if req.MinQuantity != nil {
		if *req.MinQuantity < 0 {
			return nil, &store.ValidationError{Message: "minQuantity must be a non-negative integer"}
		}
		minQuantity = *req.MinQuantity
	}

	created, err := s.repo.CreateItem(ctx, domain.Item{
		Name:        req.Name,
		SKU:         req.SKU,
		Category:    req.Category,
		Quantity:    req.Quantity,
		Price:       req.Price,
		MinQuantity: minQuantity,
		Description: req.Description,
	})
	if err != nil {
		return nil, err
	}

	s.invalidateSummary(ctx)
	return created, nil
}

func (s *Service) UpdateItem(ctx context.Context, id int64, req domain.ItemUpdateRequest) (*domain.Item, error) {
	existing, err := s.repo.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, &store.ValidationError{Message: "name is required"}
		}
		updated.Name = name
	}
	if req.SKU != nil {
		updated.SKU = strings.TrimSpace(*req.SKU)
	}
	if req.Category != nil {
		category := strings.TrimSpace(*req.Category)
		if category == "" {
			return nil, &store.ValidationError{Message: "category is required"}
		}
		updated.Category = category
	}
	if req.Quantity != nil {
		if *req.Quantity < 0 {
			return nil, &store.ValidationError{Message: "quantity must be a non-negative integer"}
		}
		updated.Quantity = *req.Quantity
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, &store.ValidationError{Message: "price must be a non-negative decimal"}
		}
		updated.Price = *req.Price
	}
	if req.MinQuantity != nil {
		if *req.MinQuantity < 0 {
			return nil, &store.ValidationError{Message: "minQuantity must be a non-negative integer"}
		}
		updated.MinQuantity = *req.MinQuantity
	}
	if req.Description != nil {
		updated.Description = strings.TrimSpace(*req.Description)
	}

	saved, err := s.repo.UpdateItem(ctx, updated)
	if err != nil {
		return nil, err
	}

	s.invalidateSummary(ctx)
	return saved, nil
}

func (s *Service) DeleteItem(ctx context.Context, id int64) error {
	if err := s.repo.DeleteItem(ctx, id); err != nil {
		return err
	}
	s.invalidateSummary(ctx)
	return nil
}

func (s *Service) ListBills(ctx context.Context) ([]domain.BillWithItems, error) {
	return s.repo.ListBills(ctx)
}

// CreateBill validates the request shape, then hands the sale to the store,
// whose CreateBill is the single atomic validate-then-commit unit. The total
// is always computed there from the catalog prices in effect at commit time.
func (s *Service) CreateBill(ctx context.Context, req domain.CreateBillRequest) (*domain.Bill, error) {
	req.CustomerName = strings.TrimSpace(req.CustomerName)

	if req.CustomerName == "" {
		return nil, &store.ValidationError{Message: "customerName is required"}
	}
	if !domain.IsSupportedPaymentMethod(req.PaymentMethod) {
		return nil, &store.ValidationError{Message: "paymentMethod must be one of Cash, Card, Room Charge"}
	}
	if len(req.Items) == 0 {
		return nil, &store.ValidationError{Message: "at least one bill line is required"}
	}
	for _, line := range req.Items {
		if line.ItemID < 1 {
			return nil, &store.ValidationError{Message: "itemId must be a positive integer"}
		}
		if line.Quantity < 1 {
			return nil, &store.ValidationError{Message: "quantity must be at least 1"}
		}
	}

	bill, err := s.repo.CreateBill(ctx, req)
	if err != nil {
		return nil, err
	}

	s.invalidateSummary(ctx)
	return bill, nil
}

// Dashboard serves the aggregated summary, short-circuiting through the
// summary cache when a fresh entry exists. Cache failures degrade to a
// recompute, never to an error.
func (s *Service) Dashboard(ctx context.Context) (domain.DashboardSummary, error) {
	if cached, ok, err := s.summaries.Get(ctx, summaryCacheKey); err != nil {
		log.Printf("[service] WARN: summary cache read failed: %v", err)
	} else if ok {
		return *cached, nil
	}

	items, err := s.repo.ListItems(ctx)
	if err != nil {
		return domain.DashboardSummary{}, err
	}
	bills, err := s.repo.ListBills(ctx)
	if err != nil {
		return domain.DashboardSummary{}, err
	}

	summary := reporting.Summarize(items, bills, time.Now().UTC())
	if err := s.summaries.Set(ctx, summaryCacheKey, &summary, s.summaryTTL); err != nil {
		log.Printf("[service] WARN: summary cache write failed: %v", err)
	}
	return summary, nil
}

func (s *Service) invalidateSummary(ctx context.Context) {
	if err := s.summaries.Invalidate(ctx, summaryCacheKey); err != nil {
		log.Printf("[service] WARN: summary cache invalidate failed: %v", err)
	}
}
