package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"suitepos/backend/internal/domain"
	"suitepos/backend/internal/store"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListItems(ctx context.Context) ([]domain.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, sku, category, quantity, price, min_quantity, description
		FROM items
		ORDER BY name, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Item, 0, 64)
	for rows.Next() {
		var item domain.Item
		if err := rows.Scan(&item.ID, &item.Name, &item.SKU, &item.Category, &item.Quantity, &item.Price, &item.MinQuantity, &item.Description); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func (s *Store) GetItem(ctx context.Context, id int64) (*domain.Item, error) {
	var item domain.Item
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, sku, category, quantity, price, min_quantity, description
		FROM items
		WHERE id = $1
	`, id).Scan(&item.ID, &item.Name, &item.SKU, &item.Category, &item.Quantity, &item.Price, &item.MinQuantity, &item.Description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (s *Store) CreateItem(ctx context.Context, item domain.Item) (*domain.Item, error) {
	if item.Name == "" || item.Category == "" || item.Quantity < 0 || item.MinQuantity < 0 || item.Price.IsNegative() {
		return nil, store.ErrInvalidInput
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO items (name, sku, category, quantity, price, min_quantity, description)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id
	`, item.Name, item.SKU, item.Category, item.Quantity, item.Price, item.MinQuantity, item.Description).Scan(&item.ID)
	if err != nil {
		return nil, err
	}

	created := item
	return &created, nil
}

func (s *Store) UpdateItem(ctx context.Context, item domain.Item) (*domain.Item, error) {
	if item.Name == "" || item.Category == "" || item.Quantity < 0 || item.MinQuantity < 0 || item.Price.IsNegative() {
		return nil, store.ErrInvalidInput
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE items
		SET name = $2, sku = $3, category = $4, quantity = $5, price = $6, min_quantity = $7, description = $8
		WHERE id = $1
	`, item.ID, item.Name, item.SKU, item.Category, item.Quantity, item.Price, item.MinQuantity, item.Description)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	updated := item
	return &updated, nil
}

func (s *Store) DeleteItem(ctx context.Context, id int64) error {
	// Idempotent: deleting an absent id is a no-op. Historical bill lines
	// keep their own name/price snapshots and are untouched.
	_, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id)
	return err
}

func (s *Store) ListBills(ctx context.Context) ([]domain.BillWithItems, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, customer_name, payment_method, total_amount, created_at
		FROM bills
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bills := make([]domain.BillWithItems, 0, 64)
	index := make(map[int64]int)
	for rows.Next() {
		var bill domain.Bill
		if err := rows.Scan(&bill.ID, &bill.CustomerName, &bill.PaymentMethod, &bill.TotalAmount, &bill.CreatedAt); err != nil {
			return nil, err
		}
		bill.CreatedAt = bill.CreatedAt.UTC()
		index[bill.ID] = len(bills)
		bills = append(bills, domain.BillWithItems{Bill: bill, Items: []domain.BillItem{}})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(bills) == 0 {
		return bills, nil
	}

	lineRows, err := s.db.QueryContext(ctx, `
		SELECT id, bill_id, item_id, item_name, quantity, price_at_time
		FROM bill_items
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer lineRows.Close()

	for lineRows.Next() {
		var line domain.BillItem
		if err := lineRows.Scan(&line.ID, &line.BillID, &line.ItemID, &line.ItemName, &line.Quantity, &line.PriceAtTime); err != nil {
			return nil, err
		}
		if i, ok := index[line.BillID]; ok {
			bills[i].Items = append(bills[i].Items, line)
		}
	}
	if err := lineRows.Err(); err != nil {
		return nil, err
	}

	return bills, nil
}

func (s *Store) CreateBill(ctx context.Context, req domain.CreateBillRequest) (*domain.Bill, error) {
	if len(req.Items) == 0 {
		return nil, store.ErrInvalidInput
	}

	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	ids := uniqueItemIDs(req.Items)

	// Lock the touched item rows in id order so concurrent sales against
	// overlapping items serialize instead of deadlocking.
	itemRows, err := pgTx.QueryContext(ctx, `
		SELECT id, name, price, quantity
		FROM items
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE
	`, ids)
	if err != nil {
		return nil, err
	}
	locked := make(map[int64]domain.Item, len(ids))
	for itemRows.Next() {
		var item domain.Item
		if err := itemRows.Scan(&item.ID, &item.Name, &item.Price, &item.Quantity); err != nil {
			_ = itemRows.Close()
			return nil, err
		}
		locked[item.ID] = item
	}
	if err := itemRows.Err(); err != nil {
		_ = itemRows.Close()
		return nil, err
	}
	_ = itemRows.Close()

	// Validation pass: every line is judged against the locked snapshot
	// before anything mutates. The working copy makes a request naming the
	// same item twice consume from one consistent view.
	available := make(map[int64]int, len(locked))
	total := decimal.Zero
	for _, line := range req.Items {
		if line.Quantity < 1 {
			return nil, store.ErrInvalidInput
		}
		item, exists := locked[line.ItemID]
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

	bill := domain.Bill{
		CustomerName:  req.CustomerName,
		PaymentMethod: req.PaymentMethod,
		TotalAmount:   total,
		CreatedAt:     time.Now().UTC(),
	}
	err = pgTx.QueryRowContext(ctx, `
		INSERT INTO bills (customer_name, payment_method, total_amount, created_at)
		VALUES ($1,$2,$3,$4)
		RETURNING id
	`, bill.CustomerName, bill.PaymentMethod, bill.TotalAmount, bill.CreatedAt).Scan(&bill.ID)
	if err != nil {
		return nil, translateTxError(err)
	}

	// Commit pass: snapshot each line and deduct stock. The quantity guard
	// is a last-line re-check inside the same transaction; with the rows
	// locked above it cannot fire unless the validation math is wrong.
	for _, line := range req.Items {
		item := locked[line.ItemID]
		_, err := pgTx.ExecContext(ctx, `
			INSERT INTO bill_items (bill_id, item_id, item_name, quantity, price_at_time)
			VALUES ($1,$2,$3,$4,$5)
		`, bill.ID, item.ID, item.Name, line.Quantity, item.Price)
		if err != nil {
			return nil, translateTxError(err)
		}

		res, err := pgTx.ExecContext(ctx, `
			UPDATE items
			SET quantity = quantity - $2
			WHERE id = $1 AND quantity >= $2
		`, item.ID, line.Quantity)
		if err != nil {
			return nil, translateTxError(err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			return nil, &store.InsufficientStockError{ItemName: item.Name, Available: item.Quantity}
		}
	}

	if err := pgTx.Commit(); err != nil {
		return nil, translateTxError(err)
	}

	return &bill, nil
}

func uniqueItemIDs(lines []domain.BillLineRequest) []int64 {
	seen := make(map[int64]struct{}, len(lines))
	ids := make([]int64, 0, len(lines))
	for _, line := range lines {
		if _, ok := seen[line.ItemID]; ok {
			continue
		}
		seen[line.ItemID] = struct{}{}
		ids = append(ids, line.ItemID)
	}
	return ids
}

// translateTxError labels serialization failures so callers know the whole
// call can be retried; everything else passes through untouched.
func translateTxError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "40001" {
		return fmt.Errorf("transaction conflict, retry the sale: %w", err)
	}
	return err
}
