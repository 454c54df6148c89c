package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	domain "github.com/mohammadpnp/parts-import/internal/domain/inventory"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// InventoryBulkRepository is the pgx write path used by bulk imports. Inside
// WithinTx it is rebound to the transaction.
type InventoryBulkRepository struct {
	pool *pgxpool.Pool
	q    querier
}

func NewInventoryBulkRepository(pool *pgxpool.Pool) *InventoryBulkRepository {
	return &InventoryBulkRepository{pool: pool, q: pool}
}

// ExistingKeys includes soft-deleted rows so that a re-imported item is
// restored instead of colliding with the unique index.
func (r *InventoryBulkRepository) ExistingKeys(ctx context.Context, articleNumbers []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(articleNumbers))
	if len(articleNumbers) == 0 {
		return existing, nil
	}

	rows, err := r.q.Query(ctx,
		"SELECT internal_article_number FROM inventory_items WHERE internal_article_number = ANY($1)",
		articleNumbers,
	)
	if err != nil {
		return nil, fmt.Errorf("select existing inventory keys: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan inventory key: %w", err)
		}
		existing[key] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate inventory keys: %w", err)
	}
	return existing, nil
}

func (r *InventoryBulkRepository) Insert(ctx context.Context, record domain.InventoryRecord) error {
	_, err := r.q.Exec(ctx, `
INSERT INTO inventory_items (
  internal_article_number, title, brand_and_part_number, price, condition,
  deposit, shipping_class, delivery_days, category, in_stock, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())`,
		record.InternalArticleNumber,
		record.Title,
		record.BrandAndPartNumber,
		record.Price,
		int(record.Condition),
		record.Deposit,
		record.ShippingClass,
		record.DeliveryDays,
		record.Category,
		record.InStock,
	)
	if err != nil {
		return fmt.Errorf("insert inventory item %s: %w", record.InternalArticleNumber, err)
	}
	return nil
}

// Update overwrites every mutable column and clears deleted_at. The natural
// key itself is never rewritten.
func (r *InventoryBulkRepository) Update(ctx context.Context, record domain.InventoryRecord) error {
	tag, err := r.q.Exec(ctx, `
UPDATE inventory_items
SET title = $2,
    brand_and_part_number = $3,
    price = $4,
    condition = $5,
    deposit = $6,
    shipping_class = $7,
    delivery_days = $8,
    category = $9,
    in_stock = $10,
    deleted_at = NULL,
    updated_at = NOW()
WHERE internal_article_number = $1`,
		record.InternalArticleNumber,
		record.Title,
		record.BrandAndPartNumber,
		record.Price,
		int(record.Condition),
		record.Deposit,
		record.ShippingClass,
		record.DeliveryDays,
		record.Category,
		record.InStock,
	)
	if err != nil {
		return fmt.Errorf("update inventory item %s: %w", record.InternalArticleNumber, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update inventory item %s: %w", record.InternalArticleNumber, domain.ErrItemNotFound)
	}
	return nil
}

func (r *InventoryBulkRepository) WithinTx(ctx context.Context, fn func(tx domain.InventoryStore) error) error {
	if r.pool == nil {
		return fn(r)
	}

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&InventoryBulkRepository{q: tx})
	})
	if err != nil {
		return fmt.Errorf("inventory transaction: %w", err)
	}
	return nil
}
