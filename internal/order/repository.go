package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/nkorolev/catalog-service/internal/catalog"
)

var ErrOrderNotFound = errors.New("order not found")

type Repository interface {
	Create(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, id int64) (*Order, error)
	FindAllBetween(ctx context.Context, after, before time.Time) ([]Order, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

// Create persists the order shell and all its items in one transaction:
// either everything lands or nothing does, no partial batches.
func (r *postgresRepository) Create(ctx context.Context, o *Order) (err error) {
	tx, beginErr := r.db.Begin(ctx)
	if beginErr != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", beginErr)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Msg("repository: failed to rollback order creation")
			}
			return
		}
		if commitErr := tx.Commit(ctx); commitErr != nil {
			err = fmt.Errorf("repository: failed to commit order creation: %w", commitErr)
		}
	}()

	queryOrder := `
		INSERT INTO orders (buyers_email, created_at)
		VALUES ($1, $2)
		RETURNING id
	`
	if err = tx.QueryRow(ctx, queryOrder, o.BuyersEmail, o.CreatedAt).Scan(&o.ID); err != nil {
		return fmt.Errorf("repository: failed to insert order: %w", err)
	}

	queryItem := `
		INSERT INTO order_items (order_id, price_id, product_id, quantity)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	for i := range o.Items {
		item := &o.Items[i]
		item.OrderID = o.ID

		err = tx.QueryRow(ctx, queryItem, o.ID, item.Price.ID, item.Product.ID, item.Quantity).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("repository: failed to insert order item for order %d: %w", o.ID, err)
		}
	}

	return nil
}

func (r *postgresRepository) FindByID(ctx context.Context, id int64) (*Order, error) {
	queryOrder := `
		SELECT id, buyers_email, created_at
		FROM orders
		WHERE id = $1
	`

	var o Order
	err := r.db.QueryRow(ctx, queryOrder, id).Scan(&o.ID, &o.BuyersEmail, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order by id %d: %w", id, err)
	}

	items, err := r.findItems(ctx, []int64{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]
	if o.Items == nil {
		o.Items = make([]OrderItem, 0)
	}

	// Итог не хранится в БД — всегда пересчитываем из позиций.
	o.RecomputeTotal()
	return &o, nil
}

// FindAllBetween returns orders with creation timestamps strictly inside
// (after, before): boundary orders are excluded on both ends.
func (r *postgresRepository) FindAllBetween(ctx context.Context, after, before time.Time) ([]Order, error) {
	queryOrders := `
		SELECT id, buyers_email, created_at
		FROM orders
		WHERE created_at > $1 AND created_at < $2
		ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, queryOrders, after, before)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders between %s and %s: %w", after, before, err)
	}
	defer rows.Close()

	orders := make([]Order, 0)
	var orderIDs []int64
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.BuyersEmail, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("repository: failed to scan order: %w", err)
		}
		o.Items = make([]OrderItem, 0)
		orders = append(orders, o)
		orderIDs = append(orderIDs, o.ID)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating orders: %w", err)
	}

	if len(orderIDs) == 0 {
		return orders, nil
	}

	itemsByOrder, err := r.findItems(ctx, orderIDs)
	if err != nil {
		return nil, err
	}

	for i := range orders {
		if items, ok := itemsByOrder[orders[i].ID]; ok {
			orders[i].Items = items
		}
		orders[i].RecomputeTotal()
	}

	return orders, nil
}

// findItems hydrates items for a batch of orders in one query, re-joined to
// the canonical price and product rows so totals are recomputed from the
// frozen quotations, not from anything cached on the order.
func (r *postgresRepository) findItems(ctx context.Context, orderIDs []int64) (map[int64][]OrderItem, error) {
	query := `
		SELECT oi.id, oi.order_id, oi.quantity,
		       pc.id, pc.amount, pc.currency, pc.created_at,
		       pr.id, pr.name
		FROM order_items oi
		JOIN prices pc ON pc.id = oi.price_id
		JOIN products pr ON pr.id = oi.product_id
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.id
	`

	rows, err := r.db.Query(ctx, query, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query order items: %w", err)
	}
	defer rows.Close()

	itemsByOrder := make(map[int64][]OrderItem)
	for rows.Next() {
		var (
			item    OrderItem
			price   catalog.Price
			amount  string
			product catalog.Product
		)

		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.Quantity,
			&price.ID,
			&amount,
			&price.Currency,
			&price.CreatedAt,
			&product.ID,
			&product.Name,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order item: %w", err)
		}

		parsed, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("repository: stored price %d has malformed amount %q: %w", price.ID, amount, err)
		}
		price.Amount = parsed
		price.Product = &product

		item.Price = &price
		item.Product = &product
		itemsByOrder[item.OrderID] = append(itemsByOrder[item.OrderID], item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating order items: %w", err)
	}

	return itemsByOrder, nil
}
