package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type ProductRepository interface {
	Save(ctx context.Context, product *Product) (*Product, error)
	FindByID(ctx context.Context, id int64) (*Product, error)
	FindAll(ctx context.Context) ([]Product, error)
}

// PriceRepository is append-only: prices are inserted and read, never
// updated or deleted.
type PriceRepository interface {
	Save(ctx context.Context, price *Price) (*Price, error)
	FindAllByIDs(ctx context.Context, ids []int64) (map[int64]Price, error)
	FindMostRecentByProduct(ctx context.Context, productID int64) (*Price, error)
}

type postgresProductRepository struct {
	db *pgxpool.Pool
}

func NewProductRepository(db *pgxpool.Pool) ProductRepository {
	return &postgresProductRepository{db: db}
}

func (r *postgresProductRepository) Save(ctx context.Context, product *Product) (*Product, error) {
	if product.ID == 0 {
		query := `INSERT INTO products (name) VALUES ($1) RETURNING id`

		if err := r.db.QueryRow(ctx, query, product.Name).Scan(&product.ID); err != nil {
			return nil, fmt.Errorf("repository: failed to insert product: %w", err)
		}
		return product, nil
	}

	// Переименование никогда не трогает историю цен — обновляется только имя.
	query := `UPDATE products SET name = $1 WHERE id = $2`

	cmdTag, err := r.db.Exec(ctx, query, product.Name, product.ID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to update product %d: %w", product.ID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return nil, ErrProductNotFound
	}
	return product, nil
}

func (r *postgresProductRepository) FindByID(ctx context.Context, id int64) (*Product, error) {
	query := `
		SELECT p.id, p.name, pc.id, pc.amount, pc.currency, pc.created_at
		FROM products p
		LEFT JOIN LATERAL (
			SELECT id, amount, currency, created_at
			FROM prices
			WHERE product_id = p.id
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		) pc ON true
		WHERE p.id = $1
	`

	product, err := scanProduct(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("repository: failed to select product by id %d: %w", id, err)
	}
	return product, nil
}

func (r *postgresProductRepository) FindAll(ctx context.Context) ([]Product, error) {
	query := `
		SELECT p.id, p.name, pc.id, pc.amount, pc.currency, pc.created_at
		FROM products p
		LEFT JOIN LATERAL (
			SELECT id, amount, currency, created_at
			FROM prices
			WHERE product_id = p.id
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		) pc ON true
		ORDER BY p.id
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan product: %w", err)
		}
		products = append(products, *product)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating products: %w", err)
	}

	return products, nil
}

// scanProduct reads a product row with its latest-price projection. The
// price columns come from the lateral subquery and may all be NULL.
func scanProduct(row pgx.Row) (*Product, error) {
	var (
		product      Product
		priceID      *int64
		amount       *string
		code         *string
		priceCreated *time.Time
	)

	err := row.Scan(&product.ID, &product.Name, &priceID, &amount, &code, &priceCreated)
	if err != nil {
		return nil, err
	}

	if priceID != nil {
		parsed, err := decimal.NewFromString(*amount)
		if err != nil {
			return nil, fmt.Errorf("stored price %d has malformed amount %q: %w", *priceID, *amount, err)
		}
		product.CurrentPrice = &Price{
			ID:        *priceID,
			Product:   &product,
			Amount:    parsed,
			Currency:  *code,
			CreatedAt: *priceCreated,
		}
	}
	return &product, nil
}

type postgresPriceRepository struct {
	db *pgxpool.Pool
}

func NewPriceRepository(db *pgxpool.Pool) PriceRepository {
	return &postgresPriceRepository{db: db}
}

func (r *postgresPriceRepository) Save(ctx context.Context, price *Price) (*Price, error) {
	if price.Product == nil || price.Product.ID == 0 {
		return nil, errors.New("repository: price must reference a persisted product")
	}

	query := `
		INSERT INTO prices (product_id, amount, currency, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query,
		price.Product.ID,
		price.Amount.StringFixed(2),
		price.Currency,
		price.CreatedAt,
	).Scan(&price.ID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to insert price for product %d: %w", price.Product.ID, err)
	}

	log.Debug().Int64("price_id", price.ID).Int64("product_id", price.Product.ID).Msg("repository: price appended")
	return price, nil
}

func (r *postgresPriceRepository) FindAllByIDs(ctx context.Context, ids []int64) (map[int64]Price, error) {
	prices := make(map[int64]Price, len(ids))
	if len(ids) == 0 {
		return prices, nil
	}

	query := `
		SELECT pc.id, pc.amount, pc.currency, pc.created_at, pr.id, pr.name
		FROM prices pc
		JOIN products pr ON pr.id = pc.product_id
		WHERE pc.id = ANY($1)
	`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query prices by ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		price, err := scanPrice(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan price: %w", err)
		}
		prices[price.ID] = *price
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating prices: %w", err)
	}

	return prices, nil
}

func (r *postgresPriceRepository) FindMostRecentByProduct(ctx context.Context, productID int64) (*Price, error) {
	// id DESC в паре с created_at DESC даёт детерминированный выбор
	// "текущей" цены, даже если две записи легли в одну отметку времени.
	query := `
		SELECT pc.id, pc.amount, pc.currency, pc.created_at, pr.id, pr.name
		FROM prices pc
		JOIN products pr ON pr.id = pc.product_id
		WHERE pc.product_id = $1
		ORDER BY pc.created_at DESC, pc.id DESC
		LIMIT 1
	`

	price, err := scanPrice(r.db.QueryRow(ctx, query, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("repository: failed to select latest price for product %d: %w", productID, err)
	}
	return price, nil
}

func scanPrice(row pgx.Row) (*Price, error) {
	var (
		price   Price
		amount  string
		product Product
	)

	err := row.Scan(&price.ID, &amount, &price.Currency, &price.CreatedAt, &product.ID, &product.Name)
	if err != nil {
		return nil, err
	}

	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("stored price %d has malformed amount %q: %w", price.ID, amount, err)
	}
	price.Amount = parsed
	price.Product = &product

	return &price, nil
}
