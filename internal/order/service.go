package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nkorolev/catalog-service/internal/catalog"
)

var ErrInvalidItem = errors.New("invalid order item")

type Service interface {
	CreateOrder(ctx context.Context, submitted *Order) (*Order, error)
	GetOrderByID(ctx context.Context, id int64) (*Order, error)
	ListOrdersBetween(ctx context.Context, after, before time.Time) ([]Order, error)
}

type service struct {
	orders Repository
	prices catalog.PriceRepository
}

func NewService(orders Repository, prices catalog.PriceRepository) Service {
	return &service{orders: orders, prices: prices}
}

// CreateOrder resolves a client-submitted order into a persistable one.
// Items may carry only a price reference by id; those are resolved against
// the canonical price rows in one batch lookup. The creation timestamp is
// always the server clock — a client-supplied one is ignored, so orders
// cannot be backdated. Shell and items are persisted atomically.
func (s *service) CreateOrder(ctx context.Context, submitted *Order) (*Order, error) {
	createdAt := time.Now().UTC()

	var unresolvedIDs []int64
	for i := range submitted.Items {
		item := &submitted.Items[i]

		if item.Quantity == UnsetQuantity {
			return nil, fmt.Errorf("service: %w: quantity was not supplied", ErrInvalidItem)
		}
		if item.Quantity < 1 {
			return nil, fmt.Errorf("service: %w: quantity must be positive, got %d", ErrInvalidItem, item.Quantity)
		}
		// Позиция всегда ссылается на существующие строки товара и цены.
		if item.Product == nil || item.Product.ID == 0 {
			return nil, fmt.Errorf("service: %w: product reference was not supplied", ErrInvalidItem)
		}
		if item.Price == nil || item.Price.ID == 0 {
			return nil, fmt.Errorf("service: %w: price reference was not supplied", ErrInvalidItem)
		}
		if item.IsUnset() {
			unresolvedIDs = append(unresolvedIDs, item.Price.ID)
		}
	}

	// Один батч-запрос на весь заказ вместо запроса на каждую позицию.
	retrieved, err := s.prices.FindAllByIDs(ctx, unresolvedIDs)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to batch-fetch prices for order")
		return nil, fmt.Errorf("service: failed to resolve order item prices: %w", err)
	}

	items := make([]OrderItem, 0, len(submitted.Items))
	for _, submittedItem := range submitted.Items {
		price := submittedItem.Price
		if price.IsUnset() {
			canonical, ok := retrieved[price.ID]
			if !ok {
				// A dangling reference fails the whole order rather than
				// silently dropping the item.
				log.Warn().Int64("price_id", price.ID).Msg("service: order references a missing price")
				return nil, fmt.Errorf("service: %w: id %d", catalog.ErrPriceNotFound, price.ID)
			}
			price = &canonical
		}

		items = append(items, OrderItem{
			Price:    price,
			Product:  submittedItem.Product,
			Quantity: submittedItem.Quantity,
		})
	}

	resolved := New(0, createdAt, submitted.BuyersEmail, items)
	if err := s.orders.Create(ctx, resolved); err != nil {
		log.Error().Err(err).Msg("service: failed to create order in repository")
		return nil, fmt.Errorf("service: failed to create order: %w", err)
	}

	log.Info().Int64("order_id", resolved.ID).Str("buyers_email", resolved.BuyersEmail).Int("items", len(resolved.Items)).Msg("service: order created")
	return resolved, nil
}

func (s *service) GetOrderByID(ctx context.Context, id int64) (*Order, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			log.Warn().Int64("order_id", id).Msg("service: order not found by id")
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch order %d: %w", id, err)
	}
	return o, nil
}

func (s *service) ListOrdersBetween(ctx context.Context, after, before time.Time) ([]Order, error) {
	orders, err := s.orders.FindAllBetween(ctx, after, before)
	if err != nil {
		log.Error().Err(err).Time("after", after).Time("before", before).Msg("service: failed to list orders")
		return nil, fmt.Errorf("service: failed to list orders: %w", err)
	}
	return orders, nil
}
