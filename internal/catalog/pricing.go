package catalog

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// PriceManager decides whether a submitted price represents a genuine change
// worth recording as new history, or should reuse the existing quotation.
// It is fairly rudimentary for now: no price books, no per-currency rules.
type PriceManager struct {
	prices PriceRepository
}

func NewPriceManager(prices PriceRepository) *PriceManager {
	return &PriceManager{prices: prices}
}

// ResolvePriceForUpdate returns the price a product update should end up
// with. A missing or unset candidate keeps the stored product's current
// price; a candidate structurally equal to the current price is a no-op (no
// duplicate history rows); anything else appends exactly one new price.
// Existing prices are never mutated or removed.
func (m *PriceManager) ResolvePriceForUpdate(ctx context.Context, updated, stored *Product) (*Price, error) {
	current, err := m.prices.FindMostRecentByProduct(ctx, stored.ID)
	if err != nil {
		return nil, fmt.Errorf("pricing: failed to resolve current price for product %d: %w", stored.ID, err)
	}

	candidate := updated.CurrentPrice
	if candidate == nil || candidate.IsUnset() {
		return current, nil
	}

	if current != nil {
		// Сравниваем котировки в рамках одного товара: имя в кандидате
		// может отличаться (переименование), это не новая цена.
		rebound := *candidate
		rebound.Product = stored
		if current.Compare(rebound) == 0 {
			log.Debug().Int64("product_id", stored.ID).Msg("pricing: candidate price unchanged, keeping current")
			return current, nil
		}
	}

	fresh := newPriceOf(stored, candidate.Amount, candidate.Currency)
	saved, err := m.prices.Save(ctx, &fresh)
	if err != nil {
		return nil, fmt.Errorf("pricing: failed to append price for product %d: %w", stored.ID, err)
	}

	log.Info().Int64("product_id", stored.ID).Int64("price_id", saved.ID).Str("amount", saved.Amount.StringFixed(2)).Str("currency", saved.Currency).Msg("pricing: new price recorded")
	return saved, nil
}

// SaveNewProductPrice records the first price of a freshly created product.
// Products may exist with no price at all, so an absent candidate is not an
// error: nothing is saved and nil is returned.
func (m *PriceManager) SaveNewProductPrice(ctx context.Context, product *Product) (*Price, error) {
	candidate := product.CurrentPrice
	if candidate == nil || candidate.IsUnset() {
		return nil, nil
	}

	fresh := newPriceOf(product, candidate.Amount, candidate.Currency)
	saved, err := m.prices.Save(ctx, &fresh)
	if err != nil {
		return nil, fmt.Errorf("pricing: failed to save price for new product %d: %w", product.ID, err)
	}
	return saved, nil
}
