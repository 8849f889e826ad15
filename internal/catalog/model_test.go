package catalog_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkorolev/catalog-service/internal/catalog"
)

func TestNewPrice_RoundsHalfUpToTwoDecimals(t *testing.T) {
	product := &catalog.Product{Name: "Test Prod"}

	tests := []struct {
		name     string
		amount   string
		expected string
	}{
		{name: "exact_two_decimals", amount: "20.20", expected: "20.20"},
		{name: "rounds_down", amount: "20.20467", expected: "20.20"},
		{name: "rounds_up", amount: "20.208", expected: "20.21"},
		{name: "half_rounds_up", amount: "20.205", expected: "20.21"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			price, err := catalog.NewPrice(product, tt.amount, "GBP")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, price.Amount.StringFixed(2))
			assert.Equal(t, "GBP", price.Currency)
			assert.Zero(t, price.ID)
			assert.False(t, price.CreatedAt.IsZero())
		})
	}
}

func TestNewPrice_UnknownCurrency(t *testing.T) {
	_, err := catalog.NewPrice(&catalog.Product{Name: "Test Prod"}, "20.20", "Broken")
	assert.True(t, errors.Is(err, catalog.ErrInvalidCurrency))
}

func TestNewPrice_MalformedAmount(t *testing.T) {
	_, err := catalog.NewPrice(&catalog.Product{Name: "Test Prod"}, "twenty", "GBP")
	assert.True(t, errors.Is(err, catalog.ErrInvalidAmount))
}

func TestPrice_IsUnset(t *testing.T) {
	assert.True(t, catalog.UnsetPriceRef(5).IsUnset())

	price, err := catalog.NewPrice(&catalog.Product{Name: "Test Prod"}, "0.00", "GBP")
	require.NoError(t, err)
	assert.False(t, price.IsUnset())
}

func TestPrice_SameQuotation(t *testing.T) {
	product := &catalog.Product{Name: "Test Prod"}

	price1, err := catalog.NewPrice(product, "20.20", "GBP")
	require.NoError(t, err)
	price2, err := catalog.NewPrice(product, "20.20", "GBP")
	require.NoError(t, err)
	assert.True(t, price1.SameQuotation(price2))

	price3, err := catalog.NewPrice(product, "20.50", "GBP")
	require.NoError(t, err)
	assert.False(t, price1.SameQuotation(price3))

	price4, err := catalog.NewPrice(product, "20.20", "USD")
	require.NoError(t, err)
	assert.False(t, price1.SameQuotation(price4))

	price5, err := catalog.NewPrice(&catalog.Product{Name: "Other Prod"}, "20.20", "GBP")
	require.NoError(t, err)
	assert.False(t, price1.SameQuotation(price5))
}

func TestPrice_Compare(t *testing.T) {
	product := &catalog.Product{Name: "Test Prod"}

	mustPrice := func(p *catalog.Product, amount, ccy string) catalog.Price {
		price, err := catalog.NewPrice(p, amount, ccy)
		require.NoError(t, err)
		return price
	}

	t.Run("equal_when_amount_and_currency_match", func(t *testing.T) {
		assert.Zero(t, mustPrice(product, "20.20", "GBP").Compare(mustPrice(product, "20.20", "GBP")))
	})

	t.Run("same_product_orders_by_amount", func(t *testing.T) {
		lower := mustPrice(product, "20.20", "GBP")
		higher := mustPrice(product, "20.25", "GBP")
		assert.Negative(t, lower.Compare(higher))
		assert.Positive(t, higher.Compare(lower))
	})

	t.Run("different_products_order_by_name_regardless_of_amount", func(t *testing.T) {
		cheapA := mustPrice(&catalog.Product{Name: "A Prod"}, "20.20", "GBP")
		pricierB := mustPrice(&catalog.Product{Name: "B Prod"}, "10.00", "GBP")
		assert.Negative(t, cheapA.Compare(pricierB))
		assert.Positive(t, pricierB.Compare(cheapA))
	})

	t.Run("same_product_different_currency_orders_by_code", func(t *testing.T) {
		usd := mustPrice(product, "20.20", "USD")
		gbp := mustPrice(product, "20.20", "GBP")
		assert.Positive(t, usd.Compare(gbp))
		assert.Negative(t, gbp.Compare(usd))
	})
}

func TestProduct_Same(t *testing.T) {
	assert.True(t, catalog.Product{Name: "Widget"}.Same(catalog.Product{Name: "Widget"}))
	assert.False(t, catalog.Product{Name: "Widget"}.Same(catalog.Product{Name: "Gadget"}))
	assert.True(t, catalog.Product{ID: 3, Name: "Widget"}.Same(catalog.Product{ID: 3, Name: "Renamed"}))
	assert.False(t, catalog.Product{ID: 3, Name: "Widget"}.Same(catalog.Product{ID: 4, Name: "Widget"}))
}

func TestUnsetPriceRef(t *testing.T) {
	ref := catalog.UnsetPriceRef(7)
	assert.Equal(t, int64(7), ref.ID)
	assert.True(t, ref.Amount.Equal(decimal.NewFromInt(-1)))
}
