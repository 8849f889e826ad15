package order_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkorolev/catalog-service/internal/catalog"
	"github.com/nkorolev/catalog-service/internal/order"
)

func mustPrice(t *testing.T, product *catalog.Product, amount, ccy string) *catalog.Price {
	t.Helper()
	price, err := catalog.NewPrice(product, amount, ccy)
	require.NoError(t, err)
	return &price
}

func TestOrder_TotalAmount(t *testing.T) {
	itemA := order.OrderItem{ID: 1, Price: mustPrice(t, nil, "20.50", "GBP"), Quantity: 2}
	itemB := order.OrderItem{ID: 2, Price: mustPrice(t, nil, "30.50", "GBP"), Quantity: 1}

	o := order.New(1, time.Now(), "buyer@gamil.com", []order.OrderItem{itemA, itemB})

	assert.True(t, o.TotalAmount.Equal(decimal.RequireFromString("71.50")),
		"expected 71.50, got %s", o.TotalAmount)
}

func TestOrder_TotalAmount_EmptyItemSet(t *testing.T) {
	o := order.New(1, time.Now(), "buyer@gamil.com", nil)
	assert.True(t, o.TotalAmount.IsZero())
}

func TestOrder_RecomputeTotal(t *testing.T) {
	o := order.New(1, time.Now(), "buyer@gamil.com", nil)
	require.True(t, o.TotalAmount.IsZero())

	o.Items = append(o.Items, order.OrderItem{ID: 1, Price: mustPrice(t, nil, "20.50", "GBP"), Quantity: 2})
	o.RecomputeTotal()
	assert.Equal(t, "41.00", o.TotalAmount.StringFixed(2))
}

func TestOrderItem_Amount(t *testing.T) {
	item := order.OrderItem{Price: mustPrice(t, nil, "20.20", "GBP"), Quantity: 3}
	assert.Equal(t, "60.60", item.Amount().StringFixed(2))
}

func TestOrderItem_IsUnset(t *testing.T) {
	price := mustPrice(t, nil, "20.20", "GBP")

	tests := []struct {
		name     string
		item     order.OrderItem
		expected bool
	}{
		{name: "quantity_unset", item: order.OrderItem{Price: price, Quantity: order.UnsetQuantity}, expected: true},
		{name: "no_price", item: order.OrderItem{Quantity: 1}, expected: true},
		{name: "price_reference_only", item: order.OrderItem{Price: catalog.UnsetPriceRef(5), Quantity: 1}, expected: true},
		{name: "fully_resolved", item: order.OrderItem{Price: price, Quantity: 1}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.item.IsUnset())
		})
	}
}

func TestOrderItem_Same_IgnoresOwningOrder(t *testing.T) {
	product := &catalog.Product{ID: 3, Name: "Widget"}
	price := mustPrice(t, product, "20.20", "GBP")
	price.ID = 5

	itemInOrder1 := order.OrderItem{ID: 1, OrderID: 1, Price: price, Product: product, Quantity: 2}
	itemInOrder2 := order.OrderItem{ID: 1, OrderID: 2, Price: price, Product: product, Quantity: 2}
	assert.True(t, itemInOrder1.Same(itemInOrder2))

	differentQuantity := order.OrderItem{ID: 1, OrderID: 1, Price: price, Product: product, Quantity: 3}
	assert.False(t, itemInOrder1.Same(differentQuantity))

	otherPrice := mustPrice(t, product, "20.20", "GBP")
	otherPrice.ID = 6
	differentPrice := order.OrderItem{ID: 1, OrderID: 1, Price: otherPrice, Product: product, Quantity: 2}
	assert.False(t, itemInOrder1.Same(differentPrice))
}
