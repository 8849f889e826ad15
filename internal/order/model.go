package order

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nkorolev/catalog-service/internal/catalog"
)

// UnsetQuantity помечает позицию, для которой клиент не прислал количество.
const UnsetQuantity = -1

// OrderItem binds a product and one specific historical price to a
// quantity. The bound price is the quotation in effect when the item was
// created; later price changes never touch it.
type OrderItem struct {
	ID       int64
	OrderID  int64 // back-reference by id; excluded from equality
	Price    *catalog.Price
	Product  *catalog.Product
	Quantity int
}

// Amount is the frozen item amount: bound price times quantity. No rounding
// beyond the price's stored two-decimal scale.
func (it OrderItem) Amount() decimal.Decimal {
	if it.Price == nil {
		return decimal.Zero
	}
	return it.Price.Amount.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// IsUnset reports whether the item still needs price resolution before the
// order can be finalized.
func (it OrderItem) IsUnset() bool {
	return it.Quantity == UnsetQuantity || it.Price == nil || it.Price.IsUnset()
}

// Same compares items by identity, quantity, price and product. The owning
// order is deliberately left out, so items can be compared independently of
// which order wraps them and equality never cycles.
func (it OrderItem) Same(other OrderItem) bool {
	return it.ID == other.ID &&
		it.Quantity == other.Quantity &&
		samePrice(it.Price, other.Price) &&
		sameProduct(it.Product, other.Product)
}

func samePrice(a, b *catalog.Price) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.ID != 0 || b.ID != 0 {
		return a.ID == b.ID
	}
	return a.SameQuotation(*b)
}

func sameProduct(a, b *catalog.Product) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Same(*b)
}

// Order is an immutable snapshot of a purchase. TotalAmount is a transient
// projection over the items' frozen amounts: recomputed on construction and
// after every load, never persisted.
type Order struct {
	ID          int64
	CreatedAt   time.Time
	BuyersEmail string
	Items       []OrderItem
	TotalAmount decimal.Decimal
}

func New(id int64, createdAt time.Time, buyersEmail string, items []OrderItem) *Order {
	o := &Order{
		ID:          id,
		CreatedAt:   createdAt,
		BuyersEmail: buyersEmail,
		Items:       items,
	}
	o.RecomputeTotal()
	return o
}

// RecomputeTotal refreshes the cached total from the live item set.
func (o *Order) RecomputeTotal() {
	o.TotalAmount = TotalOf(o.Items)
}

// TotalOf folds item amounts with exact decimal addition. An empty item set
// sums to zero, not an error.
func TotalOf(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Amount())
	}
	return total
}
