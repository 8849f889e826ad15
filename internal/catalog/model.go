package catalog

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// UnsetAmount помечает цену-заглушку: клиент прислал только ссылку по id,
// без реальной котировки.
const UnsetAmount = -1

var (
	ErrInvalidAmount   = errors.New("invalid price amount")
	ErrInvalidCurrency = errors.New("unknown currency code")
	ErrProductNotFound = errors.New("product not found")
	ErrPriceNotFound   = errors.New("price not found")
)

// Product is a named catalog item. CurrentPrice is a read-time projection
// (the most recently created Price for this product), never a stored column.
type Product struct {
	ID           int64
	Name         string
	CurrentPrice *Price
}

// Same reports whether two products refer to the same catalog item:
// structural (by name) while both are unpersisted, by identity afterwards.
func (p Product) Same(other Product) bool {
	if p.ID == 0 && other.ID == 0 {
		return p.Name == other.Name
	}
	return p.ID == other.ID
}

// Price is an immutable, timestamped monetary quotation for a product.
// Prices are only ever appended; updating a product's price means creating
// a new Price, never editing an old one.
type Price struct {
	ID        int64
	Product   *Product
	Amount    decimal.Decimal
	Currency  string
	CreatedAt time.Time
}

// NewPrice parses and validates a quotation. The amount is rounded to two
// decimal places, half up. An unknown ISO 4217 code is a construction error.
func NewPrice(product *Product, amount, code string) (Price, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Price{}, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}

	unit, err := currency.ParseISO(code)
	if err != nil {
		return Price{}, fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
	}

	return newPriceOf(product, d.Round(2), unit.String()), nil
}

// newPriceOf binds an already-validated amount to a product. Used by the
// price policy when re-recording a candidate against the stored product.
func newPriceOf(product *Product, amount decimal.Decimal, code string) Price {
	return Price{
		Product:   product,
		Amount:    amount,
		Currency:  code,
		CreatedAt: time.Now().UTC(),
	}
}

// UnsetPriceRef builds a placeholder carrying only a price id. The caller
// must resolve it to a canonical Price before anything is persisted.
func UnsetPriceRef(id int64) *Price {
	return &Price{ID: id, Amount: decimal.NewFromInt(UnsetAmount)}
}

// IsUnset reports whether the price carries no real quotation.
func (p Price) IsUnset() bool {
	return p.Amount.LessThanOrEqual(decimal.NewFromInt(UnsetAmount))
}

// SameQuotation is the pre-save structural equality: same product, amount
// and currency. Persisted prices are compared by ID at the call site instead.
func (p Price) SameQuotation(other Price) bool {
	return p.sameProduct(other) && p.Currency == other.Currency && p.Amount.Equal(other.Amount)
}

// Compare is a total order over prices: by product name first, then by
// amount when the currency matches, otherwise by currency code. It is NOT a
// plain amount comparison; callers wanting "higher price" must ensure same
// product and currency first.
func (p Price) Compare(other Price) int {
	if !p.sameProduct(other) {
		return strings.Compare(p.productName(), other.productName())
	}
	if p.Currency == other.Currency {
		return p.Amount.Cmp(other.Amount)
	}
	return strings.Compare(p.Currency, other.Currency)
}

func (p Price) sameProduct(other Price) bool {
	if p.Product == nil || other.Product == nil {
		return p.Product == other.Product
	}
	return p.Product.Same(*other.Product)
}

func (p Price) productName() string {
	if p.Product == nil {
		return ""
	}
	return p.Product.Name
}
