package order

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

var (
	ErrItemOutOfRange   = errors.New("line item index out of range")
	ErrAmountOutOfRange = errors.New("amount out of range")
)

type Totals struct {
	Subtotal     float64 `json:"subtotal"`
	Tax          float64 `json:"tax"`
	ShippingCost float64 `json:"shipping_cost"`
	TotalAmount  float64 `json:"total_amount"`
}

// Calculator is the editable item sheet of an order form. Every mutation
// recomputes all item totals, the subtotal and the total amount from scratch.
type Calculator struct {
	items    []LineItem
	tax      decimal.Decimal
	shipping decimal.Decimal
	totals   Totals
}

func NewCalculator(items []LineItem, tax, shippingCost float64) *Calculator {
	c := &Calculator{
		items:    append([]LineItem(nil), items...),
		tax:      amount(tax),
		shipping: amount(shippingCost),
	}
	c.recompute()
	return c
}

// ComputeTotals returns a copy of items with their totals filled in, plus the order totals.
func ComputeTotals(items []LineItem, tax, shippingCost float64) ([]LineItem, Totals) {
	c := NewCalculator(items, tax, shippingCost)
	return c.Items(), c.Totals()
}

// AddItem appends a blank item (quantity 1, unit price 0) and returns its index.
func (c *Calculator) AddItem() int {
	c.items = append(c.items, LineItem{Quantity: 1})
	c.recompute()
	return len(c.items) - 1
}

func (c *Calculator) SetName(i int, name string) error {
	if !c.inRange(i) {
		return ErrItemOutOfRange
	}
	c.items[i].Name = name
	return nil
}

func (c *Calculator) SetQuantity(i, quantity int) error {
	if !c.inRange(i) {
		return ErrItemOutOfRange
	}
	c.items[i].Quantity = quantity
	c.recompute()
	return nil
}

func (c *Calculator) SetUnitPrice(i int, unitPrice float64) error {
	if !c.inRange(i) {
		return ErrItemOutOfRange
	}
	c.items[i].UnitPrice = finite(unitPrice)
	c.recompute()
	return nil
}

func (c *Calculator) RemoveItem(i int) error {
	if !c.inRange(i) {
		return ErrItemOutOfRange
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	c.recompute()
	return nil
}

func (c *Calculator) SetTax(tax float64) {
	c.tax = amount(tax)
	c.recompute()
}

func (c *Calculator) SetShippingCost(shippingCost float64) {
	c.shipping = amount(shippingCost)
	c.recompute()
}

func (c *Calculator) Items() []LineItem {
	items := make([]LineItem, len(c.items))
	copy(items, c.items)
	return items
}

func (c *Calculator) Totals() Totals {
	return c.totals
}

func (c *Calculator) inRange(i int) bool {
	return i >= 0 && i < len(c.items)
}

func (c *Calculator) recompute() {
	subtotal := decimal.Zero
	for i := range c.items {
		item := &c.items[i]
		item.UnitPrice = finite(item.UnitPrice)
		total := decimal.NewFromInt(int64(item.Quantity)).Mul(amount(item.UnitPrice))
		item.Total = total.InexactFloat64()
		subtotal = subtotal.Add(total)
	}

	c.totals = Totals{
		Subtotal:     subtotal.InexactFloat64(),
		Tax:          c.tax.InexactFloat64(),
		ShippingCost: c.shipping.InexactFloat64(),
		TotalAmount:  subtotal.Add(c.tax).Add(c.shipping).InexactFloat64(),
	}
}

func amount(v float64) decimal.Decimal {
	return decimal.NewFromFloat(finite(v))
}

// checkAmounts rejects orders whose quantities or amounts cannot be stored or
// rendered, naming the first offending field.
func (o *Order) checkAmounts() error {
	for i, item := range o.Items {
		if item.Quantity < 1 || item.Quantity > MaxQuantity {
			return fmt.Errorf("%w: items[%d].quantity must be between 1 and %d", ErrAmountOutOfRange, i, MaxQuantity)
		}
		if !inAmountRange(item.UnitPrice) {
			return fmt.Errorf("%w: items[%d].unit_price must be between 0 and %.0f", ErrAmountOutOfRange, i, MaxAmount)
		}
	}
	if !inAmountRange(o.Tax) {
		return fmt.Errorf("%w: tax must be between 0 and %.0f", ErrAmountOutOfRange, MaxAmount)
	}
	if !inAmountRange(o.ShippingCost) {
		return fmt.Errorf("%w: shipping_cost must be between 0 and %.0f", ErrAmountOutOfRange, MaxAmount)
	}
	for _, v := range []float64{o.Subtotal, o.TotalAmount} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: order total is not a finite number", ErrAmountOutOfRange)
		}
	}
	return nil
}

func inAmountRange(v float64) bool {
	return v >= 0 && v <= MaxAmount
}
