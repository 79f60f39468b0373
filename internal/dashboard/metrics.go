package dashboard

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/order-desk/internal/customer"
	"github.com/vasiliy-maslov/order-desk/internal/order"
)

// Window is the length of each comparison period.
const Window = 30 * 24 * time.Hour

const recentOrdersLimit = 5

type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Trend compares a metric over the last Window with the Window before it.
type Trend struct {
	Current   float64   `json:"current"`
	Previous  float64   `json:"previous"`
	Change    float64   `json:"change"`
	Direction Direction `json:"direction"`
	Label     string    `json:"label"`
}

type Metrics struct {
	TotalOrders    int     `json:"total_orders"`
	TotalRevenue   float64 `json:"total_revenue"`
	ActiveOrders   int     `json:"active_orders"`
	TotalCustomers int     `json:"total_customers"`

	OrdersTrend       Trend `json:"orders_trend"`
	RevenueTrend      Trend `json:"revenue_trend"`
	ActiveOrdersTrend Trend `json:"active_orders_trend"`
	CustomersTrend    Trend `json:"customers_trend"`

	RecentOrders []order.Order `json:"recent_orders"`
	GeneratedAt  time.Time     `json:"generated_at"`
}

// PercentChange returns (current-previous)/previous*100. With no previous
// value it reports 100 for any growth and 0 otherwise, including a decline.
func PercentChange(current, previous float64) float64 {
	return percentChange(money(current), money(previous)).InexactFloat64()
}

func percentChange(current, previous decimal.Decimal) decimal.Decimal {
	if previous.IsPositive() {
		return current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100))
	}
	if current.IsPositive() {
		return decimal.NewFromInt(100)
	}
	return decimal.Zero
}

// Compute derives the dashboard from the full order and customer sets.
// Headline figures cover all history. Trends compare orders and customers created
// since now-30d with those created in [now-60d, now-30d).
func Compute(orders []order.Order, customers []customer.Customer, now time.Time) Metrics {
	currentStart := now.Add(-Window)
	previousStart := now.Add(-2 * Window)

	type window struct {
		orders, active int64
		revenue        decimal.Decimal
		customers      int64
	}
	var (
		cur, prev window
		revenue   = decimal.Zero
		active    int
	)

	bucket := func(created time.Time) *window {
		switch {
		case !created.Before(currentStart):
			return &cur
		case !created.Before(previousStart):
			return &prev
		default:
			return nil
		}
	}

	for _, o := range orders {
		amount := money(o.TotalAmount)
		revenue = revenue.Add(amount)
		if o.Status.IsActive() {
			active++
		}

		w := bucket(o.CreatedDate)
		if w == nil {
			continue
		}
		w.orders++
		w.revenue = w.revenue.Add(amount)
		if o.Status.IsActive() {
			w.active++
		}
	}

	for _, c := range customers {
		if w := bucket(c.CreatedDate); w != nil {
			w.customers++
		}
	}

	return Metrics{
		TotalOrders:    len(orders),
		TotalRevenue:   revenue.InexactFloat64(),
		ActiveOrders:   active,
		TotalCustomers: len(customers),

		OrdersTrend:       newTrend(decimal.NewFromInt(cur.orders), decimal.NewFromInt(prev.orders)),
		RevenueTrend:      newTrend(cur.revenue, prev.revenue),
		ActiveOrdersTrend: newTrend(decimal.NewFromInt(cur.active), decimal.NewFromInt(prev.active)),
		CustomersTrend:    newTrend(decimal.NewFromInt(cur.customers), decimal.NewFromInt(prev.customers)),

		RecentOrders: recentOrders(orders),
		GeneratedAt:  now,
	}
}

func newTrend(current, previous decimal.Decimal) Trend {
	change := percentChange(current, previous)

	t := Trend{
		Current:   current.InexactFloat64(),
		Previous:  previous.InexactFloat64(),
		Change:    change.InexactFloat64(),
		Direction: DirectionUp,
	}
	if change.IsNegative() {
		t.Direction = DirectionDown
		t.Label = "-" + change.Abs().Round(0).StringFixed(0) + "%"
	} else {
		t.Label = "+" + change.Round(0).StringFixed(0) + "%"
	}
	return t
}

func recentOrders(orders []order.Order) []order.Order {
	sorted := make([]order.Order, len(orders))
	copy(sorted, orders)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedDate.After(sorted[j].CreatedDate)
	})
	if len(sorted) > recentOrdersLimit {
		sorted = sorted[:recentOrdersLimit]
	}
	return sorted
}

func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(order.Number(v).Float64())
}
