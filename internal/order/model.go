package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

func (s Status) String() string {
	return string(s)
}

// IsActive reports whether an order in this status still needs work.
func (s Status) IsActive() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusProcessing, StatusShipped:
		return true
	default:
		return false
	}
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) String() string {
	return string(p)
}

// LineItem is one product row of an order. Total is derived from Quantity and UnitPrice.
type LineItem struct {
	Name      string  `json:"name" db:"name"`
	Quantity  int     `json:"quantity" db:"quantity"`
	UnitPrice float64 `json:"unit_price" db:"unit_price"`
	Total     float64 `json:"total" db:"total"`
}

// Order keeps CustomerName as a snapshot taken when the customer was selected;
// later renames of the customer are not propagated.
type Order struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	OrderNumber     string     `json:"order_number" db:"order_number"`
	CustomerID      string     `json:"customer_id" db:"customer_id"`
	CustomerName    string     `json:"customer_name" db:"customer_name"`
	Status          Status     `json:"status" db:"status"`
	Priority        Priority   `json:"priority" db:"priority"`
	Items           []LineItem `json:"items" db:"-"`
	Subtotal        float64    `json:"subtotal" db:"subtotal"`
	Tax             float64    `json:"tax" db:"tax"`
	ShippingCost    float64    `json:"shipping_cost" db:"shipping_cost"`
	TotalAmount     float64    `json:"total_amount" db:"total_amount"`
	ShippingAddress string     `json:"shipping_address,omitempty" db:"shipping_address"`
	TrackingNumber  string     `json:"tracking_number,omitempty" db:"tracking_number"`
	Notes           string     `json:"notes,omitempty" db:"notes"`
	DueDate         *time.Time `json:"due_date" db:"due_date"`
	CreatedDate     time.Time  `json:"created_date" db:"created_date"`
}

// Recalculate refreshes every derived amount of the order from its items, tax and shipping cost.
func (o *Order) Recalculate() {
	items, totals := ComputeTotals(o.Items, o.Tax, o.ShippingCost)
	o.Items = items
	o.Subtotal = totals.Subtotal
	o.Tax = totals.Tax
	o.ShippingCost = totals.ShippingCost
	o.TotalAmount = totals.TotalAmount
}

func (o *Order) applyDefaults() {
	if o.Status == "" {
		o.Status = StatusPending
	}
	if o.Priority == "" {
		o.Priority = PriorityNormal
	}
	if o.Items == nil {
		o.Items = []LineItem{}
	}
}

func (o Order) clone() Order {
	c := o
	c.Items = append([]LineItem(nil), o.Items...)
	if c.Items == nil {
		c.Items = []LineItem{}
	}
	if o.DueDate != nil {
		d := *o.DueDate
		c.DueDate = &d
	}
	return c
}

// NewOrderNumber formats the order number the UI would otherwise generate.
func NewOrderNumber(now time.Time) string {
	return fmt.Sprintf("ORD-%d", now.UnixMilli())
}

// Patch is a merged update: nil fields are left untouched.
type Patch struct {
	OrderNumber     *string
	CustomerID      *string
	CustomerName    *string
	Status          *Status
	Priority        *Priority
	Items           []LineItem
	Tax             *float64
	ShippingCost    *float64
	ShippingAddress *string
	TrackingNumber  *string
	Notes           *string
	// DueDateSet distinguishes "clear the due date" (DueDate nil) from "not provided".
	DueDateSet bool
	DueDate    *time.Time
}

// Apply merges the patch into o and recomputes its totals.
func (p Patch) Apply(o *Order) {
	if p.OrderNumber != nil {
		o.OrderNumber = *p.OrderNumber
	}
	if p.CustomerID != nil {
		o.CustomerID = *p.CustomerID
	}
	if p.CustomerName != nil {
		o.CustomerName = *p.CustomerName
	}
	if p.Status != nil {
		o.Status = *p.Status
	}
	if p.Priority != nil {
		o.Priority = *p.Priority
	}
	if p.Items != nil {
		o.Items = append([]LineItem(nil), p.Items...)
	}
	if p.Tax != nil {
		o.Tax = *p.Tax
	}
	if p.ShippingCost != nil {
		o.ShippingCost = *p.ShippingCost
	}
	if p.ShippingAddress != nil {
		o.ShippingAddress = *p.ShippingAddress
	}
	if p.TrackingNumber != nil {
		o.TrackingNumber = *p.TrackingNumber
	}
	if p.Notes != nil {
		o.Notes = *p.Notes
	}
	if p.DueDateSet {
		o.DueDate = p.DueDate
	}
	o.Recalculate()
}

// ListFilter narrows List results. Zero values match everything.
type ListFilter struct {
	CustomerID string
	Status     Status
	Priority   Priority
	// Search is matched case-insensitively against order number and customer name.
	Search string
}

func (f ListFilter) Matches(o Order) bool {
	if f.CustomerID != "" && o.CustomerID != f.CustomerID {
		return false
	}
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if f.Priority != "" && o.Priority != f.Priority {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(o.OrderNumber), q) &&
			!strings.Contains(strings.ToLower(o.CustomerName), q) {
			return false
		}
	}
	return true
}
