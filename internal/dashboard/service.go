package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/order-desk/internal/customer"
	"github.com/vasiliy-maslov/order-desk/internal/order"
)

type OrderLister interface {
	ListOrders(ctx context.Context, filter order.ListFilter) ([]order.Order, error)
}

type CustomerLister interface {
	ListCustomers(ctx context.Context, filter customer.ListFilter) ([]customer.Customer, error)
}

type Service interface {
	GetMetrics(ctx context.Context) (*Metrics, error)
}

type service struct {
	orders    OrderLister
	customers CustomerLister
	now       func() time.Time
}

func NewService(orders OrderLister, customers CustomerLister, now func() time.Time) Service {
	if now == nil {
		now = time.Now
	}
	return &service{orders: orders, customers: customers, now: now}
}

func (s *service) GetMetrics(ctx context.Context) (*Metrics, error) {
	orders, err := s.orders.ListOrders(ctx, order.ListFilter{})
	if err != nil {
		log.Error().Err(err).Msg("service: failed to load orders for dashboard")
		return nil, fmt.Errorf("service: failed to load orders: %w", err)
	}

	customers, err := s.customers.ListCustomers(ctx, customer.ListFilter{})
	if err != nil {
		log.Error().Err(err).Msg("service: failed to load customers for dashboard")
		return nil, fmt.Errorf("service: failed to load customers: %w", err)
	}

	metrics := Compute(orders, customers, s.now().UTC())
	return &metrics, nil
}
