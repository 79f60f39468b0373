package order

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/order-desk/internal/customer"
	"github.com/vasiliy-maslov/order-desk/internal/events"
)

type Service interface {
	CreateOrder(ctx context.Context, order *Order) (*Order, error)
	GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error)
	ListOrders(ctx context.Context, filter ListFilter) ([]Order, error)
	UpdateOrder(ctx context.Context, id uuid.UUID, patch Patch) (*Order, error)
	DeleteOrder(ctx context.Context, id uuid.UUID) error
}

// CustomerFinder resolves the customer an order is placed for.
type CustomerFinder interface {
	GetCustomerByID(ctx context.Context, id uuid.UUID) (*customer.Customer, error)
}

type Option func(*service)

// WithClock overrides the time source used for created_date and generated order numbers.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

type service struct {
	orderRepo Repository
	customers CustomerFinder
	publisher events.Publisher
	now       func() time.Time

	numberMu   sync.Mutex
	lastNumber int64
}

// NewService builds the order service. customers may be nil, in which case
// customer details are never snapshotted.
func NewService(orderRepo Repository, customers CustomerFinder, publisher events.Publisher, opts ...Option) Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	s := &service{
		orderRepo: orderRepo,
		customers: customers,
		publisher: publisher,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) CreateOrder(ctx context.Context, orderInput *Order) (*Order, error) {
	now := s.now().UTC()

	orderInput.ID = uuid.Nil
	orderInput.CreatedDate = now
	orderInput.applyDefaults()
	if orderInput.OrderNumber == "" {
		orderInput.OrderNumber = s.nextOrderNumber(now)
	}
	s.snapshotCustomer(ctx, orderInput)
	orderInput.Recalculate()
	if err := orderInput.checkAmounts(); err != nil {
		log.Warn().Err(err).Msg("service: rejected order with out of range amounts")
		return nil, err
	}

	if err := s.orderRepo.Create(ctx, orderInput); err != nil {
		if errors.Is(err, ErrOrderNumberExists) {
			log.Warn().Str("order_number", orderInput.OrderNumber).Msg("service: order number already taken")
			return nil, ErrOrderNumberExists
		}
		log.Error().Err(err).Msg("service: failed to create order in repository")
		return nil, fmt.Errorf("service: failed to create order: %w", err)
	}

	log.Info().Stringer("order_id", orderInput.ID).Str("order_number", orderInput.OrderNumber).Msg("service: order created successfully")
	events.Notify(ctx, s.publisher, events.OrderCreated, orderInput.ID, s.now(), orderInput)

	return orderInput, nil
}

func (s *service) GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn().Stringer("order_id", id).Msg("service: order not found by id")
			return nil, ErrNotFound
		}

		log.Error().Err(err).Stringer("order_id", id).Msg("service: failed to fetch order by id in repository")
		return nil, fmt.Errorf("service: failed to fetch order by id: %w", err)
	}

	return order, nil
}

func (s *service) ListOrders(ctx context.Context, filter ListFilter) ([]Order, error) {
	orders, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list orders in repository")
		return nil, fmt.Errorf("service: failed to list orders: %w", err)
	}

	return orders, nil
}

func (s *service) UpdateOrder(ctx context.Context, id uuid.UUID, patch Patch) (*Order, error) {
	order, err := s.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}

	patch.Apply(order)
	if err := order.checkAmounts(); err != nil {
		log.Warn().Err(err).Stringer("order_id", id).Msg("service: rejected update with out of range amounts")
		return nil, err
	}
	if order.OrderNumber == "" {
		order.OrderNumber = s.nextOrderNumber(s.now().UTC())
	}

	if err := s.orderRepo.Update(ctx, order); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			log.Warn().Stringer("order_id", id).Msg("service: order deleted during update")
			return nil, ErrNotFound
		case errors.Is(err, ErrOrderNumberExists):
			log.Warn().Stringer("order_id", id).Str("order_number", order.OrderNumber).Msg("service: order number already taken")
			return nil, ErrOrderNumberExists
		}

		log.Error().Err(err).Stringer("order_id", id).Msg("service: failed to update order in repository")
		return nil, fmt.Errorf("service: failed to update order: %w", err)
	}

	log.Info().Stringer("order_id", id).Stringer("status", order.Status).Msg("service: order updated successfully")
	events.Notify(ctx, s.publisher, events.OrderUpdated, id, s.now(), order)

	return order, nil
}

// DeleteOrder is idempotent: deleting a missing order succeeds without an event.
func (s *service) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	err := s.orderRepo.Delete(ctx, id)
	if errors.Is(err, ErrNotFound) {
		log.Info().Stringer("order_id", id).Msg("service: order already deleted")
		return nil
	}
	if err != nil {
		log.Error().Err(err).Stringer("order_id", id).Msg("service: failed to delete order in repository")
		return fmt.Errorf("service: failed to delete order: %w", err)
	}

	log.Info().Stringer("order_id", id).Msg("service: order deleted successfully")
	events.Notify(ctx, s.publisher, events.OrderDeleted, id, s.now(), nil)

	return nil
}

// nextOrderNumber never hands out the same millisecond twice within one process.
func (s *service) nextOrderNumber(now time.Time) string {
	s.numberMu.Lock()
	defer s.numberMu.Unlock()

	ms := now.UnixMilli()
	if ms <= s.lastNumber {
		ms = s.lastNumber + 1
	}
	s.lastNumber = ms
	return NewOrderNumber(time.UnixMilli(ms))
}

// snapshotCustomer fills an empty customer name and shipping address from the
// referenced customer. A missing or unknown customer leaves the order as is.
func (s *service) snapshotCustomer(ctx context.Context, order *Order) {
	if s.customers == nil || order.CustomerID == "" {
		return
	}
	if order.CustomerName != "" && order.ShippingAddress != "" {
		return
	}

	customerID, err := uuid.FromString(order.CustomerID)
	if err != nil {
		return
	}

	c, err := s.customers.GetCustomerByID(ctx, customerID)
	if err != nil {
		if !errors.Is(err, customer.ErrNotFound) {
			log.Warn().Err(err).Str("customer_id", order.CustomerID).Msg("service: failed to resolve customer for order")
		}
		return
	}

	if order.CustomerName == "" {
		order.CustomerName = c.Name
	}
	if order.ShippingAddress == "" {
		order.ShippingAddress = c.MailingAddress()
	}
}
