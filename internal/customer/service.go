package customer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/order-desk/internal/events"
)

type Service interface {
	CreateCustomer(ctx context.Context, customer *Customer) (*Customer, error)
	GetCustomerByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	ListCustomers(ctx context.Context, filter ListFilter) ([]Customer, error)
	UpdateCustomer(ctx context.Context, id uuid.UUID, patch Patch) (*Customer, error)
	DeleteCustomer(ctx context.Context, id uuid.UUID) error
}

type Option func(*service)

// WithClock overrides the time source used for created_date.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

type service struct {
	repo      Repository
	publisher events.Publisher
	now       func() time.Time
}

func NewService(repo Repository, publisher events.Publisher, opts ...Option) Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	s := &service{
		repo:      repo,
		publisher: publisher,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) CreateCustomer(ctx context.Context, customer *Customer) (*Customer, error) {
	customer.ID = uuid.Nil
	customer.CreatedDate = s.now().UTC()

	if err := s.repo.Create(ctx, customer); err != nil {
		log.Error().Err(err).Str("email", customer.Email).Msg("service: failed to create customer in repository")
		return nil, fmt.Errorf("service: failed to create customer: %w", err)
	}

	log.Info().Stringer("customer_id", customer.ID).Msg("service: customer created successfully")
	events.Notify(ctx, s.publisher, events.CustomerCreated, customer.ID, s.now(), customer)

	return customer, nil
}

func (s *service) GetCustomerByID(ctx context.Context, id uuid.UUID) (*Customer, error) {
	customer, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn().Stringer("customer_id", id).Msg("service: customer not found by id")
			return nil, ErrNotFound
		}

		log.Error().Err(err).Stringer("customer_id", id).Msg("service: failed to fetch customer by id in repository")
		return nil, fmt.Errorf("service: failed to fetch customer by id: %w", err)
	}

	return customer, nil
}

func (s *service) ListCustomers(ctx context.Context, filter ListFilter) ([]Customer, error) {
	customers, err := s.repo.List(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list customers in repository")
		return nil, fmt.Errorf("service: failed to list customers: %w", err)
	}

	return customers, nil
}

func (s *service) UpdateCustomer(ctx context.Context, id uuid.UUID, patch Patch) (*Customer, error) {
	customer, err := s.GetCustomerByID(ctx, id)
	if err != nil {
		return nil, err
	}

	patch.Apply(customer)

	if err := s.repo.Update(ctx, customer); err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn().Stringer("customer_id", id).Msg("service: customer deleted during update")
			return nil, ErrNotFound
		}

		log.Error().Err(err).Stringer("customer_id", id).Msg("service: failed to update customer in repository")
		return nil, fmt.Errorf("service: failed to update customer: %w", err)
	}

	log.Info().Stringer("customer_id", id).Msg("service: customer updated successfully")
	events.Notify(ctx, s.publisher, events.CustomerUpdated, id, s.now(), customer)

	return customer, nil
}

// DeleteCustomer is idempotent: a missing customer is not an error. Orders
// referencing the customer are left untouched.
func (s *service) DeleteCustomer(ctx context.Context, id uuid.UUID) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, ErrNotFound) {
		log.Info().Stringer("customer_id", id).Msg("service: customer already deleted")
		return nil
	}
	if err != nil {
		log.Error().Err(err).Stringer("customer_id", id).Msg("service: failed to delete customer in repository")
		return fmt.Errorf("service: failed to delete customer: %w", err)
	}

	log.Info().Stringer("customer_id", id).Msg("service: customer deleted successfully")
	events.Notify(ctx, s.publisher, events.CustomerDeleted, id, s.now(), nil)

	return nil
}
