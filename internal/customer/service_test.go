package customer_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/order-desk/internal/customer"
	"github.com/vasiliy-maslov/order-desk/internal/events"
)

type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) Create(ctx context.Context, c *customer.Customer) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCustomerRepository) GetByID(ctx context.Context, id uuid.UUID) (*customer.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *MockCustomerRepository) List(ctx context.Context, filter customer.ListFilter) ([]customer.Customer, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]customer.Customer), args.Error(1)
}

func (m *MockCustomerRepository) Update(ctx context.Context, c *customer.Customer) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event events.Event) error {
	return m.Called(ctx, event).Error(0)
}

func (m *MockPublisher) Close() error {
	return m.Called().Error(0)
}

func eventOfType(t events.Type, id uuid.UUID) interface{} {
	return mock.MatchedBy(func(e events.Event) bool {
		return e.Type == t && e.ID == id
	})
}

var fixedNow = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func newService(repo customer.Repository, pub events.Publisher) customer.Service {
	return customer.NewService(repo, pub, customer.WithClock(func() time.Time { return fixedNow }))
}

func TestCustomerService_CreateCustomer_Success(t *testing.T) {
	mockRepo := new(MockCustomerRepository)
	mockPub := new(MockPublisher)
	svc := newService(mockRepo, mockPub)

	newID := uuid.Must(uuid.NewV4())
	input := &customer.Customer{
		ID:    uuid.Must(uuid.NewV4()),
		Name:  "Ada Lovelace",
		Email: "ada@example.com",
	}

	mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(c *customer.Customer) bool {
		return c.ID == uuid.Nil && c.CreatedDate.Equal(fixedNow)
	})).
		Run(func(args mock.Arguments) {
			args.Get(1).(*customer.Customer).ID = newID
		}).
		Return(nil).
		Once()
	mockPub.On("Publish", mock.Anything, eventOfType(events.CustomerCreated, newID)).Return(nil).Once()

	created, err := svc.CreateCustomer(context.Background(), input)

	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, newID, created.ID)
	assert.Equal(t, fixedNow, created.CreatedDate)
	mockRepo.AssertExpectations(t)
	mockPub.AssertExpectations(t)
}

func TestCustomerService_CreateCustomer_RepositoryError(t *testing.T) {
	mockRepo := new(MockCustomerRepository)
	mockPub := new(MockPublisher)
	svc := newService(mockRepo, mockPub)

	dbErr := errors.New("connection reset")
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*customer.Customer")).Return(dbErr).Once()

	created, err := svc.CreateCustomer(context.Background(), &customer.Customer{Name: "A", Email: "a@example.com"})

	require.Error(t, err)
	require.ErrorIs(t, err, dbErr)
	require.Nil(t, created)
	mockPub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestCustomerService_CreateCustomer_PublishFailureIsIgnored(t *testing.T) {
	mockRepo := new(MockCustomerRepository)
	mockPub := new(MockPublisher)
	svc := newService(mockRepo, mockPub)

	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*customer.Customer")).Return(nil).Once()
	mockPub.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()

	created, err := svc.CreateCustomer(context.Background(), &customer.Customer{Name: "A", Email: "a@example.com"})

	require.NoError(t, err)
	require.NotNil(t, created)
	mockPub.AssertExpectations(t)
}

func TestCustomerService_GetCustomerByID_Success(t *testing.T) {
	mockRepo := new(MockCustomerRepository)
	svc := newService(mockRepo, nil)

	id := uuid.Must(uuid.NewV4())
	expected := customer.Customer{
		ID:          id,
		Name:        "Grace Hopper",
		Email:       "grace@example.com",
		Company:     "Navy",
		CreatedDate: fixedNow.Add(-time.Hour),
	}
	mockRepo.On("GetByID", mock.Anything, id).Return(&expected, nil).Once()

	found, err := svc.GetCustomerByID(context.Background(), id)

	require.NoError(t, err)
	require.NotNil(t, found)
	require.Empty(t, cmp.Diff(expected, *found))
	mockRepo.AssertExpectations(t)
}

func TestCustomerService_GetCustomerByID_NotFound(t *testing.T) {
	mockRepo := new(MockCustomerRepository)
	svc := newService(mockRepo, nil)

	id := uuid.Must(uuid.NewV4())
	mockRepo.On("GetByID", mock.Anything, id).Return(nil, customer.ErrNotFound).Once()

	found, err := svc.GetCustomerByID(context.Background(), id)

	require.ErrorIs(t, err, customer.ErrNotFound)
	require.Nil(t, found)
	mockRepo.AssertExpectations(t)
}

func TestCustomerService_ListCustomers(t *testing.T) {
	mockRepo := new(MockCustomerRepository)
	svc := newService(mockRepo, nil)

	filter := customer.ListFilter{Search: "acme"}
	expected := []customer.Customer{{Name: "B", Company: "Acme"}, {Name: "A", Company: "Acme"}}
	mockRepo.On("List", mock.Anything, filter).Return(expected, nil).Once()

	got, err := svc.ListCustomers(context.Background(), filter)

	require.NoError(t, err)
	require.Empty(t, cmp.Diff(expected, got))
	mockRepo.AssertExpectations(t)
}

func TestCustomerService_UpdateCustomer_MergesPatch(t *testing.T) {
	mockRepo := new(MockCustomerRepository)
	mockPub := new(MockPublisher)
	svc := newService(mockRepo, mockPub)

	id := uuid.Must(uuid.NewV4())
	created := fixedNow.Add(-24 * time.Hour)
	existing := &customer.Customer{
		ID:          id,
		Name:        "Old Name",
		Email:       "old@example.com",
		Phone:       "555-0100",
		CreatedDate: created,
	}
	mockRepo.On("GetByID", mock.Anything, id).Return(existing, nil).Once()
	mockRepo.On("Update", mock.Anything, mock.AnythingOfType("*customer.Customer")).Return(nil).Once()
	mockPub.On("Publish", mock.Anything, eventOfType(events.CustomerUpdated, id)).Return(nil).Once()

	name := "New Name"
	updated, err := svc.UpdateCustomer(context.Background(), id, customer.Patch{Name: &name})

	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, "old@example.com", updated.Email)
	assert.Equal(t, "555-0100", updated.Phone)
	assert.Equal(t, created, updated.CreatedDate)
	mockRepo.AssertExpectations(t)
	mockPub.AssertExpectations(t)
}

func TestCustomerService_UpdateCustomer_NotFound(t *testing.T) {
	mockRepo := new(MockCustomerRepository)
	svc := newService(mockRepo, nil)

	id := uuid.Must(uuid.NewV4())
	mockRepo.On("GetByID", mock.Anything, id).Return(nil, customer.ErrNotFound).Once()

	updated, err := svc.UpdateCustomer(context.Background(), id, customer.Patch{})

	require.ErrorIs(t, err, customer.ErrNotFound)
	require.Nil(t, updated)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestCustomerService_DeleteCustomer(t *testing.T) {
	tests := []struct {
		name        string
		repoErr     error
		wantErr     bool
		wantPublish bool
	}{
		{name: "deleted", repoErr: nil, wantPublish: true},
		{name: "already_missing", repoErr: customer.ErrNotFound},
		{name: "repository_error", repoErr: errors.New("boom"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockCustomerRepository)
			mockPub := new(MockPublisher)
			svc := newService(mockRepo, mockPub)

			id := uuid.Must(uuid.NewV4())
			mockRepo.On("Delete", mock.Anything, id).Return(tt.repoErr).Once()
			if tt.wantPublish {
				mockPub.On("Publish", mock.Anything, eventOfType(events.CustomerDeleted, id)).Return(nil).Once()
			}

			err := svc.DeleteCustomer(context.Background(), id)

			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			if !tt.wantPublish {
				mockPub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
			}
			mockRepo.AssertExpectations(t)
			mockPub.AssertExpectations(t)
		})
	}
}
