package customer_test

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/order-desk/internal/customer"
)

func TestMemoryRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := customer.NewMemoryRepository()

	c := &customer.Customer{Name: "Ada", Email: "ada@example.com"}
	require.NoError(t, repo.Create(ctx, c))
	require.NotEqual(t, uuid.Nil, c.ID)
	require.False(t, c.CreatedDate.IsZero())

	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, *c, *got)

	got.Name = "mutated"
	again, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", again.Name)

	c.Name = "Ada L."
	c.CreatedDate = time.Time{}
	require.NoError(t, repo.Update(ctx, c))
	assert.False(t, c.CreatedDate.IsZero())

	got, err = repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", got.Name)

	require.NoError(t, repo.Delete(ctx, c.ID))
	require.ErrorIs(t, repo.Delete(ctx, c.ID), customer.ErrNotFound)

	_, err = repo.GetByID(ctx, c.ID)
	require.ErrorIs(t, err, customer.ErrNotFound)
	require.ErrorIs(t, repo.Update(ctx, c), customer.ErrNotFound)
}

func TestMemoryRepository_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := customer.NewMemoryRepository()

	same := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	first := &customer.Customer{Name: "First", Email: "1@example.com", CreatedDate: same}
	second := &customer.Customer{Name: "Second", Email: "2@example.com", CreatedDate: same}
	oldest := &customer.Customer{Name: "Oldest", Email: "0@example.com", CreatedDate: same.Add(-time.Hour)}
	for _, c := range []*customer.Customer{first, oldest, second} {
		require.NoError(t, repo.Create(ctx, c))
	}

	got, err := repo.List(ctx, customer.ListFilter{})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Second", got[0].Name)
	assert.Equal(t, "First", got[1].Name)
	assert.Equal(t, "Oldest", got[2].Name)
}

func TestMemoryRepository_ListSearch(t *testing.T) {
	ctx := context.Background()
	repo := customer.NewMemoryRepository()

	require.NoError(t, repo.Create(ctx, &customer.Customer{Name: "Ada", Email: "ada@example.com", Company: "Analytical Engines"}))
	require.NoError(t, repo.Create(ctx, &customer.Customer{Name: "Grace", Email: "grace@navy.mil"}))

	got, err := repo.List(ctx, customer.ListFilter{Search: "ENGINES"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Ada", got[0].Name)

	got, err = repo.List(ctx, customer.ListFilter{Search: "navy"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Grace", got[0].Name)

	got, err = repo.List(ctx, customer.ListFilter{Search: "nobody"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCustomer_MailingAddress(t *testing.T) {
	c := customer.Customer{Address: "1 Main St", City: "Springfield", ZipCode: " 12345 "}
	assert.Equal(t, "1 Main St, Springfield, 12345", c.MailingAddress())
	assert.Equal(t, "", customer.Customer{}.MailingAddress())
}

func TestPatch_Apply(t *testing.T) {
	c := customer.Customer{Name: "Ada", Email: "ada@example.com", Phone: "555"}
	empty := ""
	email := "new@example.com"

	customer.Patch{Email: &email, Phone: &empty}.Apply(&c)

	assert.Equal(t, "Ada", c.Name)
	assert.Equal(t, "new@example.com", c.Email)
	assert.Equal(t, "", c.Phone)
}
