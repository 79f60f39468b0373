package order_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/order-desk/internal/config"
	"github.com/vasiliy-maslov/order-desk/internal/db"
	"github.com/vasiliy-maslov/order-desk/internal/order"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// setupPostgres connects to the database named by the DB_*_TEST variables,
// applies migrations and empties the order tables. It skips the test when
// DB_HOST_TEST is not set.
func setupPostgres(t *testing.T) (order.Repository, *pgxpool.Pool) {
	t.Helper()

	host := os.Getenv("DB_HOST_TEST")
	if host == "" {
		t.Skip("DB_HOST_TEST is not set, skipping postgres integration test")
	}

	cfg := config.PostgresConfig{
		Host:            host,
		Port:            envOr("DB_PORT_TEST", "5432"),
		User:            envOr("DB_USER_TEST", "postgres"),
		Password:        envOr("DB_PASSWORD_TEST", "123456"),
		DBName:          envOr("DB_NAME_TEST", "order_desk_test"),
		SSLMode:         envOr("DB_SSLMODE_TEST", "disable"),
		MaxConns:        5,
		MinConns:        1,
		MaxConnLifetime: 5 * time.Minute,
		MigrationsPath:  "../../migrations",
	}

	sqlDB, err := db.Connect(cfg)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(sqlDB, cfg))
	require.NoError(t, sqlDB.Close())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pg, err := db.New(ctx, cfg)
	require.NoError(t, err)

	truncate := func() {
		_, err := pg.Pool.Exec(context.Background(), "TRUNCATE TABLE order_items, orders")
		require.NoError(t, err)
	}
	truncate()
	t.Cleanup(func() {
		truncate()
		pg.Close()
	})

	return order.NewRepository(pg.Pool), pg.Pool
}

func TestPostgresRepository_CreateAndGet(t *testing.T) {
	repo, _ := setupPostgres(t)
	ctx := context.Background()

	due := time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC)
	o := &order.Order{
		OrderNumber:  "ORD-1",
		CustomerID:   uuid.Must(uuid.NewV4()).String(),
		CustomerName: "Acme",
		Status:       order.StatusPending,
		Priority:     order.PriorityUrgent,
		Items: []order.LineItem{
			{Name: "Widget", Quantity: 2, UnitPrice: 10.5, Total: 21},
			{Name: "Gadget", Quantity: 1, UnitPrice: 4, Total: 4},
		},
		Subtotal:     25,
		Tax:          1.25,
		ShippingCost: 3,
		TotalAmount:  29.25,
		Notes:        "leave at the door",
		DueDate:      &due,
	}
	require.NoError(t, repo.Create(ctx, o))
	require.NotEqual(t, uuid.Nil, o.ID)

	got, err := repo.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.OrderNumber, got.OrderNumber)
	assert.Equal(t, order.PriorityUrgent, got.Priority)
	assert.Equal(t, o.Items, got.Items)
	assert.Equal(t, 29.25, got.TotalAmount)
	require.NotNil(t, got.DueDate)
	assert.Equal(t, "2025-09-15", got.DueDate.Format(time.DateOnly))
	assert.WithinDuration(t, o.CreatedDate, got.CreatedDate, time.Millisecond)
}

func TestPostgresRepository_DuplicateOrderNumber(t *testing.T) {
	repo, _ := setupPostgres(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &order.Order{OrderNumber: "ORD-1", Status: order.StatusPending, Priority: order.PriorityNormal}))

	err := repo.Create(ctx, &order.Order{OrderNumber: "ORD-1", Status: order.StatusPending, Priority: order.PriorityNormal})
	require.ErrorIs(t, err, order.ErrOrderNumberExists)
}

func TestPostgresRepository_ListAndUpdate(t *testing.T) {
	repo, _ := setupPostgres(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	older := &order.Order{OrderNumber: "ORD-1", CustomerName: "100% Acme", Status: order.StatusPending, Priority: order.PriorityNormal, CreatedDate: base}
	newer := &order.Order{OrderNumber: "ORD-2", CustomerName: "Globex", Status: order.StatusShipped, Priority: order.PriorityNormal, CreatedDate: base.Add(time.Minute)}
	require.NoError(t, repo.Create(ctx, older))
	require.NoError(t, repo.Create(ctx, newer))

	all, err := repo.List(ctx, order.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "ORD-2", all[0].OrderNumber)
	assert.NotNil(t, all[0].Items)

	bySearch, err := repo.List(ctx, order.ListFilter{Search: "100%"})
	require.NoError(t, err)
	require.Len(t, bySearch, 1)
	assert.Equal(t, "ORD-1", bySearch[0].OrderNumber)

	older.Status = order.StatusCancelled
	older.Items = []order.LineItem{{Name: "Refund", Quantity: 1, UnitPrice: 0, Total: 0}}
	require.NoError(t, repo.Update(ctx, older))

	got, err := repo.GetByID(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, got.Status)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Refund", got.Items[0].Name)

	missing := &order.Order{ID: uuid.Must(uuid.NewV4()), OrderNumber: "ORD-404"}
	require.ErrorIs(t, repo.Update(ctx, missing), order.ErrNotFound)
}

func TestPostgresRepository_DeleteCascadesItems(t *testing.T) {
	repo, pool := setupPostgres(t)
	ctx := context.Background()

	o := &order.Order{
		OrderNumber: "ORD-1",
		Status:      order.StatusPending,
		Priority:    order.PriorityNormal,
		Items:       []order.LineItem{{Name: "Widget", Quantity: 1, UnitPrice: 1, Total: 1}},
	}
	require.NoError(t, repo.Create(ctx, o))

	require.NoError(t, repo.Delete(ctx, o.ID))
	require.ErrorIs(t, repo.Delete(ctx, o.ID), order.ErrNotFound)

	var items int
	require.NoError(t, pool.QueryRow(ctx, "SELECT count(*) FROM order_items WHERE order_id = $1", o.ID).Scan(&items))
	assert.Zero(t, items)
}
