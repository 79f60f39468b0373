package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var (
	ErrNotFound          = errors.New("order not found")
	ErrOrderNumberExists = errors.New("order number already exists")
)

type Repository interface {
	Create(ctx context.Context, order *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	List(ctx context.Context, filter ListFilter) ([]Order, error)
	Update(ctx context.Context, order *Order) error
	Delete(ctx context.Context, id uuid.UUID) error
}

const orderColumns = `id, order_number, customer_id, customer_name, status, priority,
	subtotal, tax, shipping_cost, total_amount, shipping_address, tracking_number, notes,
	due_date, created_date`

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, order *Order) (err error) {
	if order.ID == uuid.Nil {
		id, genErr := uuid.NewV4()
		if genErr != nil {
			return fmt.Errorf("repository: failed to generate order ID: %w", genErr)
		}
		order.ID = id
	}
	if order.CreatedDate.IsZero() {
		order.CreatedDate = time.Now().UTC()
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() { err = finishTx(ctx, tx, order.ID, err) }()

	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err = tx.Exec(ctx, query,
		order.ID,
		order.OrderNumber,
		order.CustomerID,
		order.CustomerName,
		string(order.Status),
		string(order.Priority),
		order.Subtotal,
		order.Tax,
		order.ShippingCost,
		order.TotalAmount,
		order.ShippingAddress,
		order.TrackingNumber,
		order.Notes,
		order.DueDate,
		order.CreatedDate,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrOrderNumberExists
		}
		return fmt.Errorf("repository: failed to insert order: %w", err)
	}

	return insertItems(ctx, tx, order.ID, order.Items)
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order by id %s: %w", id, err)
	}

	items, err := r.loadItems(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	order.Items = itemsOrEmpty(items[id])

	return &order, nil
}

func (r *postgresRepository) List(ctx context.Context, filter ListFilter) ([]Order, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.CustomerID != "" {
		add("customer_id = $%d", filter.CustomerID)
	}
	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}
	if filter.Priority != "" {
		add("priority = $%d", string(filter.Priority))
	}
	if filter.Search != "" {
		args = append(args, "%"+escapeLike(filter.Search)+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(order_number ILIKE $%d OR customer_name ILIKE $%d)", n, n))
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY created_date DESC, id DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]Order, 0)
	var ids []uuid.UUID
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order: %w", err)
		}
		orders = append(orders, order)
		ids = append(ids, order.ID)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating orders: %w", err)
	}

	if len(ids) == 0 {
		return orders, nil
	}

	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = itemsOrEmpty(items[orders[i].ID])
	}

	return orders, nil
}

func (r *postgresRepository) Update(ctx context.Context, order *Order) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() { err = finishTx(ctx, tx, order.ID, err) }()

	query := `
		UPDATE orders
		SET order_number = $1, customer_id = $2, customer_name = $3, status = $4, priority = $5,
			subtotal = $6, tax = $7, shipping_cost = $8, total_amount = $9,
			shipping_address = $10, tracking_number = $11, notes = $12, due_date = $13
		WHERE id = $14
	`
	cmdTag, err := tx.Exec(ctx, query,
		order.OrderNumber,
		order.CustomerID,
		order.CustomerName,
		string(order.Status),
		string(order.Priority),
		order.Subtotal,
		order.Tax,
		order.ShippingCost,
		order.TotalAmount,
		order.ShippingAddress,
		order.TrackingNumber,
		order.Notes,
		order.DueDate,
		order.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrOrderNumberExists
		}
		return fmt.Errorf("repository: failed to update order %s: %w", order.ID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if _, err = tx.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, order.ID); err != nil {
		return fmt.Errorf("repository: failed to clear items of order %s: %w", order.ID, err)
	}

	return insertItems(ctx, tx, order.ID, order.Items)
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		log.Error().Err(err).Stringer("order_id", id).Msg("repository: failed to delete order")
		return fmt.Errorf("repository: failed to delete order %s: %w", id, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *postgresRepository) loadItems(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]LineItem, error) {
	query := `
		SELECT order_id, name, quantity, unit_price, total
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, position
	`
	rows, err := r.db.Query(ctx, query, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query order items: %w", err)
	}
	defer rows.Close()

	items := make(map[uuid.UUID][]LineItem, len(orderIDs))
	for rows.Next() {
		var (
			orderID uuid.UUID
			item    LineItem
		)
		if err := rows.Scan(&orderID, &item.Name, &item.Quantity, &item.UnitPrice, &item.Total); err != nil {
			return nil, fmt.Errorf("repository: failed to scan order item: %w", err)
		}
		items[orderID] = append(items[orderID], item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating order items: %w", err)
	}

	return items, nil
}

func insertItems(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, items []LineItem) error {
	query := `
		INSERT INTO order_items (order_id, position, name, quantity, unit_price, total)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for i, item := range items {
		_, err := tx.Exec(ctx, query, orderID, i, item.Name, item.Quantity, item.UnitPrice, item.Total)
		if err != nil {
			return fmt.Errorf("repository: failed to insert item %d of order %s: %w", i, orderID, err)
		}
	}
	return nil
}

// finishTx commits when err is nil and rolls back otherwise, returning the resulting error.
func finishTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, err error) error {
	if err != nil {
		log.Warn().Err(err).Stringer("order_id", orderID).Msg("Order transaction failed, rolling back")
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			log.Error().Err(rbErr).Stringer("order_id", orderID).Msg("Failed to rollback transaction")
		}
		return err
	}

	if commitErr := tx.Commit(ctx); commitErr != nil {
		log.Error().Err(commitErr).Stringer("order_id", orderID).Msg("Failed to commit transaction")
		return fmt.Errorf("repository: failed to commit transaction: %w", commitErr)
	}
	return nil
}

func scanOrder(row pgx.Row) (Order, error) {
	var (
		order    Order
		status   string
		priority string
	)
	err := row.Scan(
		&order.ID,
		&order.OrderNumber,
		&order.CustomerID,
		&order.CustomerName,
		&status,
		&priority,
		&order.Subtotal,
		&order.Tax,
		&order.ShippingCost,
		&order.TotalAmount,
		&order.ShippingAddress,
		&order.TrackingNumber,
		&order.Notes,
		&order.DueDate,
		&order.CreatedDate,
	)
	order.Status = Status(status)
	order.Priority = Priority(priority)
	return order, err
}

func itemsOrEmpty(items []LineItem) []LineItem {
	if items == nil {
		return []LineItem{}
	}
	return items
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
