package customer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

var ErrNotFound = errors.New("customer not found")

type Repository interface {
	Create(ctx context.Context, customer *Customer) error
	GetByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	List(ctx context.Context, filter ListFilter) ([]Customer, error)
	Update(ctx context.Context, customer *Customer) error
	Delete(ctx context.Context, id uuid.UUID) error
}

const customerColumns = `id, name, email, phone, company, address, city, state, zip_code, notes, created_date`

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, customer *Customer) error {
	if customer.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate customer ID: %w", err)
		}
		customer.ID = id
	}
	if customer.CreatedDate.IsZero() {
		customer.CreatedDate = time.Now().UTC()
	}

	query := `
		INSERT INTO customers (` + customerColumns + `)
		VALUES (:id, :name, :email, :phone, :company, :address, :city, :state, :zip_code, :notes, :created_date)
	`
	if _, err := r.db.NamedExecContext(ctx, query, customer); err != nil {
		return fmt.Errorf("repository: failed to insert customer: %w", err)
	}

	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Customer, error) {
	var customer Customer
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`

	if err := r.db.GetContext(ctx, &customer, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select customer by id %s: %w", id, err)
	}

	return &customer, nil
}

func (r *postgresRepository) List(ctx context.Context, filter ListFilter) ([]Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers`
	var args []any
	if filter.Search != "" {
		query += ` WHERE name ILIKE $1 OR email ILIKE $1 OR company ILIKE $1`
		args = append(args, "%"+escapeLike(filter.Search)+"%")
	}
	query += ` ORDER BY created_date DESC, id DESC`

	customers := make([]Customer, 0)
	if err := r.db.SelectContext(ctx, &customers, query, args...); err != nil {
		return nil, fmt.Errorf("repository: failed to select customers: %w", err)
	}

	return customers, nil
}

func (r *postgresRepository) Update(ctx context.Context, customer *Customer) error {
	query := `
		UPDATE customers
		SET name = :name, email = :email, phone = :phone, company = :company, address = :address,
			city = :city, state = :state, zip_code = :zip_code, notes = :notes
		WHERE id = :id
	`
	result, err := r.db.NamedExecContext(ctx, query, customer)
	if err != nil {
		log.Error().Err(err).Stringer("customer_id", customer.ID).Msg("repository: failed to update customer")
		return fmt.Errorf("repository: failed to update customer %s: %w", customer.ID, err)
	}

	return requireAffected(result)
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		log.Error().Err(err).Stringer("customer_id", id).Msg("repository: failed to delete customer")
		return fmt.Errorf("repository: failed to delete customer %s: %w", id, err)
	}

	return requireAffected(result)
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("repository: failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
