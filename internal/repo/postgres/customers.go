package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/greenvolt/loanhub/internal/domain/customer"
	"github.com/greenvolt/loanhub/internal/domain/user"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const customerColumns = `id, first_name, last_name, email, phone_number, address_line1, address_line2, city, state, postal_code, country, user_id, created_by, created_at, updated_at`

type CustomersRepo struct {
	pool *pgxpool.Pool
}

func NewCustomersRepo(pool *pgxpool.Pool) *CustomersRepo {
	return &CustomersRepo{pool: pool}
}

func scanCustomer(row pgx.Row) (customer.Customer, error) {
	var c customer.Customer

	err := row.Scan(
		&c.ID,
		&c.FirstName,
		&c.LastName,
		&c.Email,
		&c.PhoneNumber,
		&c.AddressLine1,
		&c.AddressLine2,
		&c.City,
		&c.State,
		&c.PostalCode,
		&c.Country,
		&c.UserID,
		&c.CreatedBy,
		&c.CreatedAt,
		&c.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return customer.Customer{}, customer.ErrNotFound
		}

		return customer.Customer{}, err
	}
	return c, nil
}

func insertCustomer(ctx context.Context, tx pgx.Tx, c customer.Customer) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO customers (`+customerColumns+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		c.ID, c.FirstName, c.LastName, c.Email, c.PhoneNumber, c.AddressLine1, c.AddressLine2,
		c.City, c.State, c.PostalCode, c.Country, c.UserID, c.CreatedBy, c.CreatedAt, c.UpdatedAt,
	)

	if err != nil {
		if uniqueViolationOn(err, "customers_email_key") {
			return customer.ErrEmailTaken
		}
	}

	return err
}

// CreateWithUser persists the backing login account and the customer record
// in one transaction: either both land or neither does.
func (r *CustomersRepo) CreateWithUser(ctx context.Context, c customer.Customer, u user.User) (customer.Customer, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})

	if err != nil {
		return customer.Customer{}, err
	}

	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Role, u.Superuser, u.CreatedAt, u.UpdatedAt,
	)

	if err != nil {
		if uniqueViolationOn(err, "users_email_key") {
			return customer.Customer{}, user.ErrEmailTaken
		}
		if uniqueViolationOn(err, "users_username_key") {
			return customer.Customer{}, user.ErrUsernameTaken
		}

		return customer.Customer{}, err
	}

	c.UserID = &u.ID

	err = insertCustomer(ctx, tx, c)

	if err != nil {
		return customer.Customer{}, err
	}

	err = tx.Commit(ctx)

	if err != nil {
		return customer.Customer{}, err
	}

	return c, nil
}

func (r *CustomersRepo) GetByID(ctx context.Context, id string) (customer.Customer, error) {
	return scanCustomer(r.pool.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = $1`, id))
}

// GetByUserID resolves the linked profile for a customer-role principal.
func (r *CustomersRepo) GetByUserID(ctx context.Context, userID string) (customer.Customer, error) {
	return scanCustomer(r.pool.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE user_id = $1`, userID))
}

func (r *CustomersRepo) GetByEmail(ctx context.Context, email string) (customer.Customer, error) {
	return scanCustomer(r.pool.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE email = $1`, email))
}

func (r *CustomersRepo) List(ctx context.Context, filter customer.ListCustomersFilter) ([]customer.Customer, int, error) {
	baseQuery := `SELECT ` + customerColumns + `, COUNT(*) OVER() AS total FROM customers`

	var conds []string
	var args []interface{}

	argsPosition := 1

	if filter.Email != nil {
		conds = append(conds, fmt.Sprintf("email = $%d", argsPosition))
		args = append(args, *filter.Email)
		argsPosition++
	}

	if filter.City != nil {
		conds = append(conds, fmt.Sprintf("city = $%d", argsPosition))
		args = append(args, *filter.City)
		argsPosition++
	}

	if filter.State != nil {
		conds = append(conds, fmt.Sprintf("state = $%d", argsPosition))
		args = append(args, *filter.State)
		argsPosition++
	}

	query := baseQuery

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	// stable ordering for pagination
	query += fmt.Sprintf(" ORDER BY created_at DESC, id ASC LIMIT $%d OFFSET $%d", argsPosition, argsPosition+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)

	if err != nil {
		return nil, 0, err
	}

	defer rows.Close()

	output := make([]customer.Customer, 0, filter.Limit)
	total := 0

	for rows.Next() {
		var c customer.Customer
		var t int

		err = rows.Scan(
			&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.PhoneNumber,
			&c.AddressLine1, &c.AddressLine2, &c.City, &c.State, &c.PostalCode,
			&c.Country, &c.UserID, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt, &t,
		)

		if err != nil {
			return nil, 0, err
		}

		total = t
		output = append(output, c)
	}

	err = rows.Err()

	if err != nil {
		return nil, 0, err
	}

	return output, total, nil
}

func (r *CustomersRepo) Update(ctx context.Context, id string, c customer.Customer) (customer.Customer, error) {
	updated, err := scanCustomer(r.pool.QueryRow(ctx,
		`UPDATE customers
		 SET first_name = $2,
		     last_name = $3,
		     email = $4,
		     phone_number = $5,
		     address_line1 = $6,
		     address_line2 = $7,
		     city = $8,
		     state = $9,
		     postal_code = $10,
		     country = $11,
		     updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+customerColumns,
		id, c.FirstName, c.LastName, c.Email, c.PhoneNumber, c.AddressLine1,
		c.AddressLine2, c.City, c.State, c.PostalCode, c.Country,
	))

	if err != nil {
		if uniqueViolationOn(err, "customers_email_key") {
			return customer.Customer{}, customer.ErrEmailTaken
		}

		return customer.Customer{}, err
	}

	return updated, nil
}

// Delete refuses to remove a customer that still has loan offers; the FK on
// loan_offers.customer_id is declared RESTRICT and is the source of truth.
func (r *CustomersRepo) Delete(ctx context.Context, id string) error {
	res, err := r.pool.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)

	if err != nil {
		if isFKViolation(err) {
			return customer.ErrHasLoanOffer
		}

		return err
	}

	if res.RowsAffected() == 0 {
		return customer.ErrNotFound
	}

	return nil
}
