package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/greenvolt/loanhub/internal/domain/loanoffer"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const loanOfferColumns = `id, customer_id, loan_amount, interest_rate, loan_term, monthly_payment, status, created_by, created_at, updated_at`

type LoanOffersRepo struct {
	pool *pgxpool.Pool
}

func NewLoanOffersRepo(pool *pgxpool.Pool) *LoanOffersRepo {
	return &LoanOffersRepo{pool: pool}
}

func scanLoanOffer(row pgx.Row) (loanoffer.LoanOffer, error) {
	var o loanoffer.LoanOffer

	err := row.Scan(
		&o.ID,
		&o.CustomerID,
		&o.LoanAmount,
		&o.InterestRate,
		&o.LoanTerm,
		&o.MonthlyPayment,
		&o.Status,
		&o.CreatedBy,
		&o.CreatedAt,
		&o.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return loanoffer.LoanOffer{}, loanoffer.ErrNotFound
		}

		return loanoffer.LoanOffer{}, err
	}
	return o, nil
}

func (r *LoanOffersRepo) Create(ctx context.Context, o loanoffer.LoanOffer) (loanoffer.LoanOffer, error) {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO loan_offers (`+loanOfferColumns+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		o.ID, o.CustomerID, o.LoanAmount, o.InterestRate, o.LoanTerm, o.MonthlyPayment,
		o.Status, o.CreatedBy, o.CreatedAt, o.UpdatedAt,
	)

	if err != nil {
		return loanoffer.LoanOffer{}, err
	}

	return o, nil
}

func (r *LoanOffersRepo) GetByID(ctx context.Context, id string) (loanoffer.LoanOffer, error) {
	return scanLoanOffer(r.pool.QueryRow(ctx,
		`SELECT `+loanOfferColumns+` FROM loan_offers WHERE id = $1`, id))
}

func (r *LoanOffersRepo) List(ctx context.Context, filter loanoffer.ListLoanOffersFilter) ([]loanoffer.LoanOffer, int, error) {
	baseQuery := `SELECT ` + loanOfferColumns + `, COUNT(*) OVER() AS total FROM loan_offers`

	var conds []string
	var args []interface{}

	argsPosition := 1

	if filter.CustomerID != nil {
		conds = append(conds, fmt.Sprintf("customer_id = $%d", argsPosition))
		args = append(args, *filter.CustomerID)
		argsPosition++
	}

	if filter.Status != nil {
		conds = append(conds, fmt.Sprintf("status = $%d", argsPosition))
		args = append(args, *filter.Status)
		argsPosition++
	}

	query := baseQuery

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC, id ASC LIMIT $%d OFFSET $%d", argsPosition, argsPosition+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)

	if err != nil {
		return nil, 0, err
	}

	defer rows.Close()

	output := make([]loanoffer.LoanOffer, 0, filter.Limit)
	total := 0

	for rows.Next() {
		var o loanoffer.LoanOffer
		var t int

		err = rows.Scan(
			&o.ID, &o.CustomerID, &o.LoanAmount, &o.InterestRate, &o.LoanTerm,
			&o.MonthlyPayment, &o.Status, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt, &t,
		)

		if err != nil {
			return nil, 0, err
		}

		total = t
		output = append(output, o)
	}

	err = rows.Err()

	if err != nil {
		return nil, 0, err
	}

	return output, total, nil
}

// Update persists the financial fields and the recomputed monthly payment in
// a single statement so they can never drift apart.
func (r *LoanOffersRepo) Update(ctx context.Context, id string, o loanoffer.LoanOffer) (loanoffer.LoanOffer, error) {
	return scanLoanOffer(r.pool.QueryRow(ctx,
		`UPDATE loan_offers
		 SET customer_id = $2,
		     loan_amount = $3,
		     interest_rate = $4,
		     loan_term = $5,
		     monthly_payment = $6,
		     status = $7,
		     updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+loanOfferColumns,
		id, o.CustomerID, o.LoanAmount, o.InterestRate, o.LoanTerm, o.MonthlyPayment, o.Status,
	))
}

func (r *LoanOffersRepo) Delete(ctx context.Context, id string) error {
	res, err := r.pool.Exec(ctx, `DELETE FROM loan_offers WHERE id = $1`, id)

	if err != nil {
		return err
	}

	if res.RowsAffected() == 0 {
		return loanoffer.ErrNotFound
	}

	return nil
}
