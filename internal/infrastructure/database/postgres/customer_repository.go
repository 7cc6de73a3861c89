package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"credit-engine/internal/domain/customer"
	"credit-engine/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const customerColumns = `customer_id, first_name, last_name, COALESCE(age, 0), phone_number,
        monthly_salary, approved_limit, current_debt, created_at, updated_at`

type CustomerRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ customer.Repository = (*CustomerRepository)(nil)

func NewCustomerRepository(db DBPool, logger *slog.Logger) *CustomerRepository {
	if db == nil {
		panic("DBPool cannot be nil for CustomerRepository")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewCustomerRepository, using default stderr handler")
	}
	return &CustomerRepository{
		db:     db,
		logger: logger.With("component", "CustomerRepository"),
	}
}

func (r *CustomerRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	r.logger.DebugContext(ctx, "Beginning transaction")
	tx, err := beginTx(ctx, r.db)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to begin transaction", slog.Any("error", err))
		return nil, err
	}
	return tx, nil
}

func (r *CustomerRepository) CommitTx(ctx context.Context, tx pgx.Tx) error {
	if err := commitTx(ctx, tx); err != nil {
		r.logger.ErrorContext(ctx, "Failed to commit transaction", slog.Any("error", err))
		return err
	}
	r.logger.DebugContext(ctx, "Transaction committed successfully")
	return nil
}

func (r *CustomerRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	if err := rollbackTx(ctx, tx); err != nil {
		r.logger.ErrorContext(ctx, "Failed to rollback transaction", slog.Any("error", err))
		return err
	}
	return nil
}

func scanCustomer(row pgx.Row) (*customer.Customer, error) {
	var cust customer.Customer
	err := row.Scan(
		&cust.CustomerID,
		&cust.FirstName,
		&cust.LastName,
		&cust.Age,
		&cust.PhoneNumber,
		&cust.MonthlySalary,
		&cust.ApprovedLimit,
		&cust.CurrentDebt,
		&cust.CreatedAt,
		&cust.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &cust, nil
}

func (r *CustomerRepository) FindByID(ctx context.Context, customerID int64) (*customer.Customer, error) {
	logCtx := r.logger.With(slog.Int64("customerID", customerID))
	query := `SELECT ` + customerColumns + `
        FROM customers
        WHERE customer_id = $1`

	start := time.Now()
	cust, err := scanCustomer(r.db.QueryRow(ctx, query, customerID))
	recordQuery("FindCustomerByID", start, err)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			logCtx.WarnContext(ctx, "Customer not found")
			return nil, apperrors.ErrNotFound
		}
		logCtx.ErrorContext(ctx, "Failed to find customer", slog.Any("error", err))
		return nil, apperrors.WrapDatabaseError(err, "failed to find customer")
	}
	return cust, nil
}

func (r *CustomerRepository) FindAll(ctx context.Context) ([]*customer.Customer, error) {
	query := `SELECT ` + customerColumns + `
        FROM customers
        ORDER BY customer_id`

	start := time.Now()
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		recordQuery("FindAllCustomers", start, err)
		r.logger.ErrorContext(ctx, "Failed to query customers", slog.Any("error", err))
		return nil, apperrors.WrapDatabaseError(err, "failed to query customers")
	}
	defer rows.Close()

	customers := make([]*customer.Customer, 0)
	for rows.Next() {
		cust, err := scanCustomer(rows)
		if err != nil {
			recordQuery("FindAllCustomers", start, err)
			r.logger.ErrorContext(ctx, "Failed to scan customer row", slog.Any("error", err))
			return nil, apperrors.WrapDatabaseError(err, "failed to scan customer")
		}
		customers = append(customers, cust)
	}
	err = rows.Err()
	recordQuery("FindAllCustomers", start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error iterating customer rows", slog.Any("error", err))
		return nil, apperrors.WrapDatabaseError(err, "failed to iterate customers")
	}

	return customers, nil
}

// Create assigns the next id after the current maximum inside the insert itself.
func (r *CustomerRepository) Create(ctx context.Context, cust *customer.Customer) error {
	if cust == nil {
		return fmt.Errorf("%w: customer cannot be nil", apperrors.ErrInvalidArgument)
	}

	query := `
        INSERT INTO customers (customer_id, first_name, last_name, age, phone_number, monthly_salary, approved_limit, current_debt, created_at, updated_at)
        SELECT COALESCE(MAX(customer_id), 0) + 1, $1, $2, $3, $4, $5, $6, 0, NOW(), NOW()
        FROM customers
        RETURNING customer_id, created_at, updated_at`

	start := time.Now()
	err := r.db.QueryRow(ctx, query,
		cust.FirstName,
		cust.LastName,
		cust.Age,
		cust.PhoneNumber,
		cust.MonthlySalary,
		cust.ApprovedLimit,
	).Scan(&cust.CustomerID, &cust.CreatedAt, &cust.UpdatedAt)
	recordQuery("CreateCustomer", start, err)

	if err != nil {
		translated := translateDBError(err, "failed to insert customer")
		if errors.Is(translated, apperrors.ErrAlreadyExists) {
			r.logger.WarnContext(ctx, "Concurrent registration claimed the same customer id", slog.Any("error", err))
			return fmt.Errorf("%w: %w", apperrors.ErrConflict, translated)
		}
		r.logger.ErrorContext(ctx, "Failed to insert customer", slog.Any("error", err))
		return translated
	}

	cust.CurrentDebt = 0
	r.logger.InfoContext(ctx, "Customer inserted successfully", slog.Int64("customerID", cust.CustomerID))
	return nil
}

// Upsert writes every ingested field keyed by the external id and leaves current_debt untouched.
func (r *CustomerRepository) Upsert(ctx context.Context, cust *customer.Customer) error {
	if cust == nil {
		return fmt.Errorf("%w: customer cannot be nil", apperrors.ErrInvalidArgument)
	}

	query := `
        INSERT INTO customers (customer_id, first_name, last_name, age, phone_number, monthly_salary, approved_limit, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
        ON CONFLICT (customer_id) DO UPDATE
        SET first_name = EXCLUDED.first_name,
            last_name = EXCLUDED.last_name,
            age = EXCLUDED.age,
            phone_number = EXCLUDED.phone_number,
            monthly_salary = EXCLUDED.monthly_salary,
            approved_limit = EXCLUDED.approved_limit,
            updated_at = NOW()`

	start := time.Now()
	_, err := r.db.Exec(ctx, query,
		cust.CustomerID,
		cust.FirstName,
		cust.LastName,
		cust.Age,
		cust.PhoneNumber,
		cust.MonthlySalary,
		cust.ApprovedLimit,
	)
	recordQuery("UpsertCustomer", start, err)

	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to upsert customer", slog.Int64("customerID", cust.CustomerID), slog.Any("error", err))
		return translateDBError(err, "failed to upsert customer")
	}
	return nil
}

func (r *CustomerRepository) Exists(ctx context.Context, customerID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM customers WHERE customer_id = $1)`

	var exists bool
	start := time.Now()
	err := r.db.QueryRow(ctx, query, customerID).Scan(&exists)
	recordQuery("CustomerExists", start, err)

	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to check customer existence", slog.Int64("customerID", customerID), slog.Any("error", err))
		return false, apperrors.WrapDatabaseError(err, "failed to check customer existence")
	}
	return exists, nil
}

// UpdateCurrentDebtsInTx zeroes every customer's debt and then applies debts, all inside tx.
// It returns the number of customers touched by the reset.
func (r *CustomerRepository) UpdateCurrentDebtsInTx(ctx context.Context, tx pgx.Tx, debts map[int64]decimal.Decimal) (int64, error) {
	resetQuery := `UPDATE customers SET current_debt = 0, updated_at = NOW()`

	applyQuery := `
        UPDATE customers AS c
        SET current_debt = d.debt::numeric,
            updated_at = NOW()
        FROM unnest($1::bigint[], $2::text[]) AS d(customer_id, debt)
        WHERE c.customer_id = d.customer_id`

	start := time.Now()
	cmdTag, err := tx.Exec(ctx, resetQuery)
	if err != nil {
		recordQuery("UpdateCurrentDebts", start, err)
		r.logger.ErrorContext(ctx, "Failed to reset current debts", slog.Any("error", err))
		return 0, apperrors.WrapDatabaseError(err, "failed to reset current debts")
	}
	updated := cmdTag.RowsAffected()

	if len(debts) == 0 {
		recordQuery("UpdateCurrentDebts", start, nil)
		return updated, nil
	}

	ids := make([]int64, 0, len(debts))
	amounts := make([]string, 0, len(debts))
	for id, debt := range debts {
		ids = append(ids, id)
		amounts = append(amounts, debt.StringFixed(2))
	}

	_, err = tx.Exec(ctx, applyQuery, ids, amounts)
	recordQuery("UpdateCurrentDebts", start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to apply current debts", slog.Int("customers", len(ids)), slog.Any("error", err))
		return 0, apperrors.WrapDatabaseError(err, "failed to apply current debts")
	}

	r.logger.InfoContext(ctx, "Current debts updated", slog.Int64("customersReset", updated), slog.Int("customersWithDebt", len(ids)))
	return updated, nil
}
