package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"credit-engine/internal/domain/loan"
	"credit-engine/internal/pkg/apperrors"

	"cloud.google.com/go/civil"
	"github.com/jackc/pgx/v5"
)

const loanColumns = `loan_id, customer_id, loan_amount, tenure, interest_rate, monthly_payment,
        emis_paid_on_time, start_date, end_date`

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type LoanRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ loan.Repository = (*LoanRepository)(nil)

func NewLoanRepository(db DBPool, logger *slog.Logger) *LoanRepository {
	if db == nil {
		panic("DBPool cannot be nil for LoanRepository")
	}
	return &LoanRepository{db: db, logger: logger.With("component", "LoanRepository")}
}

func toDate(d civil.Date) time.Time {
	return d.In(time.UTC)
}

func scanLoan(row pgx.Row) (*loan.Loan, error) {
	var (
		l          loan.Loan
		start, end time.Time
	)
	err := row.Scan(
		&l.LoanID,
		&l.CustomerID,
		&l.LoanAmount,
		&l.Tenure,
		&l.InterestRate,
		&l.MonthlyPayment,
		&l.EMIsPaidOnTime,
		&start,
		&end,
	)
	if err != nil {
		return nil, err
	}
	l.StartDate = civil.DateOf(start)
	l.EndDate = civil.DateOf(end)
	return &l, nil
}

func (r *LoanRepository) listLoans(ctx context.Context, q queryer, queryName, query string, args ...any) ([]*loan.Loan, error) {
	start := time.Now()
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		recordQuery(queryName, start, err)
		r.logger.ErrorContext(ctx, "Failed to query loans", slog.String("query", queryName), slog.Any("error", err))
		return nil, apperrors.WrapDatabaseError(err, "failed to query loans")
	}
	defer rows.Close()

	loans := make([]*loan.Loan, 0)
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			recordQuery(queryName, start, err)
			r.logger.ErrorContext(ctx, "Failed to scan loan row", slog.String("query", queryName), slog.Any("error", err))
			return nil, apperrors.WrapDatabaseError(err, "failed to scan loan")
		}
		loans = append(loans, l)
	}
	err = rows.Err()
	recordQuery(queryName, start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error iterating loan rows", slog.String("query", queryName), slog.Any("error", err))
		return nil, apperrors.WrapDatabaseError(err, "failed to iterate loans")
	}
	return loans, nil
}

func (r *LoanRepository) FindByID(ctx context.Context, loanID int64) (*loan.Loan, error) {
	query := `SELECT ` + loanColumns + `
        FROM loans
        WHERE loan_id = $1`

	start := time.Now()
	l, err := scanLoan(r.db.QueryRow(ctx, query, loanID))
	recordQuery("FindLoanByID", start, err)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Loan not found", slog.Int64("loanID", loanID))
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to find loan", slog.Int64("loanID", loanID), slog.Any("error", err))
		return nil, apperrors.WrapDatabaseError(err, "failed to find loan")
	}
	return l, nil
}

func (r *LoanRepository) ListByCustomer(ctx context.Context, customerID int64) ([]*loan.Loan, error) {
	query := `SELECT ` + loanColumns + `
        FROM loans
        WHERE customer_id = $1
        ORDER BY loan_id`

	return r.listLoans(ctx, r.db, "ListLoansByCustomer", query, customerID)
}

func (r *LoanRepository) ListActiveByCustomer(ctx context.Context, customerID int64, asOf civil.Date) ([]*loan.Loan, error) {
	query := `SELECT ` + loanColumns + `
        FROM loans
        WHERE customer_id = $1 AND end_date >= $2
        ORDER BY loan_id`

	return r.listLoans(ctx, r.db, "ListActiveLoansByCustomer", query, customerID, toDate(asOf))
}

func (r *LoanRepository) ListActiveInTx(ctx context.Context, tx pgx.Tx, asOf civil.Date) ([]*loan.Loan, error) {
	query := `SELECT ` + loanColumns + `
        FROM loans
        WHERE end_date >= $1
        ORDER BY customer_id, loan_id`

	return r.listLoans(ctx, tx, "ListActiveLoans", query, toDate(asOf))
}

func (r *LoanRepository) Create(ctx context.Context, l *loan.Loan) error {
	if l == nil {
		return fmt.Errorf("%w: loan cannot be nil", apperrors.ErrInvalidArgument)
	}

	query := `
        INSERT INTO loans (customer_id, loan_amount, tenure, interest_rate, monthly_payment, emis_paid_on_time, start_date, end_date)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING loan_id`

	start := time.Now()
	err := r.db.QueryRow(ctx, query,
		l.CustomerID,
		l.LoanAmount,
		l.Tenure,
		l.InterestRate,
		l.MonthlyPayment,
		l.EMIsPaidOnTime,
		toDate(l.StartDate),
		toDate(l.EndDate),
	).Scan(&l.LoanID)
	recordQuery("CreateLoan", start, err)

	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert loan", slog.Int64("customerID", l.CustomerID), slog.Any("error", err))
		return translateDBError(err, "failed to insert loan")
	}

	r.logger.InfoContext(ctx, "Loan inserted successfully", slog.Int64("loanID", l.LoanID), slog.Int64("customerID", l.CustomerID))
	return nil
}

// InsertWithID stores a loan under its externally assigned id.
func (r *LoanRepository) InsertWithID(ctx context.Context, l *loan.Loan) error {
	if l == nil {
		return fmt.Errorf("%w: loan cannot be nil", apperrors.ErrInvalidArgument)
	}

	query := `
        INSERT INTO loans (loan_id, customer_id, loan_amount, tenure, interest_rate, monthly_payment, emis_paid_on_time, start_date, end_date)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	start := time.Now()
	_, err := r.db.Exec(ctx, query,
		l.LoanID,
		l.CustomerID,
		l.LoanAmount,
		l.Tenure,
		l.InterestRate,
		l.MonthlyPayment,
		l.EMIsPaidOnTime,
		toDate(l.StartDate),
		toDate(l.EndDate),
	)
	recordQuery("InsertLoanWithID", start, err)

	if err != nil {
		r.logger.WarnContext(ctx, "Failed to insert loan with explicit id", slog.Int64("loanID", l.LoanID), slog.Any("error", err))
		return translateDBError(err, "failed to insert loan with explicit id")
	}
	return nil
}

func (r *LoanRepository) Exists(ctx context.Context, loanID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM loans WHERE loan_id = $1)`

	var exists bool
	start := time.Now()
	err := r.db.QueryRow(ctx, query, loanID).Scan(&exists)
	recordQuery("LoanExists", start, err)

	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to check loan existence", slog.Int64("loanID", loanID), slog.Any("error", err))
		return false, apperrors.WrapDatabaseError(err, "failed to check loan existence")
	}
	return exists, nil
}

// SyncIDSequence moves the loan id sequence past explicitly inserted ids.
func (r *LoanRepository) SyncIDSequence(ctx context.Context) error {
	query := `SELECT setval(pg_get_serial_sequence('loans', 'loan_id'), COALESCE(MAX(loan_id), 1), MAX(loan_id) IS NOT NULL) FROM loans`

	start := time.Now()
	_, err := r.db.Exec(ctx, query)
	recordQuery("SyncLoanIDSequence", start, err)

	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to sync loan id sequence", slog.Any("error", err))
		return apperrors.WrapDatabaseError(err, "failed to sync loan id sequence")
	}
	return nil
}
