package loan

import (
	"context"
	"fmt"

	"credit-engine/internal/pkg/apperrors"

	"cloud.google.com/go/civil"
	"github.com/jackc/pgx/v5"
)

var ErrNotFound = fmt.Errorf("loan %w", apperrors.ErrNotFound)

type Repository interface {
	FindByID(ctx context.Context, loanID int64) (*Loan, error)

	ListByCustomer(ctx context.Context, customerID int64) ([]*Loan, error)

	// ListActiveByCustomer returns loans whose end date is on or after asOf.
	ListActiveByCustomer(ctx context.Context, customerID int64, asOf civil.Date) ([]*Loan, error)

	ListActiveInTx(ctx context.Context, tx pgx.Tx, asOf civil.Date) ([]*Loan, error)

	Create(ctx context.Context, loan *Loan) error

	InsertWithID(ctx context.Context, loan *Loan) error

	Exists(ctx context.Context, loanID int64) (bool, error)

	SyncIDSequence(ctx context.Context) error
}
