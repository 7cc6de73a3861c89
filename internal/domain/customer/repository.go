package customer

import (
	"context"
	"fmt"

	"credit-engine/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

var ErrNotFound = fmt.Errorf("customer %w", apperrors.ErrNotFound)

type Repository interface {
	FindByID(ctx context.Context, customerID int64) (*Customer, error)

	FindAll(ctx context.Context) ([]*Customer, error)

	Create(ctx context.Context, customer *Customer) error

	Upsert(ctx context.Context, customer *Customer) error

	Exists(ctx context.Context, customerID int64) (bool, error)

	UpdateCurrentDebtsInTx(ctx context.Context, tx pgx.Tx, debts map[int64]decimal.Decimal) (int64, error)

	BeginTx(ctx context.Context) (pgx.Tx, error)

	CommitTx(ctx context.Context, tx pgx.Tx) error

	RollbackTx(ctx context.Context, tx pgx.Tx) error
}
