package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"credit-engine/internal/infrastructure/monitoring"
	"credit-engine/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

type DBPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Close()
}

var _ DBPool = (*pgxpool.Pool)(nil)

// translateDBError maps constraint violations onto domain errors; anything else is wrapped as a database error.
func translateDBError(err error, message string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s", apperrors.ErrAlreadyExists, pgErr.ConstraintName)
		case pgForeignKeyViolation:
			return apperrors.NewDataQualityError("foreign key violation on %s", pgErr.ConstraintName)
		}
	}
	return apperrors.WrapDatabaseError(err, message)
}

func recordQuery(name string, start time.Time, err error) {
	status := "success"
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		status = "error"
	}
	monitoring.RecordDBQuery(name, status, time.Since(start))
}

func beginTx(ctx context.Context, db DBPool) (pgx.Tx, error) {
	tx, err := db.Begin(ctx)
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err, "failed to begin transaction")
	}
	return tx, nil
}

func commitTx(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Commit(ctx); err != nil {
		return apperrors.WrapDatabaseError(err, "failed to commit transaction")
	}
	return nil
}

func rollbackTx(ctx context.Context, tx pgx.Tx) error {
	err := tx.Rollback(ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return apperrors.WrapDatabaseError(err, "failed to rollback transaction")
	}
	return nil
}
