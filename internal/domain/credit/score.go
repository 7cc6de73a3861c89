package credit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"credit-engine/internal/domain/customer"
	"credit-engine/internal/domain/loan"
	"credit-engine/internal/pkg/apperrors"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

const (
	MinScore = 0
	MaxScore = 100
)

// History is the snapshot a score is computed from: the customer's full loan history,
// not only active loans.
type History struct {
	CurrentDebt   float64
	ApprovedLimit int64
	Loans         []*loan.Loan
	Today         civil.Date
}

// Bucket awards points for one independent rule.
type Bucket func(History) int

var buckets = []Bucket{
	OnTimeBucket,
	LoanCountBucket,
	RecencyBucket,
	VolumeBucket,
}

// OnTimeRatio is the percentage of all installments paid on time; 100 with no history.
func OnTimeRatio(loans []*loan.Loan) float64 {
	var paid, tenure int
	for _, l := range loans {
		paid += l.EMIsPaidOnTime
		tenure += l.Tenure
	}
	if tenure <= 0 {
		return 100
	}
	return float64(paid) / float64(tenure) * 100
}

func OnTimeBucket(h History) int {
	ratio := OnTimeRatio(h.Loans)
	switch {
	case ratio > 90:
		return 30
	case ratio > 75:
		return 15
	default:
		return 0
	}
}

func LoanCountBucket(h History) int {
	switch n := len(h.Loans); {
	case n > 5:
		return 20
	case n > 2:
		return 10
	default:
		return 0
	}
}

func RecencyBucket(h History) int {
	for _, l := range h.Loans {
		if l.StartDate.Year == h.Today.Year {
			return 0
		}
	}
	return 15
}

func VolumeBucket(h History) int {
	volume := decimal.Zero
	for _, l := range h.Loans {
		volume = volume.Add(decimal.NewFromFloat(l.LoanAmount))
	}
	if volume.LessThan(decimal.NewFromInt(h.ApprovedLimit).Div(decimal.NewFromInt(2))) {
		return 25
	}
	return 0
}

// ScoreHistory is the pure scoring core. Debt above the approved limit overrides every bucket.
func ScoreHistory(h History) int {
	if h.CurrentDebt > float64(h.ApprovedLimit) {
		return MinScore
	}

	total := 0
	for _, bucket := range buckets {
		total += bucket(h)
	}
	return min(max(total, MinScore), MaxScore)
}

type CreditScorer interface {
	Score(ctx context.Context, customerID int64) (int, error)
}

type Scorer struct {
	customers customer.Repository
	loans     loan.Repository
	clock     Clock
	logger    *slog.Logger
}

var _ CreditScorer = (*Scorer)(nil)

func NewScorer(customers customer.Repository, loans loan.Repository, clock Clock, logger *slog.Logger) *Scorer {
	if customers == nil || loans == nil {
		panic("repositories cannot be nil for Scorer")
	}
	if clock == nil {
		clock = SystemClock(nil)
	}
	return &Scorer{
		customers: customers,
		loans:     loans,
		clock:     clock,
		logger:    logger.With(slog.String("component", "creditScorer")),
	}
}

func (s *Scorer) Score(ctx context.Context, customerID int64) (int, error) {
	logCtx := s.logger.With(slog.Int64("customerID", customerID))

	cust, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return 0, customer.ErrNotFound
		}
		logCtx.ErrorContext(ctx, "Failed to load customer for scoring", slog.Any("error", err))
		return 0, fmt.Errorf("failed to load customer %d for scoring: %w", customerID, err)
	}

	loans, err := s.loans.ListByCustomer(ctx, customerID)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to load loan history for scoring", slog.Any("error", err))
		return 0, fmt.Errorf("failed to load loan history for customer %d: %w", customerID, err)
	}

	score := ScoreHistory(History{
		CurrentDebt:   cust.CurrentDebt,
		ApprovedLimit: cust.ApprovedLimit,
		Loans:         loans,
		Today:         s.clock(),
	})

	logCtx.DebugContext(ctx, "Credit score computed", slog.Int("score", score), slog.Int("loans", len(loans)))
	return score, nil
}
