package customer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"credit-engine/internal/event"
	"credit-engine/internal/infrastructure/monitoring"
	"credit-engine/internal/pkg/apperrors"
)

type Registration struct {
	FirstName     string
	LastName      string
	Age           int
	MonthlyIncome int64
	PhoneNumber   string
}

func (r Registration) Validate() error {
	switch {
	case strings.TrimSpace(r.FirstName) == "":
		return apperrors.NewValidationError("first_name", "is required")
	case strings.TrimSpace(r.LastName) == "":
		return apperrors.NewValidationError("last_name", "is required")
	case r.Age <= 0:
		return apperrors.NewValidationError("age", "is required and must be positive")
	case r.MonthlyIncome <= 0:
		return apperrors.NewValidationError("monthly_income", "is required and must be positive")
	case strings.TrimSpace(r.PhoneNumber) == "":
		return apperrors.NewValidationError("phone_number", "is required")
	}
	return nil
}

type CustomerService interface {
	Register(ctx context.Context, reg Registration) (*Customer, error)
	GetCustomer(ctx context.Context, customerID int64) (*Customer, error)
	ListCustomers(ctx context.Context) ([]*Customer, error)
}

var _ CustomerService = (*customerService)(nil)

type customerService struct {
	repo   Repository
	pub    event.EventPublisher
	logger *slog.Logger
}

func NewCustomerService(repo Repository, eventPublisher event.EventPublisher, logger *slog.Logger) CustomerService {
	if repo == nil {
		panic("customer repository cannot be nil")
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewCustomerService, using default stderr handler")
	}

	if eventPublisher == nil {
		logger.Warn("No event publisher provided to NewCustomerService, registration events will not be published")
	}

	return &customerService{
		repo:   repo,
		pub:    eventPublisher,
		logger: logger.With(slog.String("component", "customerService")),
	}
}

func NewCustomerEventPayload(cust *Customer) event.CustomerPayload {
	if cust == nil {
		return event.CustomerPayload{}
	}
	return event.CustomerPayload{
		CustomerID:    cust.CustomerID,
		FirstName:     cust.FirstName,
		LastName:      cust.LastName,
		Age:           cust.Age,
		PhoneNumber:   cust.PhoneNumber,
		MonthlyIncome: cust.MonthlySalary,
		ApprovedLimit: cust.ApprovedLimit,
	}
}

func (s *customerService) Register(ctx context.Context, reg Registration) (*Customer, error) {
	s.logger.InfoContext(ctx, "Attempting to register new customer")

	if err := reg.Validate(); err != nil {
		s.logger.WarnContext(ctx, "Registration validation failed", slog.Any("error", err))
		return nil, err
	}

	customer := NewCustomer(
		strings.TrimSpace(reg.FirstName),
		strings.TrimSpace(reg.LastName),
		reg.Age,
		strings.TrimSpace(reg.PhoneNumber),
		reg.MonthlyIncome,
	)
	logCtx := s.logger.With(slog.Int64("approvedLimit", customer.ApprovedLimit))

	if err := s.repo.Create(ctx, customer); err != nil {
		logCtx.ErrorContext(ctx, "Repository failed to create customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to register customer: %w", err)
	}
	logCtx = logCtx.With(slog.Int64("customerID", customer.CustomerID))
	monitoring.RecordCustomerRegistered()

	s.publishRegistered(ctx, logCtx, customer)

	logCtx.InfoContext(ctx, "Successfully registered new customer")
	return customer, nil
}

func (s *customerService) publishRegistered(ctx context.Context, logCtx *slog.Logger, customer *Customer) {
	if s.pub == nil {
		return
	}
	evt := event.CustomerRegisteredEvent{
		Timestamp: time.Now(),
		Payload:   NewCustomerEventPayload(customer),
	}
	if err := s.pub.PublishCustomerRegistered(ctx, evt); err != nil {
		logCtx.ErrorContext(ctx, "Customer registered, but FAILED to publish registration event", slog.Any("error", err))
		return
	}
	logCtx.InfoContext(ctx, "Successfully published customer registration event")
}

func (s *customerService) GetCustomer(ctx context.Context, customerID int64) (*Customer, error) {
	logCtx := s.logger.With(slog.Int64("customerID", customerID))
	logCtx.InfoContext(ctx, "Attempting to get customer by ID")

	customer, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logCtx.WarnContext(ctx, "Customer not found by repository")
			return nil, ErrNotFound
		}
		logCtx.ErrorContext(ctx, "Repository error finding customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get customer %d: %w", customerID, err)
	}

	logCtx.InfoContext(ctx, "Successfully retrieved customer")
	return customer, nil
}

func (s *customerService) ListCustomers(ctx context.Context) ([]*Customer, error) {
	s.logger.InfoContext(ctx, "Attempting to list customers")

	customers, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Repository error listing customers", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	s.logger.InfoContext(ctx, "Successfully retrieved customers", slog.Int("count", len(customers)))
	return customers, nil
}
