package handler

import (
	"log/slog"
	"net/http"

	"credit-engine/internal/api/handler/dto"
	"credit-engine/internal/domain/credit"
	"credit-engine/internal/domain/customer"
)

type CustomerHandler struct {
	service customer.CustomerService
	scorer  credit.CreditScorer
	logger  *slog.Logger
}

func NewCustomerHandler(svc customer.CustomerService, scorer credit.CreditScorer, logger *slog.Logger) *CustomerHandler {
	return &CustomerHandler{
		service: svc,
		scorer:  scorer,
		logger:  logger.With("component", "CustomerHandler"),
	}
}

// Register
// @Summary Register a new customer
// @Description Creates a customer and derives the approved limit from monthly income.
// @Tags Customers
// @Accept json
// @Produce json
// @Param customer body dto.RegisterRequest true "Customer details"
// @Success 201 {object} dto.RegisterResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /register [post]
func (h *CustomerHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode register request body", "error", err)
		RespondError(w, invalidBody(err))
		return
	}

	cust, err := h.service.Register(r.Context(), req.ToRegistration())
	if err != nil {
		RespondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.NewRegisterResponse(cust))
}

// GetCustomer
// @Summary Get customer details
// @Description Returns the stored customer along with the current credit score.
// @Tags Customers
// @Produce json
// @Param customerID path int true "Customer ID"
// @Success 200 {object} dto.CustomerResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /customers/{customerID} [get]
func (h *CustomerHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "customerID")
	if err != nil {
		RespondError(w, err)
		return
	}

	cust, err := h.service.GetCustomer(r.Context(), id)
	if err != nil {
		RespondError(w, err)
		return
	}

	var score *int
	if h.scorer != nil {
		s, err := h.scorer.Score(r.Context(), id)
		if err != nil {
			h.logger.WarnContext(r.Context(), "Credit score unavailable", "customerID", id, "error", err)
		} else {
			score = &s
		}
	}

	respondJSON(w, http.StatusOK, dto.NewCustomerResponse(cust, score))
}

// ListCustomers
// @Summary List customers
// @Tags Customers
// @Produce json
// @Success 200 {array} dto.CustomerResponse
// @Failure 500 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /customers [get]
func (h *CustomerHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.service.ListCustomers(r.Context())
	if err != nil {
		RespondError(w, err)
		return
	}

	resp := make([]dto.CustomerResponse, len(customers))
	for i, c := range customers {
		resp[i] = dto.NewCustomerResponse(c, nil)
	}
	respondJSON(w, http.StatusOK, resp)
}
