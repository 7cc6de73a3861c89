package handler

import (
	"log/slog"
	"net/http"

	"credit-engine/internal/api/handler/dto"
	"credit-engine/internal/domain/credit"
	"credit-engine/internal/domain/loan"
)

type LoanHandler struct {
	evaluator credit.Evaluator
	issuer    credit.Issuer
	loans     loan.LoanService
	logger    *slog.Logger
}

func NewLoanHandler(evaluator credit.Evaluator, issuer credit.Issuer, loans loan.LoanService, logger *slog.Logger) *LoanHandler {
	return &LoanHandler{
		evaluator: evaluator,
		issuer:    issuer,
		loans:     loans,
		logger:    logger.With("component", "LoanHandler"),
	}
}

// CheckEligibility
// @Summary Check loan eligibility
// @Description Scores the customer and returns the approval decision, corrected rate and monthly installment.
// @Tags Loans
// @Accept json
// @Produce json
// @Param request body dto.LoanRequest true "Loan request"
// @Success 200 {object} dto.EligibilityResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /check-eligibility [post]
func (h *LoanHandler) CheckEligibility(w http.ResponseWriter, r *http.Request) {
	var req dto.LoanRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode eligibility request body", "error", err)
		RespondError(w, invalidBody(err))
		return
	}

	decision, err := h.evaluator.Evaluate(r.Context(), req.ToCreditRequest())
	if err != nil {
		RespondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewEligibilityResponse(decision))
}

// CreateLoan
// @Summary Create a loan
// @Description Re-runs the eligibility check and persists the loan when approved.
// @Tags Loans
// @Accept json
// @Produce json
// @Param request body dto.LoanRequest true "Loan request"
// @Success 201 {object} dto.CreateLoanResponse "Loan created"
// @Success 200 {object} dto.CreateLoanResponse "Loan not approved"
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /create-loan [post]
func (h *LoanHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var req dto.LoanRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode create loan request body", "error", err)
		RespondError(w, invalidBody(err))
		return
	}

	issuance, err := h.issuer.Issue(r.Context(), req.ToCreditRequest())
	if err != nil {
		RespondError(w, err)
		return
	}

	status := http.StatusOK
	if issuance.Approved {
		status = http.StatusCreated
	}
	respondJSON(w, status, dto.NewCreateLoanResponse(issuance))
}

// ViewLoan
// @Summary View a loan
// @Tags Loans
// @Produce json
// @Param loanID path int true "Loan ID"
// @Success 200 {object} dto.LoanDetailResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /view-loan/{loanID} [get]
func (h *LoanHandler) ViewLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := getIDFromURL(r, "loanID")
	if err != nil {
		RespondError(w, err)
		return
	}

	l, cust, err := h.loans.GetLoanWithCustomer(r.Context(), loanID)
	if err != nil {
		RespondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewLoanDetailResponse(l, cust))
}

// ViewLoans
// @Summary List a customer's loans
// @Tags Loans
// @Produce json
// @Param customerID path int true "Customer ID"
// @Success 200 {array} dto.LoanSummaryResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /view-loans/{customerID} [get]
func (h *LoanHandler) ViewLoans(w http.ResponseWriter, r *http.Request) {
	customerID, err := getIDFromURL(r, "customerID")
	if err != nil {
		RespondError(w, err)
		return
	}

	loans, err := h.loans.ListCustomerLoans(r.Context(), customerID)
	if err != nil {
		RespondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewLoanSummaryResponses(loans))
}
