package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/dvloznov/spendwise/internal/api/middleware"
	"github.com/dvloznov/spendwise/internal/dates"
	"github.com/dvloznov/spendwise/internal/domain"
	"github.com/dvloznov/spendwise/internal/metrics"
	"github.com/dvloznov/spendwise/internal/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// BudgetHandler handles the monthly budget endpoints.
type BudgetHandler struct {
	budgets repository.BudgetRepository
	txns    repository.TransactionRepository
	log     zerolog.Logger
}

// NewBudgetHandler creates a new budget handler.
func NewBudgetHandler(budgets repository.BudgetRepository, txns repository.TransactionRepository, log zerolog.Logger) *BudgetHandler {
	return &BudgetHandler{budgets: budgets, txns: txns, log: log}
}

type budgetRequest struct {
	Month           string                 `json:"month" validate:"required,yearmonth"`
	TotalBudget     *decimal.Decimal       `json:"totalBudget" validate:"required"`
	CategoryBudgets []categoryLimitRequest `json:"categoryBudgets" validate:"dive"`
}

type categoryLimitRequest struct {
	Category string          `json:"category" validate:"required,notblank"`
	Limit    decimal.Decimal `json:"limit"`
}

// Upsert handles POST /api/budget. Saving a month again replaces it.
func (h *BudgetHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeBody(r, &req); err != nil {
		middleware.WriteDomainError(w, h.log, err)
		return
	}

	b := domain.Budget{
		UserID:     userID(r),
		Month:      req.Month,
		TotalLimit: *req.TotalBudget,
		Categories: make([]domain.CategoryLimit, 0, len(req.CategoryBudgets)),
	}
	for _, c := range req.CategoryBudgets {
		b.Categories = append(b.Categories, domain.CategoryLimit{
			Category: strings.TrimSpace(c.Category),
			Limit:    c.Limit,
		})
	}

	saved, err := h.budgets.Upsert(r.Context(), b)
	if err != nil {
		middleware.WriteDomainError(w, h.log, err)
		return
	}
	middleware.WriteSuccess(w, http.StatusCreated, saved, "Budget saved successfully")
}

// Status handles GET /api/budget?month=YYYY-MM.
func (h *BudgetHandler) Status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	month, err := requiredMonth(r)
	if err != nil {
		middleware.WriteDomainError(w, h.log, err)
		return
	}

	budget, err := h.budgets.Get(ctx, userID(r), month)
	if err != nil {
		middleware.WriteDomainError(w, h.log, err)
		return
	}

	from, to, _ := dates.MonthBounds(month)
	txns, err := h.txns.ListRange(ctx, userID(r), from, to)
	if err != nil {
		middleware.WriteDomainError(w, h.log, fmt.Errorf("budget status: %w", err))
		return
	}

	middleware.WriteSuccess(w, http.StatusOK, metrics.BudgetStatus(*budget, txns), "")
}
