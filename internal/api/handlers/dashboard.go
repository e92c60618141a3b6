package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/dvloznov/spendwise/internal/api/middleware"
	"github.com/dvloznov/spendwise/internal/dates"
	"github.com/dvloznov/spendwise/internal/domain"
	"github.com/dvloznov/spendwise/internal/metrics"
	"github.com/dvloznov/spendwise/internal/repository"
	"github.com/rs/zerolog"
)

// DashboardHandler serves chart data.
type DashboardHandler struct {
	repo repository.TransactionRepository
	now  func() time.Time
	log  zerolog.Logger
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(repo repository.TransactionRepository, now func() time.Time, log zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{repo: repo, now: now, log: log}
}

// CategorySpending handles GET /api/dashboard/category-spending?month=.
func (h *DashboardHandler) CategorySpending(w http.ResponseWriter, r *http.Request) {
	month, err := requiredMonth(r)
	if err != nil {
		middleware.WriteDomainError(w, h.log, err)
		return
	}
	from, to, _ := dates.MonthBounds(month)
	txns, err := h.repo.ListRange(r.Context(), userID(r), from, to)
	if err != nil {
		middleware.WriteDomainError(w, h.log, fmt.Errorf("category spending: %w", err))
		return
	}

	middleware.WriteSuccess(w, http.StatusOK, map[string]any{
		"month":            month,
		"categorySpending": metrics.CategorySpending(txns),
	}, "")
}

// MonthlyTrends handles GET /api/dashboard/monthly-trends?months=.
func (h *DashboardHandler) MonthlyTrends(w http.ResponseWriter, r *http.Request) {
	window, txns, err := h.window(r)
	if err != nil {
		middleware.WriteDomainError(w, h.log, err)
		return
	}
	middleware.WriteSuccess(w, http.StatusOK, map[string]any{
		"monthlyTrends": metrics.MonthlyTrends(txns, window),
	}, "")
}

// IncomeExpense handles GET /api/dashboard/income-expense?months=.
func (h *DashboardHandler) IncomeExpense(w http.ResponseWriter, r *http.Request) {
	window, txns, err := h.window(r)
	if err != nil {
		middleware.WriteDomainError(w, h.log, err)
		return
	}
	middleware.WriteSuccess(w, http.StatusOK, map[string]any{
		"incomeExpense": metrics.IncomeVsExpense(txns, window),
	}, "")
}

// window resolves the months parameter into the month keys ending with the
// current month and loads their transactions.
func (h *DashboardHandler) window(r *http.Request) ([]string, []domain.Transaction, error) {
	n, err := dates.ParseMonths(r.URL.Query().Get("months"))
	if err != nil {
		return nil, nil, err
	}
	window := dates.MonthWindow(h.now(), n)
	from, to, err := dates.WindowBounds(window)
	if err != nil {
		return nil, nil, err
	}
	txns, err := h.repo.ListRange(r.Context(), userID(r), from, to)
	if err != nil {
		return nil, nil, fmt.Errorf("dashboard: %w", err)
	}
	return window, txns, nil
}
