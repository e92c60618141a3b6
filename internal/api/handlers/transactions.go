package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/dvloznov/spendwise/internal/api/middleware"
	"github.com/dvloznov/spendwise/internal/categorizer"
	"github.com/dvloznov/spendwise/internal/dates"
	"github.com/dvloznov/spendwise/internal/domain"
	"github.com/dvloznov/spendwise/internal/metrics"
	"github.com/dvloznov/spendwise/internal/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// TransactionsHandler handles transaction endpoints.
type TransactionsHandler struct {
	repo        repository.TransactionRepository
	categorizer *categorizer.Categorizer
	log         zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(repo repository.TransactionRepository, c *categorizer.Categorizer, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{repo: repo, categorizer: c, log: log}
}

type transactionRequest struct {
	Date        string           `json:"date" validate:"required,isodate"`
	Description string           `json:"description" validate:"required,notblank"`
	Amount      decimal.Decimal  `json:"amount"`
	Type        string           `json:"type" validate:"required"`
	Category    string           `json:"category"`
	Balance     *decimal.Decimal `json:"balance"`
}

type transactionPatch struct {
	Date        *string          `json:"date" validate:"omitempty,isodate"`
	Description *string          `json:"description" validate:"omitempty,notblank"`
	Amount      *decimal.Decimal `json:"amount"`
	Type        *string          `json:"type"`
	Category    *string          `json:"category"`
}

// Pagination describes one page of a listing.
type Pagination struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalCount  int  `json:"totalCount"`
	Limit       int  `json:"limit"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

func newPagination(filter repository.TransactionFilter, total int) Pagination {
	pages := (total + filter.Limit - 1) / filter.Limit
	return Pagination{
		CurrentPage: filter.Page,
		TotalPages:  pages,
		TotalCount:  total,
		Limit:       filter.Limit,
		HasNextPage: filter.Page < pages,
		HasPrevPage: filter.Page > 1,
	}
}

// List handles GET /api/transactions.
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := h.filterFromQuery(r)
	if err != nil {
		middleware.WriteDomainError(w, h.log, err)
		return
	}

	txns, total, err := h.repo.List(r.Context(), filter)
	if err != nil {
		middleware.WriteDomainError(w, h.log, fmt.Errorf("list transactions: %w", err))
		return
	}
	if txns == nil {
		txns = []domain.Transaction{}
	}

	middleware.WriteSuccess(w, http.StatusOK, map[string]any{
		"transactions": txns,
		"pagination":   newPagination(filter, total),
	}, "")
}

func (h *TransactionsHandler) filterFromQuery(r *http.Request) (repository.TransactionFilter, error) {
	q := r.URL.Query()
	filter := repository.TransactionFilter{
		UserID:   userID(r),
		Category: q.Get("category"),
	}

	var err error
	if filter.Page, err = queryInt(r, "page"); err != nil {
		return filter, err
	}
	if filter.Limit, err = queryInt(r, "limit"); err != nil {
		return filter, err
	}
	if t := q.Get("type"); t != "" {
		if filter.Direction, err = domain.ParseDirection(t); err != nil {
			return filter, err
		}
	}
	if filter.From, err = optionalDate(r, "startDate"); err != nil {
		return filter, err
	}
	if filter.To, err = optionalDate(r, "endDate"); err != nil {
		return filter, err
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.To.Before(filter.From) {
		return filter, fmt.Errorf("%w: endDate is before startDate", domain.ErrInvalidInput)
	}
	return filter.Normalize(), nil
}

// Get handles GET /api/transactions/{id}.
func (h *TransactionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	tx, err := h.repo.Get(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		middleware.WriteDomainError(w, h.log, err)
		return
	}
	middleware.WriteSuccess(w, http.StatusOK, tx, "")
}

// Create handles POST /api/transactions. An empty category is filled in by
// the categorizer.
func (h *TransactionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeBody(r, &req); err != nil {
		middleware.WriteDomainError(w, h.log, err)
		return
	}

	date, err := parseDate("date", req.Date)
	if err != nil {
		middleware.WriteDomainError(w, h.log, err)
		return
	}
	direction, err := domain.ParseDirection(req.Type)
	if err != nil {
		middleware.WriteDomainError(w, h.log, err)
		return
	}

	tx := domain.Transaction{
		UserID:      userID(r),
		Date:        date,
		Description: strings.TrimSpace(req.Description),
		Amount:      req.Amount,
		Direction:   direction,
		Category:    strings.TrimSpace(req.Category),
		Balance:     req.Balance,
		Source:      domain.SourceManual,
	}
	if tx.Category == "" {
		tx.Category = h.categorizer.Categorize(r.Context(), tx.Description)
	}
	if err := tx.Validate(); err != nil {
		middleware.WriteDomainError(w, h.log, err)
		return
	}

	created, err := h.repo.Insert(r.Context(), tx)
	if err != nil {
		middleware.WriteDomainError(w, h.log, err)
		return
	}
	middleware.WriteSuccess(w, http.StatusCreated, created, "Transaction created successfully")
}

// Update handles PUT /api/transactions/{id}. Only fields present in the
// body change.
func (h *TransactionsHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var patch transactionPatch
	if err := decodeBody(r, &patch); err != nil {
		middleware.WriteDomainError(w, h.log, err)
		return
	}

	tx, err := h.repo.Get(ctx, userID(r), r.PathValue("id"))
	if err != nil {
		middleware.WriteDomainError(w, h.log, err)
		return
	}

	if patch.Date != nil {
		if tx.Date, err = parseDate("date", *patch.Date); err != nil {
			middleware.WriteDomainError(w, h.log, err)
			return
		}
	}
	if patch.Description != nil {
		tx.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Amount != nil {
		tx.Amount = *patch.Amount
	}
	if patch.Type != nil {
		if tx.Direction, err = domain.ParseDirection(*patch.Type); err != nil {
			middleware.WriteDomainError(w, h.log, err)
			return
		}
	}
	if patch.Category != nil {
		tx.Category = strings.TrimSpace(*patch.Category)
		if tx.Category == "" {
			tx.Category = h.categorizer.Categorize(ctx, tx.Description)
		}
	}

	updated, err := h.repo.Update(ctx, *tx)
	if err != nil {
		middleware.WriteDomainError(w, h.log, err)
		return
	}
	middleware.WriteSuccess(w, http.StatusOK, updated, "Transaction updated successfully")
}

// Delete handles DELETE /api/transactions/{id}.
func (h *TransactionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Delete(r.Context(), userID(r), r.PathValue("id")); err != nil {
		middleware.WriteDomainError(w, h.log, err)
		return
	}
	middleware.WriteSuccess(w, http.StatusOK, nil, "Transaction deleted successfully")
}

// Summary handles GET /api/transactions/summary?month=YYYY-MM.
func (h *TransactionsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	month, err := requiredMonth(r)
	if err != nil {
		middleware.WriteDomainError(w, h.log, err)
		return
	}
	prevMonth, err := dates.PreviousMonth(month)
	if err != nil {
		middleware.WriteDomainError(w, h.log, err)
		return
	}
	from, _, _ := dates.MonthBounds(prevMonth)
	_, to, _ := dates.MonthBounds(month)

	txns, err := h.repo.ListRange(ctx, userID(r), from, to)
	if err != nil {
		middleware.WriteDomainError(w, h.log, fmt.Errorf("summary: %w", err))
		return
	}

	prevFrom, prevTo, _ := dates.MonthBounds(prevMonth)
	var previous []domain.Transaction
	for _, t := range txns {
		if dates.InRange(t.Date, prevFrom, prevTo) {
			previous = append(previous, t)
		}
	}

	summary, err := metrics.MonthlySummary(month, txns, metrics.TotalSpending(previous))
	if err != nil {
		middleware.WriteDomainError(w, h.log, err)
		return
	}
	middleware.WriteSuccess(w, http.StatusOK, summary, "")
}
