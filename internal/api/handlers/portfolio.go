package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/dvloznov/spendwise/internal/api/middleware"
	"github.com/dvloznov/spendwise/internal/domain"
	"github.com/dvloznov/spendwise/internal/metrics"
	"github.com/dvloznov/spendwise/internal/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// PortfolioHandler handles investment endpoints.
type PortfolioHandler struct {
	repo repository.InvestmentRepository
	now  func() time.Time
	log  zerolog.Logger
}

// NewPortfolioHandler creates a new portfolio handler.
func NewPortfolioHandler(repo repository.InvestmentRepository, now func() time.Time, log zerolog.Logger) *PortfolioHandler {
	return &PortfolioHandler{repo: repo, now: now, log: log}
}

type investmentRequest struct {
	Name           string          `json:"name" validate:"required,notblank"`
	InitialAmount  decimal.Decimal `json:"initialAmount"`
	CurrentValue   decimal.Decimal `json:"currentValue"`
	InvestmentDate string          `json:"investmentDate" validate:"required,isodate"`
}

func (req investmentRequest) investment(userID string) (domain.Investment, error) {
	date, err := parseDate("investmentDate", req.InvestmentDate)
	if err != nil {
		return domain.Investment{}, err
	}
	inv := domain.Investment{
		UserID:         userID,
		Name:           strings.TrimSpace(req.Name),
		InitialAmount:  req.InitialAmount,
		CurrentValue:   req.CurrentValue,
		InvestmentDate: date,
	}
	return inv, inv.Validate()
}

func (h *PortfolioHandler) report(r *http.Request) (metrics.PortfolioReport, error) {
	invs, err := h.repo.List(r.Context(), userID(r))
	if err != nil {
		return metrics.PortfolioReport{}, err
	}
	return metrics.Portfolio(invs, h.now()), nil
}

// List handles GET /api/portfolio: every holding with gain/loss, CAGR and
// allocation.
func (h *PortfolioHandler) List(w http.ResponseWriter, r *http.Request) {
	report, err := h.report(r)
	if err != nil {
		middleware.WriteDomainError(w, h.log, err)
		return
	}
	middleware.WriteSuccess(w, http.StatusOK, report.Holdings, "")
}

// Summary handles GET /api/portfolio/summary.
func (h *PortfolioHandler) Summary(w http.ResponseWriter, r *http.Request) {
	report, err := h.report(r)
	if err != nil {
		middleware.WriteDomainError(w, h.log, err)
		return
	}
	middleware.WriteSuccess(w, http.StatusOK, report, "")
}

// Get handles GET /api/portfolio/{id}.
func (h *PortfolioHandler) Get(w http.ResponseWriter, r *http.Request) {
	inv, err := h.repo.Get(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		middleware.WriteDomainError(w, h.log, err)
		return
	}
	middleware.WriteSuccess(w, http.StatusOK, inv, "")
}

// Create handles POST /api/portfolio.
func (h *PortfolioHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req investmentRequest
	if err := decodeBody(r, &req); err != nil {
		middleware.WriteDomainError(w, h.log, err)
		return
	}
	inv, err := req.investment(userID(r))
	if err != nil {
		middleware.WriteDomainError(w, h.log, err)
		return
	}
	created, err := h.repo.Create(r.Context(), inv)
	if err != nil {
		middleware.WriteDomainError(w, h.log, err)
		return
	}
	middleware.WriteSuccess(w, http.StatusCreated, created, "Investment created successfully")
}

// Update handles PUT /api/portfolio/{id}.
func (h *PortfolioHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req investmentRequest
	if err := decodeBody(r, &req); err != nil {
		middleware.WriteDomainError(w, h.log, err)
		return
	}
	inv, err := req.investment(userID(r))
	if err != nil {
		middleware.WriteDomainError(w, h.log, err)
		return
	}
	inv.ID = r.PathValue("id")

	updated, err := h.repo.Update(r.Context(), inv)
	if err != nil {
		middleware.WriteDomainError(w, h.log, err)
		return
	}
	middleware.WriteSuccess(w, http.StatusOK, updated, "Investment updated successfully")
}

// Delete handles DELETE /api/portfolio/{id}.
func (h *PortfolioHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Delete(r.Context(), userID(r), r.PathValue("id")); err != nil {
		middleware.WriteDomainError(w, h.log, err)
		return
	}
	middleware.WriteSuccess(w, http.StatusOK, nil, "Investment deleted successfully")
}
