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

// upcomingDays is the window of the upcoming renewals list.
const upcomingDays = 7

// SubscriptionsHandler handles subscription endpoints.
type SubscriptionsHandler struct {
	repo repository.SubscriptionRepository
	now  func() time.Time
	log  zerolog.Logger
}

// NewSubscriptionsHandler creates a new subscriptions handler.
func NewSubscriptionsHandler(repo repository.SubscriptionRepository, now func() time.Time, log zerolog.Logger) *SubscriptionsHandler {
	return &SubscriptionsHandler{repo: repo, now: now, log: log}
}

// subscriptionRequest accepts "cycle" as an alias of "billingCycle".
type subscriptionRequest struct {
	Name         string          `json:"name" validate:"required,notblank"`
	Amount       decimal.Decimal `json:"amount"`
	BillingCycle string          `json:"billingCycle" validate:"omitempty,oneof=monthly yearly"`
	Cycle        string          `json:"cycle" validate:"omitempty,oneof=monthly yearly"`
	StartDate    string          `json:"startDate" validate:"required,isodate"`
}

func (req subscriptionRequest) subscription(userID string) (domain.Subscription, error) {
	start, err := parseDate("startDate", req.StartDate)
	if err != nil {
		return domain.Subscription{}, err
	}
	cycle := req.BillingCycle
	if cycle == "" {
		cycle = req.Cycle
	}
	s := domain.Subscription{
		UserID:    userID,
		Name:      strings.TrimSpace(req.Name),
		Amount:    req.Amount,
		Cycle:     domain.Cycle(cycle),
		StartDate: start,
	}
	return s, s.Validate()
}

// List handles GET /api/subscriptions. Subscriptions come ordered by next
// renewal, with the monthly cost and the renewals due within a week.
func (h *SubscriptionsHandler) List(w http.ResponseWriter, r *http.Request) {
	subs, err := h.repo.List(r.Context(), userID(r))
	if err != nil {
		middleware.WriteDomainError(w, h.log, err)
		return
	}
	if subs == nil {
		subs = []domain.Subscription{}
	}
	upcoming := metrics.UpcomingRenewals(subs, h.now(), upcomingDays)
	if upcoming == nil {
		upcoming = []domain.Subscription{}
	}

	middleware.WriteSuccess(w, http.StatusOK, map[string]any{
		"subscriptions":    subs,
		"monthlyCost":      metrics.MonthlyCost(subs),
		"upcomingRenewals": upcoming,
	}, "")
}

// Get handles GET /api/subscriptions/{id}.
func (h *SubscriptionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.repo.Get(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		middleware.WriteDomainError(w, h.log, err)
		return
	}
	middleware.WriteSuccess(w, http.StatusOK, s, "")
}

// Create handles POST /api/subscriptions.
func (h *SubscriptionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req subscriptionRequest
	if err := decodeBody(r, &req); err != nil {
		middleware.WriteDomainError(w, h.log, err)
		return
	}
	s, err := req.subscription(userID(r))
	if err != nil {
		middleware.WriteDomainError(w, h.log, err)
		return
	}
	created, err := h.repo.Create(r.Context(), s)
	if err != nil {
		middleware.WriteDomainError(w, h.log, err)
		return
	}
	middleware.WriteSuccess(w, http.StatusCreated, created, "Subscription created successfully")
}

// Update handles PUT /api/subscriptions/{id}.
func (h *SubscriptionsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req subscriptionRequest
	if err := decodeBody(r, &req); err != nil {
		middleware.WriteDomainError(w, h.log, err)
		return
	}
	s, err := req.subscription(userID(r))
	if err != nil {
		middleware.WriteDomainError(w, h.log, err)
		return
	}
	s.ID = r.PathValue("id")

	updated, err := h.repo.Update(r.Context(), s)
	if err != nil {
		middleware.WriteDomainError(w, h.log, err)
		return
	}
	middleware.WriteSuccess(w, http.StatusOK, updated, "Subscription updated successfully")
}

// Delete handles DELETE /api/subscriptions/{id}.
func (h *SubscriptionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Delete(r.Context(), userID(r), r.PathValue("id")); err != nil {
		middleware.WriteDomainError(w, h.log, err)
		return
	}
	middleware.WriteSuccess(w, http.StatusOK, nil, "Subscription deleted successfully")
}
