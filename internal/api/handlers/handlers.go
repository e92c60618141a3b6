// Package handlers implements the HTTP API. Every handler reads the user
// from the request context set by middleware.Auth.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/spendwise/internal/api/middleware"
	"github.com/dvloznov/spendwise/internal/archive"
	"github.com/dvloznov/spendwise/internal/categorizer"
	"github.com/dvloznov/spendwise/internal/dates"
	"github.com/dvloznov/spendwise/internal/domain"
	"github.com/dvloznov/spendwise/internal/importer"
	"github.com/dvloznov/spendwise/internal/jobs"
	"github.com/dvloznov/spendwise/internal/repository"
	"github.com/dvloznov/spendwise/internal/rules"
	"github.com/dvloznov/spendwise/internal/validation"
	"github.com/rs/zerolog"
)

// Deps holds everything the API needs. Archive, Publisher and JobStore may
// be nil, which disables async imports.
type Deps struct {
	Transactions  repository.TransactionRepository
	Budgets       repository.BudgetRepository
	Investments   repository.InvestmentRepository
	Subscriptions repository.SubscriptionRepository
	Rules         rules.Store
	Categorizer   *categorizer.Categorizer
	Importer      *importer.Importer
	Archive       archive.Archive
	Publisher     jobs.Publisher
	JobStore      jobs.JobStore

	MaxUploadBytes int64
	Now            func() time.Time
	Log            zerolog.Logger
}

// NewRouter registers every endpoint on a new ServeMux.
func NewRouter(d Deps) *http.ServeMux {
	if d.Now == nil {
		d.Now = time.Now
	}

	txns := NewTransactionsHandler(d.Transactions, d.Categorizer, d.Log)
	imports := NewImportHandler(d.Importer, d.Archive, d.Publisher, d.MaxUploadBytes, d.Log)
	jobsH := NewJobsHandler(d.JobStore, d.Log)
	budget := NewBudgetHandler(d.Budgets, d.Transactions, d.Log)
	rulesH := NewRulesHandler(d.Rules, d.Categorizer, d.Log)
	subs := NewSubscriptionsHandler(d.Subscriptions, d.Now, d.Log)
	portfolio := NewPortfolioHandler(d.Investments, d.Now, d.Log)
	dashboard := NewDashboardHandler(d.Transactions, d.Now, d.Log)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteSuccess(w, http.StatusOK, map[string]string{"status": "healthy"}, "")
	})

	mux.HandleFunc("GET /api/transactions", txns.List)
	mux.HandleFunc("POST /api/transactions", txns.Create)
	mux.HandleFunc("GET /api/transactions/summary", txns.Summary)
	mux.HandleFunc("POST /api/transactions/import", imports.Import)
	mux.HandleFunc("GET /api/transactions/{id}", txns.Get)
	mux.HandleFunc("PUT /api/transactions/{id}", txns.Update)
	mux.HandleFunc("DELETE /api/transactions/{id}", txns.Delete)

	mux.HandleFunc("GET /api/jobs", jobsH.ListJobs)
	mux.HandleFunc("GET /api/jobs/{id}", jobsH.GetJob)

	mux.HandleFunc("POST /api/budget", budget.Upsert)
	mux.HandleFunc("GET /api/budget", budget.Status)

	mux.HandleFunc("GET /api/category-rules", rulesH.List)
	mux.HandleFunc("POST /api/category-rules", rulesH.Create)
	mux.HandleFunc("POST /api/category-rules/test", rulesH.Test)
	mux.HandleFunc("GET /api/category-rules/{id}", rulesH.Get)
	mux.HandleFunc("PUT /api/category-rules/{id}", rulesH.Update)
	mux.HandleFunc("DELETE /api/category-rules/{id}", rulesH.Delete)

	mux.HandleFunc("GET /api/subscriptions", subs.List)
	mux.HandleFunc("POST /api/subscriptions", subs.Create)
	mux.HandleFunc("GET /api/subscriptions/{id}", subs.Get)
	mux.HandleFunc("PUT /api/subscriptions/{id}", subs.Update)
	mux.HandleFunc("DELETE /api/subscriptions/{id}", subs.Delete)

	mux.HandleFunc("GET /api/portfolio", portfolio.List)
	mux.HandleFunc("POST /api/portfolio", portfolio.Create)
	mux.HandleFunc("GET /api/portfolio/summary", portfolio.Summary)
	mux.HandleFunc("GET /api/portfolio/{id}", portfolio.Get)
	mux.HandleFunc("PUT /api/portfolio/{id}", portfolio.Update)
	mux.HandleFunc("DELETE /api/portfolio/{id}", portfolio.Delete)

	mux.HandleFunc("GET /api/dashboard/category-spending", dashboard.CategorySpending)
	mux.HandleFunc("GET /api/dashboard/monthly-trends", dashboard.MonthlyTrends)
	mux.HandleFunc("GET /api/dashboard/income-expense", dashboard.IncomeExpense)

	return mux
}

// decodeBody decodes a JSON body into dst and validates it.
func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", domain.ErrInvalidInput)
		}
		return fmt.Errorf("%w: invalid request body: %v", domain.ErrInvalidInput, err)
	}
	return validation.Struct(dst)
}

// parseDate parses a YYYY-MM-DD value.
func parseDate(field, s string) (civil.Date, error) {
	d, err := civil.ParseDate(s)
	if err != nil {
		return civil.Date{}, fmt.Errorf("%w: %s must be YYYY-MM-DD", domain.ErrInvalidInput, field)
	}
	return d, nil
}

// optionalDate parses a query date; empty yields the zero date.
func optionalDate(r *http.Request, name string) (civil.Date, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return civil.Date{}, nil
	}
	return parseDate(name, s)
}

// requiredMonth reads the month query parameter.
func requiredMonth(r *http.Request) (string, error) {
	month := r.URL.Query().Get("month")
	if month == "" {
		return "", fmt.Errorf("%w: month parameter is required (format: YYYY-MM)", domain.ErrInvalidInput)
	}
	if _, err := dates.ParseMonth(month); err != nil {
		return "", err
	}
	return month, nil
}

// queryInt reads a positive integer query parameter, 0 when absent.
func queryInt(r *http.Request, name string) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", domain.ErrInvalidInput, name)
	}
	return n, nil
}

func userID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}
