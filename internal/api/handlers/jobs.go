package handlers

import (
	"fmt"
	"net/http"

	"github.com/dvloznov/spendwise/internal/api/middleware"
	"github.com/dvloznov/spendwise/internal/domain"
	"github.com/dvloznov/spendwise/internal/jobs"
	"github.com/rs/zerolog"
)

// JobsHandler handles job-related endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler. A nil store answers every
// lookup with 404.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		store: store,
		log:   log,
	}
}

// GetJob handles GET /api/jobs/{id}. Jobs of other users are reported as
// missing.
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	notFound := fmt.Errorf("job %s: %w", jobID, domain.ErrNotFound)
	if h.store == nil {
		middleware.WriteDomainError(w, h.log, notFound)
		return
	}

	job, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		middleware.WriteDomainError(w, h.log, err)
		return
	}
	if job.UserID != userID(r) {
		middleware.WriteDomainError(w, h.log, notFound)
		return
	}
	middleware.WriteSuccess(w, http.StatusOK, job, "")
}

// ListJobs handles GET /api/jobs.
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		middleware.WriteSuccess(w, http.StatusOK, map[string]any{"jobs": []*jobs.ImportStatementJob{}, "count": 0}, "")
		return
	}

	filter := jobs.JobFilter{
		UserID: userID(r),
		Status: jobs.JobStatus(r.URL.Query().Get("status")),
	}
	var err error
	if filter.Limit, err = queryInt(r, "limit"); err != nil {
		middleware.WriteDomainError(w, h.log, err)
		return
	}
	if filter.Offset, err = queryInt(r, "offset"); err != nil {
		middleware.WriteDomainError(w, h.log, err)
		return
	}

	list, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		middleware.WriteDomainError(w, h.log, fmt.Errorf("list jobs: %w", err))
		return
	}
	middleware.WriteSuccess(w, http.StatusOK, map[string]any{
		"jobs":  list,
		"count": len(list),
	}, "")
}
