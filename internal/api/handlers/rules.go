package handlers

import (
	"net/http"

	"github.com/dvloznov/spendwise/internal/api/middleware"
	"github.com/dvloznov/spendwise/internal/categorizer"
	"github.com/dvloznov/spendwise/internal/domain"
	"github.com/dvloznov/spendwise/internal/rules"
	"github.com/rs/zerolog"
)

// RulesHandler handles the category rule endpoints.
type RulesHandler struct {
	store       rules.Store
	categorizer *categorizer.Categorizer
	log         zerolog.Logger
}

// NewRulesHandler creates a new rules handler.
func NewRulesHandler(store rules.Store, c *categorizer.Categorizer, log zerolog.Logger) *RulesHandler {
	return &RulesHandler{store: store, categorizer: c, log: log}
}

type ruleRequest struct {
	Keyword  string `json:"keyword" validate:"required,notblank"`
	Category string `json:"category" validate:"required,notblank"`
	Priority int    `json:"priority" validate:"gte=0"`
}

func (req ruleRequest) rule() domain.CategoryRule {
	return domain.CategoryRule{Keyword: req.Keyword, Category: req.Category, Priority: req.Priority}
}

// List handles GET /api/category-rules.
func (h *RulesHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.List(r.Context())
	if err != nil {
		middleware.WriteDomainError(w, h.log, err)
		return
	}
	if list == nil {
		list = []domain.CategoryRule{}
	}
	middleware.WriteSuccess(w, http.StatusOK, list, "")
}

// Get handles GET /api/category-rules/{id}.
func (h *RulesHandler) Get(w http.ResponseWriter, r *http.Request) {
	rule, err := h.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		middleware.WriteDomainError(w, h.log, err)
		return
	}
	middleware.WriteSuccess(w, http.StatusOK, rule, "")
}

// Create handles POST /api/category-rules. A keyword that exists already
// yields 409.
func (h *RulesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ruleRequest
	if err := decodeBody(r, &req); err != nil {
		middleware.WriteDomainError(w, h.log, err)
		return
	}
	created, err := h.store.Create(r.Context(), req.rule())
	if err != nil {
		middleware.WriteDomainError(w, h.log, err)
		return
	}
	middleware.WriteSuccess(w, http.StatusCreated, created, "Category rule created successfully")
}

// Update handles PUT /api/category-rules/{id}.
func (h *RulesHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req ruleRequest
	if err := decodeBody(r, &req); err != nil {
		middleware.WriteDomainError(w, h.log, err)
		return
	}
	rule := req.rule()
	rule.ID = r.PathValue("id")

	updated, err := h.store.Update(r.Context(), rule)
	if err != nil {
		middleware.WriteDomainError(w, h.log, err)
		return
	}
	middleware.WriteSuccess(w, http.StatusOK, updated, "Category rule updated successfully")
}

// Delete handles DELETE /api/category-rules/{id}.
func (h *RulesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), r.PathValue("id")); err != nil {
		middleware.WriteDomainError(w, h.log, err)
		return
	}
	middleware.WriteSuccess(w, http.StatusOK, nil, "Category rule deleted successfully")
}

// Test handles POST /api/category-rules/test and reports the category the
// current rules assign to a description.
func (h *RulesHandler) Test(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Description string `json:"description" validate:"required,notblank"`
	}
	if err := decodeBody(r, &req); err != nil {
		middleware.WriteDomainError(w, h.log, err)
		return
	}
	middleware.WriteSuccess(w, http.StatusOK, map[string]string{
		"description": req.Description,
		"category":    h.categorizer.Categorize(r.Context(), req.Description),
	}, "")
}
