/*
forms.go - Server-side form sessions

PURPOSE:
  Holds collector.Form instances for clients that want the server to own
  field mirroring (PATCH one field, get back every field that changed).
  Sessions are keyed by a random UUID and expire after an idle TTL.

LIFECYCLE:
  POST   /api/forms                 Create (optionally for a given rate table)
  GET    /api/forms/{id}            Read fields and mirroring state
  PATCH  /api/forms/{id}            Edit one field
  POST   /api/forms/{id}/reset      Clear fields, re-enable mirroring
  POST   /api/forms/{id}/calculate  Calculate current values
  DELETE /api/forms/{id}            Drop the session

  Every successful access refreshes the idle deadline. FormSweeper drops
  expired sessions in the background; Get also refuses expired sessions so
  the TTL holds even between sweeps.

SEE ALSO:
  - collector/form.go: Mirroring rules
  - handlers.go: Calculation and error mapping shared with /api/calculate
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/warp/overtime-engine/allowance"
	"github.com/warp/overtime-engine/collector"
)

// DefaultFormTTL is used when the registry is built with a zero TTL.
const DefaultFormTTL = 30 * time.Minute

type formSession struct {
	form     *collector.Form
	lastUsed time.Time
}

// FormRegistry stores form sessions by id.
type FormRegistry struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*formSession
	now      func() time.Time
}

func NewFormRegistry(ttl time.Duration) *FormRegistry {
	if ttl <= 0 {
		ttl = DefaultFormTTL
	}
	return &FormRegistry{
		ttl:      ttl,
		sessions: make(map[string]*formSession),
		now:      time.Now,
	}
}

// Create opens a session for table and returns its id.
func (r *FormRegistry) Create(table *allowance.RateTable) (string, *collector.Form) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.NewString()
	form := collector.NewForm(table)
	r.sessions[id] = &formSession{form: form, lastUsed: r.now()}
	return id, form
}

// Get returns a live session and refreshes its deadline.
func (r *FormRegistry) Get(id string) (*collector.Form, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	now := r.now()
	if now.Sub(s.lastUsed) > r.ttl {
		delete(r.sessions, id)
		return nil, false
	}
	s.lastUsed = now
	return s.form, true
}

// ExpiresAt returns when the session will expire if left idle.
func (r *FormRegistry) ExpiresAt(id string) time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok {
		return s.lastUsed.Add(r.ttl)
	}
	return time.Time{}
}

// Delete removes a session. It reports whether the session existed.
func (r *FormRegistry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.sessions[id]
	delete(r.sessions, id)
	return ok
}

// Len returns the number of stored sessions, expired or not.
func (r *FormRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops expired sessions and returns how many were removed.
func (r *FormRegistry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	removed := 0
	for id, s := range r.sessions {
		if now.Sub(s.lastUsed) > r.ttl {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// =============================================================================
// FORM HANDLERS
// =============================================================================

// CreateForm opens a form session.
// POST /api/forms
func (h *Handler) CreateForm(w http.ResponseWriter, r *http.Request) {
	var req CreateFormRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErrorCode(w, http.StatusBadRequest, CodeInvalidBody, "Invalid request body", err)
			return
		}
	}

	table, err := h.rateTable(r.Context(), req.RateTable)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	id, form := h.Forms.Create(table)
	h.logger.Debug("form created", "form_id", id, "rate_table", table.ID)
	writeJSON(w, http.StatusCreated, h.toFormDTO(id, form, nil))
}

// GetForm returns a form session.
// GET /api/forms/{id}
func (h *Handler) GetForm(w http.ResponseWriter, r *http.Request) {
	id, form, ok := h.lookupForm(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.toFormDTO(id, form, nil))
}

// UpdateFormField edits one field and reports every field that changed.
// PATCH /api/forms/{id}
func (h *Handler) UpdateFormField(w http.ResponseWriter, r *http.Request) {
	id, form, ok := h.lookupForm(w, r)
	if !ok {
		return
	}

	var req UpdateFieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorCode(w, http.StatusBadRequest, CodeInvalidBody, "Invalid request body", err)
		return
	}

	changed, err := form.Set(req.Category, req.Value)
	if errors.Is(err, collector.ErrUnknownCategory) {
		writeErrorCode(w, http.StatusBadRequest, CodeUnknownField, "Unknown category", err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update form", err)
		return
	}

	writeJSON(w, http.StatusOK, h.toFormDTO(id, form, changed))
}

// ResetForm clears a form session.
// POST /api/forms/{id}/reset
func (h *Handler) ResetForm(w http.ResponseWriter, r *http.Request) {
	id, form, ok := h.lookupForm(w, r)
	if !ok {
		return
	}
	form.Reset()
	writeJSON(w, http.StatusOK, h.toFormDTO(id, form, nil))
}

// CalculateForm calculates a form session's current values.
// POST /api/forms/{id}/calculate
func (h *Handler) CalculateForm(w http.ResponseWriter, r *http.Request) {
	_, form, ok := h.lookupForm(w, r)
	if !ok {
		return
	}

	var req FormCalculateRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErrorCode(w, http.StatusBadRequest, CodeInvalidBody, "Invalid request body", err)
			return
		}
	}

	result, notices, err := form.Calculate(req.Rank)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.rememberRank(r.Context(), form.Table(), result.Rank)

	writeJSON(w, http.StatusOK, h.toCalculation(form.Table(), result, notices))
}

// DeleteForm drops a form session.
// DELETE /api/forms/{id}
func (h *Handler) DeleteForm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.Forms.Delete(id) {
		writeErrorCode(w, http.StatusNotFound, CodeFormNotFound, "Form not found", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) lookupForm(w http.ResponseWriter, r *http.Request) (string, *collector.Form, bool) {
	id := chi.URLParam(r, "id")
	form, ok := h.Forms.Get(id)
	if !ok {
		writeErrorCode(w, http.StatusNotFound, CodeFormNotFound, "Form not found", nil)
		return "", nil, false
	}
	return id, form, true
}

func (h *Handler) toFormDTO(id string, form *collector.Form, changed []string) FormDTO {
	table := form.Table()

	sources := make(map[string]string)
	for _, m := range table.Mirrors() {
		sources[m.Target] = m.Source
	}

	categories := table.Categories()
	fields := make([]FormFieldDTO, len(categories))
	for i, c := range categories {
		fields[i] = FormFieldDTO{
			Category:      c.Name,
			Unit:          string(c.Unit),
			RankDependent: c.Rate.IsRankDependent(),
			Value:         form.Value(c.Name),
			MirroredFrom:  sources[c.Name],
			Mirroring:     form.Mirroring(c.Name),
		}
	}

	return FormDTO{
		ID:        id,
		RateTable: table.ID,
		Ranks:     rankNames(table),
		Fields:    fields,
		Changed:   changed,
		ExpiresAt: h.Forms.ExpiresAt(id),
	}
}
