/*
handlers.go - HTTP API handlers for the overtime allowance calculator

PURPOSE:
  Exposes the allowance engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the domain packages.

ENDPOINTS:
  Health:
    GET    /api/health                     Liveness and database check

  Rate tables:
    GET    /api/rate-tables                List presets and stored tables
    POST   /api/rate-tables                Create or replace a table from JSON
    GET    /api/rate-tables/{id}           Full table document
    POST   /api/rate-tables/defaults       Store the built-in presets

  Calculation:
    POST   /api/calculate                  One-shot calculation
    POST   /api/calculate/pdf              Same, rendered as a PDF payslip

  Preferences:
    GET    /api/preferences                Theme and rank
    PUT    /api/preferences/{key}          Set one preference

  Forms: see forms.go

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Rate tables and preferences (SQLite)
  - Forms: In-memory form sessions
  - Cached rate tables, seeded with the presets, keyed by id

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: No input, missing rank, invalid body or rate table (with a code)
  - 404: Rate table or form not found
  - 500: Internal errors

  Inputs that are negative, fractional or not numbers never fail a
  request; they are treated as zero and listed in "notices".

SEE ALSO:
  - dto.go: Request/response data structures
  - forms.go: Form session endpoints
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/warp/overtime-engine/allowance"
	"github.com/warp/overtime-engine/collector"
	"github.com/warp/overtime-engine/factory"
	"github.com/warp/overtime-engine/logging"
	"github.com/warp/overtime-engine/preference"
	"github.com/warp/overtime-engine/render"
	"github.com/warp/overtime-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Options configures a Handler.
type Options struct {
	// DefaultTableID selects the table used when a request names none.
	DefaultTableID string
	// DefaultTable, when set, is registered and used as the default
	// (for example a document loaded from engine.rate_table_file). Stored
	// or seeded documents with the same id are kept in the database but
	// never replace it in memory.
	DefaultTable *allowance.RateTable
	Locale       string
	FormTTL      time.Duration
	Logger       *slog.Logger
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store *sqlite.Store
	Forms *FormRegistry

	defaultTable string
	pinnedTable  string // id of Options.DefaultTable; stored copies never replace it
	formatter    *allowance.CurrencyFormatter
	logger       *slog.Logger

	mu        sync.RWMutex
	tables    map[string]*allowance.RateTable
	revisions map[string]int
}

// NewHandler creates a handler with the presets cached.
func NewHandler(store *sqlite.Store, opts Options) (*Handler, error) {
	formatter, err := allowance.NewCurrencyFormatterFor(opts.Locale)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	h := &Handler{
		Store:        store,
		Forms:        NewFormRegistry(opts.FormTTL),
		defaultTable: opts.DefaultTableID,
		formatter:    formatter,
		logger:       logging.Component(logger, logging.ComponentAPI),
		tables:       make(map[string]*allowance.RateTable),
		revisions:    make(map[string]int),
	}

	for _, id := range factory.PresetIDs() {
		h.tables[id] = factory.MustPreset(id)
	}
	if opts.DefaultTable != nil {
		h.tables[opts.DefaultTable.ID] = opts.DefaultTable
		h.defaultTable = opts.DefaultTable.ID
		h.pinnedTable = opts.DefaultTable.ID
	}
	if h.defaultTable == "" {
		h.defaultTable = factory.DefaultPreset
	}

	return h, nil
}

// LoadRateTables loads all stored rate tables into the cache.
// Stored documents replace presets with the same id, but never the table
// passed as Options.DefaultTable.
func (h *Handler) LoadRateTables(ctx context.Context) error {
	records, err := h.Store.ListRateTables(ctx)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, r := range records {
		if r.ID == h.pinnedTable {
			continue
		}
		table, err := factory.ParseRateTable(r.ConfigJSON)
		if err != nil {
			h.logger.Warn("skipping invalid stored rate table", "rate_table", r.ID, logging.FieldError, err)
			continue
		}
		h.tables[table.ID] = table
		h.revisions[table.ID] = r.Revision
	}
	return nil
}

// SeedDefaults stores every preset that is not stored yet and returns how
// many were written.
func (h *Handler) SeedDefaults(ctx context.Context) (int, error) {
	created := 0
	for _, id := range factory.PresetIDs() {
		existing, err := h.Store.GetRateTable(ctx, id)
		if err != nil {
			return created, err
		}
		if existing != nil {
			continue
		}
		if err := h.saveRateTable(ctx, factory.MustPreset(id)); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// DefaultRateTable resolves the configured default table.
func (h *Handler) DefaultRateTable(ctx context.Context) (*allowance.RateTable, error) {
	return h.rateTable(ctx, "")
}

// rateTable returns a cached table, falling back to the store.
// An empty id selects the default.
func (h *Handler) rateTable(ctx context.Context, id string) (*allowance.RateTable, error) {
	if id == "" {
		id = h.defaultTable
	}

	h.mu.RLock()
	table, ok := h.tables[id]
	h.mu.RUnlock()
	if ok {
		return table, nil
	}

	record, err := h.Store.GetRateTable(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load rate table %s: %w", id, err)
	}
	if record == nil {
		return nil, fmt.Errorf("%w: %q", allowance.ErrRateTableNotFound, id)
	}

	table, err = factory.ParseRateTable(record.ConfigJSON)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	h.tables[table.ID] = table
	h.revisions[table.ID] = record.Revision
	h.mu.Unlock()
	return table, nil
}

func (h *Handler) saveRateTable(ctx context.Context, table *allowance.RateTable) error {
	doc, err := factory.MarshalRateTable(table)
	if err != nil {
		return err
	}

	record := sqlite.RateTableRecord{
		ID:         table.ID,
		Name:       table.Name,
		Version:    table.Version,
		ConfigJSON: doc,
	}
	if err := h.Store.SaveRateTable(ctx, record); err != nil {
		return err
	}

	revision := 1
	if stored, err := h.Store.GetRateTable(ctx, table.ID); err == nil && stored != nil {
		revision = stored.Revision
	}

	h.mu.Lock()
	if table.ID != h.pinnedTable {
		h.tables[table.ID] = table
	}
	h.revisions[table.ID] = revision
	h.mu.Unlock()
	return nil
}

func (h *Handler) preferences(ctx context.Context) (*preference.Service, error) {
	table, err := h.DefaultRateTable(ctx)
	if err != nil {
		return nil, err
	}
	return preference.NewService(h.Store, table), nil
}

// rememberRank stores the last used rank when it belongs to the default table.
func (h *Handler) rememberRank(ctx context.Context, table *allowance.RateTable, rank string) {
	if rank == "" || table.ID != h.defaultTable {
		return
	}
	svc := preference.NewService(h.Store, table)
	if err := svc.Set(ctx, preference.KeyRank, rank); err != nil {
		h.logger.Warn("failed to remember rank", "rank", rank, logging.FieldError, err)
	}
}

// =============================================================================
// HEALTH
// =============================================================================

// Health reports liveness.
// GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Database unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"rate_table": h.defaultTable,
		"forms":      h.Forms.Len(),
	})
}

// =============================================================================
// RATE TABLE HANDLERS
// =============================================================================

// ListRateTables returns presets and stored tables.
// GET /api/rate-tables
func (h *Handler) ListRateTables(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.ListRateTables(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list rate tables", err)
		return
	}
	for _, rec := range records {
		if _, err := h.rateTable(r.Context(), rec.ID); err != nil {
			h.logger.Warn("skipping unreadable rate table", "rate_table", rec.ID, logging.FieldError, err)
		}
	}

	h.mu.RLock()
	dtos := make([]RateTableSummaryDTO, 0, len(h.tables))
	for id, table := range h.tables {
		dtos = append(dtos, toSummaryDTO(table, h.revisions[id], id == h.defaultTable))
	}
	h.mu.RUnlock()

	sort.Slice(dtos, func(i, j int) bool {
		if dtos[i].Version != dtos[j].Version {
			return dtos[i].Version < dtos[j].Version
		}
		return dtos[i].ID < dtos[j].ID
	})

	writeJSON(w, http.StatusOK, dtos)
}

// GetRateTable returns a single rate table document.
// GET /api/rate-tables/{id}
func (h *Handler) GetRateTable(w http.ResponseWriter, r *http.Request) {
	table, err := h.rateTable(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.mu.RLock()
	revision := h.revisions[table.ID]
	h.mu.RUnlock()

	writeJSON(w, http.StatusOK, RateTableDTO{
		RateTableJSON: factory.ToJSON(table),
		Revision:      revision,
		Default:       table.ID == h.defaultTable,
	})
}

// CreateRateTable validates and stores a rate table document.
// POST /api/rate-tables
func (h *Handler) CreateRateTable(w http.ResponseWriter, r *http.Request) {
	var doc factory.RateTableJSON
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeErrorCode(w, http.StatusBadRequest, CodeInvalidBody, "Invalid request body", err)
		return
	}

	// Validate by parsing
	table, err := factory.FromJSON(doc)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	if err := h.saveRateTable(r.Context(), table); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save rate table", err)
		return
	}
	h.logger.Info("rate table saved", "rate_table", table.ID, "version", table.Version)

	h.mu.RLock()
	revision := h.revisions[table.ID]
	h.mu.RUnlock()

	writeJSON(w, http.StatusCreated, RateTableDTO{
		RateTableJSON: factory.ToJSON(table),
		Revision:      revision,
		Default:       table.ID == h.defaultTable,
	})
}

// SeedDefaultRateTables stores the built-in presets.
// POST /api/rate-tables/defaults
func (h *Handler) SeedDefaultRateTables(w http.ResponseWriter, r *http.Request) {
	count, err := h.SeedDefaults(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to store default rate tables", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"status": "created",
		"count":  count,
	})
}

// =============================================================================
// CALCULATION HANDLERS
// =============================================================================

// Calculate runs a one-shot calculation.
// POST /api/calculate
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	table, result, notices, ok := h.calculate(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.toCalculation(table, result, notices))
}

// CalculatePDF runs a calculation and returns the breakdown as a PDF.
// POST /api/calculate/pdf
func (h *Handler) CalculatePDF(w http.ResponseWriter, r *http.Request) {
	table, result, _, ok := h.calculate(w, r)
	if !ok {
		return
	}

	b := render.NewBreakdown(result, h.formatter, table.CurrencySymbol)
	data, err := render.PDFBytes(b, render.PayslipMeta{
		Title:        table.Name,
		CurrencyCode: table.CurrencyCode,
		GeneratedAt:  time.Now(),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to render PDF", err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="overtime-%s.pdf"`, table.ID))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *Handler) calculate(w http.ResponseWriter, r *http.Request) (*allowance.RateTable, *allowance.Result, []*allowance.InvalidCountError, bool) {
	var req CalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorCode(w, http.StatusBadRequest, CodeInvalidBody, "Invalid request body", err)
		return nil, nil, nil, false
	}

	table, err := h.rateTable(r.Context(), req.RateTable)
	if err != nil {
		h.writeDomainError(w, err)
		return nil, nil, nil, false
	}

	counts, notices := collector.Coerce(table, req.Inputs)
	result, err := allowance.Calculate(table, counts, req.Rank)
	if err != nil {
		h.writeDomainError(w, err)
		return nil, nil, nil, false
	}
	h.rememberRank(r.Context(), table, result.Rank)

	return table, result, notices, true
}

func (h *Handler) toCalculation(table *allowance.RateTable, result *allowance.Result, notices []*allowance.InvalidCountError) CalculationDTO {
	b := render.NewBreakdown(result, h.formatter, table.CurrencySymbol)
	return toCalculationDTO(result, b, notices)
}

// =============================================================================
// PREFERENCE HANDLERS
// =============================================================================

// GetPreferences returns every preference with defaults filled in.
// GET /api/preferences
func (h *Handler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	svc, err := h.preferences(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	prefs, err := svc.All(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get preferences", err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

// SetPreference stores one preference.
// PUT /api/preferences/{key}
func (h *Handler) SetPreference(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var req SetPreferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorCode(w, http.StatusBadRequest, CodeInvalidBody, "Invalid request body", err)
		return
	}

	svc, err := h.preferences(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if err := svc.Set(r.Context(), key, req.Value); err != nil {
		h.writeDomainError(w, err)
		return
	}

	value, err := svc.Get(r.Context(), key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read preference", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"key": key, "value": value})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	writeErrorCode(w, status, "", message, err)
}

func writeErrorCode(w http.ResponseWriter, status int, code, message string, err error) {
	resp := ErrorResponse{Error: message, Code: code}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps domain errors to HTTP statuses.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	var noInput *allowance.NoInputError
	var missingRank *allowance.MissingRankError

	switch {
	case errors.As(err, &noInput):
		writeErrorCode(w, http.StatusBadRequest, CodeNoInput, noInput.Error(), nil)
	case errors.As(err, &missingRank):
		writeErrorCode(w, http.StatusBadRequest, CodeMissingRank, "Rank required", missingRank)
	case allowance.IsNotFound(err):
		writeErrorCode(w, http.StatusNotFound, CodeTableNotFound, "Rate table not found", err)
	case errors.Is(err, allowance.ErrInvalidRateTable):
		writeErrorCode(w, http.StatusBadRequest, CodeInvalidTable, "Invalid rate table", err)
	case preference.IsClientError(err):
		writeErrorCode(w, http.StatusBadRequest, CodeInvalidPref, "Invalid preference", err)
	default:
		h.logger.Error("request failed", logging.FieldError, err)
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}
