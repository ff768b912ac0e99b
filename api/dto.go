/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the allowance domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Rate tables:
    RateTableDTO (wraps factory.RateTableJSON), RateTableSummaryDTO

  Calculation:
    CalculateRequest, CalculationDTO, LineItemDTO, NoticeDTO

  Forms:
    FormDTO, FormFieldDTO, UpdateFieldRequest, FormCalculateRequest

  Preferences:
    SetPreferenceRequest

VALIDATION:
  Validation is done in handlers and the domain packages. DTOs are pure data
  carriers. Money is serialized as decimal strings, never floats.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/warp/overtime-engine/allowance"
	"github.com/warp/overtime-engine/factory"
	"github.com/warp/overtime-engine/render"
)

// =============================================================================
// RATE TABLES
// =============================================================================

// RateTableSummaryDTO is one entry in the rate-table list.
type RateTableSummaryDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Version   int    `json:"version"`
	Revision  int    `json:"revision,omitempty"`
	UsesRanks bool   `json:"uses_ranks"`
	Default   bool   `json:"default"`
}

// RateTableDTO is a full rate-table document.
type RateTableDTO struct {
	factory.RateTableJSON
	Revision int  `json:"revision,omitempty"`
	Default  bool `json:"default"`
}

// =============================================================================
// CALCULATION
// =============================================================================

// CalculateRequest asks for a one-shot calculation. Inputs values may be
// numbers or strings; they are coerced like form fields.
type CalculateRequest struct {
	RateTable string         `json:"rate_table,omitempty"`
	Rank      string         `json:"rank,omitempty"`
	Inputs    map[string]any `json:"inputs"`
}

// LineItemDTO is one priced category.
type LineItemDTO struct {
	Category string `json:"category"`
	Unit     string `json:"unit"`
	Count    int    `json:"count"`
	UnitRate string `json:"unit_rate"`
	Subtotal string `json:"subtotal"`
}

// NoticeDTO reports an input that was treated as zero.
type NoticeDTO struct {
	Category string `json:"category"`
	Value    string `json:"value"`
	Reason   string `json:"reason"`
	Message  string `json:"message"`
}

// CalculationDTO is the result of a calculation with its display breakdown.
type CalculationDTO struct {
	RateTable    string           `json:"rate_table"`
	TableVersion int              `json:"table_version"`
	Rank         string           `json:"rank,omitempty"`
	LineItems    []LineItemDTO    `json:"line_items"`
	GrossTotal   string           `json:"gross_total"`
	TaxRate      string           `json:"tax_rate"`
	TaxAmount    string           `json:"tax_amount"`
	NetAmount    string           `json:"net_amount"`
	Breakdown    render.Breakdown `json:"breakdown"`
	Notices      []NoticeDTO      `json:"notices"`
}

// =============================================================================
// FORMS
// =============================================================================

// FormFieldDTO is one input field of a form session.
type FormFieldDTO struct {
	Category      string `json:"category"`
	Unit          string `json:"unit"`
	RankDependent bool   `json:"rank_dependent"`
	Value         string `json:"value"`
	MirroredFrom  string `json:"mirrored_from,omitempty"`
	Mirroring     bool   `json:"mirroring"`
}

// FormDTO is a server-side form session.
type FormDTO struct {
	ID        string         `json:"id"`
	RateTable string         `json:"rate_table"`
	Ranks     []string       `json:"ranks"`
	Fields    []FormFieldDTO `json:"fields"`
	Changed   []string       `json:"changed,omitempty"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// CreateFormRequest opens a form session.
type CreateFormRequest struct {
	RateTable string `json:"rate_table,omitempty"`
}

// UpdateFieldRequest edits one field. Value is the raw text as typed.
type UpdateFieldRequest struct {
	Category string `json:"category"`
	Value    string `json:"value"`
}

// FormCalculateRequest calculates a form session.
type FormCalculateRequest struct {
	Rank string `json:"rank,omitempty"`
}

// =============================================================================
// PREFERENCES
// =============================================================================

// SetPreferenceRequest stores one preference value.
type SetPreferenceRequest struct {
	Value string `json:"value"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// Error codes for client-correctable failures.
const (
	CodeNoInput       = "no_input"
	CodeMissingRank   = "missing_rank"
	CodeInvalidBody   = "invalid_body"
	CodeInvalidTable  = "invalid_rate_table"
	CodeTableNotFound = "rate_table_not_found"
	CodeFormNotFound  = "form_not_found"
	CodeUnknownField  = "unknown_category"
	CodeInvalidPref   = "invalid_preference"
)

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toCalculationDTO(result *allowance.Result, b render.Breakdown, notices []*allowance.InvalidCountError) CalculationDTO {
	items := make([]LineItemDTO, len(result.LineItems))
	for i, li := range result.LineItems {
		items[i] = LineItemDTO{
			Category: li.Category.Name,
			Unit:     string(li.Category.Unit),
			Count:    li.Count,
			UnitRate: li.UnitRate.String(),
			Subtotal: li.Subtotal.String(),
		}
	}
	return CalculationDTO{
		RateTable:    result.TableID,
		TableVersion: result.TableVersion,
		Rank:         result.Rank,
		LineItems:    items,
		GrossTotal:   result.GrossTotal.String(),
		TaxRate:      result.TaxRate.String(),
		TaxAmount:    result.TaxAmount.String(),
		NetAmount:    result.NetAmount.String(),
		Breakdown:    b,
		Notices:      toNoticeDTOs(notices),
	}
}

func toNoticeDTOs(notices []*allowance.InvalidCountError) []NoticeDTO {
	dtos := make([]NoticeDTO, len(notices))
	for i, n := range notices {
		dtos[i] = NoticeDTO{
			Category: n.Category,
			Value:    n.Raw,
			Reason:   string(n.Reason),
			Message:  n.Error(),
		}
	}
	return dtos
}

func toSummaryDTO(table *allowance.RateTable, revision int, isDefault bool) RateTableSummaryDTO {
	return RateTableSummaryDTO{
		ID:        table.ID,
		Name:      table.Name,
		Version:   table.Version,
		Revision:  revision,
		UsesRanks: table.UsesRanks(),
		Default:   isDefault,
	}
}

func rankNames(table *allowance.RateTable) []string {
	ranks := table.Ranks()
	names := make([]string, len(ranks))
	for i, r := range ranks {
		names[i] = r.Name
	}
	return names
}
