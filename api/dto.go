/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

AMOUNTS:
  Monetary amounts cross the wire as decimal strings ("987.00"), never
  as JSON numbers. Floats have no place in pay data.

VALIDATION:
  Validation is done in handlers and the domain, not in DTOs. DTOs are
  pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/ratecard.go: RateCardJSON type
*/
package api

import (
	"github.com/freightline/pay-engine/factory"
)

// =============================================================================
// RATE CARD TYPES
// =============================================================================

// RateCardDTO represents a rate card in API responses.
type RateCardDTO struct {
	ID             string `json:"id"`
	RateType       string `json:"rate_type"`
	RateMethod     string `json:"rate_method"`
	Scope          string `json:"scope,omitempty"`
	Priority       bool   `json:"priority"`
	Active         bool   `json:"active"`
	EffectiveDate  string `json:"effective_date"`
	ExpirationDate string `json:"expiration_date,omitempty"`
}

// CreateRateCardRequest is the request to create a rate card.
type CreateRateCardRequest struct {
	Card factory.RateCardJSON `json:"card"`
}

// ResolveRateRequest asks which card wins for a context on a date.
type ResolveRateRequest struct {
	DriverID              string `json:"driver_id,omitempty"`
	CarrierID             string `json:"carrier_id,omitempty"`
	LinehaulProfileID     string `json:"linehaul_profile_id,omitempty"`
	OriginTerminalID      string `json:"origin_terminal_id,omitempty"`
	DestinationTerminalID string `json:"destination_terminal_id,omitempty"`
	AsOf                  string `json:"as_of"` // YYYY-MM-DD, default today
}

// =============================================================================
// TRIP TYPES
// =============================================================================

// CreateTripRequest captures a dispatched trip.
type CreateTripRequest struct {
	ID                  string `json:"id"`
	DriverID            string `json:"driver_id"`
	CarrierID           string `json:"carrier_id,omitempty"`
	LinehaulProfileID   string `json:"linehaul_profile_id,omitempty"`
	OriginTerminal      string `json:"origin_terminal,omitempty"`
	DestinationTerminal string `json:"destination_terminal,omitempty"`
	DispatchDate        string `json:"dispatch_date"`
	TrailerConfig       string `json:"trailer_config"`
	Miles               string `json:"miles,omitempty"`
	WorkHours           string `json:"work_hours,omitempty"`
	StopHours           string `json:"stop_hours,omitempty"`
	LinkedRevenue       string `json:"linked_revenue,omitempty"`
}

// TripReportRequest captures arrival facts for a trip.
type TripReportRequest struct {
	DropAndHookCount int    `json:"drop_and_hook_count"`
	ChainUpCycles    int    `json:"chain_up_cycles"`
	WaitTimeStart    string `json:"wait_time_start,omitempty"` // RFC3339
	WaitTimeEnd      string `json:"wait_time_end,omitempty"`
	WaitTimeReason   string `json:"wait_time_reason,omitempty"`
	Notes            string `json:"notes,omitempty"`
	Verified         bool   `json:"verified"`
	PayApproved      bool   `json:"pay_approved"`
}

// =============================================================================
// TRIP PAY TYPES
// =============================================================================

// TripPayDTO represents a computed trip pay record.
type TripPayDTO struct {
	ID          string `json:"id"`
	TripID      string `json:"trip_id"`
	PayPeriodID string `json:"pay_period_id"`
	DriverID    string `json:"driver_id"`
	RateCardID  string `json:"rate_card_id,omitempty"`

	BasePay        string `json:"base_pay"`
	MileagePay     string `json:"mileage_pay"`
	AccessorialPay string `json:"accessorial_pay"`
	BonusPay       string `json:"bonus_pay"`
	Deductions     string `json:"deductions"`
	TotalGross     string `json:"total_gross"`

	Status string `json:"status"`

	CalculatedAt string `json:"calculated_at,omitempty"`
	ReviewedAt   string `json:"reviewed_at,omitempty"`
	ApprovedAt   string `json:"approved_at,omitempty"`
	PaidAt       string `json:"paid_at,omitempty"`
	ReviewedBy   string `json:"reviewed_by,omitempty"`
	ApprovedBy   string `json:"approved_by,omitempty"`
}

// TransitionRequest moves a trip pay to a target status.
type TransitionRequest struct {
	Target string `json:"target"`
	Actor  string `json:"actor,omitempty"`
	Notes  string `json:"notes,omitempty"`
}

// AdjustRequest sets reviewer-controlled bonus and deductions.
type AdjustRequest struct {
	BonusPay   string `json:"bonus_pay"`
	Deductions string `json:"deductions"`
	Actor      string `json:"actor,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// BulkApproveRequest approves many trip pays in one call.
type BulkApproveRequest struct {
	IDs   []string `json:"ids"`
	Actor string   `json:"actor,omitempty"`
}

// BulkApproveResponse summarizes a bulk approval.
type BulkApproveResponse struct {
	Approved int               `json:"approved"`
	Failed   int               `json:"failed"`
	Skipped  []string          `json:"skipped,omitempty"`
	Errors   []TripPayErrorDTO `json:"errors,omitempty"`
}

// TripPayErrorDTO pairs a failed trip pay with its error.
type TripPayErrorDTO struct {
	TripPayID string `json:"trip_pay_id"`
	Error     string `json:"error"`
}

// =============================================================================
// CUT PAY TYPES
// =============================================================================

// CutPayRequestDTO submits a cut pay claim.
type CutPayRequestDTO struct {
	ID             string `json:"id,omitempty"`
	DriverID       string `json:"driver_id"`
	HoursRequested string `json:"hours_requested,omitempty"`
	MilesRequested string `json:"miles_requested,omitempty"`
	TrailerConfig  string `json:"trailer_config"`
	ReasonCode     string `json:"reason_code"`
	Notes          string `json:"notes,omitempty"`
	RequestDate    string `json:"request_date,omitempty"` // default today
}

// CutPayDTO represents a computed cut pay record.
type CutPayDTO struct {
	ID          string `json:"id"`
	DriverID    string `json:"driver_id"`
	PayPeriodID string `json:"pay_period_id"`
	RateCardID  string `json:"rate_card_id,omitempty"`
	BasePay     string `json:"base_pay"`
	Status      string `json:"status"`
	ReasonCode  string `json:"reason_code"`
}

// =============================================================================
// PAY PERIOD TYPES
// =============================================================================

// PayPeriodDTO represents a pay period.
type PayPeriodDTO struct {
	ID            string `json:"id"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	Status        string `json:"status"`
	ExportBatchID string `json:"export_batch_id,omitempty"`
	ClosedAt      string `json:"closed_at,omitempty"`
	LockedAt      string `json:"locked_at,omitempty"`
	ExportedAt    string `json:"exported_at,omitempty"`
}

// CreatePeriodRequest opens a new pay period.
type CreatePeriodRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// PeriodTransitionRequest moves a period to a target status.
type PeriodTransitionRequest struct {
	Target string `json:"target"`
}

// CalculateAllResponse summarizes a batch calculation.
type CalculateAllResponse struct {
	Calculated int            `json:"calculated"`
	Failed     int            `json:"failed"`
	Errors     []TripErrorDTO `json:"errors,omitempty"`
}

// TripErrorDTO pairs a failed trip with its error.
type TripErrorDTO struct {
	TripID string `json:"trip_id"`
	Error  string `json:"error"`
}

// =============================================================================
// AUDIT TYPES
// =============================================================================

// AuditEntryDTO is one row of transition history.
type AuditEntryDTO struct {
	ID         string `json:"id"`
	At         string `json:"at"`
	ActorID    string `json:"actor_id,omitempty"`
	Action     string `json:"action"`
	TripPayID  string `json:"trip_pay_id,omitempty"`
	PeriodID   string `json:"period_id,omitempty"`
	FromStatus string `json:"from_status,omitempty"`
	ToStatus   string `json:"to_status,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// ErrorResponse is the shape of every error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
