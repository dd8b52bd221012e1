/*
handlers.go - HTTP API handlers for the trip pay engine

PURPOSE:
  Exposes the pay engine via REST API. Handles HTTP request/response, JSON
  serialization, and delegates to domain logic.

ENDPOINTS:
  Rate cards:
    GET    /api/ratecards                  List all cards
    POST   /api/ratecards                  Create card from JSON
    GET    /api/ratecards/{id}             Get card summary
    POST   /api/ratecards/{id}/deactivate  Supersede a card
    POST   /api/ratecards/resolve          Resolve the winning card

  Trips:
    POST   /api/trips                      Capture a dispatched trip
    POST   /api/trips/{id}/report          Capture arrival facts
    POST   /api/trips/{id}/calculate       Compute trip pay

  Trip pays:
    GET    /api/trippays/{id}              Get a pay record
    GET    /api/trippays/{id}/audit        Transition history
    POST   /api/trippays/{id}/transition   Move through the lifecycle
    POST   /api/trippays/{id}/adjust       Reviewer bonus/deductions
    POST   /api/trippays/bulk-approve      Approve many records

  Cut pay:
    POST   /api/cutpay                     Compute non-driven compensation

  Pay periods:
    GET    /api/periods                    List periods
    POST   /api/periods                    Open a period
    GET    /api/periods/current            The single OPEN period
    GET    /api/periods/{id}               Get a period
    GET    /api/periods/{id}/trippays      Pays in a period
    POST   /api/periods/{id}/calculate-all Batch calculation
    POST   /api/periods/{id}/transition    Close/lock/export

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, insufficient trip data
  - 404: Resource not found
  - 409: Conflict (illegal transition, ambiguous rate, duplicate create)
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.
  The actor field on mutating requests is caller-asserted.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/freightline/pay-engine/engine"
	"github.com/freightline/pay-engine/factory"
	"github.com/freightline/pay-engine/payroll"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *payroll.Service
	Factory *factory.RateCardFactory
}

// NewHandler creates a new handler around the payroll service.
func NewHandler(service *payroll.Service) *Handler {
	return &Handler{
		Service: service,
		Factory: factory.NewRateCardFactory(),
	}
}

func (h *Handler) catalog() engine.RateCardCatalog {
	return h.Service.Resolver.Catalog
}

// =============================================================================
// RATE CARD HANDLERS
// =============================================================================

func (h *Handler) ListRateCards(w http.ResponseWriter, r *http.Request) {
	cards, err := h.catalog().ListCards(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list rate cards", err)
		return
	}

	dtos := make([]RateCardDTO, 0, len(cards))
	for _, card := range cards {
		dtos = append(dtos, toRateCardDTO(card))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateRateCard(w http.ResponseWriter, r *http.Request) {
	var req CreateRateCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	card, err := h.Factory.FromJSON(req.Card)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid rate card", err)
		return
	}

	if err := h.catalog().SaveCard(r.Context(), card); err != nil {
		writeError(w, statusForError(err), "failed to save rate card", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRateCardDTO(card))
}

func (h *Handler) GetRateCard(w http.ResponseWriter, r *http.Request) {
	id := engine.RateCardID(chi.URLParam(r, "id"))
	card, err := h.catalog().GetCard(r.Context(), id)
	if err != nil {
		writeError(w, statusForError(err), "rate card not found", err)
		return
	}
	writeJSON(w, http.StatusOK, toRateCardDTO(card))
}

func (h *Handler) DeactivateRateCard(w http.ResponseWriter, r *http.Request) {
	id := engine.RateCardID(chi.URLParam(r, "id"))
	if err := h.catalog().DeactivateCard(r.Context(), id); err != nil {
		writeError(w, statusForError(err), "failed to deactivate rate card", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

func (h *Handler) ResolveRate(w http.ResponseWriter, r *http.Request) {
	var req ResolveRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	asOf := engine.Today()
	if req.AsOf != "" {
		t, err := time.Parse("2006-01-02", req.AsOf)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid as_of date", err)
			return
		}
		asOf = engine.DateOf(t)
	}

	rc := engine.RateContext{}
	if req.DriverID != "" {
		id := engine.DriverID(req.DriverID)
		rc.DriverID = &id
	}
	if req.CarrierID != "" {
		id := engine.CarrierID(req.CarrierID)
		rc.CarrierID = &id
	}
	if req.LinehaulProfileID != "" {
		id := engine.LinehaulProfileID(req.LinehaulProfileID)
		rc.LinehaulProfileID = &id
	}
	if req.OriginTerminalID != "" {
		id := engine.TerminalID(req.OriginTerminalID)
		rc.OriginTerminalID = &id
	}
	if req.DestinationTerminalID != "" {
		id := engine.TerminalID(req.DestinationTerminalID)
		rc.DestinationTerminalID = &id
	}

	card, err := h.Service.Resolver.Resolve(r.Context(), rc, asOf)
	if err != nil {
		writeError(w, statusForError(err), "rate resolution failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toRateCardDTO(card))
}

// =============================================================================
// TRIP HANDLERS
// =============================================================================

func (h *Handler) CreateTrip(w http.ResponseWriter, r *http.Request) {
	var req CreateTripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.ID == "" || req.DriverID == "" {
		writeError(w, http.StatusBadRequest, "trip requires id and driver_id", nil)
		return
	}

	trip, err := tripFromRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid trip", err)
		return
	}

	if err := h.Service.Trips.SaveTrip(r.Context(), trip); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save trip", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": string(trip.ID)})
}

func (h *Handler) SaveTripReport(w http.ResponseWriter, r *http.Request) {
	tripID := engine.TripID(chi.URLParam(r, "id"))

	var req TripReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	report := &engine.DriverTripReport{
		TripID:           tripID,
		DropAndHookCount: req.DropAndHookCount,
		ChainUpCycles:    req.ChainUpCycles,
		WaitTimeReason:   req.WaitTimeReason,
		Notes:            req.Notes,
		Verified:         req.Verified,
		PayApproved:      req.PayApproved,
	}
	if req.WaitTimeStart != "" {
		t, err := time.Parse(time.RFC3339, req.WaitTimeStart)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid wait_time_start", err)
			return
		}
		report.WaitTimeStart = &t
	}
	if req.WaitTimeEnd != "" {
		t, err := time.Parse(time.RFC3339, req.WaitTimeEnd)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid wait_time_end", err)
			return
		}
		report.WaitTimeEnd = &t
	}

	if err := report.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid trip report", err)
		return
	}
	if err := h.Service.Trips.SaveTripReport(r.Context(), report); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save trip report", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

func (h *Handler) CalculateTripPay(w http.ResponseWriter, r *http.Request) {
	tripID := engine.TripID(chi.URLParam(r, "id"))

	tp, err := h.Service.CalculateTripPay(r.Context(), tripID)
	if err != nil {
		writeError(w, statusForError(err), "trip pay calculation failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toTripPayDTO(tp))
}

// =============================================================================
// TRIP PAY HANDLERS
// =============================================================================

func (h *Handler) GetTripPay(w http.ResponseWriter, r *http.Request) {
	id := engine.TripPayID(chi.URLParam(r, "id"))

	tp, err := h.Service.Pays.GetTripPay(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load trip pay", err)
		return
	}
	if tp == nil {
		writeError(w, http.StatusNotFound, "trip pay not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toTripPayDTO(tp))
}

func (h *Handler) GetTripPayAudit(w http.ResponseWriter, r *http.Request) {
	id := engine.TripPayID(chi.URLParam(r, "id"))

	entries, err := h.Service.Audit.ByTripPay(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load audit log", err)
		return
	}

	dtos := make([]AuditEntryDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, toAuditEntryDTO(e))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) TransitionTripPay(w http.ResponseWriter, r *http.Request) {
	id := engine.TripPayID(chi.URLParam(r, "id"))

	var req TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	tp, err := h.Service.TransitionTripPay(r.Context(), id,
		payroll.TripPayStatus(req.Target), req.Actor, req.Notes)
	if err != nil {
		writeError(w, statusForError(err), "transition failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toTripPayDTO(tp))
}

func (h *Handler) AdjustTripPay(w http.ResponseWriter, r *http.Request) {
	id := engine.TripPayID(chi.URLParam(r, "id"))

	var req AdjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	bonus, err := parseMoneyField(req.BonusPay)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid bonus_pay", err)
		return
	}
	deductions, err := parseMoneyField(req.Deductions)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid deductions", err)
		return
	}

	tp, err := h.Service.AdjustTripPay(r.Context(), id, bonus, deductions, req.Actor, req.Notes)
	if err != nil {
		writeError(w, statusForError(err), "adjustment failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toTripPayDTO(tp))
}

func (h *Handler) BulkApprove(w http.ResponseWriter, r *http.Request) {
	var req BulkApproveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	ids := make([]engine.TripPayID, 0, len(req.IDs))
	for _, id := range req.IDs {
		ids = append(ids, engine.TripPayID(id))
	}

	result, err := h.Service.BulkApproveTripPays(r.Context(), ids, req.Actor)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "bulk approval failed", err)
		return
	}

	resp := BulkApproveResponse{Approved: result.Approved, Failed: result.Failed}
	for _, id := range result.Skipped {
		resp.Skipped = append(resp.Skipped, string(id))
	}
	for _, e := range result.Errors {
		resp.Errors = append(resp.Errors, TripPayErrorDTO{TripPayID: string(e.TripPayID), Error: e.Error})
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// CUT PAY HANDLERS
// =============================================================================

func (h *Handler) CalculateCutPay(w http.ResponseWriter, r *http.Request) {
	var req CutPayRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	cpr := &engine.CutPayRequest{
		ID:            engine.CutPayRequestID(req.ID),
		DriverID:      engine.DriverID(req.DriverID),
		TrailerConfig: engine.TrailerConfig(req.TrailerConfig),
		ReasonCode:    req.ReasonCode,
		Notes:         req.Notes,
		RequestDate:   engine.Today(),
	}
	if req.RequestDate != "" {
		t, err := time.Parse("2006-01-02", req.RequestDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid request_date", err)
			return
		}
		cpr.RequestDate = engine.DateOf(t)
	}
	if req.HoursRequested != "" {
		d, err := decimal.NewFromString(req.HoursRequested)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid hours_requested", err)
			return
		}
		cpr.HoursRequested = &d
	}
	if req.MilesRequested != "" {
		d, err := decimal.NewFromString(req.MilesRequested)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid miles_requested", err)
			return
		}
		cpr.MilesRequested = &d
	}

	cp, err := h.Service.CalculateCutPay(r.Context(), cpr)
	if err != nil {
		writeError(w, statusForError(err), "cut pay calculation failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toCutPayDTO(cp))
}

// =============================================================================
// PAY PERIOD HANDLERS
// =============================================================================

func (h *Handler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	periods, err := h.Service.Periods.ListPayPeriods(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list pay periods", err)
		return
	}

	dtos := make([]PayPeriodDTO, 0, len(periods))
	for _, p := range periods {
		dtos = append(dtos, toPayPeriodDTO(p))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreatePeriod(w http.ResponseWriter, r *http.Request) {
	var req CreatePeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start_date", err)
		return
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end_date", err)
		return
	}

	p, err := h.Service.CreatePayPeriod(r.Context(), engine.DateWindow{
		Start: engine.DateOf(start),
		End:   engine.DateOf(end),
	})
	if err != nil {
		writeError(w, statusForError(err), "failed to create pay period", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPayPeriodDTO(p))
}

func (h *Handler) GetCurrentPeriod(w http.ResponseWriter, r *http.Request) {
	p, err := h.Service.FindOpenPeriod(r.Context())
	if err != nil {
		writeError(w, statusForError(err), "no open pay period", err)
		return
	}
	writeJSON(w, http.StatusOK, toPayPeriodDTO(p))
}

func (h *Handler) GetPeriod(w http.ResponseWriter, r *http.Request) {
	id := engine.PayPeriodID(chi.URLParam(r, "id"))
	p, err := h.Service.Periods.GetPayPeriod(r.Context(), id)
	if err != nil {
		writeError(w, statusForError(err), "pay period not found", err)
		return
	}
	writeJSON(w, http.StatusOK, toPayPeriodDTO(p))
}

func (h *Handler) ListPeriodTripPays(w http.ResponseWriter, r *http.Request) {
	id := engine.PayPeriodID(chi.URLParam(r, "id"))
	pays, err := h.Service.Pays.ListTripPays(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list trip pays", err)
		return
	}

	dtos := make([]TripPayDTO, 0, len(pays))
	for _, tp := range pays {
		dtos = append(dtos, toTripPayDTO(tp))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CalculateAll(w http.ResponseWriter, r *http.Request) {
	id := engine.PayPeriodID(chi.URLParam(r, "id"))

	result, err := h.Service.CalculateAllTripPays(r.Context(), id)
	if err != nil {
		writeError(w, statusForError(err), "batch calculation failed", err)
		return
	}

	resp := CalculateAllResponse{Calculated: result.Calculated, Failed: result.Failed}
	for _, te := range result.Errors {
		resp.Errors = append(resp.Errors, TripErrorDTO{TripID: string(te.TripID), Error: te.Error})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) TransitionPeriod(w http.ResponseWriter, r *http.Request) {
	id := engine.PayPeriodID(chi.URLParam(r, "id"))

	var req PeriodTransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	p, err := h.Service.TransitionPayPeriod(r.Context(), id,
		payroll.PayPeriodStatus(req.Target))
	if err != nil {
		writeError(w, statusForError(err), "period transition failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toPayPeriodDTO(p))
}

// =============================================================================
// DTO CONVERSION
// =============================================================================

func toRateCardDTO(card *engine.RateCard) RateCardDTO {
	dto := RateCardDTO{
		ID:            string(card.ID),
		RateType:      string(card.Type),
		RateMethod:    string(card.Method),
		Priority:      card.Priority,
		Active:        card.Active,
		EffectiveDate: card.EffectiveDate.String(),
	}
	if card.ExpirationDate != nil {
		dto.ExpirationDate = card.ExpirationDate.String()
	}
	switch {
	case card.DriverID != nil:
		dto.Scope = "driver:" + string(*card.DriverID)
	case card.CarrierID != nil:
		dto.Scope = "carrier:" + string(*card.CarrierID)
	case card.LinehaulProfileID != nil:
		dto.Scope = "linehaul:" + string(*card.LinehaulProfileID)
	case card.OriginTerminalID != nil && card.DestinationTerminalID != nil:
		dto.Scope = "lane:" + string(*card.OriginTerminalID) + "-" + string(*card.DestinationTerminalID)
	}
	return dto
}

func toTripPayDTO(tp *payroll.TripPay) TripPayDTO {
	dto := TripPayDTO{
		ID:             string(tp.ID),
		TripID:         string(tp.TripID),
		PayPeriodID:    string(tp.PayPeriodID),
		DriverID:       string(tp.DriverID),
		RateCardID:     string(tp.RateCardID),
		BasePay:        tp.BasePay.String(),
		MileagePay:     tp.MileagePay.String(),
		AccessorialPay: tp.AccessorialPay.String(),
		BonusPay:       tp.BonusPay.String(),
		Deductions:     tp.Deductions.String(),
		TotalGross:     tp.TotalGross().String(),
		Status:         string(tp.Status),
		ReviewedBy:     tp.ReviewedBy,
		ApprovedBy:     tp.ApprovedBy,
	}
	dto.CalculatedAt = formatTimePtr(tp.CalculatedAt)
	dto.ReviewedAt = formatTimePtr(tp.ReviewedAt)
	dto.ApprovedAt = formatTimePtr(tp.ApprovedAt)
	dto.PaidAt = formatTimePtr(tp.PaidAt)
	return dto
}

func toCutPayDTO(cp *payroll.CutPay) CutPayDTO {
	return CutPayDTO{
		ID:          string(cp.ID),
		DriverID:    string(cp.DriverID),
		PayPeriodID: string(cp.PayPeriodID),
		RateCardID:  string(cp.RateCardID),
		BasePay:     cp.BasePay.String(),
		Status:      string(cp.Status),
		ReasonCode:  cp.ReasonCode,
	}
}

func toPayPeriodDTO(p *payroll.PayPeriod) PayPeriodDTO {
	return PayPeriodDTO{
		ID:            string(p.ID),
		StartDate:     p.Window.Start.String(),
		EndDate:       p.Window.End.String(),
		Status:        string(p.Status),
		ExportBatchID: p.ExportBatchID,
		ClosedAt:      formatTimePtr(p.ClosedAt),
		LockedAt:      formatTimePtr(p.LockedAt),
		ExportedAt:    formatTimePtr(p.ExportedAt),
	}
}

func toAuditEntryDTO(e payroll.AuditEntry) AuditEntryDTO {
	return AuditEntryDTO{
		ID:         e.ID,
		At:         e.At.Format(time.RFC3339),
		ActorID:    e.ActorID,
		Action:     string(e.Action),
		TripPayID:  string(e.TripPayID),
		PeriodID:   string(e.PeriodID),
		FromStatus: e.FromStatus,
		ToStatus:   e.ToStatus,
		Notes:      e.Notes,
	}
}

func tripFromRequest(req CreateTripRequest) (*engine.Trip, error) {
	dispatch, err := time.Parse("2006-01-02", req.DispatchDate)
	if err != nil {
		return nil, err
	}

	trip := &engine.Trip{
		ID:            engine.TripID(req.ID),
		DriverID:      engine.DriverID(req.DriverID),
		DispatchDate:  engine.DateOf(dispatch),
		TrailerConfig: engine.TrailerConfig(req.TrailerConfig),
	}
	if !trip.TrailerConfig.Valid() {
		return nil, errors.New("invalid trailer_config")
	}
	if req.CarrierID != "" {
		id := engine.CarrierID(req.CarrierID)
		trip.CarrierID = &id
	}
	if req.LinehaulProfileID != "" {
		id := engine.LinehaulProfileID(req.LinehaulProfileID)
		trip.LinehaulProfileID = &id
	}
	if req.OriginTerminal != "" {
		id := engine.TerminalID(req.OriginTerminal)
		trip.OriginTerminal = &id
	}
	if req.DestinationTerminal != "" {
		id := engine.TerminalID(req.DestinationTerminal)
		trip.DestinationTerminal = &id
	}
	if trip.Miles, err = parseDecimalField(req.Miles); err != nil {
		return nil, err
	}
	if trip.WorkHours, err = parseDecimalField(req.WorkHours); err != nil {
		return nil, err
	}
	if trip.StopHours, err = parseDecimalField(req.StopHours); err != nil {
		return nil, err
	}
	if req.LinkedRevenue != "" {
		d, err := decimal.NewFromString(req.LinkedRevenue)
		if err != nil {
			return nil, err
		}
		m := engine.Money{Value: d}
		trip.LinkedRevenue = &m
	}
	return trip, nil
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
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// statusForError maps domain sentinels to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, engine.ErrRateNotFound),
		errors.Is(err, engine.ErrTripNotFound),
		errors.Is(err, engine.ErrPayPeriodNotFound),
		errors.Is(err, engine.ErrNoOpenPayPeriod):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrAmbiguousRate),
		errors.Is(err, engine.ErrInvalidTransition),
		errors.Is(err, engine.ErrConcurrentModification):
		return http.StatusConflict
	case errors.Is(err, engine.ErrInsufficientData),
		errors.Is(err, engine.ErrInvalidTripReport),
		errors.Is(err, engine.ErrInvalidCutPayRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func parseMoneyField(s string) (engine.Money, error) {
	if s == "" {
		return engine.ZeroMoney(), nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return engine.ZeroMoney(), err
	}
	return engine.Money{Value: d}, nil
}

func parseDecimalField(s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
