package handlers

import (
	"net/http"

	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/api/request"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/api/response"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/marketdata"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/service"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/validation"
)

// InstrumentHandler handles HTTP requests for instrument endpoints.
// It serves as the HTTP layer adapter, parsing requests and delegating
// business logic to the instrumentService.
type InstrumentHandler struct {
	instrumentService *service.InstrumentService
}

// NewInstrumentHandler creates a new InstrumentHandler with the provided service dependency.
func NewInstrumentHandler(instrumentService *service.InstrumentService) *InstrumentHandler {
	return &InstrumentHandler{
		instrumentService: instrumentService,
	}
}

// Instruments handles GET requests to list every instrument with its status.
//
// Endpoint: GET /api/instrument
// Response: 200 OK with array of InstrumentListItem
// Error: 500 Internal Server Error if retrieval fails
func (h *InstrumentHandler) Instruments(w http.ResponseWriter, r *http.Request) {
	items, err := h.instrumentService.ListInstruments(r.Context())
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRetrieveInstruments.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, items)
}

// Instrument handles GET requests for the detail view of one instrument.
//
// Endpoint: GET /api/instrument/{symbol}
// Response: 200 OK with InstrumentDetail
// Error: 400 Bad Request if the symbol is invalid (validated by middleware)
// Error: 404 Not Found if the instrument is not registered
func (h *InstrumentHandler) Instrument(w http.ResponseWriter, r *http.Request) {
	detail, err := h.instrumentService.GetInstrumentDetail(r.Context(), symbolParam(r))
	if err != nil {
		respondServiceError(w, err, "failed to get instrument")
		return
	}

	response.RespondJSON(w, http.StatusOK, detail)
}

// CreateInstrument handles POST requests to register a new watch item.
//
// Endpoint: POST /api/instrument
// Request Body: CreateInstrumentRequest (symbol required)
// Response: 201 Created with Instrument
// Error: 400 Bad Request if validation fails or request body is invalid
// Error: 409 Conflict if the symbol is already registered
func (h *InstrumentHandler) CreateInstrument(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.CreateInstrumentRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateCreateInstrument(req); err != nil {
		respondValidationError(w, err)
		return
	}

	inst, err := h.instrumentService.CreateInstrument(r.Context(), req)
	if err != nil {
		respondServiceError(w, err, "failed to create instrument")
		return
	}

	response.RespondJSON(w, http.StatusCreated, inst)
}

// UpdateInstrument handles PUT requests to change an instrument's descriptive
// and plan fields. Transactions are left untouched.
//
// Endpoint: PUT /api/instrument/{symbol}
// Request Body: UpdateInstrumentRequest (all fields optional)
// Response: 200 OK with updated Instrument
// Error: 400 Bad Request if validation fails
// Error: 404 Not Found if the instrument is not registered
func (h *InstrumentHandler) UpdateInstrument(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.UpdateInstrumentRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateUpdateInstrument(req); err != nil {
		respondValidationError(w, err)
		return
	}

	inst, err := h.instrumentService.UpdateInstrument(r.Context(), symbolParam(r), req)
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToSaveInstrument.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, inst)
}

// DeleteInstrument handles DELETE requests to remove an instrument and its ledger.
//
// Endpoint: DELETE /api/instrument/{symbol}
// Response: 204 No Content on successful deletion
// Error: 404 Not Found if the instrument is not registered
func (h *InstrumentHandler) DeleteInstrument(w http.ResponseWriter, r *http.Request) {
	if err := h.instrumentService.DeleteInstrument(r.Context(), symbolParam(r)); err != nil {
		respondServiceError(w, err, "failed to delete instrument")
		return
	}

	response.RespondJSON(w, http.StatusNoContent, nil)
}

// SellPreview handles GET requests to estimate the outcome of a sell.
//
// Endpoint: GET /api/instrument/{symbol}/sell-preview?price=&quantity=
// Response: 200 OK with SellPreview
// Error: 400 Bad Request if quantity is missing or a parameter is invalid
// Error: 404 Not Found if the instrument is not registered
func (h *InstrumentHandler) SellPreview(w http.ResponseWriter, r *http.Request) {
	q, err := request.ParseSellPreviewQuery(r.URL.Query().Get("price"), r.URL.Query().Get("quantity"))
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid query parameters", err.Error())
		return
	}

	preview, err := h.instrumentService.PreviewSell(r.Context(), symbolParam(r), q.Price, q.Quantity)
	if err != nil {
		respondServiceError(w, err, "failed to preview sell")
		return
	}

	response.RespondJSON(w, http.StatusOK, preview)
}

// PriceHistory handles GET requests for daily price bars with the
// instrument's buys and sells as markers. Bars are empty when market data is
// unavailable.
//
// Endpoint: GET /api/instrument/{symbol}/history?period=1y
// Response: 200 OK with PriceHistory
// Error: 400 Bad Request if the period is not supported
// Error: 404 Not Found if the instrument is not registered
func (h *InstrumentHandler) PriceHistory(w http.ResponseWriter, r *http.Request) {
	period, err := marketdata.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid query parameters", err.Error())
		return
	}

	history, err := h.instrumentService.GetPriceHistory(r.Context(), symbolParam(r), period)
	if err != nil {
		respondServiceError(w, err, "failed to get price history")
		return
	}

	response.RespondJSON(w, http.StatusOK, history)
}
