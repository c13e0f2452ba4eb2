package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/api/request"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/api/response"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/model"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/service"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/validation"
)

// TransactionHandler handles HTTP requests for an instrument's buy and sell
// lists. Transactions are addressed by kind and position in their list.
type TransactionHandler struct {
	instrumentService *service.InstrumentService
}

// NewTransactionHandler creates a new TransactionHandler with the provided service dependency.
func NewTransactionHandler(instrumentService *service.InstrumentService) *TransactionHandler {
	return &TransactionHandler{
		instrumentService: instrumentService,
	}
}

// transactionRef parses the {kind} and {index} path parameters.
func transactionRef(r *http.Request) (model.TransactionType, int, error) {
	kind, err := validation.ParseTransactionKind(chi.URLParam(r, "kind"))
	if err != nil {
		return "", 0, err
	}
	index, err := validation.ParseIndex(chi.URLParam(r, "index"))
	if err != nil {
		return "", 0, err
	}
	return kind, index, nil
}

// CreateTransaction handles POST requests to record a buy or sell.
// Buys without a round are assigned the next installment round.
//
// Endpoint: POST /api/instrument/{symbol}/transaction
// Request Body: CreateTransactionRequest (type, date, price, quantity)
// Response: 201 Created with TransactionResponse
// Error: 400 Bad Request if validation fails or request body is invalid
// Error: 404 Not Found if the instrument is not registered
func (h *TransactionHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.CreateTransactionRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateCreateTransaction(req); err != nil {
		respondValidationError(w, err)
		return
	}

	transaction, err := h.instrumentService.AddTransaction(r.Context(), symbolParam(r), req)
	if err != nil {
		respondServiceError(w, err, "failed to create transaction")
		return
	}

	response.RespondJSON(w, http.StatusCreated, transaction)
}

// UpdateTransaction handles PUT requests to replace fields of a transaction in place.
//
// Endpoint: PUT /api/instrument/{symbol}/transaction/{kind}/{index}
// Request Body: UpdateTransactionRequest (all fields optional)
// Response: 200 OK with updated TransactionResponse
// Error: 400 Bad Request if kind, index or body is invalid
// Error: 404 Not Found if the instrument or transaction does not exist
func (h *TransactionHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	kind, index, err := transactionRef(r)
	if err != nil {
		respondServiceError(w, err, "invalid transaction reference")
		return
	}

	req, err := parseJSON[request.UpdateTransactionRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateUpdateTransaction(req); err != nil {
		respondValidationError(w, err)
		return
	}

	transaction, err := h.instrumentService.UpdateTransaction(r.Context(), symbolParam(r), kind, index, req)
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToSaveInstrument.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, transaction)
}

// DeleteTransaction handles DELETE requests to remove a transaction.
// Later transactions of the same kind move down one index.
//
// Endpoint: DELETE /api/instrument/{symbol}/transaction/{kind}/{index}
// Response: 204 No Content on successful deletion
// Error: 400 Bad Request if kind or index is invalid
// Error: 404 Not Found if the instrument or transaction does not exist
func (h *TransactionHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	kind, index, err := transactionRef(r)
	if err != nil {
		respondServiceError(w, err, "invalid transaction reference")
		return
	}

	if err := h.instrumentService.DeleteTransaction(r.Context(), symbolParam(r), kind, index); err != nil {
		respondServiceError(w, err, "failed to delete transaction")
		return
	}

	response.RespondJSON(w, http.StatusNoContent, nil)
}
