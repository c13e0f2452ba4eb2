package handlers

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/api/response"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/service"
)

// maxBackupBytes caps the size of an uploaded backup.
const maxBackupBytes = 32 << 20

// LedgerHandler handles encrypted backup export and import.
type LedgerHandler struct {
	ledgerService *service.LedgerService
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(ledgerService *service.LedgerService) *LedgerHandler {
	return &LedgerHandler{
		ledgerService: ledgerService,
	}
}

// Export handles GET requests to download the whole ledger as an encrypted backup.
//
// Endpoint: GET /api/ledger/export
// Response: 200 OK with the backup token as application/octet-stream
// Error: 503 Service Unavailable if BACKUP_KEY is not configured
func (h *LedgerHandler) Export(w http.ResponseWriter, r *http.Request) {
	token, err := h.ledgerService.Export(r.Context())
	if err != nil {
		respondServiceError(w, err, "failed to export ledger")
		return
	}

	filename := fmt.Sprintf("ledger-%s.bak", time.Now().UTC().Format("20060102-150405"))
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // Client disconnects are not actionable here
	w.Write(token)
}

// Import handles POST requests that replace the ledger with a backup.
// The request body is the raw backup token.
//
// Endpoint: POST /api/ledger/import
// Response: 200 OK with ImportResult
// Error: 400 Bad Request if the backup cannot be decrypted
// Error: 409 Conflict if an empty backup would replace existing data
// Error: 503 Service Unavailable if BACKUP_KEY is not configured
func (h *LedgerHandler) Import(w http.ResponseWriter, r *http.Request) {
	token, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBackupBytes))
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if len(token) == 0 {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", "backup is empty")
		return
	}

	result, err := h.ledgerService.Import(r.Context(), token)
	if err != nil {
		respondServiceError(w, err, "failed to import ledger")
		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}
