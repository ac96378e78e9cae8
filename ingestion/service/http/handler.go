package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	core "github.com/blockend-dev/AleoWhistle/ingestion/service/core"
	"github.com/blockend-dev/AleoWhistle/storage/store"
	"github.com/blockend-dev/AleoWhistle/submission"
)

// ReportHandler encapsulates the logic for handling HTTP report requests
type ReportHandler struct {
	svc          *core.Service
	maxBodyBytes int64
	logger       *log.Logger
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(s *core.Service, maxBodyBytes int64, l *log.Logger) *ReportHandler {
	return &ReportHandler{svc: s, maxBodyBytes: maxBodyBytes, logger: l}
}

// Register mounts every route on mux
func (h *ReportHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/v1/reports", h.SubmitReport)
	mux.HandleFunc("/v1/reports/status", h.UpdateStatus)
	mux.HandleFunc("/v1/transactions", h.GetTransaction)
	mux.HandleFunc("/health", h.HealthCheck)
}

type evidencePayload struct {
	Name string `json:"name"`
	Data []byte `json:"data"` // base64 in JSON
}

type reportRequest struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Category    uint8             `json:"category"`
	Severity    uint8             `json:"severity"`
	Evidence    []evidencePayload `json:"evidence,omitempty"`
}

type statusRequest struct {
	ReportID string `json:"report_id"`
	Status   string `json:"status"`
}

// SubmitReport handles POST /v1/reports requests
func (h *ReportHandler) SubmitReport(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if !h.decode(w, r, &req) {
		return
	}

	input := &core.ReportInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Severity:    req.Severity,
	}
	for _, e := range req.Evidence {
		input.Evidence = append(input.Evidence, submission.File{Name: e.Name, Data: e.Data})
	}

	result, err := h.svc.SubmitReport(r.Context(), input)
	if err != nil {
		h.logger.Printf("HTTP Handler: report submission failed: %v", err)
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, map[string]interface{}{
		"request_id":        result.RequestID,
		"handle":            result.Handle,
		"seed":              result.Seed.String(),
		"locator":           result.Locator,
		"evidence_locators": result.EvidenceLocators,
		"content_digest":    result.ContentDigest.String(),
		"received_at":       result.ReceivedAt.Format(time.RFC3339Nano),
		"status":            store.StatusPending,
	}, http.StatusAccepted)
}

// UpdateStatus handles POST /v1/reports/status requests
func (h *ReportHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.svc.UpdateStatus(r.Context(), &core.StatusInput{ReportID: req.ReportID, Status: req.Status})
	if err != nil {
		h.logger.Printf("HTTP Handler: status update failed: %v", err)
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, map[string]interface{}{
		"request_id": result.RequestID,
		"handle":     result.Handle,
		"status":     store.StatusPending,
	}, http.StatusAccepted)
}

// GetTransaction handles GET /v1/transactions?request_id= requests
func (h *ReportHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	rec, err := h.svc.Transaction(r.Context(), r.URL.Query().Get("request_id"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, rec, http.StatusOK)
}

// HealthCheck handles GET /health requests
func (h *ReportHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339Nano),
		"service":   "whistle-gateway",
	}

	h.respondJSON(w, resp, http.StatusOK)
}

// decode checks method, content type and size, then parses the JSON body into v
func (h *ReportHandler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Method != http.MethodPost {
		h.respondError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return false
	}
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		h.respondError(w, "Content-Type must be application/json", http.StatusBadRequest)
		return false
	}
	if h.maxBodyBytes > 0 && r.ContentLength > h.maxBodyBytes {
		h.respondError(w, "Request body too large", http.StatusRequestEntityTooLarge)
		return false
	}
	defer r.Body.Close()

	body := r.Body
	if h.maxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respondError(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return false
		}
		h.logger.Printf("HTTP Handler: Failed to parse JSON request: %v", err)
		h.respondError(w, "Bad Request: Invalid JSON format", http.StatusBadRequest)
		return false
	}
	return true
}

// respondServiceError maps service errors to HTTP status codes
func (h *ReportHandler) respondServiceError(w http.ResponseWriter, err error) {
	var validation *core.ValidationError
	var subErr *submission.SubmissionError
	switch {
	case errors.As(err, &validation):
		h.respondError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, store.ErrNotFound):
		h.respondError(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &subErr) && (subErr.Stage == submission.StageUpload || subErr.Stage == submission.StageDispatch):
		h.respondError(w, err.Error(), http.StatusBadGateway)
	default:
		h.respondError(w, "internal error", http.StatusInternalServerError)
	}
}

// respondJSON sends JSON response
func (h *ReportHandler) respondJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Printf("HTTP Handler: Failed to encode JSON response: %v", err)
	}
}

// respondError sends error response
func (h *ReportHandler) respondError(w http.ResponseWriter, message string, statusCode int) {
	errorResp := map[string]interface{}{
		"error":   message,
		"status":  statusCode,
		"message": http.StatusText(statusCode),
	}

	h.respondJSON(w, errorResp, statusCode)
}
