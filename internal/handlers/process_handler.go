package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/intake/internal/models"
	"github.com/ternarybob/intake/internal/pipeline"
)

// maxUploadBytes caps file uploads at 20MB.
const maxUploadBytes = 20 << 20

// ProcessHandler handles document processing HTTP requests.
type ProcessHandler struct {
	orchestrator *pipeline.Orchestrator
	logger       arbor.ILogger
}

func NewProcessHandler(orchestrator *pipeline.Orchestrator, logger arbor.ILogger) *ProcessHandler {
	return &ProcessHandler{
		orchestrator: orchestrator,
		logger:       logger,
	}
}

type processRequest struct {
	Content  string            `json:"content"`
	ModelID  string            `json:"model_id,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type classifyRequest struct {
	Content string `json:"content"`
	ModelID string `json:"model_id,omitempty"`
}

// ProcessTextHandler handles POST /api/process - processes text content
func (h *ProcessHandler) ProcessTextHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		WriteError(w, http.StatusBadRequest, "Missing content")
		return
	}

	response := h.orchestrator.ProcessText(r.Context(), req.Content, req.Metadata, req.ModelID)
	h.writeProcessingResponse(w, response)
}

// ProcessFileHandler handles POST /api/process/file - processes an uploaded file
func (h *ProcessHandler) ProcessFileHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to read uploaded file")
		WriteError(w, http.StatusInternalServerError, "Failed to read file")
		return
	}

	declared := declaredFormat(header.Filename, r.FormValue("format"))
	metadata := map[string]string{"filename": header.Filename}
	if threadID := r.FormValue("thread_id"); threadID != "" {
		metadata["thread_id"] = threadID
	}
	if conversationID := r.FormValue("conversation_id"); conversationID != "" {
		metadata["conversation_id"] = conversationID
	}

	response := h.orchestrator.ProcessFile(r.Context(), raw, declared, metadata, r.FormValue("model_id"))
	h.writeProcessingResponse(w, response)
}

// ClassifyHandler handles POST /api/classify - classification without processing
func (h *ProcessHandler) ClassifyHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req classifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		WriteError(w, http.StatusBadRequest, "Missing content")
		return
	}

	result := h.orchestrator.ClassifyOnly(r.Context(), req.Content, req.ModelID)
	WriteJSON(w, http.StatusOK, result)
}

func (h *ProcessHandler) writeProcessingResponse(w http.ResponseWriter, response *models.ProcessingResponse) {
	status := http.StatusOK
	if !response.Success {
		status = statusForErrorCode(response.ErrorCode)
	}
	WriteJSON(w, status, response)
}

func statusForErrorCode(code string) int {
	switch code {
	case "validation_error", "extraction_error":
		return http.StatusUnprocessableEntity
	case "not_found":
		return http.StatusNotFound
	case "model_error":
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// declaredFormat resolves the caller's format hint, falling back to the
// file extension.
func declaredFormat(filename, hint string) models.DocumentFormat {
	switch models.DocumentFormat(strings.ToLower(hint)) {
	case models.FormatPDF:
		return models.FormatPDF
	case models.FormatJSON:
		return models.FormatJSON
	case models.FormatEmail:
		return models.FormatEmail
	case models.FormatText:
		return models.FormatText
	}

	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".pdf"):
		return models.FormatPDF
	case strings.HasSuffix(lower, ".json"):
		return models.FormatJSON
	case strings.HasSuffix(lower, ".eml"):
		return models.FormatEmail
	default:
		return models.FormatText
	}
}
