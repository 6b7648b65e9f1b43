package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/intake/internal/interfaces"
	"github.com/ternarybob/intake/internal/models"
	"github.com/ternarybob/intake/internal/pipeline"
)

const defaultQueryLimit = 50

// MemoryHandler handles memory history HTTP requests.
type MemoryHandler struct {
	memory interfaces.MemoryStorage
	logger arbor.ILogger
}

func NewMemoryHandler(memory interfaces.MemoryStorage, logger arbor.ILogger) *MemoryHandler {
	return &MemoryHandler{
		memory: memory,
		logger: logger,
	}
}

// ListHandler handles GET /api/memory - queries the history listing.
// Filters: type, intent, thread_id, conversation_id; plus limit.
func (h *MemoryHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	q := r.URL.Query()
	filter := models.MemoryFilter{
		DocumentType:   models.DocumentFormat(q.Get("type")),
		Intent:         models.DocumentIntent(q.Get("intent")),
		ThreadID:       q.Get("thread_id"),
		ConversationID: q.Get("conversation_id"),
	}

	limit := defaultQueryLimit
	if raw := q.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			WriteError(w, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		limit = parsed
	}

	entries, err := h.memory.Query(r.Context(), filter, limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Memory query failed")
		WriteError(w, http.StatusInternalServerError, "Failed to query memory")
		return
	}

	summaries := make([]models.MemorySummary, len(entries))
	for i, entry := range entries {
		summaries[i] = pipeline.Summarize(entry)
	}

	h.logger.Debug().Int("count", len(summaries)).Msg("Listed memory entries")
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(summaries),
		"entries": summaries,
	})
}

// GetHandler handles GET /api/memory/{id} - single entry lookup.
func (h *MemoryHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/memory/")
	if id == "" || strings.Contains(id, "/") {
		WriteError(w, http.StatusBadRequest, "Missing or invalid memory id")
		return
	}

	entry, err := h.memory.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "Memory entry not found")
			return
		}
		h.logger.Error().Err(err).Str("id", id).Msg("Memory lookup failed")
		WriteError(w, http.StatusInternalServerError, "Failed to load memory entry")
		return
	}

	WriteJSON(w, http.StatusOK, entry)
}
