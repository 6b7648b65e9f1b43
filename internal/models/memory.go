package models

import "time"

// DefaultMemoryTTL is how long a memory entry lives before the backing
// store expires it together with its index keys.
const DefaultMemoryTTL = 30 * 24 * time.Hour

// MemoryEntry is one persisted processing result. Created once by the
// orchestrator after extraction; never mutated afterwards.
type MemoryEntry struct {
	ID              string                 `json:"id"`
	SourceAgent     string                 `json:"source_agent"`
	DocumentType    DocumentFormat         `json:"document_type"`
	Intent          DocumentIntent         `json:"intent"`
	ExtractedValues map[string]interface{} `json:"extracted_values"`
	CreatedAt       time.Time              `json:"created_at"`
	ThreadID        string                 `json:"thread_id,omitempty"`
	ConversationID  string                 `json:"conversation_id,omitempty"`
	TTLSeconds      int                    `json:"ttl_seconds"`
}

// MemoryFilter selects entries by secondary index. Zero-value fields
// are ignored; at least one must be set for an indexed query.
type MemoryFilter struct {
	DocumentType   DocumentFormat
	Intent         DocumentIntent
	ThreadID       string
	ConversationID string
}

// Empty reports whether no filter field is set.
func (f MemoryFilter) Empty() bool {
	return f.DocumentType == "" && f.Intent == "" && f.ThreadID == "" && f.ConversationID == ""
}

// MemorySummary is a compact history line derived from an entry,
// shaped per source agent for the history listing.
type MemorySummary struct {
	ID           string         `json:"id"`
	SourceAgent  string         `json:"source_agent"`
	DocumentType DocumentFormat `json:"document_type"`
	Intent       DocumentIntent `json:"intent"`
	CreatedAt    time.Time      `json:"created_at"`
	Summary      string         `json:"summary"`
}
