package models

import "time"

// DocumentFormat is the structural classification of a document.
type DocumentFormat string

const (
	FormatPDF     DocumentFormat = "pdf"
	FormatJSON    DocumentFormat = "json"
	FormatEmail   DocumentFormat = "email"
	FormatText    DocumentFormat = "text"
	FormatUnknown DocumentFormat = "unknown"
)

// DocumentIntent is the business purpose classification of a document.
type DocumentIntent string

const (
	IntentInvoice    DocumentIntent = "invoice"
	IntentRFQ        DocumentIntent = "rfq"
	IntentComplaint  DocumentIntent = "complaint"
	IntentRegulation DocumentIntent = "regulation"
	IntentGeneral    DocumentIntent = "general"
)

// UrgencyLevel grades how quickly an email needs attention.
type UrgencyLevel string

const (
	UrgencyLow      UrgencyLevel = "low"
	UrgencyMedium   UrgencyLevel = "medium"
	UrgencyHigh     UrgencyLevel = "high"
	UrgencyCritical UrgencyLevel = "critical"
)

// Sentiment is a closed three-way classification of email tone.
type Sentiment string

const (
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
	SentimentPositive Sentiment = "positive"
)

// Document is an ingested unit of work. Immutable once built.
type Document struct {
	RawContent     []byte            `json:"-"`
	Text           string            `json:"text"`
	DeclaredFormat DocumentFormat    `json:"declared_format"`
	Metadata       map[string]string `json:"metadata"`
}

// SetMetadata stores a key/value pair, allocating the map on first use.
// Empty values are dropped.
func (d *Document) SetMetadata(key, value string) {
	if value == "" {
		return
	}
	if d.Metadata == nil {
		d.Metadata = map[string]string{}
	}
	d.Metadata[key] = value
}

// ClassificationResult is produced once per document and never mutated.
// Confidence is always present; fallback paths use a fixed low value.
type ClassificationResult struct {
	Format     DocumentFormat `json:"format"`
	Intent     DocumentIntent `json:"intent"`
	Confidence float64        `json:"confidence"`
	Rationale  string         `json:"rationale"`
	Timestamp  time.Time      `json:"timestamp"`
}

// PageInfo describes one extracted PDF page.
type PageInfo struct {
	PageNumber int    `json:"page_number"`
	Chars      int    `json:"chars"`
	Failed     bool   `json:"failed,omitempty"`
	Error      string `json:"error,omitempty"`
}

// DocumentProperties holds document-level metadata extracted alongside text.
// Absent fields are empty strings, never an error.
type DocumentProperties struct {
	Title        string `json:"title,omitempty"`
	Author       string `json:"author,omitempty"`
	Creator      string `json:"creator,omitempty"`
	Producer     string `json:"producer,omitempty"`
	CreationDate string `json:"creation_date,omitempty"`
}

// ExtractedText is the normalized payload produced by the text extractor.
type ExtractedText struct {
	Text       string             `json:"text"`
	Pages      []PageInfo         `json:"pages,omitempty"`
	Properties DocumentProperties `json:"properties"`
	Warnings   []string           `json:"warnings,omitempty"`
}

// JSONExtraction is the JSON agent's result.
type JSONExtraction struct {
	Validated bool                   `json:"validated"`
	Fields    map[string]interface{} `json:"fields"`
	Anomalies []string               `json:"anomalies"`
	Repaired  bool                   `json:"repaired,omitempty"`
}

// EmailExtraction is the email agent's result.
type EmailExtraction struct {
	Sender    string       `json:"sender"`
	Subject   string       `json:"subject,omitempty"`
	Urgency   UrgencyLevel `json:"urgency"`
	Sentiment Sentiment    `json:"sentiment"`
	Summary   string       `json:"summary"`
}

// ProcessingResponse is the caller-visible result of one pipeline run.
type ProcessingResponse struct {
	Success         bool                   `json:"success"`
	Message         string                 `json:"message"`
	MemoryID        string                 `json:"memory_id,omitempty"`
	DocumentType    DocumentFormat         `json:"document_type,omitempty"`
	Intent          DocumentIntent         `json:"intent,omitempty"`
	ExtractedValues map[string]interface{} `json:"extracted_values,omitempty"`
	DegradedStorage bool                   `json:"degraded_storage,omitempty"`
	ErrorCode       string                 `json:"error_code,omitempty"`
}
