package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ternarybob/intake/internal/common"
	"github.com/ternarybob/intake/internal/models"
	"github.com/ternarybob/intake/internal/pipeline"
)

// mockExtractor implements interfaces.TextExtractor for testing
type mockExtractor struct {
	extractFunc func(ctx context.Context, raw []byte, declared models.DocumentFormat) (*models.ExtractedText, error)
}

func (m *mockExtractor) Extract(ctx context.Context, raw []byte, declared models.DocumentFormat) (*models.ExtractedText, error) {
	if m.extractFunc != nil {
		return m.extractFunc(ctx, raw, declared)
	}
	return &models.ExtractedText{Text: string(raw)}, nil
}

// mockClassifier implements interfaces.Classifier for testing
type mockClassifier struct {
	result *models.ClassificationResult
}

func (m *mockClassifier) Classify(ctx context.Context, text string, declared models.DocumentFormat, modelID string) *models.ClassificationResult {
	return m.result
}

// mockJSONProcessor implements interfaces.JSONProcessor for testing
type mockJSONProcessor struct {
	result *models.JSONExtraction
	err    error
}

func (m *mockJSONProcessor) Process(ctx context.Context, text string, classification *models.ClassificationResult, modelID string) (*models.JSONExtraction, error) {
	return m.result, m.err
}

// mockEmailProcessor implements interfaces.EmailProcessor for testing
type mockEmailProcessor struct {
	result *models.EmailExtraction
}

func (m *mockEmailProcessor) Process(ctx context.Context, text string, classification *models.ClassificationResult, modelID string) *models.EmailExtraction {
	if m.result != nil {
		return m.result
	}
	return &models.EmailExtraction{Urgency: models.UrgencyLow, Sentiment: models.SentimentNeutral}
}

func newTestProcessHandler(classification *models.ClassificationResult, jsonAgent *mockJSONProcessor, memory *mockMemoryStorage) *ProcessHandler {
	orch := pipeline.NewOrchestrator(
		&mockExtractor{},
		&mockClassifier{result: classification},
		jsonAgent,
		&mockEmailProcessor{},
		memory,
		common.GetLogger(),
	)
	return NewProcessHandler(orch, common.GetLogger())
}

func invoiceClassification() *models.ClassificationResult {
	return &models.ClassificationResult{
		Format:     models.FormatJSON,
		Intent:     models.IntentInvoice,
		Confidence: 0.9,
		Rationale:  "test fixture",
	}
}

func TestProcessTextHandler_Success(t *testing.T) {
	jsonAgent := &mockJSONProcessor{
		result: &models.JSONExtraction{
			Validated: true,
			Fields:    map[string]interface{}{"vendor": "Acme"},
			Anomalies: []string{},
		},
	}
	handler := newTestProcessHandler(invoiceClassification(), jsonAgent, &mockMemoryStorage{})

	body := `{"content": "{\"vendor\":\"Acme\"}", "metadata": {"thread_id": "t-1"}}`
	req := httptest.NewRequest("POST", "/api/process", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.ProcessTextHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response models.ProcessingResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !response.Success {
		t.Error("Expected success=true")
	}
	if response.MemoryID != "mem_test" {
		t.Errorf("Expected memory id 'mem_test', got %q", response.MemoryID)
	}
	if response.Intent != models.IntentInvoice {
		t.Errorf("Expected intent invoice, got %q", response.Intent)
	}
}

func TestProcessTextHandler_MissingContent(t *testing.T) {
	handler := newTestProcessHandler(invoiceClassification(), &mockJSONProcessor{}, &mockMemoryStorage{})

	req := httptest.NewRequest("POST", "/api/process", strings.NewReader(`{"content": "  "}`))
	rec := httptest.NewRecorder()

	handler.ProcessTextHandler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestProcessTextHandler_InvalidBody(t *testing.T) {
	handler := newTestProcessHandler(invoiceClassification(), &mockJSONProcessor{}, &mockMemoryStorage{})

	req := httptest.NewRequest("POST", "/api/process", strings.NewReader("not json"))
	rec := httptest.NewRecorder()

	handler.ProcessTextHandler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestProcessTextHandler_ValidationFailureStatus(t *testing.T) {
	jsonAgent := &mockJSONProcessor{
		err: fmt.Errorf("%w: unparseable after repair", models.ErrValidation),
	}
	handler := newTestProcessHandler(invoiceClassification(), jsonAgent, &mockMemoryStorage{})

	req := httptest.NewRequest("POST", "/api/process", strings.NewReader(`{"content": "garbage"}`))
	rec := httptest.NewRecorder()

	handler.ProcessTextHandler(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected status 422, got %d", rec.Code)
	}

	var response models.ProcessingResponse
	json.NewDecoder(rec.Body).Decode(&response)
	if response.ErrorCode != "validation_error" {
		t.Errorf("Expected error_code 'validation_error', got %q", response.ErrorCode)
	}
}

func TestProcessFileHandler_Success(t *testing.T) {
	jsonAgent := &mockJSONProcessor{
		result: &models.JSONExtraction{Validated: true, Fields: map[string]interface{}{}, Anomalies: []string{}},
	}

	var capturedEntry *models.MemoryEntry
	memory := &mockMemoryStorage{
		storeFunc: func(ctx context.Context, entry *models.MemoryEntry) (string, error) {
			capturedEntry = entry
			return "mem_file", nil
		},
	}
	handler := newTestProcessHandler(invoiceClassification(), jsonAgent, memory)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, _ := writer.CreateFormFile("file", "invoice.json")
	part.Write([]byte(`{"vendor":"Acme"}`))
	writer.WriteField("thread_id", "t-7")
	writer.Close()

	req := httptest.NewRequest("POST", "/api/process/file", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()

	handler.ProcessFileHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if capturedEntry == nil {
		t.Fatal("Expected a stored memory entry")
	}
	if capturedEntry.ThreadID != "t-7" {
		t.Errorf("Expected thread_id 't-7', got %q", capturedEntry.ThreadID)
	}
}

func TestProcessFileHandler_MissingFile(t *testing.T) {
	handler := newTestProcessHandler(invoiceClassification(), &mockJSONProcessor{}, &mockMemoryStorage{})

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	writer.WriteField("thread_id", "t-1")
	writer.Close()

	req := httptest.NewRequest("POST", "/api/process/file", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()

	handler.ProcessFileHandler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestClassifyHandler_Success(t *testing.T) {
	handler := newTestProcessHandler(invoiceClassification(), &mockJSONProcessor{}, &mockMemoryStorage{})

	req := httptest.NewRequest("POST", "/api/classify", strings.NewReader(`{"content": "some text"}`))
	rec := httptest.NewRecorder()

	handler.ClassifyHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var result models.ClassificationResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if result.Intent != models.IntentInvoice {
		t.Errorf("Expected intent invoice, got %q", result.Intent)
	}
}

func TestProcessHandlers_MethodNotAllowed(t *testing.T) {
	handler := newTestProcessHandler(invoiceClassification(), &mockJSONProcessor{}, &mockMemoryStorage{})

	req := httptest.NewRequest("GET", "/api/process", nil)
	rec := httptest.NewRecorder()

	handler.ProcessTextHandler(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", rec.Code)
	}
}

func TestDeclaredFormat(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		hint     string
		expected models.DocumentFormat
	}{
		{"Hint wins over extension", "doc.txt", "pdf", models.FormatPDF},
		{"PDF extension", "report.PDF", "", models.FormatPDF},
		{"JSON extension", "data.json", "", models.FormatJSON},
		{"Email extension", "message.eml", "", models.FormatEmail},
		{"Unknown extension defaults to text", "notes.docx", "", models.FormatText},
		{"Invalid hint falls back to extension", "data.json", "spreadsheet", models.FormatJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := declaredFormat(tt.filename, tt.hint); got != tt.expected {
				t.Errorf("declaredFormat(%q, %q) = %q, want %q", tt.filename, tt.hint, got, tt.expected)
			}
		})
	}
}
