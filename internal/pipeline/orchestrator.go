package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/intake/internal/interfaces"
	"github.com/ternarybob/intake/internal/models"
	"github.com/ternarybob/intake/internal/services/agents"
)

// contentPreviewRunes bounds the document preview stored with each
// memory entry.
const contentPreviewRunes = 500

// Orchestrator drives one document through the pipeline stages. Each
// request gets its own linear run; the only shared state is read-only
// wiring and the backing store.
type Orchestrator struct {
	extractor  interfaces.TextExtractor
	classifier interfaces.Classifier
	jsonAgent  interfaces.JSONProcessor
	emailAgent interfaces.EmailProcessor
	memory     interfaces.MemoryStorage
	logger     arbor.ILogger
}

func NewOrchestrator(
	extractor interfaces.TextExtractor,
	classifier interfaces.Classifier,
	jsonAgent interfaces.JSONProcessor,
	emailAgent interfaces.EmailProcessor,
	memory interfaces.MemoryStorage,
	logger arbor.ILogger,
) *Orchestrator {
	return &Orchestrator{
		extractor:  extractor,
		classifier: classifier,
		jsonAgent:  jsonAgent,
		emailAgent: emailAgent,
		memory:     memory,
		logger:     logger,
	}
}

// ProcessText runs the pipeline on text content.
func (o *Orchestrator) ProcessText(ctx context.Context, content string, metadata map[string]string, modelID string) *models.ProcessingResponse {
	doc := &models.Document{
		Text:           content,
		DeclaredFormat: models.FormatText,
		Metadata:       metadata,
	}
	return o.run(ctx, doc, modelID)
}

// ProcessFile extracts text from raw bytes first, then runs the
// pipeline. An unreadable byte stream fails the request; per-page PDF
// failures only add warnings.
func (o *Orchestrator) ProcessFile(ctx context.Context, raw []byte, declared models.DocumentFormat, metadata map[string]string, modelID string) *models.ProcessingResponse {
	extracted, err := o.extractor.Extract(ctx, raw, declared)
	if err != nil {
		state := Ingested().Fail(StageIngested, err.Error())
		o.logger.Warn().
			Str("state", state.String()).
			Err(err).
			Msg("Document extraction failed")
		return failureResponse(err)
	}

	doc := &models.Document{
		RawContent:     raw,
		Text:           extracted.Text,
		DeclaredFormat: declared,
		Metadata:       metadata,
	}
	if len(extracted.Warnings) > 0 {
		doc.SetMetadata("extraction_warnings", strings.Join(extracted.Warnings, "; "))
	}
	doc.SetMetadata("document_title", extracted.Properties.Title)
	doc.SetMetadata("document_author", extracted.Properties.Author)
	doc.SetMetadata("document_created", extracted.Properties.CreationDate)

	return o.run(ctx, doc, modelID)
}

// ClassifyOnly runs classification without routing, extraction, or
// storage. Identical fallback-path inputs produce identical results.
func (o *Orchestrator) ClassifyOnly(ctx context.Context, content, modelID string) *models.ClassificationResult {
	return o.classifier.Classify(ctx, content, models.FormatText, modelID)
}

// run executes the state machine from Ingested through Completed.
func (o *Orchestrator) run(ctx context.Context, doc *models.Document, modelID string) *models.ProcessingResponse {
	state := Ingested()
	started := time.Now()

	// Ingested -> Classified: never hard-fails.
	classification := o.classifier.Classify(ctx, doc.Text, doc.DeclaredFormat, modelID)
	state = state.Advance(StageClassified)

	// Classified -> Routed: pure function of intent.
	route := agents.RouteForIntent(classification.Intent)
	state = state.Advance(StageRouted)

	o.logger.Info().
		Str("format", string(classification.Format)).
		Str("intent", string(classification.Intent)).
		Float64("confidence", classification.Confidence).
		Str("route", string(route)).
		Msg("Document classified and routed")

	// Routed -> Extracted: agent failure is terminal, never rerouted.
	extractedValues, err := o.invokeAgent(ctx, route, doc.Text, classification, modelID)
	if err != nil {
		state = state.Fail(StageExtracted, err.Error())
		o.logger.Warn().
			Str("state", state.String()).
			Str("route", string(route)).
			Err(err).
			Msg("Agent extraction failed")
		return failureResponse(err)
	}
	state = state.Advance(StageExtracted)

	// Extracted -> Stored: storage is best-effort.
	memoryID, degraded := o.store(ctx, string(route), doc, classification, extractedValues)
	state = state.Advance(StageStored)

	// Stored -> Completed.
	state = state.Advance(StageCompleted)
	o.logger.Info().
		Str("state", state.String()).
		Str("memory_id", memoryID).
		Bool("degraded_storage", degraded).
		Dur("elapsed", time.Since(started)).
		Msg("Document processing complete")

	message := "document processed"
	if degraded {
		message = "document processed; result was not persisted"
	}

	return &models.ProcessingResponse{
		Success:         true,
		Message:         message,
		MemoryID:        memoryID,
		DocumentType:    classification.Format,
		Intent:          classification.Intent,
		ExtractedValues: extractedValues,
		DegradedStorage: degraded,
	}
}

func (o *Orchestrator) invokeAgent(ctx context.Context, route interfaces.RoutingTarget, text string, classification *models.ClassificationResult, modelID string) (map[string]interface{}, error) {
	switch route {
	case interfaces.RouteJSONAgent:
		extraction, err := o.jsonAgent.Process(ctx, text, classification, modelID)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"validated": extraction.Validated,
			"fields":    extraction.Fields,
			"anomalies": extraction.Anomalies,
			"repaired":  extraction.Repaired,
		}, nil

	default:
		extraction := o.emailAgent.Process(ctx, text, classification, modelID)
		return map[string]interface{}{
			"sender":    extraction.Sender,
			"subject":   extraction.Subject,
			"urgency":   string(extraction.Urgency),
			"sentiment": string(extraction.Sentiment),
			"summary":   extraction.Summary,
		}, nil
	}
}

// store persists the processing result. Failure downgrades to a flag
// on the response, never an error to the caller.
func (o *Orchestrator) store(ctx context.Context, sourceAgent string, doc *models.Document, classification *models.ClassificationResult, extractedValues map[string]interface{}) (string, bool) {
	values := make(map[string]interface{}, len(extractedValues)+2)
	for k, v := range extractedValues {
		values[k] = v
	}
	values["classification"] = classification
	values["content_preview"] = previewText(doc.Text)
	if len(doc.Metadata) > 0 {
		values["metadata"] = doc.Metadata
	}

	entry := &models.MemoryEntry{
		SourceAgent:     sourceAgent,
		DocumentType:    classification.Format,
		Intent:          classification.Intent,
		ExtractedValues: values,
		ThreadID:        doc.Metadata["thread_id"],
		ConversationID:  doc.Metadata["conversation_id"],
	}

	id, err := o.memory.Store(ctx, entry)
	if err != nil {
		o.logger.Warn().
			Err(err).
			Msg("Memory store failed, returning degraded response")
		return "", true
	}
	return id, false
}

func previewText(text string) string {
	runes := []rune(text)
	if len(runes) <= contentPreviewRunes {
		return text
	}
	return string(runes[:contentPreviewRunes])
}

// failureResponse maps an error to the caller-visible failure shape.
func failureResponse(err error) *models.ProcessingResponse {
	return &models.ProcessingResponse{
		Success:   false,
		Message:   err.Error(),
		ErrorCode: models.ErrorCode(err),
	}
}

// Summarize collapses a memory entry into one history line shaped per
// source agent.
func Summarize(entry *models.MemoryEntry) models.MemorySummary {
	summary := models.MemorySummary{
		ID:           entry.ID,
		SourceAgent:  entry.SourceAgent,
		DocumentType: entry.DocumentType,
		Intent:       entry.Intent,
		CreatedAt:    entry.CreatedAt,
	}

	switch entry.SourceAgent {
	case string(interfaces.RouteJSONAgent):
		fields, _ := entry.ExtractedValues["fields"].(map[string]interface{})
		summary.Summary = fmt.Sprintf("%s with %d extracted fields", entry.Intent, len(fields))
	case string(interfaces.RouteEmailAgent):
		sender, _ := entry.ExtractedValues["sender"].(string)
		urgency, _ := entry.ExtractedValues["urgency"].(string)
		if sender == "" {
			sender = "unknown sender"
		}
		summary.Summary = fmt.Sprintf("%s from %s (urgency %s)", entry.Intent, sender, urgency)
	default:
		summary.Summary = string(entry.Intent)
	}

	return summary
}
