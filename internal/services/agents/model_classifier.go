package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/intake/internal/interfaces"
	"github.com/ternarybob/intake/internal/models"
)

const classifyPromptTemplate = `You are a document classification expert. Analyze the raw content and determine both format and intent.

CRITICAL: Your response MUST be ONLY a valid JSON object starting with { and ending with }. Do NOT include any text before or after the JSON. Do NOT use markdown formatting. Do NOT add explanatory text.

Respond with this exact JSON structure:

{
"format": "pdf" | "json" | "email" | "text",
"intent": "invoice" | "rfq" | "complaint" | "regulation" | "general",
"confidence": 0.0-1.0,
"rationale": "explanation of your decision"
}

Format classification (analyze the content structure):
- json: valid JSON structure with braces, brackets, proper syntax
- email: has email headers (From:, To:, Subject:) or email formatting
- pdf: text extracted from a PDF document
- text: plain prose with no structural markers

Intent classification (analyze the meaning):
- invoice: billing or payment terms, amounts, vendor info, invoice numbers
- rfq: request for quote, proposals, bidding requirements, procurement
- complaint: issues, problems, urgent matters, service complaints, system down
- regulation: policies, compliance, regulatory requirements, legal documents
- general: default for other content

REMEMBER: return ONLY the JSON object, nothing else.

Content to classify:

%s`

// classifyPromptLimit bounds how much document text goes to the model.
const classifyPromptLimit = 2000

// modelClassification mirrors the JSON the classification prompt asks for.
type modelClassification struct {
	Format     string  `json:"format"`
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale"`
}

// ModelClassifier is the first tier: it asks the model gateway for a
// structured format+intent decision and parses the reply strictly. Any
// failure surfaces as an error so the supervisor can fall back.
type ModelClassifier struct {
	gateway interfaces.ModelGateway
	logger  arbor.ILogger
}

func NewModelClassifier(gateway interfaces.ModelGateway, logger arbor.ILogger) *ModelClassifier {
	return &ModelClassifier{gateway: gateway, logger: logger}
}

func (c *ModelClassifier) Classify(ctx context.Context, text, modelID string) (*models.ClassificationResult, error) {
	prompt := fmt.Sprintf(classifyPromptTemplate, truncateRunes(text, classifyPromptLimit))

	result, err := c.gateway.Invoke(ctx, prompt, modelID)
	if err != nil {
		return nil, fmt.Errorf("classification call: %w", err)
	}

	var parsed modelClassification
	cleaned := cleanModelResponse(result.Text)
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, fmt.Errorf("classification response not parseable: %w", err)
	}

	format, intent, err := validateClassification(&parsed)
	if err != nil {
		return nil, err
	}

	confidence := parsed.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	c.logger.Debug().
		Str("format", string(format)).
		Str("intent", string(intent)).
		Float64("confidence", confidence).
		Str("provider", result.Provider).
		Msg("Model classification complete")

	return &models.ClassificationResult{
		Format:     format,
		Intent:     intent,
		Confidence: confidence,
		Rationale:  parsed.Rationale,
		Timestamp:  time.Now().UTC(),
	}, nil
}

// validateClassification rejects enum values outside the closed sets.
func validateClassification(parsed *modelClassification) (models.DocumentFormat, models.DocumentIntent, error) {
	format := models.DocumentFormat(parsed.Format)
	switch format {
	case models.FormatPDF, models.FormatJSON, models.FormatEmail, models.FormatText:
	default:
		return "", "", fmt.Errorf("classification returned unknown format %q", parsed.Format)
	}

	intent := models.DocumentIntent(parsed.Intent)
	switch intent {
	case models.IntentInvoice, models.IntentRFQ, models.IntentComplaint,
		models.IntentRegulation, models.IntentGeneral:
	default:
		return "", "", fmt.Errorf("classification returned unknown intent %q", parsed.Intent)
	}

	return format, intent, nil
}
