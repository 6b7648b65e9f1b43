package interfaces

import (
	"context"

	"github.com/ternarybob/intake/internal/models"
)

// RoutingTarget names the specialized agent a document is routed to.
type RoutingTarget string

const (
	RouteJSONAgent  RoutingTarget = "json_agent"
	RouteEmailAgent RoutingTarget = "email_agent"
)

// Classifier determines document format and intent with a confidence
// score. Implementations never hard-fail: when a determination cannot
// be made, they return the documented fallback-of-last-resort.
type Classifier interface {
	// Classify inspects text extracted from an upload. The declared
	// format tells the rule tier whether the text arrived via PDF
	// extraction, which leaves no structural trace in the text itself.
	Classify(ctx context.Context, text string, declared models.DocumentFormat, modelID string) *models.ClassificationResult
}

// JSONProcessor is the specialized agent for structured documents.
type JSONProcessor interface {
	// Process parses and validates the payload. Missing intent fields
	// become anomalies on a partial result; an unparseable payload
	// that survives the repair pass fails with models.ErrValidation.
	Process(ctx context.Context, text string, classification *models.ClassificationResult, modelID string) (*models.JSONExtraction, error)
}

// EmailProcessor is the specialized agent for correspondence. It never
// fails: every degraded path yields a deterministic substitute value.
type EmailProcessor interface {
	Process(ctx context.Context, text string, classification *models.ClassificationResult, modelID string) *models.EmailExtraction
}
