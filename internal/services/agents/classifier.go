package agents

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/intake/internal/interfaces"
	"github.com/ternarybob/intake/internal/models"
)

// ClassifierAgent runs the two-tier classification: model first, rule
// fallback second. Classification is never fatal; when both tiers fail
// to produce a determination it emits the documented last-resort
// result (text/general at zero confidence).
type ClassifierAgent struct {
	model  *ModelClassifier
	rules  *RuleClassifier
	logger arbor.ILogger
}

var _ interfaces.Classifier = (*ClassifierAgent)(nil)

func NewClassifierAgent(gateway interfaces.ModelGateway, logger arbor.ILogger) *ClassifierAgent {
	return &ClassifierAgent{
		model:  NewModelClassifier(gateway, logger),
		rules:  NewRuleClassifier(),
		logger: logger,
	}
}

func (c *ClassifierAgent) Classify(ctx context.Context, text string, declared models.DocumentFormat, modelID string) *models.ClassificationResult {
	result, err := c.model.Classify(ctx, text, modelID)
	if err == nil {
		return result
	}

	c.logger.Warn().
		Err(err).
		Msg("Model classification failed, falling back to rules")

	if fallback := c.rules.Classify(ctx, text, declared); fallback != nil {
		return fallback
	}

	// Last resort. Reached only if the rule tier itself broke, which
	// has no expected path, but the contract says never return nil.
	return &models.ClassificationResult{
		Format:     models.FormatText,
		Intent:     models.IntentGeneral,
		Confidence: 0.0,
		Rationale:  "classification failed at both tiers",
		Timestamp:  time.Now().UTC(),
	}
}

// RouteForIntent is the routing policy: a pure function of intent.
// Structured business documents (invoice, rfq) go to the JSON agent
// even when they arrive as email bodies; everything else goes to the
// email agent.
func RouteForIntent(intent models.DocumentIntent) interfaces.RoutingTarget {
	switch intent {
	case models.IntentInvoice, models.IntentRFQ:
		return interfaces.RouteJSONAgent
	default:
		return interfaces.RouteEmailAgent
	}
}
