package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/intake/internal/models"
)

// ruleFallbackConfidence reflects rule-based uncertainty versus model
// judgment. Rule classifications always carry this fixed score.
const ruleFallbackConfidence = 0.3

// intentRule maps keywords to an intent. Rules are evaluated in
// priority order and the first match wins.
type intentRule struct {
	intent   models.DocumentIntent
	keywords []string
}

var intentRules = []intentRule{
	{
		intent: models.IntentInvoice,
		keywords: []string{
			"invoice", "invoice number", "billing", "bill to",
			"amount due", "payment terms", "vendor", "total amount",
			"remit", "purchase order",
		},
	},
	{
		intent: models.IntentRFQ,
		keywords: []string{
			"request for quote", "rfq", "quote", "quotation",
			"proposal", "bid", "bidding", "procurement", "tender",
		},
	},
	{
		intent: models.IntentComplaint,
		keywords: []string{
			"complaint", "issue", "problem", "urgent", "outage",
			"down", "broken", "not working", "failure", "escalate",
		},
	},
	{
		intent: models.IntentRegulation,
		keywords: []string{
			"regulation", "regulatory", "policy", "compliance",
			"legal", "statute", "law", "gdpr", "audit",
		},
	},
}

var emailHeaderTokens = []string{"from:", "to:", "subject:"}

// RuleClassifier is the deterministic second tier. It classifies by
// syntax and keyword matching without any model call, so its results
// are exactly reproducible.
type RuleClassifier struct{}

func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{}
}

// Classify applies format detection then the ordered intent rules.
// The declared format wins only for pdf, where surface text gives no
// structural signal of its origin.
func (c *RuleClassifier) Classify(_ context.Context, text string, declared models.DocumentFormat) *models.ClassificationResult {
	format := detectFormat(text, declared)
	intent, matched := detectIntent(text)

	rationale := "rule-based: no intent keywords matched"
	if matched != "" {
		rationale = fmt.Sprintf("rule-based: matched keyword %q", matched)
	}

	return &models.ClassificationResult{
		Format:     format,
		Intent:     intent,
		Confidence: ruleFallbackConfidence,
		Rationale:  rationale,
		Timestamp:  time.Now().UTC(),
	}
}

func detectFormat(text string, declared models.DocumentFormat) models.DocumentFormat {
	trimmed := strings.TrimSpace(text)

	if looksLikeJSON(trimmed) {
		return models.FormatJSON
	}

	lower := strings.ToLower(trimmed)
	for _, token := range emailHeaderTokens {
		if strings.Contains(lower, token) {
			return models.FormatEmail
		}
	}

	if declared == models.FormatPDF {
		return models.FormatPDF
	}
	return models.FormatText
}

// looksLikeJSON requires actually parseable JSON, not just braces.
func looksLikeJSON(text string) bool {
	if len(text) == 0 {
		return false
	}
	if text[0] != '{' && text[0] != '[' {
		return false
	}
	return json.Valid([]byte(text))
}

func detectIntent(text string) (models.DocumentIntent, string) {
	lower := strings.ToLower(text)
	for _, rule := range intentRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(lower, keyword) {
				return rule.intent, keyword
			}
		}
	}
	return models.IntentGeneral, ""
}
