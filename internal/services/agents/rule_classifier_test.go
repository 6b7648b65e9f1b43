package agents

import (
	"context"
	"testing"

	"github.com/ternarybob/intake/internal/models"
)

func TestRuleClassifier_Format(t *testing.T) {
	classifier := NewRuleClassifier()
	ctx := context.Background()

	tests := []struct {
		name           string
		text           string
		declared       models.DocumentFormat
		expectedFormat models.DocumentFormat
	}{
		{
			name:           "valid json object",
			text:           `{"vendor":"Acme Corp","amount":500.00}`,
			declared:       models.FormatText,
			expectedFormat: models.FormatJSON,
		},
		{
			name:           "valid json array",
			text:           `[{"item":"widget"}]`,
			declared:       models.FormatText,
			expectedFormat: models.FormatJSON,
		},
		{
			name:           "malformed json falls through",
			text:           `{"vendor": "Acme Corp", "amount": }`,
			declared:       models.FormatText,
			expectedFormat: models.FormatText,
		},
		{
			name:           "email headers",
			text:           "From: customer@example.com\nSubject: Order status\nWhere is my order?",
			declared:       models.FormatText,
			expectedFormat: models.FormatEmail,
		},
		{
			name:           "email headers beat pdf declaration",
			text:           "From: a@b.com\nTo: c@d.com\nSubject: hello",
			declared:       models.FormatPDF,
			expectedFormat: models.FormatEmail,
		},
		{
			name:           "pdf origin preserved for plain text",
			text:           "=== Page 1 ===\nQuarterly report contents",
			declared:       models.FormatPDF,
			expectedFormat: models.FormatPDF,
		},
		{
			name:           "plain text",
			text:           "just some prose with no structure",
			declared:       models.FormatText,
			expectedFormat: models.FormatText,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := classifier.Classify(ctx, tt.text, tt.declared)
			if result.Format != tt.expectedFormat {
				t.Errorf("format = %s, want %s", result.Format, tt.expectedFormat)
			}
			if result.Confidence != ruleFallbackConfidence {
				t.Errorf("confidence = %f, want %f", result.Confidence, ruleFallbackConfidence)
			}
		})
	}
}

func TestRuleClassifier_Intent(t *testing.T) {
	classifier := NewRuleClassifier()
	ctx := context.Background()

	tests := []struct {
		name           string
		text           string
		expectedIntent models.DocumentIntent
	}{
		{
			name:           "invoice keywords",
			text:           "Invoice number INV-001, amount due $500 from vendor Acme",
			expectedIntent: models.IntentInvoice,
		},
		{
			name:           "rfq keywords",
			text:           "Please send a quotation for 100 units, procurement deadline Friday",
			expectedIntent: models.IntentRFQ,
		},
		{
			name:           "complaint keywords",
			text:           "The system is down and this is urgent",
			expectedIntent: models.IntentComplaint,
		},
		{
			name:           "regulation keywords",
			text:           "New compliance policy per GDPR article 17",
			expectedIntent: models.IntentRegulation,
		},
		{
			name:           "no keywords",
			text:           "Hello, just checking in about the weather",
			expectedIntent: models.IntentGeneral,
		},
		{
			name:           "invoice wins over complaint by priority",
			text:           "Urgent: the invoice amount is wrong",
			expectedIntent: models.IntentInvoice,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := classifier.Classify(ctx, tt.text, models.FormatText)
			if result.Intent != tt.expectedIntent {
				t.Errorf("intent = %s, want %s", result.Intent, tt.expectedIntent)
			}
		})
	}
}

func TestRuleClassifier_Deterministic(t *testing.T) {
	classifier := NewRuleClassifier()
	ctx := context.Background()
	text := "From: x@y.com\nSubject: invoice attached"

	first := classifier.Classify(ctx, text, models.FormatText)
	second := classifier.Classify(ctx, text, models.FormatText)

	if first.Format != second.Format || first.Intent != second.Intent || first.Confidence != second.Confidence {
		t.Errorf("rule classification not reproducible: %+v vs %+v", first, second)
	}
}
