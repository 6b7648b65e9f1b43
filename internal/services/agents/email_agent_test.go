package agents

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/intake/internal/common"
	"github.com/ternarybob/intake/internal/models"
)

func complaintClassification() *models.ClassificationResult {
	return &models.ClassificationResult{
		Format: models.FormatEmail,
		Intent: models.IntentComplaint,
	}
}

func TestEmailAgent_UrgentComplaint(t *testing.T) {
	gateway := &stubGateway{text: "Customer reports a full outage and needs immediate help."}
	agent := NewEmailAgent(gateway, common.GetLogger())

	extraction := agent.Process(context.Background(),
		"From: customer@example.com\nSubject: Urgent: System Down\n\nWe need immediate help!",
		complaintClassification(), "")

	require.NotNil(t, extraction)
	assert.Equal(t, "customer@example.com", extraction.Sender)
	assert.Equal(t, "Urgent: System Down", extraction.Subject)
	assert.Contains(t, []models.UrgencyLevel{models.UrgencyHigh, models.UrgencyCritical}, extraction.Urgency)
	assert.NotEmpty(t, extraction.Summary)
}

func TestEmailAgent_SenderFallbackPattern(t *testing.T) {
	agent := NewEmailAgent(&stubGateway{text: "ok"}, common.GetLogger())

	extraction := agent.Process(context.Background(),
		"Please contact billing@acme.example for the invoice copy.",
		&models.ClassificationResult{Intent: models.IntentGeneral}, "")

	assert.Equal(t, "billing@acme.example", extraction.Sender)
}

func TestEmailAgent_NoSenderIsEmpty(t *testing.T) {
	agent := NewEmailAgent(&stubGateway{text: "ok"}, common.GetLogger())

	extraction := agent.Process(context.Background(),
		"no address anywhere in this text",
		&models.ClassificationResult{Intent: models.IntentGeneral}, "")

	assert.Equal(t, "", extraction.Sender)
}

func TestEmailAgent_UrgencyBaselines(t *testing.T) {
	agent := NewEmailAgent(&stubGateway{text: "ok"}, common.GetLogger())

	tests := []struct {
		name   string
		intent models.DocumentIntent
		text   string
		want   models.UrgencyLevel
	}{
		{
			name:   "general calm text stays low",
			intent: models.IntentGeneral,
			text:   "Monthly newsletter attached.",
			want:   models.UrgencyLow,
		},
		{
			name:   "complaint baseline is medium",
			intent: models.IntentComplaint,
			text:   "The report numbers look wrong.",
			want:   models.UrgencyMedium,
		},
		{
			name:   "complaint with one escalation keyword",
			intent: models.IntentComplaint,
			text:   "This is urgent, the numbers are wrong.",
			want:   models.UrgencyHigh,
		},
		{
			name:   "complaint with multiple escalation keywords",
			intent: models.IntentComplaint,
			text:   "Urgent: production is down, fix immediately.",
			want:   models.UrgencyCritical,
		},
		{
			name:   "general with escalation keyword",
			intent: models.IntentGeneral,
			text:   "Quick question, nothing urgent.",
			want:   models.UrgencyMedium,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extraction := agent.Process(context.Background(), tt.text,
				&models.ClassificationResult{Intent: tt.intent}, "")
			assert.Equal(t, tt.want, extraction.Urgency)
		})
	}
}

func TestEmailAgent_Sentiment(t *testing.T) {
	agent := NewEmailAgent(&stubGateway{text: "ok"}, common.GetLogger())

	tests := []struct {
		name string
		text string
		want models.Sentiment
	}{
		{"negative", "This is a terrible problem and I am frustrated.", models.SentimentNegative},
		{"positive", "Thanks so much, great work, really appreciate it!", models.SentimentPositive},
		{"neutral no signal", "The meeting is at 3pm on Thursday.", models.SentimentNeutral},
		{"tie is neutral", "Thanks for looking at the problem.", models.SentimentNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extraction := agent.Process(context.Background(), tt.text,
				&models.ClassificationResult{Intent: models.IntentGeneral}, "")
			assert.Equal(t, tt.want, extraction.Sentiment)
		})
	}
}

func TestEmailAgent_SummaryFallbackOnModelError(t *testing.T) {
	gateway := &stubGateway{err: errors.New("provider down")}
	agent := NewEmailAgent(gateway, common.GetLogger())

	text := "From: a@b.com\nSubject: hi\n\n" + strings.Repeat("lorem ipsum ", 50)
	extraction := agent.Process(context.Background(), text,
		&models.ClassificationResult{Intent: models.IntentGeneral}, "")

	assert.NotEmpty(t, extraction.Summary)
	assert.LessOrEqual(t, len([]rune(extraction.Summary)), summaryFallbackRunes)
	assert.True(t, strings.HasPrefix(text, extraction.Summary))
}
