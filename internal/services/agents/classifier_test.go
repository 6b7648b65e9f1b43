package agents

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/intake/internal/common"
	"github.com/ternarybob/intake/internal/interfaces"
	"github.com/ternarybob/intake/internal/models"
)

// stubGateway is a canned ModelGateway for agent tests.
type stubGateway struct {
	text       string
	err        error
	invoked    int
	lastPrompt string
}

func (s *stubGateway) Invoke(_ context.Context, prompt, _ string) (*interfaces.InvokeResult, error) {
	s.invoked++
	s.lastPrompt = prompt
	if s.err != nil {
		return nil, s.err
	}
	return &interfaces.InvokeResult{Text: s.text, Provider: "stub", Attempts: 1}, nil
}

func (s *stubGateway) Available(string) bool { return true }

func TestClassifierAgent_ModelTier(t *testing.T) {
	gateway := &stubGateway{
		text: `{"format":"json","intent":"invoice","confidence":0.92,"rationale":"billing fields present"}`,
	}
	classifier := NewClassifierAgent(gateway, common.GetLogger())

	result := classifier.Classify(context.Background(), `{"vendor":"Acme"}`, models.FormatText, "")

	require.NotNil(t, result)
	assert.Equal(t, models.FormatJSON, result.Format)
	assert.Equal(t, models.IntentInvoice, result.Intent)
	assert.InDelta(t, 0.92, result.Confidence, 0.001)
	assert.Equal(t, 1, gateway.invoked)
}

func TestClassifierAgent_ModelTierFencedResponse(t *testing.T) {
	gateway := &stubGateway{
		text: "```json\n{\"format\":\"email\",\"intent\":\"complaint\",\"confidence\":0.8,\"rationale\":\"angry tone\"}\n```",
	}
	classifier := NewClassifierAgent(gateway, common.GetLogger())

	result := classifier.Classify(context.Background(), "From: x@y.com\nthis is broken", models.FormatText, "")

	assert.Equal(t, models.FormatEmail, result.Format)
	assert.Equal(t, models.IntentComplaint, result.Intent)
}

func TestClassifierAgent_FallsBackToRulesOnModelError(t *testing.T) {
	gateway := &stubGateway{err: errors.New("provider exploded")}
	classifier := NewClassifierAgent(gateway, common.GetLogger())

	result := classifier.Classify(context.Background(),
		"From: customer@example.com\nSubject: Urgent: System Down\nWe need immediate help!",
		models.FormatText, "")

	require.NotNil(t, result)
	assert.Equal(t, models.FormatEmail, result.Format)
	assert.Equal(t, models.IntentComplaint, result.Intent)
	assert.Equal(t, ruleFallbackConfidence, result.Confidence)
}

func TestClassifierAgent_FallsBackOnUnparseableResponse(t *testing.T) {
	gateway := &stubGateway{text: "I think this is probably an invoice."}
	classifier := NewClassifierAgent(gateway, common.GetLogger())

	result := classifier.Classify(context.Background(),
		`{"vendor":"Acme Corp","amount":500.00}`, models.FormatText, "")

	assert.Equal(t, models.FormatJSON, result.Format)
	assert.Equal(t, models.IntentInvoice, result.Intent)
	assert.Equal(t, ruleFallbackConfidence, result.Confidence)
}

func TestClassifierAgent_FallsBackOnInvalidEnum(t *testing.T) {
	gateway := &stubGateway{
		text: `{"format":"spreadsheet","intent":"invoice","confidence":0.9,"rationale":"x"}`,
	}
	classifier := NewClassifierAgent(gateway, common.GetLogger())

	result := classifier.Classify(context.Background(), "plain text", models.FormatText, "")

	assert.Equal(t, models.FormatText, result.Format)
	assert.Equal(t, ruleFallbackConfidence, result.Confidence)
}

func TestRouteForIntent(t *testing.T) {
	tests := []struct {
		intent models.DocumentIntent
		want   interfaces.RoutingTarget
	}{
		{models.IntentInvoice, interfaces.RouteJSONAgent},
		{models.IntentRFQ, interfaces.RouteJSONAgent},
		{models.IntentComplaint, interfaces.RouteEmailAgent},
		{models.IntentRegulation, interfaces.RouteEmailAgent},
		{models.IntentGeneral, interfaces.RouteEmailAgent},
	}

	for _, tt := range tests {
		t.Run(string(tt.intent), func(t *testing.T) {
			assert.Equal(t, tt.want, RouteForIntent(tt.intent))
		})
	}
}
