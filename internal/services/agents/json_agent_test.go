package agents

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/intake/internal/common"
	"github.com/ternarybob/intake/internal/models"
)

func invoiceClassification() *models.ClassificationResult {
	return &models.ClassificationResult{
		Format: models.FormatJSON,
		Intent: models.IntentInvoice,
	}
}

func TestJSONAgent_ValidInvoice(t *testing.T) {
	gateway := &stubGateway{}
	agent := NewJSONAgent(gateway, common.GetLogger())

	extraction, err := agent.Process(context.Background(),
		`{"vendor":"Acme Corp","amount":500.00}`,
		invoiceClassification(), "")

	require.NoError(t, err)
	assert.True(t, extraction.Validated)
	assert.Empty(t, extraction.Anomalies)
	assert.False(t, extraction.Repaired)
	assert.Equal(t, "Acme Corp", extraction.Fields["vendor"])
	assert.Equal(t, "500.00", extraction.Fields["amount"])
	assert.Zero(t, gateway.invoked)
}

func TestJSONAgent_MissingFieldsAreAnomalies(t *testing.T) {
	agent := NewJSONAgent(&stubGateway{}, common.GetLogger())

	extraction, err := agent.Process(context.Background(),
		`{"invoice_number":"INV-001"}`, invoiceClassification(), "")

	require.NoError(t, err)
	assert.False(t, extraction.Validated)
	assert.Len(t, extraction.Anomalies, 2) // vendor, amount
}

func TestJSONAgent_AmountNormalization(t *testing.T) {
	agent := NewJSONAgent(&stubGateway{}, common.GetLogger())

	extraction, err := agent.Process(context.Background(),
		`{"vendor":"Acme","amount":"$1,234.5","invoice_number":"INV-2","total":99.999}`,
		invoiceClassification(), "")

	require.NoError(t, err)
	assert.Equal(t, "1234.50", extraction.Fields["amount"])
	assert.Equal(t, "100.00", extraction.Fields["total"])
}

func TestJSONAgent_NegativeAmountAnomaly(t *testing.T) {
	agent := NewJSONAgent(&stubGateway{}, common.GetLogger())

	extraction, err := agent.Process(context.Background(),
		`{"vendor":"Acme","amount":-10,"invoice_number":"INV-3"}`,
		invoiceClassification(), "")

	require.NoError(t, err)
	assert.False(t, extraction.Validated)
	require.Len(t, extraction.Anomalies, 1)
	assert.Contains(t, extraction.Anomalies[0], "negative amount")
}

func TestJSONAgent_NullValueAnomaly(t *testing.T) {
	agent := NewJSONAgent(&stubGateway{}, common.GetLogger())

	extraction, err := agent.Process(context.Background(),
		`{"vendor":null,"amount":5,"invoice_number":"INV-4"}`,
		invoiceClassification(), "")

	require.NoError(t, err)
	assert.False(t, extraction.Validated)
	require.Len(t, extraction.Anomalies, 1)
	assert.Contains(t, extraction.Anomalies[0], "null")
}

func TestJSONAgent_RepairPassSucceeds(t *testing.T) {
	gateway := &stubGateway{
		text: `{"vendor":"Acme Corp","amount":500,"invoice_number":"INV-5"}`,
	}
	agent := NewJSONAgent(gateway, common.GetLogger())

	extraction, err := agent.Process(context.Background(),
		`vendor: Acme Corp, amount: 500`, invoiceClassification(), "")

	require.NoError(t, err)
	assert.True(t, extraction.Repaired)
	assert.False(t, extraction.Validated)
	assert.Equal(t, "Acme Corp", extraction.Fields["vendor"])
	assert.Equal(t, 1, gateway.invoked)
}

func TestJSONAgent_RepairPassFails(t *testing.T) {
	gateway := &stubGateway{text: "sorry, I cannot fix this"}
	agent := NewJSONAgent(gateway, common.GetLogger())

	_, err := agent.Process(context.Background(),
		"definitely not json", invoiceClassification(), "")

	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrValidation))
}

func TestJSONAgent_RepairCallFails(t *testing.T) {
	gateway := &stubGateway{err: errors.New("provider down")}
	agent := NewJSONAgent(gateway, common.GetLogger())

	_, err := agent.Process(context.Background(),
		"definitely not json", invoiceClassification(), "")

	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrValidation))
}

func TestJSONAgent_TopLevelArray(t *testing.T) {
	agent := NewJSONAgent(&stubGateway{}, common.GetLogger())

	extraction, err := agent.Process(context.Background(),
		`[{"item":"widget","qty":3}]`,
		&models.ClassificationResult{Format: models.FormatJSON, Intent: models.IntentGeneral}, "")

	require.NoError(t, err)
	assert.True(t, extraction.Validated)
	assert.Contains(t, extraction.Fields, "items")
}
