package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/intake/internal/interfaces"
	"github.com/ternarybob/intake/internal/models"
)

const repairPromptTemplate = `The following text is intended to be a JSON document but does not parse. Reformat it into valid JSON, preserving every field and value you can recover.

CRITICAL: Your response MUST be ONLY the corrected JSON object or array, starting with { or [ and ending with } or ]. Do NOT include any text before or after the JSON. Do NOT use markdown formatting.

Text to repair:

%s`

const repairPromptLimit = 3000

// expectedFields lists the intent-specific fields the JSON agent
// validates. Missing fields become anomalies on a partial result,
// never a failure.
var expectedFields = map[models.DocumentIntent][]string{
	models.IntentInvoice:    {"vendor", "amount"},
	models.IntentRFQ:        {"requirements", "deadline", "contact"},
	models.IntentComplaint:  {"issue", "severity"},
	models.IntentRegulation: {"requirements"},
}

// amountFields are normalized to fixed-point decimal strings so
// downstream consumers never see floating-point drift.
var amountFields = map[string]bool{
	"amount":       true,
	"total":        true,
	"total_amount": true,
	"subtotal":     true,
	"tax":          true,
	"price":        true,
	"unit_price":   true,
	"balance":      true,
}

// JSONAgent processes structured documents. Unparseable input gets one
// model-assisted repair pass; if that also fails to parse, processing
// fails with a validation error.
type JSONAgent struct {
	gateway interfaces.ModelGateway
	logger  arbor.ILogger
}

var _ interfaces.JSONProcessor = (*JSONAgent)(nil)

func NewJSONAgent(gateway interfaces.ModelGateway, logger arbor.ILogger) *JSONAgent {
	return &JSONAgent{gateway: gateway, logger: logger}
}

func (a *JSONAgent) Process(ctx context.Context, text string, classification *models.ClassificationResult, modelID string) (*models.JSONExtraction, error) {
	fields, repaired, err := a.parseWithRepair(ctx, text, modelID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrValidation, err)
	}

	extraction := &models.JSONExtraction{
		Validated: true,
		Fields:    fields,
		Anomalies: []string{},
		Repaired:  repaired,
	}
	if repaired {
		extraction.Anomalies = append(extraction.Anomalies, "payload required model-assisted repair to parse")
		extraction.Validated = false
	}

	for _, field := range expectedFields[classification.Intent] {
		if _, ok := fields[field]; !ok {
			extraction.Anomalies = append(extraction.Anomalies,
				fmt.Sprintf("missing expected field %q for intent %s", field, classification.Intent))
			extraction.Validated = false
		}
	}

	a.checkValues(extraction)
	normalizeAmounts(extraction.Fields)

	a.logger.Debug().
		Bool("validated", extraction.Validated).
		Int("anomalies", len(extraction.Anomalies)).
		Bool("repaired", extraction.Repaired).
		Msg("JSON extraction complete")

	return extraction, nil
}

// parseWithRepair parses the text as JSON, invoking the model repair
// pass once on failure. The second return reports whether the repair
// pass produced the parsed result.
func (a *JSONAgent) parseWithRepair(ctx context.Context, text, modelID string) (map[string]interface{}, bool, error) {
	fields, err := parseJSONObject(text)
	if err == nil {
		return fields, false, nil
	}

	a.logger.Info().
		Err(err).
		Msg("JSON parse failed, attempting model repair")

	prompt := fmt.Sprintf(repairPromptTemplate, truncateRunes(text, repairPromptLimit))
	result, invokeErr := a.gateway.Invoke(ctx, prompt, modelID)
	if invokeErr != nil {
		return nil, false, fmt.Errorf("unparseable JSON and repair call failed: %v (parse error: %v)", invokeErr, err)
	}

	fields, repairErr := parseJSONObject(cleanModelResponse(result.Text))
	if repairErr != nil {
		return nil, false, fmt.Errorf("unparseable JSON after repair pass: %v", repairErr)
	}
	return fields, true, nil
}

// parseJSONObject accepts a top-level object, or a top-level array
// which is wrapped under an "items" key.
func parseJSONObject(text string) (map[string]interface{}, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, fmt.Errorf("empty payload")
	}

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(trimmed), &obj); err == nil {
		return obj, nil
	}

	var arr []interface{}
	if err := json.Unmarshal([]byte(trimmed), &arr); err == nil {
		return map[string]interface{}{"items": arr}, nil
	}

	return nil, fmt.Errorf("not a JSON object or array")
}

// checkValues records data anomalies: null values and negative amounts.
func (a *JSONAgent) checkValues(extraction *models.JSONExtraction) {
	for key, value := range extraction.Fields {
		if value == nil {
			extraction.Anomalies = append(extraction.Anomalies,
				fmt.Sprintf("field %q is null", key))
			extraction.Validated = false
			continue
		}
		if !amountFields[strings.ToLower(key)] {
			continue
		}
		if d, ok := toDecimal(value); ok && d.IsNegative() {
			extraction.Anomalies = append(extraction.Anomalies,
				fmt.Sprintf("field %q has negative amount %s", key, d.String()))
			extraction.Validated = false
		}
	}
}

// normalizeAmounts rewrites recognized amount fields as fixed-point
// decimal strings with two fractional digits.
func normalizeAmounts(fields map[string]interface{}) {
	for key, value := range fields {
		if !amountFields[strings.ToLower(key)] {
			continue
		}
		if d, ok := toDecimal(value); ok {
			fields[key] = d.StringFixed(2)
		}
	}
}

func toDecimal(value interface{}) (decimal.Decimal, bool) {
	switch v := value.(type) {
	case float64:
		return decimal.NewFromFloat(v), true
	case string:
		cleaned := strings.TrimSpace(strings.Trim(v, "$€£ "))
		cleaned = strings.ReplaceAll(cleaned, ",", "")
		d, err := decimal.NewFromString(cleaned)
		if err != nil {
			return decimal.Decimal{}, false
		}
		return d, true
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		if err != nil {
			return decimal.Decimal{}, false
		}
		return d, true
	}
	return decimal.Decimal{}, false
}
