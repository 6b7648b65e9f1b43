package agents

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/emersion/go-message/mail"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/intake/internal/interfaces"
	"github.com/ternarybob/intake/internal/models"
)

const summaryPromptTemplate = `You are an email processing assistant. Write a brief CRM-ready summary of the following message in at most three sentences. Respond with the summary text only, no preamble and no formatting.

Message:

%s`

const (
	summaryPromptLimit   = 3000
	summaryFallbackRunes = 200
)

var (
	emailAddrRe   = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	fromLineRe    = regexp.MustCompile(`(?im)^from:\s*(.+)$`)
	subjectLineRe = regexp.MustCompile(`(?im)^subject:\s*(.+)$`)
)

// escalationKeywords raise urgency above the intent baseline. Each
// distinct match escalates one level, capped at critical.
var escalationKeywords = []string{
	"urgent", "immediately", "immediate", "asap", "critical",
	"emergency", "down", "outage", "broken",
}

var negativeWords = []string{
	"problem", "issue", "unacceptable", "angry", "frustrated",
	"disappointed", "terrible", "broken", "fail", "failed",
	"complaint", "worst", "refund", "cancel",
}

var positiveWords = []string{
	"thanks", "thank you", "great", "appreciate", "excellent",
	"happy", "pleased", "wonderful", "love", "perfect",
}

// EmailAgent processes correspondence and anything the router sends
// nowhere else. It never fails: every degraded path substitutes a
// deterministic value.
type EmailAgent struct {
	gateway interfaces.ModelGateway
	logger  arbor.ILogger
}

var _ interfaces.EmailProcessor = (*EmailAgent)(nil)

func NewEmailAgent(gateway interfaces.ModelGateway, logger arbor.ILogger) *EmailAgent {
	return &EmailAgent{gateway: gateway, logger: logger}
}

func (a *EmailAgent) Process(ctx context.Context, text string, classification *models.ClassificationResult, modelID string) *models.EmailExtraction {
	sender, subject := parseHeaders(text)

	extraction := &models.EmailExtraction{
		Sender:    sender,
		Subject:   subject,
		Urgency:   deriveUrgency(classification.Intent, text),
		Sentiment: deriveSentiment(text),
		Summary:   a.summarize(ctx, text, modelID),
	}

	a.logger.Debug().
		Str("sender", extraction.Sender).
		Str("urgency", string(extraction.Urgency)).
		Str("sentiment", string(extraction.Sentiment)).
		Msg("Email extraction complete")

	return extraction
}

// parseHeaders tries a proper RFC 5322 parse first, then falls back to
// line patterns for header-like fragments that are not full messages.
// Absent values come back empty, never as an error.
func parseHeaders(text string) (sender, subject string) {
	if mr, err := mail.CreateReader(strings.NewReader(text)); err == nil {
		if addrs, err := mr.Header.AddressList("From"); err == nil && len(addrs) > 0 {
			sender = addrs[0].Address
		}
		if s, err := mr.Header.Subject(); err == nil {
			subject = strings.TrimSpace(s)
		}
	}

	if sender == "" {
		if m := fromLineRe.FindStringSubmatch(text); m != nil {
			if addr := emailAddrRe.FindString(m[1]); addr != "" {
				sender = addr
			}
		}
	}
	if sender == "" {
		sender = emailAddrRe.FindString(text)
	}
	if subject == "" {
		if m := subjectLineRe.FindStringSubmatch(text); m != nil {
			subject = strings.TrimSpace(m[1])
		}
	}
	return sender, subject
}

// urgencyBaseline is the intent-default urgency before content signals.
func urgencyBaseline(intent models.DocumentIntent) models.UrgencyLevel {
	switch intent {
	case models.IntentComplaint:
		return models.UrgencyMedium
	case models.IntentRegulation:
		return models.UrgencyMedium
	default:
		return models.UrgencyLow
	}
}

var urgencyOrder = []models.UrgencyLevel{
	models.UrgencyLow,
	models.UrgencyMedium,
	models.UrgencyHigh,
	models.UrgencyCritical,
}

func deriveUrgency(intent models.DocumentIntent, text string) models.UrgencyLevel {
	level := 0
	baseline := urgencyBaseline(intent)
	for i, u := range urgencyOrder {
		if u == baseline {
			level = i
			break
		}
	}

	lower := strings.ToLower(text)
	matches := 0
	for _, keyword := range escalationKeywords {
		if strings.Contains(lower, keyword) {
			matches++
			if matches == 2 {
				break
			}
		}
	}

	level += matches
	if level >= len(urgencyOrder) {
		level = len(urgencyOrder) - 1
	}
	return urgencyOrder[level]
}

// deriveSentiment balances negative against positive keyword counts.
// Ties, including zero matches, are neutral.
func deriveSentiment(text string) models.Sentiment {
	lower := strings.ToLower(text)

	negative := 0
	for _, w := range negativeWords {
		negative += strings.Count(lower, w)
	}
	positive := 0
	for _, w := range positiveWords {
		positive += strings.Count(lower, w)
	}

	switch {
	case negative > positive:
		return models.SentimentNegative
	case positive > negative:
		return models.SentimentPositive
	default:
		return models.SentimentNeutral
	}
}

// summarize asks the model for a CRM summary. On any model failure the
// summary is the head of the source text, so it is never empty for
// non-empty input.
func (a *EmailAgent) summarize(ctx context.Context, text, modelID string) string {
	prompt := fmt.Sprintf(summaryPromptTemplate, truncateRunes(text, summaryPromptLimit))

	result, err := a.gateway.Invoke(ctx, prompt, modelID)
	if err != nil {
		a.logger.Warn().
			Err(err).
			Msg("Summary generation failed, using text head")
		return strings.TrimSpace(truncateRunes(text, summaryFallbackRunes))
	}

	summary := strings.TrimSpace(result.Text)
	if summary == "" {
		return strings.TrimSpace(truncateRunes(text, summaryFallbackRunes))
	}
	return truncateRunes(summary, 600)
}
