package extractor

import (
	"bytes"
	"context"
	"strings"
	"unicode/utf8"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/intake/internal/interfaces"
	"github.com/ternarybob/intake/internal/models"
)

var pdfMagic = []byte("%PDF-")

// Service normalizes raw uploads into text. PDF bytes go through the
// pdfcpu content-stream path; everything else passes through as UTF-8
// text. A document-level error is returned only when the byte stream
// is unreadable in its entirety.
type Service struct {
	logger arbor.ILogger
}

var _ interfaces.TextExtractor = (*Service)(nil)

func NewService(logger arbor.ILogger) *Service {
	return &Service{logger: logger}
}

func (s *Service) Extract(ctx context.Context, raw []byte, declared models.DocumentFormat) (*models.ExtractedText, error) {
	if len(raw) == 0 {
		return nil, models.ExtractionError("empty document")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if declared == models.FormatPDF || bytes.HasPrefix(raw, pdfMagic) {
		return s.extractPDF(raw)
	}
	return s.extractPlain(raw)
}

// extractPlain passes non-PDF bytes through as text. Invalid UTF-8 is
// tolerated up to a point: a mostly-binary stream has no text to give.
func (s *Service) extractPlain(raw []byte) (*models.ExtractedText, error) {
	text := string(raw)
	if !utf8.ValidString(text) {
		if binaryRatio(raw) > 0.3 {
			return nil, models.ExtractionError("byte stream is not text")
		}
		text = strings.ToValidUTF8(text, "")
	}

	return &models.ExtractedText{
		Text:  text,
		Pages: []models.PageInfo{{PageNumber: 1, Chars: utf8.RuneCountInString(text)}},
	}, nil
}

// binaryRatio is the fraction of NUL and invalid-UTF-8 bytes in the
// first 4KB of the stream.
func binaryRatio(raw []byte) float64 {
	sample := raw
	if len(sample) > 4096 {
		sample = sample[:4096]
	}

	bad := 0
	for i := 0; i < len(sample); {
		r, size := utf8.DecodeRune(sample[i:])
		if r == utf8.RuneError && size == 1 {
			bad++
			i++
			continue
		}
		if r == 0 {
			bad++
		}
		i += size
	}
	return float64(bad) / float64(len(sample))
}
