package extractor

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/ternarybob/intake/internal/models"
)

// extractPDF parses a PDF fully in memory and concatenates page text
// under "=== Page n ===" markers. A page that fails to yield content
// gets a placeholder line and a warning; the extraction as a whole
// fails only when the document itself cannot be read.
func (s *Service) extractPDF(raw []byte) (*models.ExtractedText, error) {
	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadValidateAndOptimize(bytes.NewReader(raw), conf)
	if err != nil {
		return nil, models.ExtractionError("pdfcpu read: %v", err)
	}

	result := &models.ExtractedText{
		Properties: infoProperties(pdfCtx),
	}

	var sb strings.Builder
	for pageNr := 1; pageNr <= pdfCtx.PageCount; pageNr++ {
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(fmt.Sprintf("=== Page %d ===\n", pageNr))

		pageText, err := extractPageText(pdfCtx, pageNr)
		if err != nil || pageText == "" {
			reason := "no text content"
			if err != nil {
				reason = err.Error()
			}
			sb.WriteString(fmt.Sprintf("[PAGE %d EXTRACTION FAILED]", pageNr))
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("page %d: %s", pageNr, reason))
			result.Pages = append(result.Pages, models.PageInfo{
				PageNumber: pageNr,
				Failed:     true,
				Error:      reason,
			})

			s.logger.Warn().
				Int("page", pageNr).
				Str("reason", reason).
				Msg("PDF page extraction failed")
			continue
		}

		sb.WriteString(pageText)
		result.Pages = append(result.Pages, models.PageInfo{
			PageNumber: pageNr,
			Chars:      len([]rune(pageText)),
		})
	}

	result.Text = sb.String()

	s.logger.Debug().
		Int("pages", pdfCtx.PageCount).
		Int("warnings", len(result.Warnings)).
		Msg("Extracted PDF text")

	return result, nil
}

// extractPageText pulls the content stream for one page and parses its
// text-showing operators.
func extractPageText(pdfCtx *model.Context, pageNr int) (string, error) {
	r, err := pdfcpu.ExtractPageContent(pdfCtx, pageNr)
	if err != nil {
		return "", fmt.Errorf("content stream: %w", err)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("content stream read: %w", err)
	}
	if len(data) == 0 {
		return "", nil
	}
	return extractTextFromStream(data), nil
}

// infoProperties reads the Info dictionary best-effort. Missing or
// malformed entries yield empty fields, never an error.
func infoProperties(pdfCtx *model.Context) models.DocumentProperties {
	var props models.DocumentProperties
	if pdfCtx.Info == nil {
		return props
	}
	obj, err := pdfCtx.Dereference(*pdfCtx.Info)
	if err != nil {
		return props
	}
	dict, ok := obj.(types.Dict)
	if !ok {
		return props
	}

	props.Title = infoString(pdfCtx, dict, "Title")
	props.Author = infoString(pdfCtx, dict, "Author")
	props.Creator = infoString(pdfCtx, dict, "Creator")
	props.Producer = infoString(pdfCtx, dict, "Producer")
	props.CreationDate = infoString(pdfCtx, dict, "CreationDate")
	return props
}

func infoString(pdfCtx *model.Context, dict types.Dict, key string) string {
	obj, found := dict.Find(key)
	if !found {
		return ""
	}
	obj, err := pdfCtx.Dereference(obj)
	if err != nil {
		return ""
	}
	switch v := obj.(type) {
	case types.StringLiteral:
		if s, err := types.StringLiteralToString(v); err == nil {
			return strings.TrimSpace(s)
		}
		return strings.TrimSpace(v.Value())
	case types.HexLiteral:
		if s, err := types.HexLiteralToString(v); err == nil {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// pdfStringRe matches PDF string literals in parentheses: (text here)
var pdfStringRe = regexp.MustCompile(`\(([^)]*)\)`)

// extractTextFromStream parses PDF content stream operators for text.
func extractTextFromStream(data []byte) string {
	var sb strings.Builder

	lines := bytes.Split(data, []byte{'\n'})
	for _, line := range lines {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		// Tj operator: (text) Tj
		// TJ operator: [(text) -100 (more text)] TJ
		if bytes.HasSuffix(line, []byte("Tj")) || bytes.HasSuffix(line, []byte("TJ")) {
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				if text := decodePDFString(m[1]); text != "" {
					sb.WriteString(text)
				}
			}
		}

		// ' operator (move to next line and show text): (text) '
		if bytes.HasSuffix(line, []byte("'")) && bytes.Contains(line, []byte("(")) {
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				if text := decodePDFString(m[1]); text != "" {
					sb.WriteByte('\n')
					sb.WriteString(text)
				}
			}
		}

		// Td/TD operator (text positioning).
		if bytes.HasSuffix(line, []byte("Td")) || bytes.HasSuffix(line, []byte("TD")) {
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
		}

		// T* operator (move to start of next line).
		if bytes.Equal(line, []byte("T*")) {
			sb.WriteByte('\n')
		}
	}

	return cleanPDFText(sb.String())
}

// decodePDFString handles basic PDF escape sequences.
func decodePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] == '\\' && i+1 < len(raw) {
			i++
			switch raw[i] {
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			case '\\':
				sb.WriteByte('\\')
			case '(':
				sb.WriteByte('(')
			case ')':
				sb.WriteByte(')')
			default:
				// Octal escape (e.g. \040 for space).
				if raw[i] >= '0' && raw[i] <= '7' {
					val := int(raw[i] - '0')
					if i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7' {
						i++
						val = val*8 + int(raw[i]-'0')
						if i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7' {
							i++
							val = val*8 + int(raw[i]-'0')
						}
					}
					sb.WriteByte(byte(val))
				} else {
					sb.WriteByte(raw[i])
				}
			}
		} else {
			sb.WriteByte(raw[i])
		}
	}
	return sb.String()
}

// cleanPDFText normalises whitespace in extracted PDF text.
func cleanPDFText(text string) string {
	var sb strings.Builder
	prevSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			if !prevSpace && sb.Len() > 0 {
				sb.WriteByte(' ')
				prevSpace = true
			}
		} else if unicode.IsPrint(r) {
			sb.WriteRune(r)
			prevSpace = false
		}
	}
	return strings.TrimSpace(sb.String())
}
