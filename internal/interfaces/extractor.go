package interfaces

import (
	"context"

	"github.com/ternarybob/intake/internal/models"
)

// TextExtractor converts raw uploaded bytes into a normalized text
// payload plus extraction metadata. Per-page failures inside a PDF
// produce warnings and placeholders, never a document-level error;
// only a fully unreadable byte stream fails.
type TextExtractor interface {
	Extract(ctx context.Context, raw []byte, declared models.DocumentFormat) (*models.ExtractedText, error)
}
