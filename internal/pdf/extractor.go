// Package pdf extracts plain text from PDF source documents.
package pdf

import (
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

// Extractor reads PDF files and returns their concatenated page text.
type Extractor struct {
	logger *zap.Logger
}

// NewExtractor creates a new Extractor.
func NewExtractor(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger}
}

// Extract returns the text of every page of the PDF at path, in page order,
// pages joined by a single newline. A page that fails to extract or yields no
// text is logged and skipped; extraction continues with the remaining pages.
// An unreadable file returns an error so the caller can skip the document.
func (e *Extractor) Extract(path string) (string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return "", fmt.Errorf("opening PDF %s: %w", path, err)
	}
	defer doc.Close()

	numPages := doc.NumPage()
	e.logger.Debug("reading pdf",
		zap.String("path", path),
		zap.Int("pages", numPages),
	)

	var b strings.Builder
	for i := 0; i < numPages; i++ {
		pageText, err := doc.Text(i)
		if err != nil {
			e.logger.Warn("failed to extract text from page",
				zap.String("path", path),
				zap.Int("page", i+1),
				zap.Error(err),
			)
			continue
		}
		if strings.TrimSpace(pageText) == "" {
			e.logger.Warn("no text extracted from page",
				zap.String("path", path),
				zap.Int("page", i+1),
			)
			continue
		}
		b.WriteString(pageText)
		b.WriteString("\n")
	}

	return strings.TrimSpace(b.String()), nil
}
