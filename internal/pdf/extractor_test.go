package pdf_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mezan-dz/mezand/internal/pdf"
)

func TestExtract(t *testing.T) {
	ex := pdf.NewExtractor(zap.NewNop())

	text, err := ex.Extract(filepath.Join("testdata", "sample.pdf"))
	require.NoError(t, err)

	// Both pages extracted, in page order, separated by a newline.
	first := strings.Index(text, "Decree 24-101 fixes the national minimum wage.")
	second := strings.Index(text, "Article 12 regulates commercial registration.")
	require.GreaterOrEqual(t, first, 0)
	require.GreaterOrEqual(t, second, 0)
	assert.Less(t, first, second)
	assert.Contains(t, text[first:second], "\n")

	// Result is trimmed.
	assert.Equal(t, strings.TrimSpace(text), text)
}

func TestExtract_SkipsBlankPages(t *testing.T) {
	ex := pdf.NewExtractor(zap.NewNop())

	text, err := ex.Extract(filepath.Join("testdata", "blank_middle_page.pdf"))
	require.NoError(t, err)

	// The empty middle page contributes nothing; the surrounding pages
	// still come through in order.
	first := strings.Index(text, "Decree 24-101")
	second := strings.Index(text, "Article 12")
	require.GreaterOrEqual(t, first, 0)
	require.GreaterOrEqual(t, second, 0)
	assert.Less(t, first, second)
}

func TestExtract_MissingFile(t *testing.T) {
	ex := pdf.NewExtractor(zap.NewNop())

	_, err := ex.Extract(filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Error(t, err)
}

func TestExtract_NotAPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not_a_pdf.pdf")
	require.NoError(t, os.WriteFile(path, []byte("plain text, not a pdf"), 0o644))

	ex := pdf.NewExtractor(zap.NewNop())

	_, err := ex.Extract(path)
	assert.Error(t, err)
}
