package printing

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPrintParams(t *testing.T) {
	r := &ChromedpRenderer{config: &ChromedpConfig{Scale: 1.0}}

	t.Run("A4 portrait", func(t *testing.T) {
		params := r.buildPrintParams(&RenderRequest{
			HTML:      "<p>x</p>",
			PaperSize: PaperSizeA4,
			Margins:   DefaultMargins(),
		})
		assert.InDelta(t, mmToInches(210), params.paperWidth, 0.01)
		assert.InDelta(t, mmToInches(297), params.paperHeight, 0.01)
		assert.InDelta(t, mmToInches(15), params.marginTop, 0.01)
		assert.False(t, params.landscape)
		assert.False(t, params.displayFooter)
	})

	t.Run("letter landscape", func(t *testing.T) {
		params := r.buildPrintParams(&RenderRequest{
			HTML:      "<p>x</p>",
			PaperSize: PaperSizeLetter,
			Landscape: true,
		})
		assert.InDelta(t, 8.5, params.paperWidth, 0.01)
		assert.InDelta(t, 11, params.paperHeight, 0.01)
		assert.True(t, params.landscape)
	})

	t.Run("footer widens the bottom margin", func(t *testing.T) {
		params := r.buildPrintParams(&RenderRequest{
			HTML:       "<p>x</p>",
			PaperSize:  PaperSizeA4,
			Margins:    Margins{Bottom: 2},
			FooterHTML: "<span>footer</span>",
		})
		assert.True(t, params.displayFooter)
		assert.InDelta(t, mmToInches(10), params.marginBottom, 0.01)
	})
}

func TestBuildCompleteHTML(t *testing.T) {
	complete := "<!DOCTYPE html><html><body>x</body></html>"
	assert.Equal(t, complete, buildCompleteHTML(&RenderRequest{HTML: complete}))

	wrapped := buildCompleteHTML(&RenderRequest{HTML: "<p>x</p>", Title: "Invoice <1>"})
	assert.Contains(t, wrapped, "<!DOCTYPE html>")
	assert.Contains(t, wrapped, "<title>Invoice &lt;1&gt;</title>")
	assert.Contains(t, wrapped, "<body><p>x</p></body>")
}

func TestValidateRequest(t *testing.T) {
	var renderErr *RenderError

	require.ErrorAs(t, validateRequest(nil), &renderErr)
	assert.Equal(t, ErrCodeInvalidHTML, renderErr.Code)

	require.ErrorAs(t, validateRequest(&RenderRequest{HTML: "  "}), &renderErr)
	assert.Equal(t, ErrCodeInvalidHTML, renderErr.Code)

	require.ErrorAs(t, validateRequest(&RenderRequest{HTML: "x", PaperSize: "B5"}), &renderErr)
	assert.Equal(t, ErrCodeInvalidPaperSize, renderErr.Code)

	req := &RenderRequest{HTML: "x"}
	require.NoError(t, validateRequest(req))
	assert.Equal(t, PaperSizeA4, req.PaperSize)
}

func TestChromedpRenderer_Render(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	if _, err := exec.LookPath("chromium"); err != nil {
		if _, err := exec.LookPath("google-chrome"); err != nil {
			t.Skip("no Chrome binary available")
		}
	}

	r, err := NewChromedpRenderer(&ChromedpConfig{NoSandbox: true, DefaultTimeout: 60 * time.Second})
	require.NoError(t, err)
	defer r.Close()

	result, err := r.Render(context.Background(), &RenderRequest{
		HTML:      "<h1>Invoice INV-1</h1>",
		PaperSize: PaperSizeA4,
		Margins:   DefaultMargins(),
	})
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(result.PDFData[:4]))
}
