package printing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	appfinance "github.com/restoreops/backend/internal/application/finance"
	"github.com/restoreops/backend/internal/domain/finance"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingPDF captures the HTML it is asked to convert
type recordingPDF struct {
	requests []*RenderRequest
	err      error
}

func (p *recordingPDF) Render(ctx context.Context, req *RenderRequest) (*RenderResult, error) {
	p.requests = append(p.requests, req)
	if p.err != nil {
		return nil, p.err
	}
	return &RenderResult{PDFData: []byte("%PDF-1.4 " + req.Title)}, nil
}

func (p *recordingPDF) Close() error { return nil }

func sampleView(kind finance.EntityKind) appfinance.DocumentView {
	due := time.Date(2026, 6, 19, 0, 0, 0, 0, time.UTC)
	return appfinance.DocumentView{
		Kind:      kind,
		Title:     kind.DisplayName(),
		EntityID:  uuid.MustParse("0190abcd-0000-7000-8000-000000000001"),
		Reference: "JOB-1001 / A",
		Date:      time.Date(2026, 5, 19, 0, 0, 0, 0, time.UTC),
		DueAt:     &due,
		Recipient: finance.Recipient{
			Name:         "Harbour & Co",
			AddressLine1: "1 Quay St",
			Suburb:       "Sydney",
			State:        "NSW",
			Postcode:     "2000",
		},
		Notes: "Water damage remediation",
		Lines: []appfinance.DocumentLine{{
			GSCode:      "WTR-01",
			Description: "Extraction",
			Quantity:    2,
			UnitAmount:  decimal.NewFromInt(1000),
			Total:       decimal.NewFromInt(2000),
			Tax:         decimal.NewFromInt(200),
		}},
		Subtotal:   decimal.NewFromInt(2000),
		Tax:        decimal.NewFromInt(200),
		Total:      decimal.NewFromInt(2200),
		Status:     finance.StatusApproved,
		RenderedAt: time.Date(2026, 5, 20, 9, 0, 0, 0, time.UTC),
	}
}

func TestNewDocumentRenderer_Validation(t *testing.T) {
	_, err := NewDocumentRenderer(nil, DocumentRendererConfig{OutputDir: t.TempDir()})
	assert.Error(t, err)

	_, err = NewDocumentRenderer(&recordingPDF{}, DocumentRendererConfig{})
	assert.Error(t, err)

	_, err = NewDocumentRenderer(&recordingPDF{}, DocumentRendererConfig{
		OutputDir:   t.TempDir(),
		TemplateDir: filepath.Join(t.TempDir(), "missing"),
	})
	assert.Error(t, err)
}

func TestDocumentRenderer_Render(t *testing.T) {
	pdf := &recordingPDF{}
	outputDir := t.TempDir()
	r, err := NewDocumentRenderer(pdf, DocumentRendererConfig{OutputDir: outputDir})
	require.NoError(t, err)

	path, err := r.Render(context.Background(), sampleView(finance.KindInvoice), "invoice")
	require.NoError(t, err)

	assert.Equal(t, outputDir, filepath.Dir(path))
	assert.Equal(t,
		"invoice-JOB-1001-A-0190abcd-0000-7000-8000-000000000001-20260520T090000.pdf",
		filepath.Base(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))

	require.Len(t, pdf.requests, 1)
	html := pdf.requests[0].HTML
	assert.Contains(t, html, "TAX INVOICE")
	assert.Contains(t, html, "JOB-1001 / A")
	assert.Contains(t, html, "Harbour &amp; Co")
	assert.Contains(t, html, "$2,200.00")
	assert.Contains(t, html, "$1,000.00")
	assert.Contains(t, html, "Due: 19/06/2026")
	assert.Contains(t, html, "Approved")
	assert.Equal(t, PaperSizeA4, pdf.requests[0].PaperSize)
	assert.Contains(t, pdf.requests[0].FooterHTML, "Invoice JOB-1001 / A")
}

func TestDocumentRenderer_Render_AllKinds(t *testing.T) {
	tests := []struct {
		kind     finance.EntityKind
		template string
		heading  string
	}{
		{finance.KindInvoice, "invoice", "TAX INVOICE"},
		{finance.KindCreditNote, "credit_note", "CREDIT NOTE"},
		{finance.KindPurchaseOrder, "purchase_order", "PURCHASE ORDER"},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			pdf := &recordingPDF{}
			r, err := NewDocumentRenderer(pdf, DocumentRendererConfig{OutputDir: t.TempDir()})
			require.NoError(t, err)

			// an empty name falls back to the kind
			_, err = r.Render(context.Background(), sampleView(tt.kind), "")
			require.NoError(t, err)
			_, err = r.Render(context.Background(), sampleView(tt.kind), tt.template)
			require.NoError(t, err)

			require.Len(t, pdf.requests, 2)
			for _, req := range pdf.requests {
				assert.Contains(t, req.HTML, tt.heading)
			}
		})
	}
}

func TestDocumentRenderer_Render_Errors(t *testing.T) {
	t.Run("unknown template", func(t *testing.T) {
		r, err := NewDocumentRenderer(&recordingPDF{}, DocumentRendererConfig{OutputDir: t.TempDir()})
		require.NoError(t, err)

		_, err = r.Render(context.Background(), sampleView(finance.KindInvoice), "statement")
		var renderErr *RenderError
		require.ErrorAs(t, err, &renderErr)
		assert.Equal(t, ErrCodeTemplateNotFound, renderErr.Code)
	})

	t.Run("conversion fails", func(t *testing.T) {
		outputDir := t.TempDir()
		failure := NewRenderError(ErrCodeRenderTimeout, "timed out", nil)
		r, err := NewDocumentRenderer(&recordingPDF{err: failure}, DocumentRendererConfig{OutputDir: outputDir})
		require.NoError(t, err)

		_, err = r.Render(context.Background(), sampleView(finance.KindInvoice), "invoice")
		assert.True(t, errors.Is(err, failure))

		entries, err := os.ReadDir(outputDir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestDocumentRenderer_TemplateDirOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "layout.html"), []byte(`{{define "x"}}{{end}}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "invoice.html"), []byte(`<p>Custom {{.Reference}}</p>`), 0o644))

	pdf := &recordingPDF{}
	r, err := NewDocumentRenderer(pdf, DocumentRendererConfig{OutputDir: t.TempDir(), TemplateDir: dir})
	require.NoError(t, err)

	_, err = r.Render(context.Background(), sampleView(finance.KindInvoice), "invoice")
	require.NoError(t, err)
	assert.Equal(t, "<p>Custom JOB-1001 / A</p>", pdf.requests[0].HTML)
}
