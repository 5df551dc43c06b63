package printing

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	appfinance "github.com/restoreops/backend/internal/application/finance"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var embeddedTemplates embed.FS

// DefaultTemplates returns the built-in document templates
func DefaultTemplates() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// DocumentRendererConfig configures a DocumentRenderer
type DocumentRendererConfig struct {
	// OutputDir receives the rendered PDF files
	OutputDir string
	// TemplateDir overrides the built-in templates when set
	TemplateDir string
	// Timeout bounds a single PDF conversion
	Timeout time.Duration
	// PaperSize defaults to A4
	PaperSize PaperSize
	Logger    *zap.Logger
}

// DocumentRenderer turns an entity view into a PDF on disk
type DocumentRenderer struct {
	engine    *TemplateEngine
	pdf       PDFRenderer
	outputDir string
	timeout   time.Duration
	paperSize PaperSize
	logger    *zap.Logger
}

// NewDocumentRenderer creates a renderer that converts with pdf
func NewDocumentRenderer(pdf PDFRenderer, cfg DocumentRendererConfig, opts ...TemplateEngineOption) (*DocumentRenderer, error) {
	if pdf == nil {
		return nil, errors.New("PDF renderer is required")
	}
	if cfg.OutputDir == "" {
		return nil, errors.New("output directory is required")
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, NewRenderError(ErrCodeStorageFailed, "failed to create output directory", err)
	}

	templates := DefaultTemplates()
	if cfg.TemplateDir != "" {
		info, err := os.Stat(cfg.TemplateDir)
		if err != nil || !info.IsDir() {
			return nil, fmt.Errorf("template directory %q is not usable: %w", cfg.TemplateDir, err)
		}
		templates = os.DirFS(cfg.TemplateDir)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	paperSize := cfg.PaperSize
	if paperSize == "" {
		paperSize = PaperSizeA4
	}

	return &DocumentRenderer{
		engine:    NewTemplateEngine(templates, opts...),
		pdf:       pdf,
		outputDir: cfg.OutputDir,
		timeout:   cfg.Timeout,
		paperSize: paperSize,
		logger:    logger,
	}, nil
}

// Render writes view as a PDF using templateName and returns the file path
func (r *DocumentRenderer) Render(ctx context.Context, view appfinance.DocumentView, templateName string) (string, error) {
	if templateName == "" {
		templateName = strings.ToLower(string(view.Kind))
	}

	page, err := r.engine.Render(templateName, view)
	if err != nil {
		return "", err
	}

	result, err := r.pdf.Render(ctx, &RenderRequest{
		HTML:       page,
		PaperSize:  r.paperSize,
		Margins:    DefaultMargins(),
		Title:      view.Title + " " + view.Reference,
		FooterHTML: pageFooter(view),
		Timeout:    r.timeout,
	})
	if err != nil {
		return "", err
	}

	path := filepath.Join(r.outputDir, r.fileName(view))
	if err := os.WriteFile(path, result.PDFData, 0o644); err != nil {
		return "", NewRenderError(ErrCodeStorageFailed, "failed to write PDF", err)
	}

	r.logger.Info("document rendered",
		zap.String("entity_id", view.EntityID.String()),
		zap.String("template", templateName),
		zap.String("path", path))
	return path, nil
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// fileName is <kind>-<reference>-<entity id>-<timestamp>.pdf
func (r *DocumentRenderer) fileName(view appfinance.DocumentView) string {
	parts := []string{strings.ToLower(string(view.Kind))}
	if ref := strings.Trim(unsafeFileChars.ReplaceAllString(view.Reference, "-"), "-"); ref != "" {
		parts = append(parts, ref)
	}
	parts = append(parts, view.EntityID.String(), view.RenderedAt.UTC().Format("20060102T150405"))
	return strings.Join(parts, "-") + ".pdf"
}

func pageFooter(view appfinance.DocumentView) string {
	return `<div style="font-size:8px;width:100%;text-align:center;color:#666;">` +
		html.EscapeString(view.Title+" "+view.Reference) +
		` &middot; page <span class="pageNumber"></span> of <span class="totalPages"></span></div>`
}

var _ appfinance.DocumentRenderer = (*DocumentRenderer)(nil)
