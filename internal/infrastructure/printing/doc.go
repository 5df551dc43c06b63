// Package printing renders financial documents to PDF.
//
// A DocumentRenderer binds an entity view to an HTML template with the
// TemplateEngine, converts the page to PDF with a PDFRenderer (headless
// Chrome via chromedp) and writes the file to the output directory:
//
//	chrome, err := NewChromedpRenderer(&ChromedpConfig{NoSandbox: true})
//	if err != nil {
//	    return err
//	}
//	renderer, err := NewDocumentRenderer(chrome, DocumentRendererConfig{OutputDir: "/var/lib/restoreops/pdf"})
//	path, err := renderer.Render(ctx, view, "invoice")
package printing
