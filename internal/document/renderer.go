// Package document renders the record table as paginated, print-ready
// documents: a PDF laid out with go-pdf/fpdf and an XLSX workbook built
// with excelize.
package document

import "github.com/JonMunkholm/fieldform/internal/core"

// Renderer implements core.DocumentRenderer.
type Renderer struct {
	fonts FontSource
}

var _ core.DocumentRenderer = (*Renderer)(nil)

// NewRenderer creates a renderer that embeds the font supplied by fonts in
// every PDF. Spreadsheet exports do not need a font.
func NewRenderer(fonts FontSource) *Renderer {
	if fonts == nil {
		fonts = ChainFontSource(nil)
	}
	return &Renderer{fonts: fonts}
}
