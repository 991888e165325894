package document

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"github.com/JonMunkholm/fieldform/internal/core"
)

const fontFamily = "fieldform"

// RenderPDF lays out table on A4 landscape pages. The header row is repeated
// at the top of every page and body rows alternate between a light stripe
// and white. Nothing is written to w unless the whole document was built.
func (r *Renderer) RenderPDF(ctx context.Context, w io.Writer, table core.DocumentTable) error {
	font, err := r.fonts.Load(ctx)
	if err != nil {
		return err
	}

	if !isTrueType(font) {
		return fmt.Errorf("%w: not a TrueType font", core.ErrFontUnavailable)
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(table.Title, true)
	pdf.SetCreator("fieldform", true)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, pageMargin)
	if err := loadFont(pdf, font); err != nil {
		return err
	}
	pdf.SetLineWidth(0.1)

	pageW, pageH := pdf.GetPageSize()
	widths := columnWidths(len(table.Header), pageW-2*pageMargin)

	headerLines, bodyLines, err := measure(pdf, table, widths)
	if err != nil {
		return err
	}
	headerH := rowHeight(headerLines)
	heights := make([]float64, len(bodyLines))
	for i, lines := range bodyLines {
		heights[i] = rowHeight(lines)
	}

	pages := planPages(heights, pageFrame{
		firstTop: pageMargin + titleHeight,
		top:      pageMargin,
		bottom:   pageH - pageMargin,
		header:   headerH,
	})

	for p, rows := range pages {
		if err := ctx.Err(); err != nil {
			return err
		}

		pdf.AddPage()
		y := pageMargin
		if p == 0 {
			pdf.SetTextColor(bodyText.r, bodyText.g, bodyText.b)
			pdf.SetFontSize(fontSize + 6)
			pdf.SetXY(pageMargin, y)
			pdf.CellFormat(0, titleHeight-2, table.Title, "", 0, "L", false, 0, "")
			pdf.SetFontSize(fontSize)
			y += titleHeight
		}

		drawRow(pdf, y, widths, headerLines, headerH, headerFill, headerText)
		y += headerH

		for _, i := range rows {
			fill := plainFill
			if i%2 == 1 {
				fill = stripeFill
			}
			drawRow(pdf, y, widths, bodyLines[i], heights[i], fill, bodyText)
			y += heights[i]
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return fmt.Errorf("%w: %v", core.ErrRenderFailed, err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// isTrueType reports whether data starts with a TrueType sfnt version tag.
func isTrueType(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	switch string(data[:4]) {
	case "\x00\x01\x00\x00", "true":
		return true
	}
	return false
}

// loadFont registers data as the document font and selects it. fpdf does
// not flag a font whose tables fail to parse; it skips registering it, so
// the failure shows up when the family is selected.
func loadFont(pdf *fpdf.Fpdf, data []byte) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", core.ErrFontUnavailable, rec)
		}
	}()

	pdf.AddUTF8FontFromBytes(fontFamily, "", data)
	pdf.SetFont(fontFamily, "", fontSize)
	if pdf.Err() {
		return fmt.Errorf("%w: %v", core.ErrFontUnavailable, pdf.Error())
	}
	return nil
}

// measure wraps the header and every body row. A font without glyph
// widths makes SplitText index past its width table; that panic is
// reported as an unusable font.
func measure(pdf *fpdf.Fpdf, table core.DocumentTable, widths []float64) (header [][]string, body [][][]string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			header, body = nil, nil
			err = fmt.Errorf("%w: unreadable glyph metrics: %v", core.ErrFontUnavailable, rec)
		}
	}()

	header = wrapRow(pdf, table.Header, widths)
	body = make([][][]string, len(table.Rows))
	for i, rec := range table.Rows {
		body[i] = wrapRow(pdf, rowCells(rec, len(widths)), widths)
	}
	return header, body, nil
}

// wrapRow splits each cell into the lines that fit its column width.
func wrapRow(pdf *fpdf.Fpdf, cells []string, widths []float64) [][]string {
	lines := make([][]string, len(widths))
	for i, width := range widths {
		text := ""
		if i < len(cells) {
			text = cells[i]
		}
		if text == "" {
			lines[i] = []string{""}
			continue
		}
		lines[i] = pdf.SplitText(text, width-2*cellPadding)
		if len(lines[i]) == 0 {
			lines[i] = []string{""}
		}
	}
	return lines
}

// rowHeight is the height of the tallest cell in a wrapped row.
func rowHeight(lines [][]string) float64 {
	most := 1
	for _, l := range lines {
		if len(l) > most {
			most = len(l)
		}
	}
	return max(float64(most)*lineHeight+2*cellPadding, minRowHeight)
}

// drawRow paints one table row: a filled, bordered box per cell with the
// wrapped text inside.
func drawRow(pdf *fpdf.Fpdf, y float64, widths []float64, lines [][]string, h float64, fill, text rgb) {
	pdf.SetFillColor(fill.r, fill.g, fill.b)
	pdf.SetDrawColor(gridLine.r, gridLine.g, gridLine.b)
	pdf.SetTextColor(text.r, text.g, text.b)

	x := pageMargin
	for i, width := range widths {
		pdf.Rect(x, y, width, h, "FD")
		for j, line := range lines[i] {
			pdf.SetXY(x+cellPadding, y+cellPadding+float64(j)*lineHeight)
			pdf.CellFormat(width-2*cellPadding, lineHeight, line, "", 0, "L", false, 0, "")
		}
		x += width
	}
}
