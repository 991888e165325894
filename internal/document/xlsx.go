package document

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/fieldform/internal/core"
)

// SheetName is the worksheet holding the exported records.
const SheetName = "紀錄"

// Row positions in the worksheet.
const (
	xlsxTitleRow  = 1
	xlsxHeaderRow = 2
	xlsxFirstRow  = 3
)

// xlsxWidthScale converts a column weight to a spreadsheet column width.
const xlsxWidthScale = 14.0

// RenderXLSX writes table as a single-sheet workbook with the same layout
// as the PDF: a title row, a coloured header row repeated on every printed
// page, and striped body rows. The page is set up for A4 landscape.
func (r *Renderer) RenderXLSX(ctx context.Context, w io.Writer, table core.DocumentTable) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("%w: %v", core.ErrRenderFailed, err)
	}

	styles, err := newSheetStyles(f)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrRenderFailed, err)
	}

	if err := writeSheet(ctx, f, table, styles); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

type sheetStyles struct {
	title  int
	header int
	plain  int
	stripe int
}

func newSheetStyles(f *excelize.File) (sheetStyles, error) {
	border := []excelize.Border{
		{Type: "left", Color: gridLine.hex(), Style: 1},
		{Type: "right", Color: gridLine.hex(), Style: 1},
		{Type: "top", Color: gridLine.hex(), Style: 1},
		{Type: "bottom", Color: gridLine.hex(), Style: 1},
	}
	body := func(fill rgb) *excelize.Style {
		return &excelize.Style{
			Border:    border,
			Fill:      excelize.Fill{Type: "pattern", Color: []string{fill.hex()}, Pattern: 1},
			Font:      &excelize.Font{Size: fontSize + 2, Color: bodyText.hex()},
			Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
		}
	}

	var (
		s   sheetStyles
		err error
	)
	if s.title, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: fontSize + 8},
	}); err != nil {
		return s, err
	}
	if s.header, err = f.NewStyle(&excelize.Style{
		Border:    border,
		Fill:      excelize.Fill{Type: "pattern", Color: []string{headerFill.hex()}, Pattern: 1},
		Font:      &excelize.Font{Bold: true, Size: fontSize + 2, Color: headerText.hex()},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	}); err != nil {
		return s, err
	}
	if s.plain, err = f.NewStyle(body(plainFill)); err != nil {
		return s, err
	}
	if s.stripe, err = f.NewStyle(body(stripeFill)); err != nil {
		return s, err
	}
	return s, nil
}

func writeSheet(ctx context.Context, f *excelize.File, table core.DocumentTable, styles sheetStyles) error {
	n := len(table.Header)
	if n == 0 {
		return fmt.Errorf("%w: table has no columns", core.ErrRenderFailed)
	}
	lastCol, err := excelize.ColumnNumberToName(n)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrRenderFailed, err)
	}
	cell := func(col, row int) string {
		name, _ := excelize.CoordinatesToCellName(col, row)
		return name
	}
	wrap := func(err error) error {
		if err == nil {
			return nil
		}
		return fmt.Errorf("%w: %v", core.ErrRenderFailed, err)
	}

	// Title
	titleStart, titleEnd := cell(1, xlsxTitleRow), cell(n, xlsxTitleRow)
	if err := f.SetCellValue(SheetName, titleStart, table.Title); err != nil {
		return wrap(err)
	}
	if err := f.MergeCell(SheetName, titleStart, titleEnd); err != nil {
		return wrap(err)
	}
	if err := f.SetCellStyle(SheetName, titleStart, titleEnd, styles.title); err != nil {
		return wrap(err)
	}

	// Header
	header := append([]string(nil), table.Header...)
	if err := f.SetSheetRow(SheetName, cell(1, xlsxHeaderRow), &header); err != nil {
		return wrap(err)
	}
	if err := f.SetCellStyle(SheetName, cell(1, xlsxHeaderRow), cell(n, xlsxHeaderRow), styles.header); err != nil {
		return wrap(err)
	}

	// Body
	for i, rec := range table.Rows {
		if i%500 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		row := xlsxFirstRow + i
		cells := rowCells(rec, n)
		if err := f.SetSheetRow(SheetName, cell(1, row), &cells); err != nil {
			return wrap(err)
		}
		style := styles.plain
		if i%2 == 1 {
			style = styles.stripe
		}
		if err := f.SetCellStyle(SheetName, cell(1, row), cell(n, row), style); err != nil {
			return wrap(err)
		}
	}

	// Column widths
	for i, width := range columnWidths(n, float64(n)*xlsxWidthScale) {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return wrap(err)
		}
	}

	// Print setup
	orientation := "landscape"
	size := 9 // A4
	fitToWidth := 1
	if err := f.SetPageLayout(SheetName, &excelize.PageLayoutOptions{
		Orientation: &orientation,
		Size:        &size,
		FitToWidth:  &fitToWidth,
	}); err != nil {
		return wrap(err)
	}
	if err := f.SetDefinedName(&excelize.DefinedName{
		Name:     "_xlnm.Print_Titles",
		RefersTo: fmt.Sprintf("'%s'!$%d:$%d", SheetName, xlsxHeaderRow, xlsxHeaderRow),
		Scope:    SheetName,
	}); err != nil {
		return wrap(err)
	}
	if err := f.SetDefinedName(&excelize.DefinedName{
		Name:     "_xlnm.Print_Area",
		RefersTo: fmt.Sprintf("'%s'!$A$1:$%s$%d", SheetName, lastCol, max(xlsxHeaderRow, xlsxFirstRow+len(table.Rows)-1)),
		Scope:    SheetName,
	}); err != nil {
		return wrap(err)
	}
	return wrap(f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      xlsxHeaderRow,
		TopLeftCell: cell(1, xlsxFirstRow),
		ActivePane:  "bottomLeft",
	}))
}
