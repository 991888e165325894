package document

import "github.com/JonMunkholm/fieldform/internal/core"

// Page geometry in millimetres for A4 landscape.
const (
	pageMargin   = 10.0
	titleHeight  = 10.0
	fontSize     = 8.0
	lineHeight   = 4.0
	cellPadding  = 1.5
	minRowHeight = lineHeight + 2*cellPadding
)

// Table colours.
var (
	headerFill = rgb{41, 128, 185}
	headerText = rgb{255, 255, 255}
	stripeFill = rgb{245, 245, 245}
	plainFill  = rgb{255, 255, 255}
	bodyText   = rgb{0, 0, 0}
	gridLine   = rgb{200, 200, 200}
)

type rgb struct{ r, g, b int }

// hex returns the colour as an RRGGBB string for spreadsheet styles.
func (c rgb) hex() string {
	const digits = "0123456789ABCDEF"
	out := make([]byte, 0, 6)
	for _, v := range []int{c.r, c.g, c.b} {
		out = append(out, digits[v>>4], digits[v&0x0F])
	}
	return string(out)
}

// columnWeights sets the relative width of each schema column. Free-text
// columns get more room than codes and timestamps.
var columnWeights = [core.ColumnCount]float64{
	core.ColIdentifier:          1.1,
	core.ColTimestamp:           1.2,
	core.ColLocation:            1.6,
	core.ColUnit:                1.0,
	core.ColEquipmentName:       1.3,
	core.ColLocationDescription: 1.8,
	core.ColSummary:             1.8,
	core.ColRemarks:             1.6,
}

// columnWidths distributes total across n columns in proportion to
// columnWeights. Columns beyond the schema get weight 1.
func columnWidths(n int, total float64) []float64 {
	if n <= 0 {
		return nil
	}
	weights := make([]float64, n)
	sum := 0.0
	for i := range weights {
		w := 1.0
		if i < len(columnWeights) {
			w = columnWeights[i]
		}
		weights[i] = w
		sum += w
	}
	widths := make([]float64, n)
	for i, w := range weights {
		widths[i] = total * w / sum
	}
	return widths
}

// rowCells returns exactly n display values for rec, padding short records
// with empty cells and dropping fields past the header.
func rowCells(rec core.Record, n int) []string {
	cells := make([]string, n)
	for i := range cells {
		cells[i] = rec.Field(i)
	}
	return cells
}

// pageFrame describes the vertical space available for table rows.
type pageFrame struct {
	firstTop float64 // y where the first page's header row starts, below the title
	top      float64 // y where later pages' header row starts
	bottom   float64 // y rows must not cross
	header   float64 // header row height
}

// planPages assigns rows to pages. A row goes to the next page whenever it
// would cross the bottom margin; every page starts with the header row. A
// row taller than a whole page still gets a page of its own.
func planPages(heights []float64, f pageFrame) [][]int {
	pages := [][]int{{}}
	y := f.firstTop + f.header

	for i, h := range heights {
		current := len(pages) - 1
		if y+h > f.bottom && len(pages[current]) > 0 {
			pages = append(pages, []int{})
			current++
			y = f.top + f.header
		}
		pages[current] = append(pages[current], i)
		y += h
	}
	return pages
}
