package core

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Export file extensions and content types.
const (
	ExtCSV  = ".csv"
	ExtPDF  = ".pdf"
	ExtXLSX = ".xlsx"

	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypePDF  = "application/pdf"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Download is a generated export handed to the transport layer.
type Download struct {
	FileName    string
	ContentType string
	Data        []byte
	Records     int // records in the exported set, header excluded
}

// ExportFileName returns the zero-padded month and day of t followed by ext,
// e.g. "0405.csv" for April 5th.
func ExportFileName(t time.Time, ext string) string {
	return t.Format("0102") + ext
}

// needsQuoting reports whether field must be wrapped in quotes.
func needsQuoting(field string) bool {
	return strings.ContainsAny(field, string([]rune{Delimiter, Quote, '\n', '\r'}))
}

// QuoteField returns field as it appears in the export. Fields containing
// the delimiter, a quote, or a line break are wrapped in quotes with every
// internal quote doubled; all others are emitted literally.
func QuoteField(field string) string {
	if !needsQuoting(field) {
		return field
	}
	q := string(Quote)
	return q + strings.ReplaceAll(field, q, q+q) + q
}

// EncodeRow serializes one row without a trailing line break.
func EncodeRow(fields []string) string {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = QuoteField(f)
	}
	return strings.Join(quoted, string(Delimiter))
}

// EncodeCSV writes header followed by records, one row per line, rows
// separated by a single LF. No byte-order mark is written.
func EncodeCSV(w io.Writer, header []string, records []Record) error {
	if _, err := io.WriteString(w, EncodeRow(header)); err != nil {
		return err
	}
	for _, rec := range records {
		if _, err := io.WriteString(w, "\n"+EncodeRow(rec)); err != nil {
			return err
		}
	}
	return nil
}

// EncodeCSVWithBOM is EncodeCSV prefixed with the UTF-8 byte-order mark so
// spreadsheet tools pick the right encoding for non-ASCII column names.
func EncodeCSVWithBOM(header []string, records []Record) ([]byte, error) {
	var buf bytes.Buffer
	tw := transform.NewWriter(&buf, unicode.UTF8BOM.NewEncoder())
	if err := EncodeCSV(tw, header, records); err != nil {
		return nil, fmt.Errorf("encode csv: %w", err)
	}
	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("encode csv: %w", err)
	}
	return buf.Bytes(), nil
}
