package core

// import.go implements the import pipeline: raw bytes -> text -> lines ->
// records -> store replacement.
//
// The store is only touched after every step has succeeded, so a rejected
// file never leaves a half-replaced table behind.

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ImportExtension is the only file extension accepted for import.
const ImportExtension = ".csv"

// DefaultMaxImportSize caps an import when no size is configured (10MB).
const DefaultMaxImportSize = 10 * 1024 * 1024

// lineBreak matches either a lone LF or a CRLF pair.
var lineBreak = regexp.MustCompile(`\r\n|\n`)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ValidationMode controls how rows whose field count differs from the
// schema are handled during import.
type ValidationMode string

const (
	// ModePermissive passes ragged rows through unchanged.
	ModePermissive ValidationMode = "permissive"

	// ModePad pads short rows with empty fields and rejects long rows.
	ModePad ValidationMode = "pad"

	// ModeStrict rejects the whole import on the first ragged row.
	ModeStrict ValidationMode = "strict"
)

// ParseValidationMode converts a config value to a ValidationMode.
// An empty string selects ModePermissive.
func ParseValidationMode(s string) (ValidationMode, error) {
	switch ValidationMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModePermissive:
		return ModePermissive, nil
	case ModePad:
		return ModePad, nil
	case ModeStrict:
		return ModeStrict, nil
	default:
		return "", fmt.Errorf("unknown validation mode %q (want permissive, pad or strict)", s)
	}
}

// ImportResult describes a completed import.
type ImportResult struct {
	FileName string         `json:"fileName"`
	Records  int            `json:"records"`
	Ragged   int            `json:"ragged"` // rows whose field count differs from the schema
	Padded   int            `json:"padded"` // rows filled up to the schema by ModePad
	Mode     ValidationMode `json:"mode"`
}

// Importer replaces a store's contents from an uploaded CSV file.
type Importer struct {
	Mode    ValidationMode
	MaxSize int64
}

// NewImporter creates an importer. A non-positive maxSize selects
// DefaultMaxImportSize.
func NewImporter(mode ValidationMode, maxSize int64) *Importer {
	if mode == "" {
		mode = ModePermissive
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxImportSize
	}
	return &Importer{Mode: mode, MaxSize: maxSize}
}

// Import reads name's content from r and replaces store with the records it
// encodes. On any error the store keeps its previous contents.
func (im *Importer) Import(ctx context.Context, store *Store, name string, r io.Reader) (ImportResult, error) {
	result := ImportResult{FileName: name, Mode: im.Mode}

	if !strings.HasSuffix(strings.ToLower(name), ImportExtension) {
		return result, fmt.Errorf("import %q: %w", name, ErrUnsupportedFile)
	}

	data, err := io.ReadAll(io.LimitReader(r, im.MaxSize+1))
	if err != nil {
		return result, fmt.Errorf("import %q: read: %w", name, err)
	}
	if int64(len(data)) > im.MaxSize {
		return result, fmt.Errorf("import %q: %w (limit %d bytes)", name, ErrFileTooLarge, im.MaxSize)
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	text, err := DecodeText(data)
	if err != nil {
		return result, fmt.Errorf("import %q: %w", name, err)
	}

	records := ParseRecords(text)

	records, stats, err := applyValidation(records, im.Mode)
	if err != nil {
		return result, fmt.Errorf("import %q: %w", name, err)
	}

	store.Replace(records)

	result.Records = len(records)
	result.Ragged = stats.ragged
	result.Padded = stats.padded
	return result, nil
}

// DecodeText converts raw file bytes to a string.
//
// A UTF-8 byte-order mark is dropped. Input that starts with a UTF-16 mark
// is transcoded. Anything else must already be valid UTF-8.
func DecodeText(data []byte) (string, error) {
	if hasUTF16BOM(data) {
		decoded, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrUndecodable, err)
		}
		return string(decoded), nil
	}

	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return "", ErrUndecodable
	}
	return string(data), nil
}

func hasUTF16BOM(data []byte) bool {
	if len(data) < 2 {
		return false
	}
	return (data[0] == 0xFF && data[1] == 0xFE) || (data[0] == 0xFE && data[1] == 0xFF)
}

// ParseRecords turns a decoded CSV blob into records.
//
// The blob is trimmed, split on LF or CRLF, and the first line is discarded
// as the header without checking its content. Blank lines are skipped.
// Trimming the blob also drops trailing whitespace from the last field of
// the last record.
func ParseRecords(text string) []Record {
	text = strings.TrimSpace(text)
	if text == "" {
		return []Record{}
	}

	lines := lineBreak.Split(text, -1)
	records := make([]Record, 0, len(lines))
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		records = append(records, Record(ParseCSVLine(line)))
	}
	return records
}

type validationStats struct {
	ragged int
	padded int
}

// applyValidation enforces mode on records. Line numbers in errors are
// positions among the data rows, starting at 1.
func applyValidation(records []Record, mode ValidationMode) ([]Record, validationStats, error) {
	var stats validationStats

	for i, rec := range records {
		if !rec.Ragged() {
			continue
		}
		stats.ragged++

		switch mode {
		case ModeStrict:
			return nil, stats, fmt.Errorf("%w: row %d has %d fields, want %d",
				ErrColumnMismatch, i+1, len(rec), ColumnCount)
		case ModePad:
			if len(rec) > ColumnCount {
				return nil, stats, fmt.Errorf("%w: row %d has %d fields, want at most %d",
					ErrColumnMismatch, i+1, len(rec), ColumnCount)
			}
			padded := make(Record, ColumnCount)
			copy(padded, rec)
			records[i] = padded
			stats.padded++
		}
	}

	return records, stats, nil
}
