package core

import "strings"

// EmptyPreviewText is shown instead of a table when the store has no records.
const EmptyPreviewText = "尚無紀錄"

// PreviewTable is a structured projection of a store for on-screen display.
// Empty is set when there are no records, so the caller can render a
// distinct placeholder rather than a header-only table.
type PreviewTable struct {
	Empty  bool       `json:"empty"`
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// Preview projects the full store. It is recomputed from scratch on every
// call.
func Preview(store *Store) PreviewTable {
	records := store.Records()
	rows := make([][]string, len(records))
	for i, rec := range records {
		rows[i] = []string(rec)
	}
	return PreviewTable{
		Empty:  len(records) == 0,
		Header: store.Header(),
		Rows:   rows,
	}
}

// PreviewText renders the store as a plain text block: the header and one
// line per record, fields joined by the delimiter with no quoting applied.
// The output is for display only and does not round-trip through the parser.
func PreviewText(store *Store) string {
	table := Preview(store)
	if table.Empty {
		return EmptyPreviewText
	}

	var b strings.Builder
	b.WriteString(strings.Join(table.Header, string(Delimiter)))
	for _, row := range table.Rows {
		b.WriteByte('\n')
		b.WriteString(strings.Join(row, string(Delimiter)))
	}
	return b.String()
}
