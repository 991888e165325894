package core

// Delimiter and Quote are the field separator and quote character used by
// both the import parser and the export serializer.
const (
	Delimiter = ','
	Quote     = '"'
)

// Column positions within a Record.
const (
	ColIdentifier = iota
	ColTimestamp
	ColLocation
	ColUnit
	ColEquipmentName
	ColLocationDescription
	ColSummary
	ColRemarks

	// ColumnCount is the fixed arity of every collected record.
	ColumnCount
)

// columns is the header line every export starts with. Consumers of the
// export file match on these exact names.
var columns = [ColumnCount]string{
	"卡片序號",
	"日期時間",
	"GPS位置",
	"單位",
	"設備名稱",
	"位置(道路)說明",
	"功能簡介",
	"備註",
}

// Columns returns a copy of the fixed column schema in export order.
func Columns() []string {
	out := make([]string, ColumnCount)
	copy(out, columns[:])
	return out
}

// Record is one row of field values, positionally matching Columns.
//
// Records collected from the form always carry ColumnCount fields. Records
// produced by a permissive import carry whatever the line contained.
type Record []string

// Clone returns an independent copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	copy(out, r)
	return out
}

// Field returns the value at position i, or "" when the record is shorter.
func (r Record) Field(i int) string {
	if i < 0 || i >= len(r) {
		return ""
	}
	return r[i]
}

// Ragged reports whether the record's arity differs from the schema.
func (r Record) Ragged() bool {
	return len(r) != ColumnCount
}

// cloneRecords deep-copies a record slice.
func cloneRecords(records []Record) []Record {
	out := make([]Record, len(records))
	for i, rec := range records {
		out[i] = rec.Clone()
	}
	return out
}
