package templates

import "github.com/JonMunkholm/fieldform/internal/core"

// PageData is everything the form page needs.
type PageData struct {
	Title     string
	Timestamp string
	Preview   core.PreviewTable
}

// formField ties a column to the input that edits it. Names match the JSON
// keys of core.Form.
type formField struct {
	column   int
	name     string
	readOnly bool
	multi    bool
}

var formFields = []formField{
	{column: core.ColIdentifier, name: "identifier", readOnly: true},
	{column: core.ColTimestamp, name: "timestamp", readOnly: true},
	{column: core.ColLocation, name: "location", readOnly: true},
	{column: core.ColUnit, name: "unit"},
	{column: core.ColEquipmentName, name: "equipmentName"},
	{column: core.ColLocationDescription, name: "locationDescription"},
	{column: core.ColSummary, name: "summary", multi: true},
	{column: core.ColRemarks, name: "remarks", multi: true},
}

// label is the column name shown next to the input.
func (f formField) label() string {
	return core.Columns()[f.column]
}

// value pre-fills the timestamp input; the other inputs start empty.
func (f formField) value(timestamp string) string {
	if f.column == core.ColTimestamp {
		return timestamp
	}
	return ""
}
