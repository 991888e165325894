package core

import (
	"fmt"
	"time"
)

// rocEpochOffset converts a Gregorian year to a Minguo (ROC) year.
const rocEpochOffset = 1911

// Form is the current state of the collection form. It becomes a Record at
// export time.
type Form struct {
	Identifier          string `json:"identifier"`
	Timestamp           string `json:"timestamp"`
	Location            string `json:"location"`
	Unit                string `json:"unit"`
	EquipmentName       string `json:"equipmentName"`
	LocationDescription string `json:"locationDescription"`
	Summary             string `json:"summary"`
	Remarks             string `json:"remarks"`
}

// Record returns the form's fields in schema order. An empty timestamp is
// filled from now, the same way the form clock would have shown it.
func (f Form) Record(now time.Time) Record {
	ts := f.Timestamp
	if ts == "" {
		ts = FormatROCTime(now)
	}

	rec := make(Record, ColumnCount)
	rec[ColIdentifier] = f.Identifier
	rec[ColTimestamp] = ts
	rec[ColLocation] = f.Location
	rec[ColUnit] = f.Unit
	rec[ColEquipmentName] = f.EquipmentName
	rec[ColLocationDescription] = f.LocationDescription
	rec[ColSummary] = f.Summary
	rec[ColRemarks] = f.Remarks
	return rec
}

// FormatROCTime formats t as "yyy/MM/dd HH:mm" with a Minguo year,
// e.g. 2024-04-05 09:07 becomes "113/04/05 09:07".
func FormatROCTime(t time.Time) string {
	return fmt.Sprintf("%d/%s", t.Year()-rocEpochOffset, t.Format("01/02 15:04"))
}
