// Package core provides the record-table engine behind the field form.
//
// This package holds all domain logic independent of any UI or transport
// layer. It can be used by web handlers, CLI tools, or tests without
// modification.
//
// # Architecture
//
// The package is organized around a few key concepts:
//
//   - Column Schema: the fixed, ordered list of eight column names. Every
//     export starts with exactly this header line. See [Columns].
//   - Record Store: the ordered records owned by one browser session. See
//     [Store] and [Session].
//   - Field Parser: turns one CSV line into fields while honoring quotes.
//     See [ParseLine].
//   - Import Pipeline: replaces a store from an uploaded CSV blob. See
//     [Importer].
//   - Export: appends the current form as a new record and serializes the
//     whole store. See [Service.ExportCSV] and [EncodeCSV].
//   - Preview: re-projects the store after every mutation. See [Preview].
//
// # Sessions
//
// Each browser session owns exactly one store. Import and export on a
// session are mutually exclusive; an overlapping request fails fast with
// [ErrOperationInProgress] instead of waiting:
//
//	sess, _ := manager.GetOrCreate(cookieID)
//	result, err := service.Import(ctx, sess, header.Filename, file)
//
// # Sensor Acquisition
//
// Tag scanning and geolocation are external collaborators modeled by the
// [TagScanner] and [Locator] interfaces. [Acquire] runs both concurrently
// and joins them all-or-nothing.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - FILE001-FILE004: File errors (type, size, encoding, missing)
//   - VAL001: Column count validation
//   - SNS001-SNS003: Sensor errors (unsupported, denied, failed)
//   - EXP001-EXP003: Export errors (font, render, busy)
//   - SES001-SES002: Session errors (busy, expired)
package core
