package core

import "errors"

// Sentinel errors returned by the engine. Callers match them with errors.Is;
// the messages are also the patterns MapError keys on.
var (
	// ErrUnsupportedFile is returned when an import file does not carry the
	// .csv extension.
	ErrUnsupportedFile = errors.New("unsupported file type: only .csv files are accepted")

	// ErrFileTooLarge is returned when an import exceeds the configured size.
	ErrFileTooLarge = errors.New("file too large")

	// ErrUndecodable is returned when an import cannot be read as text.
	ErrUndecodable = errors.New("encoding error: file is not valid UTF-8 text")

	// ErrNoFile is returned when an import request carries no file.
	ErrNoFile = errors.New("no file provided")

	// ErrColumnMismatch is returned by the stricter validation modes when a
	// row's field count differs from the schema.
	ErrColumnMismatch = errors.New("column count mismatch")

	// ErrSensorUnsupported is the kind of a SensorError raised when the
	// device or browser lacks the capability.
	ErrSensorUnsupported = errors.New("sensor unsupported")

	// ErrPermissionDenied is the kind of a SensorError raised when the user
	// refused access.
	ErrPermissionDenied = errors.New("sensor permission denied")

	// ErrAcquisitionFailed is the kind of a SensorError raised for any other
	// acquisition failure.
	ErrAcquisitionFailed = errors.New("sensor acquisition failed")

	// ErrFontUnavailable aborts a document export when no font resource can
	// be obtained.
	ErrFontUnavailable = errors.New("font unavailable")

	// ErrRenderFailed wraps layout errors from a document renderer.
	ErrRenderFailed = errors.New("render failed")

	// ErrOperationInProgress is returned when an import or export is started
	// while another one is still running on the same session.
	ErrOperationInProgress = errors.New("operation in progress")

	// ErrTooManyRenders is returned when every render slot stayed occupied
	// for the whole wait. Clients should retry after a short delay.
	ErrTooManyRenders = errors.New("too many exports in progress, please try again later")

	// ErrSessionNotFound is returned when a session id is unknown or expired.
	ErrSessionNotFound = errors.New("session not found")
)
