// Package core provides the record-table engine behind the field form.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support
// reference. When a technician sees an error, they can quote the code to
// support staff for faster diagnosis.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - Unsupported file: only .csv files can be loaded
//	          Action: Choose a .csv file exported by this form
//	FILE002 - File too large: file exceeds the import size limit
//	          Action: Split the file or export fewer records
//	FILE003 - Encoding error: file is not UTF-8 text
//	          Action: Save the file as UTF-8 CSV and try again
//	FILE004 - No file: no file was selected
//	          Action: Select or drop a .csv file
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Column mismatch: a row does not have eight columns
//	         Action: Fix the row or switch the import to permissive mode
//
// # Sensor Errors (SNS001-SNS099)
//
// Sensor errors carry their own cause text, which replaces the generic
// message below.
//
//	SNS001 - Unsupported: the browser lacks NFC or geolocation support
//	SNS002 - Permission denied: the user refused location access
//	SNS003 - Acquisition failed: the reading could not be completed
//
// # Export Errors (EXP001-EXP099)
//
//	EXP001 - Font unavailable: the document font could not be loaded
//	         Action: CSV export is still available; retry the PDF later
//	EXP002 - Render failed: the document could not be produced
//	EXP003 - Busy: too many exports in progress
//
// # Session Errors (SES001-SES099)
//
//	SES001 - Operation in progress: another import or export is running
//	SES002 - Session expired: the form session is gone
//
// # Request Errors (REQ001-REQ099, RATE001)
//
//	REQ001 - Request was cancelled
//	REQ002 - Request timed out
//	REQ003 - Request body could not be read
//	RATE001 - Too many requests
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//
// # Matching
//
// Errors are first matched against the sentinel errors with errors.Is, then
// against message patterns (case-insensitive strings.Contains). The first
// match wins.
package core

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorKind maps a sentinel error to its user message.
type errorKind struct {
	err error
	msg UserMessage
}

// errorKinds is checked with errors.Is before any pattern matching.
var errorKinds = []errorKind{
	{ErrUnsupportedFile, UserMessage{
		Message: "請選擇一個 .csv 檔案。",
		Action:  "Choose a .csv file exported by this form",
		Code:    "FILE001",
	}},
	{ErrFileTooLarge, UserMessage{
		Message: "File exceeds the import size limit",
		Action:  "Split the file or export fewer records",
		Code:    "FILE002",
	}},
	{ErrUndecodable, UserMessage{
		Message: "File is not readable UTF-8 text",
		Action:  "Save the file as UTF-8 CSV and try again",
		Code:    "FILE003",
	}},
	{ErrNoFile, UserMessage{
		Message: "No file was selected",
		Action:  "Select or drop a .csv file",
		Code:    "FILE004",
	}},
	{ErrColumnMismatch, UserMessage{
		Message: "A row does not match the eight-column layout",
		Action:  "Fix the row or switch the import to permissive mode",
		Code:    "VAL001",
	}},
	{ErrSensorUnsupported, UserMessage{
		Message: "This browser does not support the sensor",
		Action:  "Use a browser with Web NFC and geolocation support",
		Code:    "SNS001",
	}},
	{ErrPermissionDenied, UserMessage{
		Message: MsgLocationDenied,
		Action:  "Allow location access and scan again",
		Code:    "SNS002",
	}},
	{ErrAcquisitionFailed, UserMessage{
		Message: "The sensor reading could not be completed",
		Action:  "Scan again",
		Code:    "SNS003",
	}},
	{ErrFontUnavailable, UserMessage{
		Message: "The document font could not be loaded",
		Action:  "CSV export is still available; retry the PDF export later",
		Code:    "EXP001",
	}},
	{ErrRenderFailed, UserMessage{
		Message: "The document could not be produced",
		Action:  "Please try again or use CSV export",
		Code:    "EXP002",
	}},
	{ErrTooManyRenders, UserMessage{
		Message: "Too many exports are in progress",
		Action:  "Please wait a moment and try again",
		Code:    "EXP003",
	}},
	{ErrOperationInProgress, UserMessage{
		Message: "Another import or export is still running",
		Action:  "Wait for it to finish, then try again",
		Code:    "SES001",
	}},
	{ErrSessionNotFound, UserMessage{
		Message: "Your form session has expired",
		Action:  "Reload the page and import your file again",
		Code:    "SES002",
	}},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns catches errors that do not wrap a sentinel, such as those
// coming from the HTTP layer or the standard library.
var errorPatterns = []errorPattern{
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds the import size limit",
			Action:  "Split the file or export fewer records",
			Code:    "FILE002",
		},
	},
	{
		pattern: "invalid request body",
		msg: UserMessage{
			Message: "The request could not be read",
			Action:  "Reload the page and try again",
			Code:    "REQ003",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Please try again",
			Code:    "REQ002",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
// Support staff should check application logs for the original error.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
// A SensorError keeps its own cause text as the message, so the user sees
// the specific reason a scan failed.
//
// Example:
//
//	err := fmt.Errorf("import %q: %w", name, ErrUnsupportedFile)
//	msg := MapError(err)
//	// msg.Code == "FILE001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, ek := range errorKinds {
		if errors.Is(err, ek.err) {
			msg := ek.msg
			var se *SensorError
			if errors.As(err, &se) && se.Message != "" {
				msg.Message = se.Message
			}
			return msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the generic ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError wraps a technical error with a user-friendly message.
// The original error is preserved for logging while Error() yields the
// clean message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError creates a UserError by mapping a technical error.
// Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
