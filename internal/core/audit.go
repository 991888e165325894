package core

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of operation being audited.
type AuditAction string

const (
	ActionImport     AuditAction = "import"
	ActionExportCSV  AuditAction = "export_csv"
	ActionExportPDF  AuditAction = "export_pdf"
	ActionExportXLSX AuditAction = "export_xlsx"
	ActionScan       AuditAction = "scan"
)

// AuditEvent is one audited operation. It records what happened to a
// session's store, never the record contents themselves.
type AuditEvent struct {
	ID        string        `json:"id"`
	SessionID string        `json:"sessionId"`
	Action    AuditAction   `json:"action"`
	FileName  string        `json:"fileName,omitempty"`
	Records   int           `json:"records"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
	ErrorCode string        `json:"errorCode,omitempty"`
	IPAddress string        `json:"ipAddress,omitempty"`
	UserAgent string        `json:"userAgent,omitempty"`
	Duration  time.Duration `json:"duration"`
	CreatedAt time.Time     `json:"createdAt"`
}

// AuditSink persists audit events.
type AuditSink interface {
	RecordEvent(ctx context.Context, ev AuditEvent) error
}

// LogAuditSink writes audit events to the structured log. It is the sink
// used when no audit database is configured.
type LogAuditSink struct{}

// RecordEvent implements AuditSink.
func (LogAuditSink) RecordEvent(ctx context.Context, ev AuditEvent) error {
	slog.InfoContext(ctx, "audit",
		"audit_id", ev.ID,
		"session_id", ev.SessionID,
		"action", ev.Action,
		"file", ev.FileName,
		"records", ev.Records,
		"success", ev.Success,
		"error_code", ev.ErrorCode,
		"duration_ms", ev.Duration.Milliseconds(),
	)
	return nil
}

// audit fills in request metadata and hands the event to the sink.
// Sink failures are logged but never fail the audited operation.
func (s *Service) audit(ctx context.Context, sess *Session, action AuditAction, fileName string, records int, start time.Time, opErr error) {
	ev := AuditEvent{
		ID:        uuid.NewString(),
		Action:    action,
		FileName:  fileName,
		Records:   records,
		Success:   opErr == nil,
		IPAddress: GetIPAddressFromContext(ctx),
		UserAgent: GetUserAgentFromContext(ctx),
		Duration:  s.now().Sub(start),
		CreatedAt: s.now(),
	}
	if sess != nil {
		ev.SessionID = sess.ID
	}
	if opErr != nil {
		ev.Error = opErr.Error()
		ev.ErrorCode = MapError(opErr).Code
	}

	if err := s.auditSink.RecordEvent(ctx, ev); err != nil {
		slog.WarnContext(ctx, "audit write failed", "action", action, "error", err)
	}
}
