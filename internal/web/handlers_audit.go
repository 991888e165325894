package web

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/JonMunkholm/fieldform/internal/audit"
	"github.com/JonMunkholm/fieldform/internal/core"
)

// auditPageSize is the number of events per page of GET /api/audit.
const auditPageSize = 50

// AuditLog reads stored audit events. *audit.PostgresStore implements it.
type AuditLog interface {
	List(ctx context.Context, f audit.Filter) ([]core.AuditEvent, error)
	Count(ctx context.Context, f audit.Filter) (int64, error)
}

// Option configures optional Server collaborators.
type Option func(*Server)

// WithAuditLog enables GET /api/audit backed by log.
func WithAuditLog(log AuditLog) Option {
	return func(s *Server) { s.auditLog = log }
}

// auditLogResponse is the JSON body of GET /api/audit.
type auditLogResponse struct {
	Events     []core.AuditEvent `json:"events"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	TotalPages int               `json:"totalPages"`
}

// auditExportHeader is the header row of the CSV audit export.
var auditExportHeader = []string{
	"id", "created_at", "session_id", "action", "file_name", "records",
	"success", "error_code", "ip_address", "duration_ms",
}

// handleAuditLog lists audit events with filtering and pagination.
// ?format=csv downloads the current page as CSV.
func (s *Server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	if s.auditLog == nil {
		http.NotFound(w, r)
		return
	}

	page := parseIntParam(r, "page", 1)
	filter := parseAuditFilter(r)
	filter.Limit = auditPageSize
	filter.Offset = (page - 1) * auditPageSize

	events, err := s.auditLog.List(r.Context(), filter)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		writeAuditCSV(w, events)
		return
	}

	total, err := s.auditLog.Count(r.Context(), filter)
	if err != nil {
		total = int64(len(events))
	}

	writeJSON(w, http.StatusOK, auditLogResponse{
		Events:     events,
		Total:      total,
		Page:       page,
		PageSize:   auditPageSize,
		TotalPages: int((total + auditPageSize - 1) / auditPageSize),
	})
}

// parseAuditFilter reads session, action, success, from and to. Dates are
// YYYY-MM-DD; "to" includes the whole day. Unparseable values are ignored.
func parseAuditFilter(r *http.Request) audit.Filter {
	q := r.URL.Query()
	f := audit.Filter{
		SessionID: q.Get("session"),
		Action:    core.AuditAction(q.Get("action")),
	}
	if v := q.Get("success"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			f.Success = &b
		}
	}
	if v := q.Get("from"); v != "" {
		if t, err := time.Parse(time.DateOnly, v); err == nil {
			f.Since = t
		}
	}
	if v := q.Get("to"); v != "" {
		if t, err := time.Parse(time.DateOnly, v); err == nil {
			f.Until = t.Add(24 * time.Hour)
		}
	}
	return f
}

func writeAuditCSV(w http.ResponseWriter, events []core.AuditEvent) {
	rows := make([]core.Record, len(events))
	for i, ev := range events {
		rows[i] = core.Record{
			ev.ID,
			ev.CreatedAt.Format(time.RFC3339),
			ev.SessionID,
			string(ev.Action),
			ev.FileName,
			strconv.Itoa(ev.Records),
			strconv.FormatBool(ev.Success),
			ev.ErrorCode,
			ev.IPAddress,
			strconv.FormatInt(ev.Duration.Milliseconds(), 10),
		}
	}

	data, err := core.EncodeCSVWithBOM(auditExportHeader, rows)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to encode audit log")
		return
	}
	writeDownload(w, &core.Download{
		FileName:    "audit-" + time.Now().Format("20060102") + core.ExtCSV,
		ContentType: core.ContentTypeCSV,
		Data:        data,
		Records:     len(rows),
	})
}

// parseIntParam parses a positive integer query parameter with a default.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}
