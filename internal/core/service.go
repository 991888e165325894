package core

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/JonMunkholm/fieldform/internal/logging"
)

// DefaultDocumentTitle is the title line printed above document exports.
const DefaultDocumentTitle = "設備資料紀錄"

// DocumentTable is the input handed to a DocumentRenderer: the header and
// the merged record set, already in export order.
type DocumentTable struct {
	Title  string
	Header []string
	Rows   []Record
}

// DocumentRenderer lays out a DocumentTable as a paginated document.
// Implementations must not write anything to w when they fail.
type DocumentRenderer interface {
	RenderPDF(ctx context.Context, w io.Writer, table DocumentTable) error
	RenderXLSX(ctx context.Context, w io.Writer, table DocumentTable) error
}

// ServiceConfig holds the tunables of a Service.
// Zero values select the package defaults.
type ServiceConfig struct {
	ValidationMode       ValidationMode
	MaxImportSize        int64
	DocumentTitle        string
	MaxConcurrentRenders int
	RenderWaitTime       time.Duration
	SessionTTL           time.Duration
}

// Service provides the record-table operations on top of per-session stores.
type Service struct {
	sessions  *SessionManager
	importer  *Importer
	renderer  DocumentRenderer
	renders   *OperationGate
	auditSink AuditSink
	title     string
	now       func() time.Time
}

// NewService creates a new Service. renderer may be nil, in which case
// document exports fail with ErrRenderFailed; sink may be nil, in which
// case audit events go to the structured log.
func NewService(renderer DocumentRenderer, sink AuditSink, cfg ServiceConfig) (*Service, error) {
	mode := cfg.ValidationMode
	if mode == "" {
		mode = ModePermissive
	}
	if _, err := ParseValidationMode(string(mode)); err != nil {
		return nil, fmt.Errorf("new service: %w", err)
	}
	if sink == nil {
		sink = LogAuditSink{}
	}
	title := cfg.DocumentTitle
	if title == "" {
		title = DefaultDocumentTitle
	}

	return &Service{
		sessions:  NewSessionManager(cfg.SessionTTL),
		importer:  NewImporter(mode, cfg.MaxImportSize),
		renderer:  renderer,
		renders:   newRenderGate(cfg.MaxConcurrentRenders, cfg.RenderWaitTime),
		auditSink: sink,
		title:     title,
		now:       time.Now,
	}, nil
}

// Sessions returns the session manager.
func (s *Service) Sessions() *SessionManager {
	return s.sessions
}

// ValidationMode returns the import validation mode in effect.
func (s *Service) ValidationMode() ValidationMode {
	return s.importer.Mode
}

// Import replaces the session's store with the records in the named file.
// The store is left untouched when the file is rejected.
func (s *Service) Import(ctx context.Context, sess *Session, name string, r io.Reader) (ImportResult, error) {
	start := s.now()
	logger := logging.WithFields(ctx, "session_id", sess.ID, "file", name)

	release, err := sess.begin(ctx)
	if err != nil {
		s.audit(ctx, sess, ActionImport, name, 0, start, err)
		return ImportResult{FileName: name}, err
	}
	defer release()

	result, err := s.importer.Import(ctx, sess.store, name, r)
	if err != nil {
		logger.Warn("import rejected", "error", err)
		s.audit(ctx, sess, ActionImport, name, 0, start, err)
		return result, err
	}

	if result.Ragged > 0 {
		logger.Warn("import contains ragged rows",
			"ragged", result.Ragged,
			"padded", result.Padded,
			"mode", result.Mode,
		)
	}
	logger.Info("import completed",
		"records", result.Records,
		"duration_ms", s.now().Sub(start).Milliseconds(),
	)
	s.audit(ctx, sess, ActionImport, name, result.Records, start, nil)
	return result, nil
}

// renderFunc writes the merged record set in one export format.
type renderFunc func(ctx context.Context, w io.Writer, records []Record) error

// ExportCSV appends form as a new record and returns the whole store as a
// BOM-prefixed CSV download named MMDD.csv.
func (s *Service) ExportCSV(ctx context.Context, sess *Session, form Form) (*Download, error) {
	return s.export(ctx, sess, form, ActionExportCSV, ExtCSV, ContentTypeCSV,
		func(_ context.Context, w io.Writer, records []Record) error {
			data, err := EncodeCSVWithBOM(Columns(), records)
			if err != nil {
				return err
			}
			_, err = w.Write(data)
			return err
		})
}

// ExportPDF appends form as a new record and returns the whole store as a
// paginated PDF named MMDD.pdf. When the renderer cannot obtain its font the
// export is aborted and the store is left unchanged.
func (s *Service) ExportPDF(ctx context.Context, sess *Session, form Form) (*Download, error) {
	return s.export(ctx, sess, form, ActionExportPDF, ExtPDF, ContentTypePDF,
		s.documentRender(func(r DocumentRenderer) func(context.Context, io.Writer, DocumentTable) error {
			return r.RenderPDF
		}))
}

// ExportXLSX appends form as a new record and returns the whole store as a
// print-ready workbook named MMDD.xlsx.
func (s *Service) ExportXLSX(ctx context.Context, sess *Session, form Form) (*Download, error) {
	return s.export(ctx, sess, form, ActionExportXLSX, ExtXLSX, ContentTypeXLSX,
		s.documentRender(func(r DocumentRenderer) func(context.Context, io.Writer, DocumentTable) error {
			return r.RenderXLSX
		}))
}

// documentRender adapts one DocumentRenderer method to a renderFunc, bounded
// by the service-wide render gate.
func (s *Service) documentRender(pick func(DocumentRenderer) func(context.Context, io.Writer, DocumentTable) error) renderFunc {
	return func(ctx context.Context, w io.Writer, records []Record) error {
		if s.renderer == nil {
			return fmt.Errorf("%w: no document renderer configured", ErrRenderFailed)
		}
		release, err := s.renders.Enter(ctx)
		if err != nil {
			return err
		}
		defer release()

		return pick(s.renderer)(ctx, w, DocumentTable{
			Title:  s.title,
			Header: Columns(),
			Rows:   records,
		})
	}
}

// export is the shared serialize-then-commit flow. The new record is
// committed to the store only after the document has been produced, so a
// failed render leaves the store as it was.
func (s *Service) export(ctx context.Context, sess *Session, form Form, action AuditAction, ext, contentType string, render renderFunc) (*Download, error) {
	start := s.now()
	fileName := ExportFileName(start, ext)
	logger := logging.WithFields(ctx, "session_id", sess.ID, "action", action)

	release, err := sess.begin(ctx)
	if err != nil {
		s.audit(ctx, sess, action, fileName, 0, start, err)
		return nil, err
	}
	defer release()

	current := form.Record(start)
	merged := sess.store.withRecord(current)

	var buf bytes.Buffer
	if err := render(ctx, &buf, merged); err != nil {
		logger.Error("export failed", "error", err)
		s.audit(ctx, sess, action, fileName, 0, start, err)
		return nil, err
	}

	sess.store.Append(current)

	logger.Info("export completed",
		"file", fileName,
		"records", len(merged),
		"bytes", buf.Len(),
		"duration_ms", s.now().Sub(start).Milliseconds(),
	)
	s.audit(ctx, sess, action, fileName, len(merged), start, nil)

	return &Download{
		FileName:    fileName,
		ContentType: contentType,
		Data:        buf.Bytes(),
		Records:     len(merged),
	}, nil
}

// Scan acquires a tag identifier and a location fix and returns the values
// the form should show. Nothing is returned for either sensor unless both
// succeed.
func (s *Service) Scan(ctx context.Context, sess *Session, scanner TagScanner, locator Locator) (ScanResult, error) {
	start := s.now()

	tag, pos, err := Acquire(ctx, scanner, locator)
	if err != nil {
		logging.FromContext(ctx).Warn("sensor acquisition failed", "session_id", sess.ID, "error", err)
		s.audit(ctx, sess, ActionScan, "", 0, start, err)
		return ScanResult{}, err
	}

	s.audit(ctx, sess, ActionScan, "", 0, start, nil)
	return ScanResult{
		Identifier: tag.Identifier,
		Location:   pos.String(),
		Position:   pos,
		Timestamp:  FormatROCTime(s.now()),
	}, nil
}

// Preview projects the session's store.
func (s *Service) Preview(sess *Session) PreviewTable {
	return Preview(sess.store)
}

// RenderStatus returns the service-wide render gate state.
func (s *Service) RenderStatus() GateStatus {
	return s.renders.Status()
}

// WaitForExports blocks until in-flight document renders finish or ctx is
// done. Used during graceful shutdown.
func (s *Service) WaitForExports(ctx context.Context) error {
	return s.renders.Drain(ctx)
}
