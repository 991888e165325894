package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/fieldform/internal/core"
	"github.com/JonMunkholm/fieldform/internal/logging"
	"github.com/JonMunkholm/fieldform/internal/web/templates"
)

// maxJSONBody bounds form and scan request bodies.
const maxJSONBody = 64 << 10

// multipartOverhead is allowed on top of the import size limit for the
// multipart envelope.
const multipartOverhead = 64 << 10

// errInvalidBody is returned when a form or scan body cannot be decoded.
var errInvalidBody = errors.New("invalid request body")

// ScanSuccessMessage is shown when both sensors returned a reading.
const ScanSuccessMessage = "NFC 和 GPS 皆讀取成功！"

// ImportMessage is the status line shown after a successful import.
func ImportMessage(name string, records int) string {
	return fmt.Sprintf("已成功載入 %q 的 %d 筆紀錄。", name, records)
}

// importResponse is the JSON body of a successful import.
type importResponse struct {
	core.ImportResult
	Message string `json:"message"`
}

// scanResponse is the JSON body of a successful scan.
type scanResponse struct {
	core.ScanResult
	Message string `json:"message"`
}

// recordsResponse is the JSON body of GET /api/records.
type recordsResponse struct {
	Header  []string      `json:"header"`
	Records []core.Record `json:"records"`
	Count   int           `json:"count"`
}

// healthResponse is the JSON body of GET /healthz.
type healthResponse struct {
	Status   string          `json:"status"`
	Sessions int             `json:"sessions"`
	Renders  core.GateStatus `json:"renders"`
}

// handleFormPage renders the collection form with the current preview.
func (s *Server) handleFormPage(w http.ResponseWriter, r *http.Request) {
	sess := s.mustSession(w, r)
	if sess == nil {
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := templates.FormPage(templates.PageData{
		Title:     s.cfg.Export.Title,
		Timestamp: core.FormatROCTime(time.Now()),
		Preview:   s.service.Preview(sess),
	}).Render(r.Context(), w)
	if err != nil {
		logging.FromContext(r.Context()).Error("render form page", "error", err)
	}
}

// handleImport replaces the session's records with an uploaded CSV file.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	sess := s.mustSession(w, r)
	if sess == nil {
		return
	}

	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			s.respondError(w, r, fmt.Errorf("import: %w (limit %d bytes)", core.ErrFileTooLarge, maxSize))
			return
		}
		s.respondError(w, r, fmt.Errorf("import: %w: %v", core.ErrNoFile, err))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, fmt.Errorf("import: %w", core.ErrNoFile))
		return
	}
	defer file.Close()

	result, err := s.service.Import(r.Context(), sess, header.Filename, file)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	msg := ImportMessage(result.FileName, result.Records)
	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = templates.ImportResult(msg, templates.PreviewTable(s.service.Preview(sess))).Render(r.Context(), w)
		return
	}
	writeJSON(w, http.StatusOK, importResponse{ImportResult: result, Message: msg})
}

// handleScan joins the browser's NFC and GPS outcomes. The form fields are
// only filled when both sensors succeeded.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	sess := s.mustSession(w, r)
	if sess == nil {
		return
	}

	var req scanRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	result, err := s.service.Scan(r.Context(), sess, reportedTag{req.Tag}, reportedLocation{req.Location})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, scanResponse{ScanResult: result, Message: ScanSuccessMessage})
}

// handleExport appends the posted form as a record and downloads the whole
// store in the format named by the URL.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess := s.mustSession(w, r)
	if sess == nil {
		return
	}

	var export func(context.Context, *core.Session, core.Form) (*core.Download, error)
	switch chi.URLParam(r, "format") {
	case "csv":
		export = s.service.ExportCSV
	case "pdf":
		export = s.service.ExportPDF
	case "xlsx":
		export = s.service.ExportXLSX
	default:
		http.NotFound(w, r)
		return
	}

	form, err := parseForm(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	dl, err := export(r.Context(), sess, form)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeDownload(w, dl)
}

// handlePreview renders the store as an HTML fragment, plain text
// (?format=text) or JSON (Accept: application/json).
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	sess := s.mustSession(w, r)
	if sess == nil {
		return
	}

	switch {
	case r.URL.Query().Get("format") == "text":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(core.PreviewText(sess.Store())))
	case strings.Contains(r.Header.Get("Accept"), "application/json"):
		writeJSON(w, http.StatusOK, s.service.Preview(sess))
	default:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = templates.PreviewTable(s.service.Preview(sess)).Render(r.Context(), w)
	}
}

// handleRecords returns the session's records as JSON.
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	sess := s.mustSession(w, r)
	if sess == nil {
		return
	}

	records := sess.Store().Records()
	writeJSON(w, http.StatusOK, recordsResponse{
		Header:  sess.Store().Header(),
		Records: records,
		Count:   len(records),
	})
}

// handleHealth reports liveness and render load.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:   "ok",
		Sessions: s.service.Sessions().Len(),
		Renders:  s.service.RenderStatus(),
	})
}

// mustSession returns the request's session or writes an error and
// returns nil.
func (s *Server) mustSession(w http.ResponseWriter, r *http.Request) *core.Session {
	sess, ok := sessionFrom(r.Context())
	if !ok {
		s.respondError(w, r, core.ErrSessionNotFound)
		return nil
	}
	return sess
}

// formFieldNames lists the form values read from a urlencoded or multipart
// export request, keyed by the JSON name used in core.Form.
var formFieldNames = []string{
	"identifier", "timestamp", "location", "unit",
	"equipmentName", "locationDescription", "summary", "remarks",
}

// parseForm reads the export form from a JSON body or from form values.
func parseForm(w http.ResponseWriter, r *http.Request) (core.Form, error) {
	var form core.Form

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		err := decodeJSON(w, r, &form)
		return form, err
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := r.ParseForm(); err != nil {
		return form, fmt.Errorf("%w: %v", errInvalidBody, err)
	}

	values := make(map[string]string, len(formFieldNames))
	for _, name := range formFieldNames {
		values[name] = r.PostFormValue(name)
	}
	form = core.Form{
		Identifier:          values["identifier"],
		Timestamp:           values["timestamp"],
		Location:            values["location"],
		Unit:                values["unit"],
		EquipmentName:       values["equipmentName"],
		LocationDescription: values["locationDescription"],
		Summary:             values["summary"],
		Remarks:             values["remarks"],
	}
	return form, nil
}

// decodeJSON decodes a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	return nil
}

// writeDownload sends dl as an attachment.
func writeDownload(w http.ResponseWriter, dl *core.Download) {
	w.Header().Set("Content-Type", dl.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": dl.FileName}))
	w.Header().Set("Content-Length", strconv.Itoa(len(dl.Data)))
	w.Header().Set("X-Record-Count", strconv.Itoa(dl.Records))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(dl.Data)
}
