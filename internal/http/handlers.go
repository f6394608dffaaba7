package http

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/theflourishcollective/flourish-dashboard/internal/amqp"
	"github.com/theflourishcollective/flourish-dashboard/internal/core"
	"github.com/theflourishcollective/flourish-dashboard/internal/source"
	"github.com/theflourishcollective/flourish-dashboard/internal/source/xlsx"
)

// handleIndex renders the dashboard page shell; partials fill it in.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	ds := s.store.Current()
	data := struct {
		Source    string
		LoadedAt  string
		RangeFrom string
		RangeTo   string
		HasRange  bool
	}{
		Source:   ds.Source,
		LoadedAt: ds.LoadedAt.Format("Jan 2, 2006 15:04"),
	}
	if from, to, ok := ds.Span(); ok {
		data.RangeFrom = from.Label()
		data.RangeTo = to.Label()
		data.HasRange = true
	}

	if err := s.templates.ExecuteTemplate(w, "dashboard_page", data); err != nil {
		slog.ErrorContext(r.Context(), "Dashboard template execution failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleUploadWorkbook ingests an uploaded Excel workbook. A workbook
// that fails validation never replaces the active dataset: the handler
// answers with an inline warning and the dashboard keeps rendering the
// previous data.
func (s *Server) handleUploadWorkbook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	r.Body = http.MaxBytesReader(w, r.Body, s.uploadMaxBytes)
	if err := r.ParseMultipartForm(s.uploadMaxBytes); err != nil {
		slog.ErrorContext(r.Context(), "Parse multipart form error", "error", err)
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		_, _ = w.Write([]byte(`<div class="upload-result upload-result--error">Upload too large or malformed</div>`))
		return
	}

	file, header, err := r.FormFile("workbook")
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="upload-result upload-result--error">No workbook file in request</div>`))
		return
	}
	defer file.Close()

	ds, warnings, err := xlsx.Parse(file)
	if err != nil {
		if source.IsValidationError(err) {
			slog.WarnContext(r.Context(), "Workbook rejected, keeping previous dataset",
				"filename", header.Filename,
				"error", err)
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`<div class="upload-result upload-result--error">Workbook rejected: ` +
				template.HTMLEscapeString(err.Error()) +
				`. The dashboard still shows the previous data.</div>`))
			return
		}
		slog.ErrorContext(r.Context(), "Workbook parse error", "error", err, "filename", header.Filename)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="upload-result upload-result--error">Error reading workbook</div>`))
		return
	}

	gen := s.store.Swap(ds)
	slog.InfoContext(r.Context(), "Dataset swapped",
		"filename", header.Filename,
		"generation", gen,
		"revenue_rows", len(ds.Revenue),
		"expense_rows", len(ds.Expenses),
		"warnings", len(warnings))

	s.persistAndAnnounce(r, ds)

	w.Header().Set("HX-Trigger", `{"dataset:refreshed": {}}`)
	w.WriteHeader(http.StatusOK)

	var b strings.Builder
	b.WriteString(`<div class="upload-result upload-result--success">Loaded `)
	b.WriteString(template.HTMLEscapeString(header.Filename))
	if from, to, ok := ds.Span(); ok {
		b.WriteString(` (` + from.DisplayLabel() + ` – ` + to.DisplayLabel() + `)`)
	}
	b.WriteString(`</div>`)
	for _, warn := range warnings {
		b.WriteString(`<div class="upload-result upload-result--warning">` + template.HTMLEscapeString(warn) + `</div>`)
	}
	_, _ = w.Write([]byte(b.String()))
}

// persistAndAnnounce saves the swapped dataset and publishes a refresh
// event. Both are best-effort: the upload already succeeded from the
// user's point of view.
func (s *Server) persistAndAnnounce(r *http.Request, ds core.Dataset) {
	ctx := r.Context()

	if s.snapshots == nil {
		return
	}
	snapshotID, err := s.snapshots.SaveSnapshot(ctx, ds)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to persist snapshot", "error", err)
		return
	}
	slog.InfoContext(ctx, "Snapshot persisted", "snapshot_id", snapshotID)

	if s.publisher == nil {
		return
	}
	var fromLabel, toLabel string
	if from, to, ok := ds.Span(); ok {
		fromLabel, toLabel = from.Label(), to.Label()
	}
	msg := amqp.NewDatasetRefreshMessage(snapshotID, ds.Source, fromLabel, toLabel)
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.publisher.PublishDatasetRefresh(pctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish dataset refresh", "error", err, "snapshot_id", snapshotID)
	}
}
