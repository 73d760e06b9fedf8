package api

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"surveyclean/adapters/excel"
	"surveyclean/adapters/report"
	"surveyclean/domain/cleaning"
	"surveyclean/domain/core"
	"surveyclean/internal/errors"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, healthResponse{Status: "ok", Sessions: len(s.service.List(r.Context()))})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s.service.List(r.Context()))
}

// handleUpload ingests the multipart "file" field
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	limit := s.config.maxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		s.fail(w, r, errors.WithCode(errors.CodeInvalidInput, err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.fail(w, r, errors.InvalidInput("multipart field \"file\" is required"))
		return
	}
	defer file.Close()

	ds, err := s.reader.Read(r.Context(), header.Filename, file)
	if err != nil {
		if !core.IsPreconditionError(err) {
			err = errors.WithCode(errors.CodeInvalidInput, err)
		}
		s.fail(w, r, err)
		return
	}

	view, err := s.service.Ingest(r.Context(), header.Filename, ds)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, view)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.Get(r.Context(), sessionID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	resp := sessionResponse{SessionView: view}
	if r.URL.Query().Get("include") == "rows" {
		resp.Data = view.Dataset.Rows
	}
	render.JSON(w, r, resp)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Delete(r.Context(), sessionID(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetConfig(w http.ResponseWriter, r *http.Request) {
	var req configRequest
	if err := s.decode(r, &req, true); err != nil {
		s.fail(w, r, err)
		return
	}
	cfg, err := s.service.SetConfig(r.Context(), sessionID(r), req.toOverride())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	render.JSON(w, r, cfg)
}

// handleEdits applies edits in order and stops at the first failure; edits
// before it stay applied
func (s *Server) handleEdits(w http.ResponseWriter, r *http.Request) {
	var req editsRequest
	if err := s.decode(r, &req, true); err != nil {
		s.fail(w, r, err)
		return
	}

	id := sessionID(r)
	resp := editsResponse{Applied: make([]cleaning.EditRecord, 0, len(req.Edits))}
	for _, e := range req.Edits {
		rec, err := s.service.EditCell(r.Context(), id, *e.Row, e.Column, e.raw())
		if err != nil {
			s.fail(w, r, err)
			return
		}
		resp.Applied = append(resp.Applied, rec)
	}
	render.JSON(w, r, resp)
}

func (s *Server) handleClean(w http.ResponseWriter, r *http.Request) {
	var req cleanRequest
	if err := s.decode(r, &req, false); err != nil {
		s.fail(w, r, err)
		return
	}
	mode, err := cleaning.ParseMode(req.Mode)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	outcome, err := s.service.Clean(r.Context(), sessionID(r), mode)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	render.JSON(w, r, outcome)
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	var req statisticsRequest
	if err := s.decode(r, &req, false); err != nil {
		s.fail(w, r, err)
		return
	}
	weights := req.apply(s.service.DefaultWeights())

	snapshot, err := s.service.Statistics(r.Context(), sessionID(r), &weights)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	render.JSON(w, r, snapshot)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	formatName := r.URL.Query().Get("format")
	if formatName == "" {
		formatName = string(excel.FormatCSV)
	}
	format, err := excel.ParseFormat(formatName)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	id := sessionID(r)
	view, err := s.service.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportName(view.SourceName, format)))
	writer := excel.NewDataWriter(excel.WriterConfig{Format: format})
	if err := s.service.Export(r.Context(), id, w, writer); err != nil {
		// headers are already out; all that is left is to log
		s.logger.Error("export of session %s failed: %v", id, err)
	}
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.Get(r.Context(), sessionID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	rep := report.FromView(view)

	if r.URL.Query().Get("format") == "html" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(s.reports.HTML(rep))
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = io.WriteString(w, s.reports.Markdown(rep))
}

// decode reads a JSON body into v and validates it. An empty body is an
// error only when required is set.
func (s *Server) decode(r *http.Request, v interface{}, required bool) error {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		if err == io.EOF {
			if required {
				return errors.InvalidInput("request body is required")
			}
		} else {
			return errors.WithCode(errors.CodeInvalidInput, err)
		}
	}
	return s.validate.Struct(v)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	resp := errorResponse(err)
	if resp.Status >= http.StatusInternalServerError {
		s.logger.Error("%s %s: %v", r.Method, r.URL.Path, err)
	}
	_ = render.Render(w, r, resp)
}

func sessionID(r *http.Request) core.SessionID {
	return core.SessionID(chi.URLParam(r, "id"))
}

func exportName(source string, format excel.Format) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	if base == "" || base == "." {
		base = "dataset"
	}
	return base + "-clean." + string(format)
}
