// Package api exposes the analysis service over HTTP. It is a display/glue
// surface only: all numerical work happens in the analysis packages.
package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gomarkdown/markdown"

	"magfit/adapters/loader"
	"magfit/adapters/postgres"
	"magfit/app"
	"magfit/domain/core"
	"magfit/domain/loop"
)

// Server wires the analysis service and optional report store to a router.
type Server struct {
	router  *chi.Mux
	service *app.AnalysisService
	repo    *postgres.ReportRepository // nil when persistence is disabled
}

// NewServer creates the HTTP server. repo may be nil.
func NewServer(service *app.AnalysisService, repo *postgres.ReportRepository) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		service: service,
		repo:    repo,
	}
	s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Post("/analyze", s.handleAnalyze)
	s.router.Get("/reports", s.handleListReports)
	s.router.Get("/reports/{id}", s.handleGetReport)
	s.router.Get("/reports/{id}/html", s.handleReportHTML)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleAnalyze accepts multipart uploads under "file", analyzes each as a
// dataset and returns the batch report. Column names can be overridden with
// the x and y query parameters.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("parse upload: %w", err))
		return
	}
	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("no files uploaded"))
		return
	}

	opts := app.DefaultAnalysisOptions()
	if x := r.URL.Query().Get("x"); x != "" {
		opts.XName = x
	}
	if y := r.URL.Query().Get("y"); y != "" {
		opts.YName = y
	}

	datasets := make([]*loop.Dataset, 0, len(files))
	for _, fh := range files {
		ds, err := readUpload(fh)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		datasets = append(datasets, ds)
	}

	report, err := s.service.AnalyzeBatch(r.Context(), datasets, opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	if s.repo != nil {
		if err := s.repo.Save(r.Context(), report); err != nil {
			log.Printf("[api] failed to persist report %s: %v", report.ID, err)
		}
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("report store not configured"))
		return
	}
	reports, err := s.repo.List(r.Context(), 50)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	report, ok := s.loadReport(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleReportHTML(w http.ResponseWriter, r *http.Request) {
	report, ok := s.loadReport(w, r)
	if !ok {
		return
	}
	html := markdown.ToHTML([]byte(report.Markdown()), nil, nil)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(html)
}

func (s *Server) loadReport(w http.ResponseWriter, r *http.Request) (*app.Report, bool) {
	if s.repo == nil {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("report store not configured"))
		return nil, false
	}
	id, err := core.ParseReportID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return nil, false
	}
	report, err := s.repo.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return nil, false
	}
	return report, true
}

// readUpload spools one multipart file to disk and loads it as a dataset.
func readUpload(fh *multipart.FileHeader) (*loop.Dataset, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "upload-*"+filepath.Ext(fh.Filename))
	if err != nil {
		return nil, fmt.Errorf("spool upload %s: %w", fh.Filename, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("spool upload %s: %w", fh.Filename, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("spool upload %s: %w", fh.Filename, err)
	}

	ds, err := loader.Load(tmp.Name())
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", fh.Filename, err)
	}
	ds.Label = fh.Filename
	return ds, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[api] failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
