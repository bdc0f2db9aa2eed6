package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nerdneilsfield/go-pdf-translator/internal/pipeline"
	"github.com/nerdneilsfield/go-pdf-translator/pkg/language"
)

func newJobID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"queue":  s.queue.Depth(),
		"jobs":   s.jobs.Len(),
	})
}

func (s *Server) handleLanguages(w http.ResponseWriter, r *http.Request) {
	langs := language.Search(r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, map[string]any{
		"count":     len(langs),
		"languages": langs,
	})
}

func (s *Server) handleCreateTranslation(w http.ResponseWriter, r *http.Request) {
	maxBytes := s.cfg.Server.MaxUploadMB << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1<<20) // 表单本身的额外开销

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > maxBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d MB)", s.cfg.Server.MaxUploadMB), http.StatusRequestEntityTooLarge)
		return
	}

	// 语言在入队前校验，以便直接返回建议代码
	source, err := language.ValidateSource(r.FormValue("source"))
	if err != nil {
		languageError(w, err)
		return
	}
	target, err := language.ValidateTarget(r.FormValue("target"))
	if err != nil {
		languageError(w, err)
		return
	}

	id := s.newID()
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	inputPath := filepath.Join(s.uploadDir(), id+".pdf")
	outputPath := filepath.Join(s.cfg.OutputDir, fmt.Sprintf("%s_%s_%s.pdf", id, base, target))

	if err := s.store.WriteFile(inputPath, data); err != nil {
		jsonError(w, "failed to store upload", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	job := &Job{
		ID:         id,
		Filename:   filename,
		SourceLang: source,
		TargetLang: target,
		status:     StatusQueued,
		CreatedAt:  now,
		updatedAt:  now,
		inputPath:  inputPath,
		outputPath: outputPath,
	}

	req := pipeline.Request{
		InputPath:  inputPath,
		OutputPath: outputPath,
		SourceLang: source,
		TargetLang: target,
	}
	if err := s.queue.Submit(job, req); err != nil {
		_ = s.store.Remove(inputPath)
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   job.ID,
		"status":   StatusQueued,
		"poll_url": "/api/translations/" + job.ID,
	})
}

func (s *Server) handleTranslationStatus(w http.ResponseWriter, r *http.Request) {
	job := s.jobs.Get(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

func (s *Server) handleTranslationFile(w http.ResponseWriter, r *http.Request) {
	job := s.jobs.Get(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}

	kind := chi.URLParam(r, "kind")
	if kind != "html" && kind != "pdf" {
		jsonError(w, "kind must be html or pdf", http.StatusBadRequest)
		return
	}

	path, ok := job.File(kind)
	if !ok {
		jsonError(w, kind+" output is not available", http.StatusNotFound)
		return
	}

	data, err := s.store.ReadFile(path)
	if err != nil {
		jsonError(w, kind+" output has expired", http.StatusGone)
		return
	}

	name := strings.TrimPrefix(filepath.Base(path), job.ID+"_")
	w.Header().Set("Content-Type", mime.TypeByExtension("."+kind))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	http.ServeContent(w, r, name, job.lastUpdate(), bytes.NewReader(data))
}

func languageError(w http.ResponseWriter, err error) {
	var le *language.Error
	if errors.As(err, &le) {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":      le.Error(),
			"error_kind": pipeline.KindUnsupportedLanguage.String(),
			"suggested":  le.Suggested,
		})
		return
	}
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error":      err.Error(),
		"error_kind": pipeline.KindInvalidArgument.String(),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
