package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"

	"github.com/spacesedan/sentisweep/internal/display"
	"github.com/spacesedan/sentisweep/internal/ingest"
	"github.com/spacesedan/sentisweep/internal/store"
)

// uploads larger than this stay on disk instead of in memory while the
// multipart form is parsed
const maxUploadMemory = 8 << 20

// DatasetHandler exposes the ingestion and display entry points.
type DatasetHandler struct {
	engine  *ingest.Engine
	display *display.Adapter
}

func NewDatasetHandler(engine *ingest.Engine, displayAdapter *display.Adapter) *DatasetHandler {
	return &DatasetHandler{engine: engine, display: displayAdapter}
}

// Upload handles POST /api/v1/datasets: multipart field "file" plus
// optional "post_column" and "chart_title" form values.
func (h *DatasetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid multipart form")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "no file supplied")
		return
	}
	defer file.Close()

	spoolPath, err := spoolUpload(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "ingest_failed", err.Error())
		return
	}

	opts := ingest.Options{
		TextColumn:   r.FormValue("post_column"),
		ProjectTitle: r.FormValue("chart_title"),
	}

	res, err := h.engine.RunFile(r.Context(), spoolPath, opts)
	if err != nil {
		slog.Error("[API] Ingestion failed",
			slog.String("spool_path", spoolPath),
			slog.String("error", err.Error()))

		category := "ingest_failed"
		if errors.Is(err, ingest.ErrStorage) {
			category = "storage_failed"
		}
		writeError(w, http.StatusInternalServerError, category, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"id":      res.ID,
		"bins":    res.Bins,
	})
}

// GetDisplay handles GET /api/v1/datasets/{id}.
func (h *DatasetHandler) GetDisplay(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "dataset id must be an integer")
		return
	}

	view, err := h.display.GetDisplay(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", fmt.Sprintf("no dataset with id %d", id))
		return
	}
	if err != nil {
		slog.Error("[API] Display lookup failed",
			slog.Int64("id", id),
			slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "storage_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// spoolUpload drains the multipart stream into a uniquely named temp
// file so the CSV reader owns a plain file and concurrent uploads never
// collide.
func spoolUpload(src io.Reader) (string, error) {
	path := filepath.Join(os.TempDir(), "sentisweep-"+uuid.New().String()+".csv")

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating spool file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("spooling upload: %w", err)
	}
	return path, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Warn("[API] Failed to encode response",
			slog.String("error", err.Error()))
	}
}

func writeError(w http.ResponseWriter, status int, category, message string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   category,
		"message": message,
	})
}
