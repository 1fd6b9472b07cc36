package api

import (
	"net/http"

	"github.com/spacesedan/sentisweep/internal/api/handler"
	"github.com/spacesedan/sentisweep/internal/display"
	"github.com/spacesedan/sentisweep/internal/ingest"
)

// NewRouter wires the dataset endpoints onto a mux.
func NewRouter(engine *ingest.Engine, displayAdapter *display.Adapter) *http.ServeMux {
	h := handler.NewDatasetHandler(engine, displayAdapter)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/datasets", h.Upload)
	mux.HandleFunc("GET /api/v1/datasets/{id}", h.GetDisplay)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return mux
}
