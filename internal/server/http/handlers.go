package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrijs2005/pinsync/internal/common"
	"github.com/dmitrijs2005/pinsync/internal/models"
)

const maxBodyBytes = 1 << 20

func (s *HTTPServer) handleUpsert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var p models.Pin
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&p); err != nil {
		s.logger.Warn(ctx, "malformed pin", "error", err)
		http.Error(w, "malformed pin", http.StatusBadRequest)
		return
	}

	if err := s.sync.Upsert(ctx, p); err != nil {
		if errors.Is(err, common.ErrInvalidPin) {
			s.logger.Warn(ctx, "rejected pin", "id", p.ID, "error", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.logger.Error(ctx, "upsert failed", "id", p.ID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	pins, err := s.sync.ListVisible(ctx)
	if err != nil {
		s.logger.Error(ctx, "list failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if pins == nil {
		pins = []models.Pin{}
	}
	writeJSON(w, http.StatusOK, pins)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// requestLogger logs one line per request with the caller's client id.
func (s *HTTPServer) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.logger.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"client_id", r.Header.Get(common.ClientIDHeaderName),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
