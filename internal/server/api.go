package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/verte-zerg/keyrush/internal/model"
	"github.com/verte-zerg/keyrush/internal/store"
)

const maxImportBytes = 10 << 20

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

func (s *Server) handleModes(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, model.Catalog)
}

func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	cfg, err := filterFromQuery(r)
	if err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	results, err := s.store.List(r.Context(), cfg)
	if err != nil {
		s.logger.Error("list results", "err", err)
		Error(w, http.StatusInternalServerError, "failed to list results")
		return
	}
	records := make([]model.Record, 0, len(results))
	for _, res := range results {
		records = append(records, res.ToRecord())
	}
	JSON(w, http.StatusOK, records)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	cfg, err := filterFromQuery(r)
	if err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	agg, err := s.store.Aggregate(r.Context(), cfg)
	if err != nil {
		s.logger.Error("aggregate results", "err", err)
		Error(w, http.StatusInternalServerError, "failed to aggregate results")
		return
	}
	JSON(w, http.StatusOK, agg)
}

func (s *Server) handleDeleteResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			Error(w, http.StatusNotFound, "result not found")
			return
		}
		s.logger.Error("delete result", "id", id, "err", err)
		Error(w, http.StatusInternalServerError, "failed to delete result")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearResults(w http.ResponseWriter, r *http.Request) {
	n, err := s.store.Clear(r.Context())
	if err != nil {
		s.logger.Error("clear results", "err", err)
		Error(w, http.StatusInternalServerError, "failed to clear results")
		return
	}
	JSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if _, err := s.store.Export(r.Context(), &buf); err != nil {
		s.logger.Error("export results", "err", err)
		Error(w, http.StatusInternalServerError, "failed to export results")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="keyrush-results.json"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Debug("write export", "err", err)
	}
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxImportBytes)
	n, err := s.store.Import(r.Context(), body)
	if err != nil {
		Error(w, http.StatusBadRequest, fmt.Sprintf("failed to import results: %v", err))
		return
	}
	JSON(w, http.StatusOK, map[string]int{"imported": n})
}

func filterFromQuery(r *http.Request) (model.StatsConfig, error) {
	var cfg model.StatsConfig
	q := r.URL.Query()
	if raw := q.Get("category"); raw != "" {
		category, err := model.ParseCategory(raw)
		if err != nil {
			return cfg, err
		}
		cfg.Category = category
	}
	if raw := q.Get("mode"); raw != "" {
		mode, err := model.ParseMode(raw)
		if err != nil {
			return cfg, err
		}
		cfg.Mode = mode.ID()
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return cfg, fmt.Errorf("invalid limit %q", raw)
		}
		cfg.Last = limit
	}
	return cfg, nil
}
