package server

import (
	"encoding/json"
	"net/http"

	"github.com/gator-life/gator/internal/storage"
	"go.uber.org/zap"
)

// StatusResponse is the shape of GET /api/v1/status.
type StatusResponse struct {
	Documents      int64  `json:"documents"`
	Users          int64  `json:"users"`
	ModelID        string `json:"model_id"`
	DiskUsageBytes *int64 `json:"disk_usage_bytes,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docCount, err := s.store.CountDocuments(ctx)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	userCount, err := s.store.CountUsers(ctx)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	resp := StatusResponse{
		Documents: docCount,
		Users:     userCount,
		ModelID:   s.modelID,
	}
	if s.dbPath != "" {
		if diskBytes, err := storage.DiskUsageBytes(s.dbPath); err == nil {
			resp.DiskUsageBytes = &diskBytes
		}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil && s.logger != nil {
		s.logger.Warn("status encode failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, err error) {
	if s.logger != nil {
		s.logger.Warn("request failed", zap.Int("code", code), zap.Error(err))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
