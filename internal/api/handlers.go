package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/klarifikasi/klarifikasi-api/internal/pipeline"
	"github.com/klarifikasi/klarifikasi-api/internal/store"
)

// Response messages.
const (
	MsgInvalidQuery    = "Invalid query."
	MsgHistoryCleared  = "Riwayat pencarian berhasil dihapus."
	MsgUnauthenticated = "Unauthenticated."
	MsgHistoryDisabled = "Riwayat pencarian tidak tersedia."
	MsgTooManyRequests = "Too Many Attempts."
)

type searchRequest struct {
	Query string `json:"query"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// An unreadable body is reported like a missing query.
		req.Query = ""
	}
	s.check(w, r, req.Query)
}

func (s *Server) handleSearchByPath(w http.ResponseWriter, r *http.Request) {
	q := chi.URLParam(r, "query")
	if unescaped, err := url.PathUnescape(q); err == nil {
		q = unescaped
	}
	s.check(w, r, q)
}

func (s *Server) check(w http.ResponseWriter, r *http.Request, query string) {
	resp, err := s.checker.Check(r.Context(), query, userFromContext(r.Context()))
	if err != nil {
		var verr *pipeline.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"message": MsgInvalidQuery,
				"errors":  verr.Errors,
			})
			return
		}
		zap.L().Error("api: check failed", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeMessage(w, http.StatusServiceUnavailable, MsgHistoryDisabled)
		return
	}

	userID := userFromContext(r.Context())
	filter := store.HistoryFilter{
		UserID:  userID,
		Scope:   store.Scope(s.cfg.History.Scope),
		Page:    queryInt(r, "page", 1),
		PerPage: queryInt(r, "per_page", s.cfg.History.DefaultPerPage),
	}
	if limit := s.cfg.History.MaxPerPage; limit > 0 && filter.PerPage > limit {
		filter.PerPage = limit
	}

	page, err := s.history.List(r.Context(), filter)
	if err != nil {
		zap.L().Error("api: list history", zap.Int64("user_id", *userID), zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Gagal memuat riwayat pencarian.")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeMessage(w, http.StatusServiceUnavailable, MsgHistoryDisabled)
		return
	}

	userID := *userFromContext(r.Context())
	n, err := s.history.Clear(r.Context(), userID)
	if err != nil {
		zap.L().Error("api: clear history", zap.Int64("user_id", userID), zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Gagal menghapus riwayat pencarian.")
		return
	}
	zap.L().Info("api: history cleared", zap.Int64("user_id", userID), zap.Int64("deleted", n))
	writeJSON(w, http.StatusOK, map[string]any{
		"message": MsgHistoryCleared,
		"deleted": n,
	})
}

type healthResponse struct {
	Status           string            `json:"status"`
	Version          string            `json:"version"`
	Store            string            `json:"store"`
	SearchConfigured bool              `json:"search_configured"`
	LLMConfigured    bool              `json:"llm_configured"`
	LLMProvider      string            `json:"llm_provider"`
	Breakers         map[string]string `json:"breakers,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:           "ok",
		Version:          s.version,
		Store:            "disabled",
		SearchConfigured: s.cfg.SearchConfigured(),
		LLMConfigured:    s.cfg.LLMConfigured(),
		LLMProvider:      s.cfg.LLM.Provider,
	}
	if s.breakers != nil {
		resp.Breakers = s.breakers.States()
	}

	if s.history != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.history.Ping(ctx); err != nil {
			zap.L().Warn("api: store ping failed", zap.Error(err))
			resp.Status = "degraded"
			resp.Store = "unreachable"
		} else {
			resp.Store = "ok"
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// queryInt reads a positive integer query parameter, falling back to def.
func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
