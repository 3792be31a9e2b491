// Package api serves the stored symbols, articles and daily metrics over a
// read-only JSON HTTP API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/phuslu/log"

	"github.com/seenimoa/sastocks/internal/config"
	"github.com/seenimoa/sastocks/internal/store"
	"github.com/seenimoa/sastocks/pkg/models"
	"github.com/seenimoa/sastocks/pkg/utils"
)

// Reader is the read side of the store the API exposes.
type Reader interface {
	ListSymbols(ctx context.Context, f store.SymbolFilter) ([]models.Symbol, error)
	SymbolByTicker(ctx context.Context, ticker string) (*models.Symbol, error)
	SymbolByID(ctx context.Context, id uint) (*models.Symbol, error)
	ListArticles(ctx context.Context, f store.ArticleFilter) ([]models.Article, error)
	ArticleByID(ctx context.Context, id uint) (*models.Article, error)
	ListDailyMetrics(ctx context.Context, f store.MetricFilter) ([]models.DailyMetric, error)
	Counts(ctx context.Context) (store.Counts, error)
}

// Server is the HTTP API server.
type Server struct {
	router  chi.Router
	cfg     config.APIConfig
	store   Reader
	log     *log.Logger
	version string
}

// NewServer creates a server with all routes and middleware.
func NewServer(cfg config.APIConfig, st Reader, l *log.Logger, version string) *Server {
	s := &Server{cfg: cfg, store: st, log: l, version: version}
	s.router = s.buildRouter()
	return s
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	origins := []string{"*"}
	if len(s.cfg.CORSOrigins) > 0 {
		origins = s.cfg.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Get("/symbols", s.handleListSymbols)
		r.Get("/symbols/{ticker}", s.handleGetSymbol)
		r.Get("/symbols/{ticker}/articles", s.handleSymbolArticles)
		r.Get("/symbols/{ticker}/metrics", s.handleSymbolMetrics)

		r.Get("/articles/{id}", s.handleGetArticle)
	})

	return r
}

// requestLogger logs one line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Str("request_id", middleware.GetReqID(r.Context())).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

// ── Request / Response Types ──

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ArticleDetail is an article with its owning symbol. Summary is the
// description rendered as plain text; the stored description is untouched.
type ArticleDetail struct {
	Article models.Article `json:"article"`
	Summary string         `json:"summary"`
	Symbol  *models.Symbol `json:"symbol"`
}

// ── Handlers ──

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	counts, err := s.store.Counts(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("health: store unavailable")
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":   "ok",
			"version":  s.version,
			"time_utc": time.Now().UTC().Format(time.RFC3339),
			"counts":   counts,
		},
	})
}

func (s *Server) handleListSymbols(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r)
	if !ok {
		return
	}
	syms, err := s.store.ListSymbols(r.Context(), store.SymbolFilter{Limit: limit})
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: nonNil(syms)})
}

func (s *Server) handleGetSymbol(w http.ResponseWriter, r *http.Request) {
	sym, ok := s.symbolParam(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: sym})
}

func (s *Server) handleSymbolArticles(w http.ResponseWriter, r *http.Request) {
	sym, ok := s.symbolParam(w, r)
	if !ok {
		return
	}
	from, to, ok := dateRange(w, r)
	if !ok {
		return
	}
	limit, ok := queryLimit(w, r)
	if !ok {
		return
	}

	arts, err := s.store.ListArticles(r.Context(), store.ArticleFilter{
		SymbolID:   sym.ID,
		From:       from,
		To:         to,
		Unlabelled: r.URL.Query().Get("unlabelled") == "true",
		Limit:      limit,
	})
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: nonNil(arts)})
}

func (s *Server) handleSymbolMetrics(w http.ResponseWriter, r *http.Request) {
	sym, ok := s.symbolParam(w, r)
	if !ok {
		return
	}
	from, to, ok := dateRange(w, r)
	if !ok {
		return
	}
	limit, ok := queryLimit(w, r)
	if !ok {
		return
	}

	rows, err := s.store.ListDailyMetrics(r.Context(), store.MetricFilter{SymbolID: sym.ID, From: from, To: to, Limit: limit})
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: nonNil(rows)})
}

func (s *Server) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 0)
	if err != nil || id == 0 {
		writeError(w, http.StatusBadRequest, "id must be a positive integer")
		return
	}

	art, err := s.store.ArticleByID(r.Context(), uint(id))
	if err != nil {
		s.storeError(w, err)
		return
	}
	if art == nil {
		writeError(w, http.StatusNotFound, "article not found")
		return
	}
	sym, err := s.store.SymbolByID(r.Context(), art.SymbolID)
	if err != nil {
		s.storeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: ArticleDetail{Article: *art, Summary: utils.PlainText(art.Description), Symbol: sym}})
}

// ── Helpers ──

// symbolParam resolves the {ticker} URL parameter, writing a 400 or 404 when
// it cannot.
func (s *Server) symbolParam(w http.ResponseWriter, r *http.Request) (*models.Symbol, bool) {
	ticker := utils.NormalizeTicker(chi.URLParam(r, "ticker"))
	if !utils.IsAlphanumeric(ticker) {
		writeError(w, http.StatusBadRequest, "ticker must be alphanumeric")
		return nil, false
	}
	sym, err := s.store.SymbolByTicker(r.Context(), ticker)
	if err != nil {
		s.storeError(w, err)
		return nil, false
	}
	if sym == nil {
		writeError(w, http.StatusNotFound, "symbol "+ticker+" is not tracked")
		return nil, false
	}
	return sym, true
}

func (s *Server) storeError(w http.ResponseWriter, err error) {
	s.log.Error().Err(err).Msg("store query failed")
	writeError(w, http.StatusInternalServerError, "internal error")
}

func dateRange(w http.ResponseWriter, r *http.Request) (from, to string, ok bool) {
	q := r.URL.Query()
	from, to = q.Get("from"), q.Get("to")
	for _, d := range []string{from, to} {
		if d != "" && !utils.IsDate(d) {
			writeError(w, http.StatusBadRequest, "dates must be YYYY-MM-DD")
			return "", "", false
		}
	}
	if from != "" && to != "" && from > to {
		writeError(w, http.StatusBadRequest, "from must not be after to")
		return "", "", false
	}
	return from, to, true
}

func queryLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return 0, false
	}
	return n, true
}

// nonNil makes empty lists encode as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
