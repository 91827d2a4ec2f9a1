// Package server exposes the news pipeline, fact checker and meme generator over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/samvad-hq/newstone/internal/domain"
	"github.com/samvad-hq/newstone/internal/factcheck"
	"github.com/samvad-hq/newstone/internal/logger"
)

// NewsService renders cached news in a tone.
type NewsService interface {
	Get(ctx context.Context, tone string) ([]domain.RenderedArticle, error)
}

// FactChecker looks up verdicts for a claim.
type FactChecker interface {
	Check(ctx context.Context, claim string) []factcheck.Verdict
}

// MemeRenderer writes a captioned JPEG.
type MemeRenderer interface {
	RenderJPEG(w io.Writer, text string) error
}

// CacheStats reports how many articles are cached.
type CacheStats interface {
	Len() int
}

// Deps are the collaborators behind the routes. Nil FactCheck or Memes
// disables the matching route.
type Deps struct {
	News        NewsService
	Cache       CacheStats
	FactCheck   FactChecker
	Memes       MemeRenderer
	DefaultTone string
	Log         logger.Logger
}

// Server routes HTTP requests to the service collaborators.
type Server struct {
	deps    Deps
	log     logger.Logger
	handler http.Handler
}

// New builds the server and its middleware chain.
func New(deps Deps) (*Server, error) {
	if deps.News == nil {
		return nil, errors.New("server: news service is required")
	}
	if strings.TrimSpace(deps.DefaultTone) == "" {
		deps.DefaultTone = "neutral"
	}
	log := deps.Log
	if log == nil {
		log = logger.NopLogger{}
	}

	s := &Server{deps: deps, log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /news", s.handleNews)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if deps.FactCheck != nil {
		mux.HandleFunc("GET /fact-check", s.handleFactCheck)
	}
	if deps.Memes != nil {
		mux.HandleFunc("GET /meme", s.handleMeme)
	}

	s.handler = s.recoverer(s.requestLogger(cors(securityHeaders(mux))))
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

type errorResponse struct {
	Error string `json:"error"`
}

type newsResponse struct {
	News []domain.RenderedArticle `json:"news"`
}

type claimsResponse struct {
	Claims []factcheck.Verdict `json:"claims"`
}

type healthResponse struct {
	Status         string `json:"status"`
	CachedArticles int    `json:"cached_articles"`
}

// handleNews always answers 200; failures are reported in the error field.
func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	tone := strings.TrimSpace(r.URL.Query().Get("tone"))
	if tone == "" {
		tone = s.deps.DefaultTone
	}

	news, err := s.deps.News.Get(r.Context(), tone)
	if err != nil {
		s.log.ErrorObj("news request failed", "news_error", map[string]any{
			"tone":  tone,
			"error": err.Error(),
		})
		writeJSON(w, http.StatusOK, errorResponse{Error: err.Error()})
		return
	}
	if news == nil {
		news = []domain.RenderedArticle{}
	}
	writeJSON(w, http.StatusOK, newsResponse{News: news})
}

func (s *Server) handleFactCheck(w http.ResponseWriter, r *http.Request) {
	claim := strings.TrimSpace(r.URL.Query().Get("claim"))
	if claim == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "claim is required"})
		return
	}
	verdicts := s.deps.FactCheck.Check(r.Context(), claim)
	if verdicts == nil {
		verdicts = []factcheck.Verdict{}
	}
	writeJSON(w, http.StatusOK, claimsResponse{Claims: verdicts})
}

func (s *Server) handleMeme(w http.ResponseWriter, r *http.Request) {
	text := strings.TrimSpace(r.URL.Query().Get("text"))
	if text == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "text is required"})
		return
	}

	var buf bytes.Buffer
	if err := s.deps.Memes.RenderJPEG(&buf, text); err != nil {
		s.log.ErrorObj("meme render failed", "meme_error", map[string]any{
			"error": err.Error(),
		})
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	n := 0
	if s.deps.Cache != nil {
		n = s.deps.Cache.Len()
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", CachedArticles: n})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
