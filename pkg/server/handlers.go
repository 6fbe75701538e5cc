package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/matzehuels/coinbubbles/pkg/buildinfo"
	"github.com/matzehuels/coinbubbles/pkg/directory"
	"github.com/matzehuels/coinbubbles/pkg/errors"
	"github.com/matzehuels/coinbubbles/pkg/render"
	"github.com/matzehuels/coinbubbles/pkg/render/sink"
)

const requestIDHeader = "X-Request-ID"

type moveRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type viewportRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_ = writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/ws", s.handleWebSocket)

	r.Route("/api", func(r chi.Router) {
		r.Get("/version", func(w http.ResponseWriter, r *http.Request) {
			_ = writeJSON(w, http.StatusOK, buildinfo.Get())
		})
		r.Get("/coins/search", s.handleSearch)
		r.Get("/bubbles", s.handleFrame)
		r.Post("/bubbles", s.handleSelect)
		r.Get("/bubbles/{id}", s.handleBubble)
		r.Post("/bubbles/{id}/move", s.handleMove)
		r.Put("/viewport", s.handleViewport)
		r.Get("/canvas.svg", s.handleSVG)
		r.Get("/stats", s.handleStats)
	})
	return r
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	items, err := s.Search(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	f, err := s.Frame(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, f)
}

func (s *Server) handleBubble(w http.ResponseWriter, r *http.Request) {
	b, err := s.Bubble(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var it directory.Item
	if err := readJSON(w, r, &it); err != nil {
		s.writeError(w, r, err)
		return
	}
	f, err := s.Select(r.Context(), it)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, f)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := readJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	f, err := s.Move(r.Context(), chi.URLParam(r, "id"), req.X, req.Y)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, f)
}

func (s *Server) handleViewport(w http.ResponseWriter, r *http.Request) {
	var req viewportRequest
	if err := readJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	f, err := s.Resize(r.Context(), req.Width, req.Height)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, f)
}

func (s *Server) handleSVG(w http.ResponseWriter, r *http.Request) {
	f, err := s.Frame(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", render.FormatSVG.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(sink.RenderSVG(f, sink.WithImages(), sink.WithTooltips()))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.opts.Metrics == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeNotFound, "metrics disabled"))
		return
	}
	_ = writeJSON(w, http.StatusOK, s.opts.Metrics.Snapshot())
}

// requestID tags each request with a uuid, keeping one supplied by a proxy.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(requestIDHeader, id)
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed", time.Since(start).Round(time.Microsecond),
			"request", r.Header.Get(requestIDHeader),
		)
	})
}
