// Package server exposes content extraction over HTTP.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/hyperifyio/gocetd/internal/extract"
)

// DefaultMaxBodyBytes bounds request bodies when Options.MaxBodyBytes is zero.
const DefaultMaxBodyBytes = 8 << 20

// Options configures a Server.
type Options struct {
	// MaxBodyBytes bounds the HTML body of one request.
	MaxBodyBytes int64
	// Extract is the base extraction configuration; per-request query
	// parameters select the rendering and link handling.
	Extract extract.Options
	Logger  zerolog.Logger
}

type variant struct {
	format    string
	keepLinks bool
}

// Server is the HTTP API server.
type Server struct {
	router     chi.Router
	opts       Options
	log        zerolog.Logger
	extractors map[variant]*extract.DensityExtractor
}

// New builds the router and one extractor per supported variant. Extractors
// are safe for concurrent use, so requests share them.
func New(opts Options) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	s := &Server{
		opts:       opts,
		log:        opts.Logger,
		extractors: make(map[variant]*extract.DensityExtractor),
	}
	for _, f := range formats {
		for _, keep := range []bool{false, true} {
			eo := opts.Extract
			eo.KeepLinks = keep
			eo.Markdown = f == formatMarkdown
			eo.HTML = f == formatHTML
			eo.Dump = nil
			lg := opts.Logger
			eo.Logger = &lg
			s.extractors[variant{f, keep}] = extract.New(eo)
		}
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/healthz", s.handleHealth)
	r.Post("/v1/extract", s.handleExtract)

	s.router = r
}
