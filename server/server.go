// Copyright 2025 The Liftfinder Authors
// SPDX-License-Identifier: Apache-2.0

// Package server exposes the location matcher over HTTP and serves the
// generated directory site.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/liftfinder/liftfinder/directory"
	"github.com/liftfinder/liftfinder/search"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Options configures the server.
type Options struct {
	// Addr is the listen address, host:port.
	Addr string

	// DataSource is where the search index is loaded from on Bootstrap.
	DataSource search.Source

	// SiteDir is the generated static site. Nothing is served for unknown
	// routes when empty.
	SiteDir string

	// AllowedOrigins for CORS on /api. Empty or "*" allows any origin.
	AllowedOrigins []string
}

type Server struct {
	opts      Options
	repo      directory.CompanyRepository
	templates *template.Template
	started   time.Time

	once     sync.Once
	dataset  *search.Dataset
	fetchErr error
}

// New creates a server. repo may be nil, in which case the map and nearby
// endpoints answer 503.
func New(opts Options, repo directory.CompanyRepository) *Server {
	return &Server{
		opts:      opts,
		repo:      repo,
		templates: template.Must(template.New("").ParseFS(templatesFS, "templates/*.html")),
		started:   time.Now(),
	}
}

// Bootstrap loads the search index. It runs the load a single time; later
// calls return the first outcome. On failure every search answers with the
// fetch failure message.
func (s *Server) Bootstrap(ctx context.Context) error {
	s.once.Do(func() {
		if s.opts.DataSource == nil {
			s.fetchErr = &search.FetchError{Source: "<none>", Err: errors.New("no search index configured")}

			return
		}

		s.dataset, s.fetchErr = search.Load(ctx, s.opts.DataSource)
		if s.fetchErr != nil {
			log.Printf("⚠️ search index unavailable: %v", s.fetchErr)

			return
		}

		log.Printf("📚 search index loaded from %s: %d cities, %d zips",
			s.opts.DataSource, len(s.dataset.Cities), len(s.dataset.Zips))
	})

	return s.fetchErr
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()
	r.SetHTMLTemplate(s.templates)

	api := r.Group("/api")
	api.Use(cors.New(s.corsConfig()))
	api.GET("/search", s.apiSearch)
	api.GET("/map/:state/:city", s.apiMap)
	api.GET("/nearby", s.apiNearby)

	r.GET("/search", s.searchPage)
	r.GET("/health", s.health)

	if s.opts.SiteDir != "" {
		r.NoRoute(s.static())
	}

	return r
}

func (s *Server) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}

	if len(s.opts.AllowedOrigins) == 0 || slices.Contains(s.opts.AllowedOrigins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = s.opts.AllowedOrigins
	}

	return cfg
}

// Run serves until ctx is cancelled and then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	fmt.Printf("🔎 liftfinder search server listening on %s\n", s.opts.Addr)

	if s.opts.SiteDir != "" {
		fmt.Printf("📁 Serving site from %s\n", s.opts.SiteDir)
	}

	errCh := make(chan error, 1)

	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		log.Println("shutting down server")

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down server: %w", err)
		}

		return nil
	}
}
