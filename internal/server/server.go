// Package server exposes a dust store over HTTP so a remote maiden can
// browse and edit it.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/tormodhaugland/maiden/internal/dust"
	"golang.org/x/sync/errgroup"
)

// maxUpload bounds the multipart form kept in memory for PUT requests.
const maxUpload = 32 << 20

// Config configures a Server.
type Config struct {
	Store   dust.Store
	Port    int
	AppDir  string
	DocDir  string
	Version string
	Logger  *slog.Logger
}

// Server serves the dust API.
type Server struct {
	store   dust.Store
	port    int
	appDir  string
	docDir  string
	version string
	logger  *slog.Logger
}

// New creates a server from cfg.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		store:   cfg.Store,
		port:    cfg.Port,
		appDir:  cfg.AppDir,
		docDir:  cfg.DocDir,
		version: cfg.Version,
		logger:  logger,
	}
}

type apiInfo struct {
	API     string `json:"api"`
	Version string `json:"version"`
}

type message struct {
	Message string `json:"message"`
}

type patchInfo struct {
	URL string `json:"url"`
}

type errorInfo struct {
	Error string `json:"error"`
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(middleware.Recoverer)

	if s.appDir != "" {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/maiden/", http.StatusFound)
		})
		r.Handle("/maiden/*", http.StripPrefix("/maiden/", http.FileServer(http.Dir(s.appDir))))
	}
	if s.docDir != "" {
		r.Handle("/doc/*", http.StripPrefix("/doc/", http.FileServer(http.Dir(s.docDir))))
	}

	r.Route(dust.APIRoot, func(api chi.Router) {
		api.Get("/", s.handleInfo)
		api.Get("/dust", s.handleGet)
		api.Get("/dust/*", s.handleGet)
		api.Put("/dust/*", s.handleWrite)
		api.Patch("/dust/*", s.handleRename)
		api.Delete("/dust/*", s.handleDelete)
	})

	return r
}

// Serve listens on the configured port until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting dust server", "addr", fmt.Sprintf("http://localhost:%d", s.port))

	eg, egctx := errgroup.WithContext(ctx)

	handler := middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(s.logger.Handler(), slog.LevelInfo),
		NoColor: true,
	})(s.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down dust server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, apiInfo{API: "maiden", Version: s.version})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	url := resourceURL(r)

	listing, err := s.store.List(r.Context(), url)
	if err == nil {
		w.Header().Set(dust.KindHeader, "directory")
		writeJSON(w, http.StatusOK, listing)
		return
	}
	if !errors.Is(err, dust.ErrNotDir) {
		s.writeError(w, err)
		return
	}

	data, err := s.store.Read(r.Context(), url)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set(dust.KindHeader, "file")
	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleWrite(w http.ResponseWriter, r *http.Request) {
	url := resourceURL(r)

	if r.URL.Query().Get("kind") == "directory" {
		if err := s.store.Mkdir(r.Context(), url); err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, message{Message: "created directory " + url})
		return
	}

	if err := r.ParseMultipartForm(maxUpload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorInfo{Error: err.Error()})
		return
	}
	file, header, err := r.FormFile("value")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorInfo{Error: err.Error()})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorInfo{Error: err.Error()})
		return
	}
	if err := s.store.Write(r.Context(), url, data); err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, message{
		Message: fmt.Sprintf("uploaded %s (%d bytes) to %s", header.Filename, len(data), url),
	})
}

func (s *Server) handleRename(w http.ResponseWriter, r *http.Request) {
	url := resourceURL(r)

	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorInfo{Error: err.Error()})
		return
	}
	if _, ok := r.PostForm["name"]; !ok {
		writeJSON(w, http.StatusBadRequest, errorInfo{Error: "missing 'name' key in form"})
		return
	}

	newURL, err := s.store.Rename(r.Context(), url, r.PostForm.Get("name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, patchInfo{URL: newURL})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	url := resourceURL(r)

	if err := s.store.Delete(r.Context(), url); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, message{Message: "deleted " + url})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("dust request failed", "error", err)
	}
	writeJSON(w, status, errorInfo{Error: err.Error()})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, dust.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, dust.ErrExists):
		return http.StatusConflict
	case errors.Is(err, dust.ErrInvalidName),
		errors.Is(err, dust.ErrOutsideRoot),
		errors.Is(err, dust.ErrIsDir),
		errors.Is(err, dust.ErrNotDir):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// resourceURL is the escaped request path, which is exactly the dust
// resource locator.
func resourceURL(r *http.Request) string {
	p := r.URL.EscapedPath()
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	return p
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
