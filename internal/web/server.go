package web

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"

	"github.com/vbonduro/ecoleta/internal/config"
	"github.com/vbonduro/ecoleta/internal/domain"
	"github.com/vbonduro/ecoleta/internal/form"
	"github.com/vbonduro/ecoleta/internal/session"
)

type Server struct {
	sessions  *session.Store
	newPage   func() *form.Page
	templates fs.FS
	mapCfg    config.MapSettings
	mux       *http.ServeMux
	tmplFuncs template.FuncMap
	minifier  *minify.M
	logger    *slog.Logger
}

// NewServer wires the routes. newPage builds an unmounted page for each
// visitor; tmpl holds the HTML templates.
func NewServer(sessions *session.Store, newPage func() *form.Page, tmpl fs.FS, mapCfg config.MapSettings, logger *slog.Logger) *Server {
	s := &Server{
		sessions:  sessions,
		newPage:   newPage,
		templates: tmpl,
		mapCfg:    mapCfg,
		mux:       http.NewServeMux(),
		minifier:  newMinifier(),
		logger:    logger,
		tmplFuncs: template.FuncMap{
			"position": formatPosition,
		},
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /{$}", s.handleHome)
	s.mux.HandleFunc("GET /create-point", s.handleCreatePointPage)
	s.mux.HandleFunc("POST /create-point", s.handleSubmit)
	s.mux.HandleFunc("POST /create-point/position/initial", s.handleInitialPosition)
	s.mux.HandleFunc("POST /create-point/position", s.handleMapClick)
	s.mux.HandleFunc("POST /create-point/input", s.handleInputChange)
	s.mux.HandleFunc("POST /create-point/uf", s.handleSelectUF)
	s.mux.HandleFunc("POST /create-point/city", s.handleSelectCity)
	s.mux.HandleFunc("POST /create-point/items/{id}", s.handleToggleItem)
}

func newMinifier() *minify.M {
	m := minify.New()
	m.Add("text/html", &html.Minifier{
		KeepEndTags:      true,
		KeepDocumentTags: true,
		KeepQuotes:       true,
	})
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("text/javascript", js.Minify)
	return m
}

// securityHeaders adds defensive HTTP response headers to every response.
// Leaflet and htmx load from unpkg; tiles and item images come from other
// hosts.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy",
			"default-src 'self'; "+
				"script-src 'self' 'unsafe-inline' https://unpkg.com; "+
				"style-src 'self' 'unsafe-inline' https://unpkg.com; "+
				"img-src 'self' data: https: http:; "+
				"connect-src 'self'")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"htmx", r.Header.Get("HX-Request") == "true",
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestLogger(s.logger, securityHeaders(s.mux)).ServeHTTP(w, r)
}

func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("starting server", "addr", addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return srv.ListenAndServe()
}

// renderPage parses and executes a full-page template set.
func (s *Server) renderPage(w http.ResponseWriter, data any, files ...string) error {
	tmpl, err := template.New("").Funcs(s.tmplFuncs).ParseFS(s.templates, files...)
	if err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return err
	}
	return s.write(w, func(buf *bytes.Buffer) error {
		return tmpl.ExecuteTemplate(buf, "base", data)
	})
}

// renderPartial parses and executes a single named partial template.
// The file must contain exactly one {{define "name"}}...{{end}} block.
func (s *Server) renderPartial(w http.ResponseWriter, file string, data any) error {
	tmpl, err := template.New("").Funcs(s.tmplFuncs).ParseFS(s.templates, file)
	if err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return err
	}
	// ParseFS registers both the file-basename template and any {{define}}
	// blocks; the partial is the one that is neither "" nor the basename.
	basename := file
	if idx := strings.LastIndexByte(file, '/'); idx >= 0 {
		basename = file[idx+1:]
	}
	target := tmpl.Lookup(basename)
	for _, t := range tmpl.Templates() {
		if n := t.Name(); n != "" && n != basename {
			target = t
			break
		}
	}
	return s.write(w, func(buf *bytes.Buffer) error {
		return target.Execute(buf, data)
	})
}

// write executes into a buffer so a template error can still produce a 500,
// then minifies the HTML into w.
func (s *Server) write(w http.ResponseWriter, execute func(*bytes.Buffer) error) error {
	var buf bytes.Buffer
	if err := execute(&buf); err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return s.minifier.Minify("text/html", w, &buf)
}

// formatPosition renders a position as "lat, lng" with six decimals.
func formatPosition(p domain.GeoPosition) string {
	return fmt.Sprintf("%.6f, %.6f", p.Lat(), p.Lng())
}
