// Package server serves stored runs over HTTP: a JSON API for listing,
// fetching and deleting runs and rendered views of each run.
package server

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/sensitivity/internal/httputil"
	"github.com/banshee-data/sensitivity/internal/render"
	"github.com/banshee-data/sensitivity/internal/sensitivity"
	"github.com/banshee-data/sensitivity/internal/store"
	"github.com/banshee-data/sensitivity/internal/timeutil"
)

//go:embed index.html
var indexHTML embed.FS

var indexTemplate = template.Must(template.ParseFS(indexHTML, "index.html"))

const defaultListLimit = 50

// RunStore is the subset of *store.Store the server reads from.
type RunStore interface {
	ListRuns(ctx context.Context, limit int) ([]*store.Run, error)
	LoadRun(ctx context.Context, id string) (*store.Run, *sensitivity.Table, error)
	DeleteRun(ctx context.Context, id string) error
}

// Config contains configuration options for the server.
type Config struct {
	Address string
	Store   RunStore
	Clock   timeutil.Clock
}

// Server is the HTTP front end over a RunStore.
type Server struct {
	address string
	store   RunStore
	clock   timeutil.Clock
	metrics *metrics
	server  *http.Server
}

// New creates a server with the provided configuration.
func New(cfg Config) *Server {
	s := &Server{address: cfg.Address, store: cfg.Store, clock: cfg.Clock, metrics: newMetrics()}
	if s.clock == nil {
		s.clock = timeutil.RealClock{}
	}
	s.server = &http.Server{
		Addr:              s.address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start serves until ctx is cancelled, then shuts down gracefully. It
// returns early if the listener fails.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("Serving stored runs on http://%s", s.address)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		if err := s.server.Close(); err != nil {
			log.Printf("HTTP server force close error: %v", err)
		}
	}
	return nil
}

// Handler returns the routes wrapped with request metrics.
func (s *Server) Handler() http.Handler {
	return s.metrics.instrument(s.ServeMux())
}

// ServeMux returns the server's routes.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.handler())
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/runs", s.listRuns)
	mux.HandleFunc("GET /api/runs/{id}", s.getRun)
	mux.HandleFunc("DELETE /api/runs/{id}", s.deleteRun)
	mux.HandleFunc("GET /runs/{id}", s.showTables)
	mux.HandleFunc("GET /runs/{id}/heatmap", s.showHeatmap)
	mux.HandleFunc("GET /runs/{id}/{figure}", s.showFigure)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]string{
		"status":    "ok",
		"service":   "sensitivity",
		"timestamp": s.clock.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	runs, err := s.store.ListRuns(r.Context(), defaultListLimit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, runs); err != nil {
		httputil.WriteError(w, err)
		return
	}
	writeBody(w, "text/html; charset=utf-8", &buf)
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			httputil.BadRequest(w, fmt.Sprintf("invalid limit %q", v))
			return
		}
		limit = n
	}
	runs, err := s.store.ListRuns(r.Context(), limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if runs == nil {
		runs = []*store.Run{}
	}
	httputil.WriteJSONOK(w, runs)
}

// runDetail is a run with its rows. Non-finite results are null.
type runDetail struct {
	Run     *store.Run `json:"run"`
	Columns []string   `json:"columns"`
	Rows    [][]any    `json:"rows"`
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	run, table, err := s.store.LoadRun(r.Context(), r.PathValue("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	detail := runDetail{Run: run, Columns: table.Columns(), Rows: make([][]any, 0, table.Len())}
	for _, row := range table.Rows() {
		rec := append(make([]any, 0, len(row.Inputs)+1), row.Inputs...)
		if math.IsNaN(row.Result) || math.IsInf(row.Result, 0) {
			rec = append(rec, nil)
		} else {
			rec = append(rec, row.Result)
		}
		detail.Rows = append(detail.Rows, rec)
	}
	httputil.WriteJSONOK(w, detail)
}

func (s *Server) deleteRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.DeleteRun(r.Context(), id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSONOK(w, map[string]string{"deleted": id})
}

func (s *Server) showTables(w http.ResponseWriter, r *http.Request) {
	s.renderRun(w, r, false, "text/html; charset=utf-8", func(out io.Writer, run *store.Run, rd *render.Rendered) error {
		return render.HTMLTable(out, run.Title, rd.Views)
	})
}

func (s *Server) showHeatmap(w http.ResponseWriter, r *http.Request) {
	s.renderRun(w, r, false, "text/html; charset=utf-8", func(out io.Writer, run *store.Run, rd *render.Rendered) error {
		return render.HeatmapPage(out, run.Title, rd.Views)
	})
}

var figureTypes = map[string]string{
	"png": "image/png",
	"svg": "image/svg+xml",
	"pdf": "application/pdf",
}

func (s *Server) showFigure(w http.ResponseWriter, r *http.Request) {
	format, err := render.FigureFormat(r.PathValue("figure"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	s.renderRun(w, r, true, figureTypes[format], func(out io.Writer, _ *store.Run, rd *render.Rendered) error {
		return render.HexBinFigure(out, rd.Plot, format)
	})
}

// renderRun loads the run named in the path, applies query overrides to its
// stored presentation and writes what write produces. The body is buffered
// so a render failure still yields an error status.
func (s *Server) renderRun(w http.ResponseWriter, r *http.Request, withPlot bool, contentType string,
	write func(io.Writer, *store.Run, *render.Rendered) error) {
	run, table, err := s.store.LoadRun(r.Context(), r.PathValue("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	p, err := presentation(run, r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	rd, err := p.Render(table, withPlot)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := write(&buf, run, rd); err != nil {
		httputil.WriteError(w, err)
		return
	}
	writeBody(w, contentType, &buf)
}

func writeBody(w http.ResponseWriter, contentType string, body *bytes.Buffer) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(body.Len()))
	if _, err := body.WriteTo(w); err != nil {
		log.Printf("failed to write response: %v", err)
	}
}
