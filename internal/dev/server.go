package dev

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/modkit-dev/modkit/internal/config"
	"github.com/modkit-dev/modkit/internal/graph"
	"github.com/modkit-dev/modkit/internal/hmr"
	"github.com/modkit-dev/modkit/internal/metrics"
	"github.com/modkit-dev/modkit/internal/xerrors"
	"github.com/modkit-dev/modkit/pkg/plugin"
)

// clientRuntimePath is the reserved URL the HMR client runtime is served
// from.
const clientRuntimePath = "/@modkit/client"

// hmrSocketPath is the websocket endpoint the client runtime connects to.
const hmrSocketPath = "/@modkit/hmr"

// ServerOptions configures the development server.
type ServerOptions struct {
	// Config is the project configuration.
	Config *config.Config

	// Plugins are consulted on every hot update, in order.
	Plugins []plugin.Plugin

	// Verbose enables verbose logging.
	Verbose bool

	// OnUpdate is called after an update or reload message is sent.
	OnUpdate func(clients int)
}

// Server is the development server.
type Server struct {
	config       *config.Config
	options      ServerOptions
	graph        *graph.ModuleGraph
	transformer  *Transformer
	watcher      *Watcher
	hmrServer    *hmr.WebSocketServer
	orchestrator *hmr.Orchestrator
	metrics      *metrics.Metrics
	changeCh     chan Change
	pruneCh      chan []*graph.ModuleNode
	httpServer   *http.Server
	mu           sync.Mutex
	running      bool
}

// NewServer creates a new development server.
func NewServer(options ServerOptions) *Server {
	cfg := options.Config
	root := cfg.RootPath()

	m := metrics.Default()

	moduleGraph := graph.NewModuleGraph(func(url string) string {
		return filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(url, "/")))
	})

	watcher := NewWatcher(WatcherConfig{
		Root:     root,
		Extra:    cfg.Dev.Watch,
		Ignore:   cfg.Dev.Ignore,
		Debounce: 100 * time.Millisecond,
	})

	var hmrServer *hmr.WebSocketServer
	if cfg.HMREnabled() {
		hmrServer = hmr.NewWebSocketServer(m)
	}

	s := &Server{
		config:      cfg,
		options:     options,
		graph:       moduleGraph,
		transformer: &Transformer{Graph: moduleGraph},
		watcher:     watcher,
		hmrServer:   hmrServer,
		metrics:     m,
		pruneCh:     make(chan []*graph.ModuleNode, 16),
	}

	if hmrServer != nil {
		s.orchestrator = &hmr.Orchestrator{
			Graph:      moduleGraph,
			Plugins:    options.Plugins,
			Transport:  hmrServer,
			Root:       root,
			ConfigPath: cfg.Path(),
			ClientDir:  filepath.Join(root, ".modkit"),
			Metrics:    m,
			Logf:       s.log,
		}
	}

	return s
}

// Graph exposes the module graph, mainly for plugins and tests.
func (s *Server) Graph() *graph.ModuleGraph {
	return s.graph
}

// Start starts the development server. It blocks until ctx is done or the
// HTTP server fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.mu.Unlock()

	s.changeCh = make(chan Change, 64)
	s.watcher.OnChange(func(change Change) {
		select {
		case s.changeCh <- change:
		default:
		}
	})

	go s.watcher.Start(ctx)
	go s.processChanges(ctx)

	s.httpServer = &http.Server{
		Addr:    s.config.DevAddress(),
		Handler: s.router(),
	}

	s.log("Server running at %s", s.config.DevURL())

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.Stop()
		return nil
	case err := <-errCh:
		s.Stop()
		return err
	}
}

// Stop stops the development server.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.running = false

	s.watcher.Stop()
	if s.hmrServer != nil {
		s.hmrServer.Close()
	}
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(ctx)
	}
}

// router builds the HTTP routes.
func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)

	if s.hmrServer != nil {
		r.Get(hmrSocketPath, s.hmrServer.HandleWebSocket)
	}
	r.Get(clientRuntimePath, s.serveClientRuntime)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/*", s.serveFile)

	return r
}

func (s *Server) serveClientRuntime(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	fmt.Fprint(w, ClientScript)
}

// serveFile serves HTML pages with the client script injected, JS/CSS
// through the transform pipeline, and everything else as static files.
func (s *Server) serveFile(w http.ResponseWriter, r *http.Request) {
	urlPath := r.URL.Path
	if urlPath == "/" {
		urlPath = "/index.html"
	}

	filePath := filepath.Join(s.config.RootPath(), filepath.FromSlash(strings.TrimPrefix(urlPath, "/")))

	switch strings.ToLower(filepath.Ext(urlPath)) {
	case ".html":
		s.serveHTML(w, r, filePath)
	case ".js", ".mjs":
		s.serveModule(w, r, urlPath)
	case ".css":
		// ?direct serves the raw stylesheet for <link> tags; a plain
		// request is a module import and gets the JS shim.
		if r.URL.Query().Has("direct") {
			http.ServeFile(w, r, filePath)
			return
		}
		s.serveModule(w, r, urlPath)
	default:
		http.ServeFile(w, r, filePath)
	}
}

func (s *Server) serveHTML(w http.ResponseWriter, r *http.Request, filePath string) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	// Seed the graph with the page's module scripts so later changes to
	// those files resolve to nodes.
	if srcs, err := ExtractModuleScripts(content); err == nil {
		for _, src := range srcs {
			s.graph.EnsureEntry(src)
		}
	}

	page := string(content)
	if s.hmrServer != nil {
		page = InjectClientScript(page)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	fmt.Fprint(w, page)
}

func (s *Server) serveModule(w http.ResponseWriter, r *http.Request, urlPath string) {
	node := s.graph.EnsureEntry(urlPath)

	result, orphans, err := s.transformer.TransformModule(node)
	if err != nil {
		s.logError("transform %s: %v", urlPath, err)
		var structured *xerrors.Error
		if errors.As(err, &structured) {
			http.Error(w, structured.Error(), http.StatusInternalServerError)
			return
		}
		http.NotFound(w, r)
		return
	}
	if len(orphans) > 0 && s.orchestrator != nil {
		// Prune notifications go through the change loop so the
		// orchestrator never runs on a request goroutine.
		select {
		case s.pruneCh <- orphans:
		default:
		}
	}

	if match := r.Header.Get("If-None-Match"); match != "" && match == result.Etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Etag", result.Etag)
	fmt.Fprint(w, result.Code)
}

// processChanges serializes file change handling and coalesces bursts.
// Every orchestrator call happens on this goroutine: watcher events are
// drained here, and request handlers hand orphaned modules over through
// pruneCh instead of notifying clients themselves.
func (s *Server) processChanges(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case orphans := <-s.pruneCh:
			if s.orchestrator != nil {
				s.orchestrator.HandlePrunedModules(orphans)
			}
		case change := <-s.changeCh:
			changes := []Change{change}
			draining := true
			for draining {
				select {
				case next := <-s.changeCh:
					changes = append(changes, next)
				default:
					draining = false
				}
			}
			s.handleChanges(ctx, changes)
		}
	}
}

// handleChanges handles a batch of file changes, one at a time.
func (s *Server) handleChanges(ctx context.Context, changes []Change) {
	seen := make(map[string]bool, len(changes))

	for _, change := range changes {
		if seen[change.Path] {
			continue
		}
		seen[change.Path] = true

		if s.options.Verbose {
			s.log("Changed: %s", change.Path)
		}

		if change.Op == OpRemove {
			removed := s.graph.DisposeFile(change.Path)
			if len(removed) > 0 && s.orchestrator != nil {
				s.orchestrator.HandlePrunedModules(removed)
			}
			continue
		}

		// Re-transform on next request regardless of HMR state.
		for _, node := range s.graph.GetModulesByFile(change.Path) {
			s.graph.Invalidate(node)
		}

		if s.orchestrator == nil {
			continue
		}
		if err := s.orchestrator.HandleFileChange(ctx, change.Path); err != nil {
			s.logError("hot update failed: %v", err)
			continue
		}
		if s.options.OnUpdate != nil {
			s.options.OnUpdate(s.hmrServer.ClientCount())
		}
	}
}

// log logs a timestamped message.
func (s *Server) log(format string, args ...any) {
	timestamp := time.Now().Format("15:04:05")
	fmt.Printf("[%s] %s\n", timestamp, fmt.Sprintf(format, args...))
}

// logError logs an error message.
func (s *Server) logError(format string, args ...any) {
	timestamp := time.Now().Format("15:04:05")
	fmt.Fprintf(os.Stderr, "[%s] %s%s%s\n", timestamp, "\033[31m", fmt.Sprintf(format, args...), "\033[0m")
}
