package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"archivum/internal/config"
	"archivum/internal/domain"
	"archivum/internal/handler"
	"archivum/internal/hub"
	"archivum/internal/ingest"
	"archivum/internal/repository/sqlite"
	"archivum/internal/service"
	"archivum/internal/watcher"
)

func main() {
	// Command line flags override the config file
	configPath := flag.String("config", "", "config file path (default: search standard locations)")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting archivum server...")

	// Load configuration
	var (
		cfg       *config.Config
		cfgSource string
		err       error
	)
	if *configPath != "" {
		cfg, err = config.LoadFromPath(*configPath)
		cfgSource = *configPath
	} else {
		cfg, cfgSource, err = config.Load()
	}
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfgSource != "" {
		log.Printf("Config loaded from %s", cfgSource)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	// Initialize SQLite repository
	repo, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer repo.Close()
	log.Printf("Database opened: %s", cfg.Database.Path)

	// Initialize event bus
	eventBus := service.NewEventBus()

	// Initialize SSE hub and relay archive events to it
	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()
	sseHub := hub.New()
	go sseHub.Run(hubCtx)
	go sseHub.Relay(hubCtx, eventBus)

	// Initialize services
	graphSvc := service.NewGraphService(repo, eventBus)
	archiveSvc := service.NewArchiveService(repo, eventBus)

	// Initialize ingest registry; every source sync merges its fragment
	// into the archive
	registry := ingest.NewRegistry(func(ctx context.Context, source string, fragment *domain.Fragment) error {
		_, err := graphSvc.SyncFragment(ctx, source, fragment)
		return err
	})

	if cfg.Ingest.DatasetPath != "" {
		fileSource := ingest.NewFileSource(cfg.Ingest.DatasetPath)
		if err := registry.Register(fileSource, ingest.SourceConfig{
			Enabled:      true,
			PollInterval: cfg.Ingest.PollInterval,
		}); err != nil {
			log.Fatalf("Failed to register dataset source: %v", err)
		}
	}
	if len(cfg.Ingest.ManifestURLs) > 0 {
		manifestSource := ingest.NewManifestSource(cfg.Ingest.ManifestURLs, cfg.Ingest.FetchConcurrency)
		if err := registry.Register(manifestSource, ingest.SourceConfig{Enabled: true}); err != nil {
			log.Fatalf("Failed to register manifest source: %v", err)
		}
	}
	registry.Start(context.Background())

	// Watch the dataset file and resync on change
	if cfg.Ingest.Watch && cfg.Ingest.DatasetPath != "" {
		w := watcher.New(cfg.Ingest.DatasetPath, func() {
			if err := registry.TriggerSync(context.Background(), "dataset-file"); err != nil {
				log.Printf("Dataset resync failed: %v", err)
			}
		})
		go func() {
			if err := w.Watch(hubCtx); err != nil {
				log.Printf("Dataset watcher stopped: %v", err)
			}
		}()
	}

	// Initialize HTTP handlers
	graphHandler := handler.NewGraphHandler(graphSvc)
	graphHandler.SetSyncTrigger(registry)
	archiveHandler := handler.NewArchiveHandler(archiveSvc)
	layoutSessions := handler.NewLayoutSessions(graphSvc, eventBus, cfg.Layout.Params(), cfg.Layout.SeedSpacing)

	adminOnly := func(h http.HandlerFunc) http.HandlerFunc {
		return handler.RequireAuth(cfg.Auth.AdminTokenHash, h)
	}

	// Setup routes
	mux := http.NewServeMux()

	// Graph endpoint (layout view of the whole archive)
	mux.HandleFunc("GET /api/graph", graphHandler.GetGraph)
	mux.HandleFunc("DELETE /api/graph", adminOnly(graphHandler.ClearArchive))

	// Entity endpoints
	mux.HandleFunc("GET /api/entities", graphHandler.ListEntities)
	mux.HandleFunc("POST /api/entities", graphHandler.CreateEntity)
	mux.HandleFunc("GET /api/entities/{id}", graphHandler.GetEntity)
	mux.HandleFunc("PUT /api/entities/{id}", graphHandler.UpdateEntity)
	mux.HandleFunc("DELETE /api/entities/{id}", graphHandler.DeleteEntity)

	// Relationship endpoints
	mux.HandleFunc("GET /api/relationships", graphHandler.ListRelationships)
	mux.HandleFunc("POST /api/relationships", graphHandler.CreateRelationship)
	mux.HandleFunc("GET /api/relationships/{id}", graphHandler.GetRelationship)
	mux.HandleFunc("PUT /api/relationships/{id}", graphHandler.UpdateRelationship)
	mux.HandleFunc("DELETE /api/relationships/{id}", graphHandler.DeleteRelationship)

	// Document endpoints
	mux.HandleFunc("GET /api/documents", archiveHandler.ListDocuments)
	mux.HandleFunc("POST /api/documents", archiveHandler.AddDocument)
	mux.HandleFunc("GET /api/documents/{id}", archiveHandler.GetDocument)
	mux.HandleFunc("POST /api/documents/{id}/mentions", archiveHandler.LinkMention)

	// Annotation endpoints
	mux.HandleFunc("GET /api/annotations", archiveHandler.ListAnnotations)
	mux.HandleFunc("POST /api/annotations", archiveHandler.CreateAnnotation)
	mux.HandleFunc("DELETE /api/annotations/{id}", archiveHandler.DeleteAnnotation)

	// Import endpoints (bulk mutations, admin token required when set)
	mux.HandleFunc("POST /api/import/json", adminOnly(graphHandler.ImportJSON))
	mux.HandleFunc("POST /api/import/yaml", adminOnly(graphHandler.ImportYAML))
	mux.HandleFunc("POST /api/import/manifest", adminOnly(archiveHandler.ImportManifest))
	mux.HandleFunc("POST /api/sync", adminOnly(graphHandler.TriggerSync))

	// Export endpoints
	mux.HandleFunc("GET /api/export/json", graphHandler.ExportJSON)
	mux.HandleFunc("GET /api/export/yaml", graphHandler.ExportYAML)

	// Live updates: SSE for archive events, WebSocket for layout sessions
	mux.Handle("GET /events", sseHub)
	mux.Handle("GET /ws/layout", layoutSessions)

	// Operational endpoints
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/healthz", graphHandler.Healthz)

	// Apply middleware
	middlewares := []handler.Middleware{handler.Recover, handler.CORS}
	if cfg.Log.Requests {
		middlewares = append(middlewares, handler.Logger)
	}
	finalHandler := handler.Chain(mux, middlewares...)

	// Create server. No write timeout: the event stream and layout sockets
	// are long-lived responses.
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           finalHandler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout.Duration(),
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Stop ingest loops, then end live connections so Shutdown can drain:
	// layout sockets close directly, SSE streams end when the hub stops.
	registry.Stop()
	layoutSessions.CloseAll()
	hubCancel()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
