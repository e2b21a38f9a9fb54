package ingest

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"archivum/internal/domain"
	"archivum/internal/metrics"
)

// ReconcileFunc is called when a source produces a fragment to be merged
// into the archive
type ReconcileFunc func(ctx context.Context, source string, fragment *domain.Fragment) error

// Source supplies archive fragments from an external store
type Source interface {
	// Name returns the unique identifier for this source
	Name() string

	// Load pulls data from the store and returns an archive fragment
	Load(ctx context.Context) (*domain.Fragment, error)
}

// SourceConfig holds configuration for a source instance
type SourceConfig struct {
	// Enabled determines if the source should run
	Enabled bool `json:"enabled"`
	// PollInterval schedules automatic syncs (e.g. "30s", "5m"). Empty
	// means manual triggers only.
	PollInterval string `json:"poll_interval,omitempty"`
}

// Registry manages all registered sources and their lifecycle
type Registry struct {
	mu        sync.RWMutex
	sources   map[string]Source
	configs   map[string]SourceConfig
	reconcile ReconcileFunc
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewRegistry creates a new source registry
func NewRegistry(reconcile ReconcileFunc) *Registry {
	return &Registry{
		sources:   make(map[string]Source),
		configs:   make(map[string]SourceConfig),
		reconcile: reconcile,
	}
}

// Register adds a source to the registry
func (r *Registry) Register(source Source, config SourceConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := source.Name()
	if _, exists := r.sources[name]; exists {
		return fmt.Errorf("source %s already registered", name)
	}

	r.sources[name] = source
	r.configs[name] = config
	log.Printf("Registered source: %s (enabled=%v, poll=%q)", name, config.Enabled, config.PollInterval)

	return nil
}

// Start begins polling loops for enabled sources that configure an
// interval. Manual-only sources wait for TriggerSync.
func (r *Registry) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ctx, r.cancel = context.WithCancel(ctx)

	for name, source := range r.sources {
		config := r.configs[name]
		if !config.Enabled {
			log.Printf("Source %s is disabled, skipping", name)
			continue
		}
		if config.PollInterval == "" {
			continue
		}
		r.startPollingLoop(name, source, config)
	}
}

// Stop cancels all polling loops and waits for them to finish
func (r *Registry) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
}

// TriggerSync manually triggers a sync for a specific source
func (r *Registry) TriggerSync(ctx context.Context, name string) error {
	r.mu.RLock()
	source, exists := r.sources[name]
	config := r.configs[name]
	r.mu.RUnlock()

	if !exists {
		return fmt.Errorf("source %s not found", name)
	}
	if !config.Enabled {
		return fmt.Errorf("source %s is disabled", name)
	}

	return r.runSync(ctx, name, source)
}

// TriggerSyncAll manually triggers sync for all enabled sources
func (r *Registry) TriggerSyncAll(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var errs []error
	for name, source := range r.sources {
		if !r.configs[name].Enabled {
			continue
		}
		if err := r.runSync(ctx, name, source); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("sync errors: %v", errs)
	}
	return nil
}

// SourceInfo provides read-only information about a source
type SourceInfo struct {
	Name         string `json:"name"`
	Enabled      bool   `json:"enabled"`
	PollInterval string `json:"poll_interval,omitempty"`
}

// ListSources returns information about registered sources
func (r *Registry) ListSources() []SourceInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var infos []SourceInfo
	for name := range r.sources {
		config := r.configs[name]
		infos = append(infos, SourceInfo{
			Name:         name,
			Enabled:      config.Enabled,
			PollInterval: config.PollInterval,
		})
	}
	return infos
}

// startPollingLoop starts a goroutine that syncs the source on schedule
func (r *Registry) startPollingLoop(name string, source Source, config SourceConfig) {
	interval, err := time.ParseDuration(config.PollInterval)
	if err != nil {
		log.Printf("Invalid poll interval for %s: %v, using 1m default", name, err)
		interval = time.Minute
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		// Run initial sync
		if err := r.runSync(r.ctx, name, source); err != nil {
			log.Printf("Initial sync failed for %s: %v", name, err)
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-r.ctx.Done():
				log.Printf("Stopping polling loop for %s", name)
				return
			case <-ticker.C:
				if err := r.runSync(r.ctx, name, source); err != nil {
					log.Printf("Sync failed for %s: %v", name, err)
				}
			}
		}
	}()

	log.Printf("Started polling loop for %s (interval=%s)", name, interval)
}

// runSync executes a sync operation and reconciles the result
func (r *Registry) runSync(ctx context.Context, name string, source Source) error {
	log.Printf("Running sync for source: %s", name)
	start := time.Now()

	fragment, err := source.Load(ctx)
	if err != nil {
		metrics.IngestSyncsTotal.WithLabelValues(name, "error").Inc()
		return fmt.Errorf("load failed: %w", err)
	}

	if fragment == nil || fragment.Empty() {
		metrics.IngestSyncsTotal.WithLabelValues(name, "empty").Inc()
		log.Printf("Source %s returned empty fragment", name)
		return nil
	}

	if err := r.reconcile(ctx, name, fragment); err != nil {
		metrics.IngestSyncsTotal.WithLabelValues(name, "error").Inc()
		return fmt.Errorf("reconcile failed: %w", err)
	}

	metrics.IngestSyncsTotal.WithLabelValues(name, "ok").Inc()
	metrics.IngestSyncSeconds.WithLabelValues(name).Observe(time.Since(start).Seconds())

	log.Printf("Source %s sync complete: %d entities, %d relationships, %d documents",
		name, len(fragment.Entities), len(fragment.Relationships), len(fragment.Documents))

	return nil
}
