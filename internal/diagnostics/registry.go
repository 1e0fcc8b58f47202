package diagnostics

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Registry manages the diagnostic collectors.
type Registry struct {
	mu         sync.RWMutex
	collectors map[string]Collector
	timeout    time.Duration
	logger     zerolog.Logger
}

// NewRegistry creates an empty Registry. timeout bounds a whole Snapshot.
func NewRegistry(timeout time.Duration, logger zerolog.Logger) *Registry {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Registry{
		collectors: make(map[string]Collector),
		timeout:    timeout,
		logger:     logger,
	}
}

// Register adds a collector, replacing any collector with the same name.
func (r *Registry) Register(collector Collector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.collectors[collector.Name()] = collector
}

// Collectors returns the registered collectors.
func (r *Registry) Collectors() map[string]Collector {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Collector, len(r.collectors))
	for name, c := range r.collectors {
		out[name] = c
	}
	return out
}

// Snapshot runs every collector concurrently. Collectors that return nil are omitted.
func (r *Registry) Snapshot(ctx context.Context) map[string]Metric {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	collectors := r.Collectors()
	results := make(map[string]Metric, len(collectors))
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	for name, collector := range collectors {
		wg.Add(1)
		go func(name string, collector Collector) {
			defer wg.Done()

			value := collector.Collect(ctx)
			if value == nil {
				r.logger.Debug().Str("collector", name).Msg("Collector returned no data")
				return
			}

			mu.Lock()
			results[name] = Metric{Value: value, Unit: collector.Unit(), Description: collector.Description()}
			mu.Unlock()
		}(name, collector)
	}

	wg.Wait()
	return results
}
