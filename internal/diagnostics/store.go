package diagnostics

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Pinger is satisfied by the persistence gateway.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StoreLatencyCollector measures a round trip to the persistence gateway.
type StoreLatencyCollector struct {
	Store  Pinger
	Logger zerolog.Logger
}

func (s *StoreLatencyCollector) Name() string {
	return "store_latency"
}

func (s *StoreLatencyCollector) Collect(ctx context.Context) any {
	start := time.Now()
	if err := s.Store.Ping(ctx); err != nil {
		s.Logger.Error().Err(err).Msg("Failed to ping store")
		return nil
	}
	return float64(time.Since(start).Microseconds()) / 1000
}

func (s *StoreLatencyCollector) Unit() string {
	return "milliseconds"
}

func (s *StoreLatencyCollector) Description() string {
	return "Round trip time of a persistence gateway ping."
}

// RegisterDefaults registers the built-in collectors.
func RegisterDefaults(r *Registry, store Pinger, logger zerolog.Logger) {
	r.Register(&CPUCollector{Logger: logger})
	r.Register(&MemoryCollector{Logger: logger})
	r.Register(&GoroutineCollector{})
	r.Register(&ProcessCollector{Logger: logger})
	if store != nil {
		r.Register(&StoreLatencyCollector{Store: store, Logger: logger})
	}
}
