package diagnostics

import "context"

// Collector produces a single diagnostic reading.
type Collector interface {
	Name() string                    // Name of the metric (e.g., "cpu", "memory")
	Collect(ctx context.Context) any // Collect the metric data, nil when unavailable
	Unit() string                    // Unit of the metric (e.g., "percentage", "bytes")
	Description() string             // Description of the metric
}

// Metric is one collected reading as served on /debug/metrics.
type Metric struct {
	Value       any    `json:"value"`
	Unit        string `json:"unit"`
	Description string `json:"description"`
}
