package diagnostics

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/mem"
)

// MemoryCollector collects the percentage of used virtual memory on the host.
type MemoryCollector struct {
	Logger zerolog.Logger
}

func (m *MemoryCollector) Name() string {
	return "memory"
}

func (m *MemoryCollector) Collect(ctx context.Context) any {
	vmStat, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		m.Logger.Error().Err(err).Msg("Failed to get memory usage")
		return nil
	}
	return vmStat.UsedPercent
}

func (m *MemoryCollector) Unit() string {
	return "percentage"
}

func (m *MemoryCollector) Description() string {
	return "Percentage of virtual memory used on the host."
}
