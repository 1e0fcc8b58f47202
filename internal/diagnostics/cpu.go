package diagnostics

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/cpu"
)

// CPUCollector collects host CPU usage.
type CPUCollector struct {
	Logger zerolog.Logger
}

func (c *CPUCollector) Name() string {
	return "cpu"
}

func (c *CPUCollector) Collect(ctx context.Context) any {
	cpuPercentages, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		c.Logger.Error().Err(err).Msg("Failed to get CPU usage")
		return nil
	}
	if len(cpuPercentages) == 0 {
		c.Logger.Warn().Msg("CPU usage data is empty")
		return nil
	}
	return cpuPercentages[0]
}

func (c *CPUCollector) Unit() string {
	return "percentage"
}

func (c *CPUCollector) Description() string {
	return "Percentage of CPU utilization across all cores."
}
