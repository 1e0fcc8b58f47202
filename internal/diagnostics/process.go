package diagnostics

import (
	"context"
	"os"
	"runtime"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/process"
)

// GoroutineCollector counts the goroutines of this process.
type GoroutineCollector struct{}

func (g *GoroutineCollector) Name() string {
	return "goroutines"
}

func (g *GoroutineCollector) Collect(ctx context.Context) any {
	return runtime.NumGoroutine()
}

func (g *GoroutineCollector) Unit() string {
	return "count"
}

func (g *GoroutineCollector) Description() string {
	return "Number of active goroutines in the runtime."
}

// ProcessStats is the resource usage of the locator process itself.
type ProcessStats struct {
	CPUUsage float64 `json:"cpu_usage"`
	RSS      uint64  `json:"rss"`
	Threads  int32   `json:"threads"`
}

// ProcessCollector collects CPU and memory usage of the running process.
type ProcessCollector struct {
	Logger zerolog.Logger
}

func (p *ProcessCollector) Name() string {
	return "process"
}

func (p *ProcessCollector) Collect(ctx context.Context) any {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		p.Logger.Error().Err(err).Msg("Failed to open own process")
		return nil
	}

	stats := ProcessStats{}
	if cpuPercent, err := proc.CPUPercentWithContext(ctx); err == nil {
		stats.CPUUsage = cpuPercent
	} else {
		p.Logger.Warn().Err(err).Msg("Failed to get process CPU usage")
	}
	if memInfo, err := proc.MemoryInfoWithContext(ctx); err == nil {
		stats.RSS = memInfo.RSS
	} else {
		p.Logger.Warn().Err(err).Msg("Failed to get process memory information")
	}
	if threads, err := proc.NumThreadsWithContext(ctx); err == nil {
		stats.Threads = threads
	}
	return stats
}

func (p *ProcessCollector) Unit() string {
	return "varied (CPU: %, RSS: bytes, threads: count)"
}

func (p *ProcessCollector) Description() string {
	return "CPU usage, resident memory and thread count of the locator process."
}
