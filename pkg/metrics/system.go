package metrics

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
)

type SystemSnapshot struct {
	CPUPercent    float64    `json:"cpu_percent"`
	CPUCount      int        `json:"cpu_count"`
	MemoryTotal   uint64     `json:"memory_total"`
	MemoryUsed    uint64     `json:"memory_used"`
	MemoryPercent float64    `json:"memory_percent"`
	DiskTotal     uint64     `json:"disk_total"`
	DiskUsed      uint64     `json:"disk_used"`
	DiskPercent   float64    `json:"disk_percent"`
	Load          *LoadStats `json:"load,omitempty"`
	CollectedAt   int64      `json:"collected_at"`
}

type LoadStats struct {
	Load1  float64 `json:"load1"`
	Load5  float64 `json:"load5"`
	Load15 float64 `json:"load15"`
}

// CollectSystem samples host cpu, memory and the disk holding path.
// Load averages are read only when withLoad is set, some platforms lack them.
func CollectSystem(ctx context.Context, path string, withLoad bool) (SystemSnapshot, error) {
	snap := SystemSnapshot{CollectedAt: time.Now().Unix()}

	percents, err := cpu.PercentWithContext(ctx, 200*time.Millisecond, false)
	if err != nil {
		return snap, err
	}
	if len(percents) > 0 {
		snap.CPUPercent = percents[0]
	}
	if snap.CPUCount, err = cpu.CountsWithContext(ctx, true); err != nil {
		return snap, err
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return snap, err
	}
	snap.MemoryTotal, snap.MemoryUsed, snap.MemoryPercent = vm.Total, vm.Used, vm.UsedPercent

	usage, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return snap, err
	}
	snap.DiskTotal, snap.DiskUsed, snap.DiskPercent = usage.Total, usage.Used, usage.UsedPercent

	if withLoad {
		avg, err := load.AvgWithContext(ctx)
		if err != nil {
			return snap, err
		}
		snap.Load = &LoadStats{Load1: avg.Load1, Load5: avg.Load5, Load15: avg.Load15}
	}
	return snap, nil
}
