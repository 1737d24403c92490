// Package process 通过 gopsutil 采集当前进程及宿主机指标
package process

import (
	"context"
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"

	"github.com/metrics-reporter/pkg/source"
)

// Source 每次快照读取进程与主机统计。单项读取失败时以携带错误的非数值读数上报，
// 下游会跳过它，快照其余部分不受影响
type Source struct {
	proc *process.Process
	log  *zap.Logger
}

// New 绑定 pid，当前进程传 os.Getpid()
func New(ctx context.Context, pid int32, log *zap.Logger) (*Source, error) {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return nil, fmt.Errorf("open process %d: %w", pid, err)
	}
	return &Source{proc: p, log: log}, nil
}

func (s *Source) Name() string { return "process" }

func (s *Source) SnapshotMetrics(ctx context.Context) (map[string]source.Sample, error) {
	out := make(map[string]source.Sample, 12)

	if name, err := s.proc.NameWithContext(ctx); err == nil {
		out["process/name"] = source.Other(name)
	}

	if pct, err := s.proc.CPUPercentWithContext(ctx); err != nil {
		s.unavailable(out, "process/cpu/percent", err)
	} else {
		out["process/cpu/percent"] = source.Numeric(pct)
	}

	if mi, err := s.proc.MemoryInfoWithContext(ctx); err != nil {
		s.unavailable(out, "process/memory/rss", err)
	} else {
		out["process/memory/rss"] = source.Numeric(float64(mi.RSS))
		out["process/memory/vms"] = source.Numeric(float64(mi.VMS))
	}

	if n, err := s.proc.NumThreadsWithContext(ctx); err != nil {
		s.unavailable(out, "process/threads", err)
	} else {
		out["process/threads"] = source.Numeric(float64(n))
	}

	if fds, err := s.proc.NumFDsWithContext(ctx); err != nil {
		s.unavailable(out, "process/fds", err)
	} else {
		out["process/fds"] = source.Numeric(float64(fds))
	}

	if usage, err := cpu.PercentWithContext(ctx, 0, false); err != nil || len(usage) == 0 {
		s.unavailable(out, "host/cpu/percent", err)
	} else {
		out["host/cpu/percent"] = source.Numeric(usage[0])
	}

	if avg, err := load.AvgWithContext(ctx); err != nil {
		s.unavailable(out, "host/load/1", err)
	} else {
		out["host/load/1"] = source.Numeric(avg.Load1)
		out["host/load/5"] = source.Numeric(avg.Load5)
		out["host/load/15"] = source.Numeric(avg.Load15)
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err != nil {
		s.unavailable(out, "host/memory/used_percent", err)
	} else {
		out["host/memory/used_percent"] = source.Numeric(vm.UsedPercent)
	}

	return out, nil
}

func (s *Source) unavailable(out map[string]source.Sample, metric string, err error) {
	if err == nil {
		err = fmt.Errorf("no data")
	}
	s.log.Debug("reading unavailable", zap.String("metric", metric), zap.Error(err))
	out[metric] = source.Other(err)
}

// SnapshotNodes 主机作为唯一节点
func (s *Source) SnapshotNodes(ctx context.Context) (map[string]string, error) {
	id, hostname := "", ""
	if info, err := host.InfoWithContext(ctx); err == nil {
		id, hostname = info.HostID, info.Hostname
	}
	if hostname == "" {
		h, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("resolve hostname: %w", err)
		}
		hostname = h
	}
	if id == "" {
		id = hostname
	}
	return map[string]string{id: "node." + hostname}, nil
}
