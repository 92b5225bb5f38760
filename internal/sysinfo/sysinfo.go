// Package sysinfo summarizes the host a run executes on.
package sysinfo

import (
	"fmt"
	"os"

	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"
	"github.com/shirou/gopsutil/process"
)

// Host describes the CPUs and memory of the machine.
type Host struct {
	CPUModel      string
	LogicalCores  int
	TotalMemory   uint64
	ProcessMemory uint64
}

// Collect reads the host description. Fields the platform cannot report are
// left zero.
func Collect() (Host, error) {
	var h Host

	infos, err := cpu.Info()
	if err != nil {
		return h, fmt.Errorf("failed to read CPU info: %w", err)
	}
	if len(infos) > 0 {
		h.CPUModel = infos[0].ModelName
	}
	if h.LogicalCores, err = cpu.Counts(true); err != nil {
		return h, fmt.Errorf("failed to count CPUs: %w", err)
	}

	vm, err := mem.VirtualMemory()
	if err != nil {
		return h, fmt.Errorf("failed to read memory info: %w", err)
	}
	h.TotalMemory = vm.Total

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return h, err
	}
	info, err := p.MemoryInfo()
	if err != nil {
		return h, fmt.Errorf("failed to read process memory: %w", err)
	}
	h.ProcessMemory = info.RSS
	return h, nil
}

func (h Host) String() string {
	model := h.CPUModel
	if model == "" {
		model = "unknown CPU"
	}
	return fmt.Sprintf("%s, %d logical cores, %.1f GiB memory", model, h.LogicalCores, float64(h.TotalMemory)/(1<<30))
}
