//go:build linux

package affinity

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// NodeCPUs returns the CPUs that belong to NUMA node.
func NodeCPUs(node int) ([]int, error) {
	data, err := os.ReadFile(filepath.Join(sysfsRoot, fmt.Sprintf("node%d", node), "cpulist"))
	if err != nil {
		return nil, fmt.Errorf("failed to read cpulist of NUMA node %d: %w", node, err)
	}
	return ParseCPUList(string(data))
}

// SetNUMANode binds the calling thread to the CPUs of NUMA node. The caller
// must have locked its goroutine to the thread.
func SetNUMANode(node int) error {
	cpus, err := NodeCPUs(node)
	if err != nil {
		return err
	}
	if len(cpus) == 0 {
		return fmt.Errorf("NUMA node %d has no CPUs", node)
	}

	var mask unix.CPUSet
	for _, cpu := range cpus {
		mask.Set(cpu)
	}
	if err := unix.SchedSetaffinity(unix.Gettid(), &mask); err != nil {
		return fmt.Errorf("sched_setaffinity for NUMA node %d: %w", node, err)
	}
	return nil
}

// Current returns the CPUs the calling thread may run on.
func Current() ([]int, error) {
	var mask unix.CPUSet
	if err := unix.SchedGetaffinity(unix.Gettid(), &mask); err != nil {
		return nil, err
	}
	var cpus []int
	for cpu, n := 0, mask.Count(); len(cpus) < n; cpu++ {
		if mask.IsSet(cpu) {
			cpus = append(cpus, cpu)
		}
	}
	return cpus, nil
}
