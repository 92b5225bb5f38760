// Package affinity steers the controlling OS thread onto the CPUs of a NUMA
// node so that pinned host buffers are allocated close to the device under
// test.
package affinity

import (
	"fmt"
	"strconv"
	"strings"
)

// sysfsRoot is where NUMA node topology is read from.
var sysfsRoot = "/sys/devices/system/node"

// ParseCPUList parses the kernel's cpulist format, e.g. "0-3,8,10-11".
func ParseCPUList(list string) ([]int, error) {
	list = strings.TrimSpace(list)
	if list == "" {
		return nil, nil
	}

	var cpus []int
	for _, part := range strings.Split(list, ",") {
		lo, hi, isRange := strings.Cut(part, "-")
		first, err := strconv.Atoi(lo)
		if err != nil {
			return nil, fmt.Errorf("invalid cpu %q in cpulist %q", lo, list)
		}
		last := first
		if isRange {
			last, err = strconv.Atoi(hi)
			if err != nil {
				return nil, fmt.Errorf("invalid cpu %q in cpulist %q", hi, list)
			}
		}
		if first < 0 || last < first {
			return nil, fmt.Errorf("invalid range %q in cpulist %q", part, list)
		}
		for cpu := first; cpu <= last; cpu++ {
			cpus = append(cpus, cpu)
		}
	}
	return cpus, nil
}
