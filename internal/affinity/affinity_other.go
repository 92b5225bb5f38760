//go:build !linux

package affinity

import (
	"fmt"
	"os"
)

// NodeCPUs is not supported off Linux.
func NodeCPUs(node int) ([]int, error) {
	return nil, fmt.Errorf("NUMA node %d: %w", node, os.ErrNotExist)
}

// SetNUMANode is a no-op off Linux.
func SetNUMANode(int) error {
	return nil
}

// Current is not supported off Linux.
func Current() ([]int, error) {
	return nil, fmt.Errorf("thread affinity: %w", os.ErrNotExist)
}
