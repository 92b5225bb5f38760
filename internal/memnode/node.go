// Package memnode owns the buffers that copies run between: pinned host
// memory and device memory, plus the pattern used to validate them.
package memnode

import (
	"errors"
	"fmt"

	"github.com/fxnlabs/nvbandwidth/internal/gpu"
)

// Node is a buffer taking part in a copy.
type Node interface {
	BufferSize() uint64
	Buffer() gpu.DevicePtr
	// Context is the context the buffer is accessed under. Host nodes have
	// none and return zero.
	Context() gpu.Context
	// Index is the node's position in the bandwidth matrix.
	Index() int
	String() string
	Close() error
}

// HostNode is pinned host memory allocated near a target device.
type HostNode struct {
	drv    gpu.Driver
	size   uint64
	buffer gpu.DevicePtr
	device int
}

// NewHostNode allocates size bytes of pinned host memory for transfers with
// targetDevice. With setAffinity the calling thread is first moved to the
// CPUs closest to the device so that the pages land on its NUMA node.
func NewHostNode(drv gpu.Driver, size uint64, targetDevice int, setAffinity bool) (*HostNode, error) {
	if setAffinity {
		if err := drv.SetCPUAffinity(targetDevice); err != nil {
			return nil, fmt.Errorf("failed to set CPU affinity for device %d: %w", targetDevice, err)
		}
	}

	ctx, err := drv.PrimaryCtxRetain(targetDevice)
	if err != nil {
		return nil, err
	}
	if err := drv.CtxSetCurrent(ctx); err != nil {
		_ = drv.PrimaryCtxRelease(targetDevice)
		return nil, err
	}
	buffer, err := drv.MemHostAlloc(size)
	if err != nil {
		_ = drv.PrimaryCtxRelease(targetDevice)
		return nil, fmt.Errorf("failed to allocate %d bytes of host memory: %w", size, err)
	}

	return &HostNode{drv: drv, size: size, buffer: buffer, device: targetDevice}, nil
}

func (n *HostNode) BufferSize() uint64 {
	return n.size
}

func (n *HostNode) Buffer() gpu.DevicePtr {
	return n.buffer
}

func (n *HostNode) Context() gpu.Context {
	return 0
}

// Index is always 0: host memory is a single row of the matrix.
func (n *HostNode) Index() int {
	return 0
}

func (n *HostNode) String() string {
	return "Host"
}

func (n *HostNode) Close() error {
	err := n.drv.MemHostFree(n.buffer)
	return errors.Join(err, n.drv.PrimaryCtxRelease(n.device))
}

// DeviceNode is device memory, accessed through the device's primary
// context.
type DeviceNode struct {
	drv    gpu.Driver
	size   uint64
	buffer gpu.DevicePtr
	device int
	ctx    gpu.Context
}

// NewDeviceNode allocates size bytes on device. The device's primary context
// stays retained until Close.
func NewDeviceNode(drv gpu.Driver, size uint64, device int) (*DeviceNode, error) {
	ctx, err := drv.PrimaryCtxRetain(device)
	if err != nil {
		return nil, err
	}
	if err := drv.CtxSetCurrent(ctx); err != nil {
		_ = drv.PrimaryCtxRelease(device)
		return nil, err
	}
	buffer, err := drv.MemAlloc(size)
	if err != nil {
		_ = drv.PrimaryCtxRelease(device)
		return nil, fmt.Errorf("failed to allocate %d bytes on device %d: %w", size, device, err)
	}

	return &DeviceNode{drv: drv, size: size, buffer: buffer, device: device, ctx: ctx}, nil
}

func (n *DeviceNode) BufferSize() uint64 {
	return n.size
}

func (n *DeviceNode) Buffer() gpu.DevicePtr {
	return n.buffer
}

func (n *DeviceNode) Context() gpu.Context {
	return n.ctx
}

func (n *DeviceNode) Index() int {
	return n.device
}

func (n *DeviceNode) String() string {
	return fmt.Sprintf("Device %d", n.device)
}

func (n *DeviceNode) Close() error {
	if err := n.drv.CtxSetCurrent(n.ctx); err != nil {
		return err
	}
	if err := n.drv.MemFree(n.buffer); err != nil {
		return err
	}
	return n.drv.PrimaryCtxRelease(n.device)
}

// EnablePeerAccess maps the memory of n and peer into each other's context.
// It returns false when the devices cannot access each other.
func (n *DeviceNode) EnablePeerAccess(peer *DeviceNode) (bool, error) {
	can, err := n.drv.DeviceCanAccessPeer(n.device, peer.device)
	if err != nil {
		return false, err
	}
	if !can {
		return false, nil
	}

	if err := n.enable(peer.ctx, n.ctx); err != nil {
		return false, err
	}
	if err := n.enable(n.ctx, peer.ctx); err != nil {
		return false, err
	}
	return true, nil
}

// enable lets ctx access the memory of peer.
func (n *DeviceNode) enable(ctx, peer gpu.Context) error {
	if err := n.drv.CtxSetCurrent(ctx); err != nil {
		return err
	}
	err := n.drv.CtxEnablePeerAccess(peer)
	if errors.Is(err, gpu.ErrPeerAccessAlreadyEnabled) {
		return nil
	}
	return err
}
