package gpu

import "sort"

const (
	hostDevice = -1

	simAddressBase = DevicePtr(0x200000000)
	simAllocAlign  = 1 << 16
)

type simAlloc struct {
	base   DevicePtr
	device int
	data   []byte
}

// simMemory hands out addresses from one flat range so that host and device
// allocations never overlap, as under unified addressing. Allocations are
// kept sorted by base address.
type simMemory struct {
	next   DevicePtr
	allocs []*simAlloc
}

func (m *simMemory) alloc(size uint64, device int) DevicePtr {
	if m.next == 0 {
		m.next = simAddressBase
	}
	a := &simAlloc{
		base:   m.next,
		device: device,
		data:   make([]byte, size),
	}
	// one alignment unit of guard space between allocations
	span := (size + simAllocAlign) / simAllocAlign * simAllocAlign
	m.next += DevicePtr(span + simAllocAlign)
	m.allocs = append(m.allocs, a)
	return a.base
}

func (m *simMemory) find(ptr DevicePtr) *simAlloc {
	i := sort.Search(len(m.allocs), func(i int) bool {
		return m.allocs[i].base > ptr
	}) - 1
	if i < 0 {
		return nil
	}
	return m.allocs[i]
}

// slice resolves [ptr, ptr+size) to the backing bytes of one allocation.
func (m *simMemory) slice(ptr DevicePtr, size uint64) (*simAlloc, []byte, bool) {
	a := m.find(ptr)
	if a == nil {
		return nil, nil, false
	}
	off := uint64(ptr - a.base)
	if off+size > uint64(len(a.data)) {
		return nil, nil, false
	}
	return a, a.data[off : off+size], true
}

func (m *simMemory) free(ptr DevicePtr, host bool) bool {
	for i, a := range m.allocs {
		if a.base != ptr {
			continue
		}
		if (a.device == hostDevice) != host {
			return false
		}
		m.allocs = append(m.allocs[:i], m.allocs[i+1:]...)
		return true
	}
	return false
}
