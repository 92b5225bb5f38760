package memnode

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/fxnlabs/nvbandwidth/internal/gpu"
)

const (
	// PatternBlockSize is the length of one reference block. Buffers are
	// filled and checked one block at a time.
	PatternBlockSize = 2 * 1024 * 1024

	// MaxReportedMismatches bounds how many differing words a MismatchError
	// lists. Count always holds the full total.
	MaxReportedMismatches = 64
)

// Xorshift fills words with the 32-bit xorshift sequence that follows seed.
// The seed itself is not part of the sequence.
func Xorshift(words []uint32, seed uint32) {
	v := seed
	for i := range words {
		v ^= v << 13
		v ^= v >> 17
		v ^= v << 5
		words[i] = v
	}
}

// Pattern returns the reference block for seed as little-endian words.
func Pattern(seed uint32) []byte {
	words := make([]uint32, PatternBlockSize/4)
	Xorshift(words, seed)

	block := make([]byte, PatternBlockSize)
	for i, w := range words {
		binary.LittleEndian.PutUint32(block[i*4:], w)
	}
	return block
}

// Mismatch is one 4-byte word that differs from the reference pattern.
type Mismatch struct {
	Offset uint64
	Got    uint32
	Want   uint32
}

// MismatchError reports a buffer whose contents differ from the pattern it
// was expected to hold.
type MismatchError struct {
	Node  string
	Size  uint64
	Count uint64
	First []Mismatch
}

func (e *MismatchError) Error() string {
	node := e.Node
	if node == "" {
		node = "buffer"
	}
	if len(e.First) == 0 {
		return fmt.Sprintf("pattern mismatch in %s", node)
	}
	m := e.First[0]
	return fmt.Sprintf("pattern mismatch in %s: %d words differ, first at offset [%d/%d] (got %#08x, want %#08x)",
		node, e.Count, m.Offset, e.Size, m.Got, m.Want)
}

func (e *MismatchError) add(offset uint64, got, want []byte) {
	e.Count++
	if len(e.First) < MaxReportedMismatches {
		e.First = append(e.First, Mismatch{Offset: offset, Got: word(got), Want: word(want)})
	}
}

// word reads up to four bytes as a little-endian word.
func word(b []byte) uint32 {
	var w [4]byte
	copy(w[:], b)
	return binary.LittleEndian.Uint32(w[:])
}

// withStaging runs fn with a pinned block of PatternBlockSize bytes. The
// current context is used for the allocation.
func withStaging(drv gpu.Driver, fn func(ptr gpu.DevicePtr, host []byte) error) error {
	ptr, err := drv.MemHostAlloc(PatternBlockSize)
	if err != nil {
		return fmt.Errorf("failed to allocate pattern staging block: %w", err)
	}
	host, err := drv.HostBytes(ptr, PatternBlockSize)
	if err == nil {
		err = fn(ptr, host)
	}
	if ferr := drv.MemHostFree(ptr); err == nil {
		err = ferr
	}
	return err
}

// FillPattern writes the pattern for seed over the first size bytes of
// buffer, tiling the reference block.
func FillPattern(drv gpu.Driver, buffer gpu.DevicePtr, size uint64, seed uint32) error {
	return withStaging(drv, func(staging gpu.DevicePtr, host []byte) error {
		copy(host, Pattern(seed))
		for off := uint64(0); off < size; off += PatternBlockSize {
			n := min(size-off, PatternBlockSize)
			if err := drv.Memcpy(buffer+gpu.DevicePtr(off), staging, n); err != nil {
				return err
			}
		}
		return drv.CtxSynchronize()
	})
}

// ComparePattern reads back the first size bytes of buffer and compares them
// with the pattern for seed. It returns a nil MismatchError when they match.
func ComparePattern(drv gpu.Driver, buffer gpu.DevicePtr, size uint64, seed uint32) (*MismatchError, error) {
	want := Pattern(seed)
	var mismatch *MismatchError

	err := withStaging(drv, func(staging gpu.DevicePtr, host []byte) error {
		for off := uint64(0); off < size; off += PatternBlockSize {
			n := min(size-off, PatternBlockSize)
			if err := drv.Memcpy(staging, buffer+gpu.DevicePtr(off), n); err != nil {
				return err
			}
			if err := drv.CtxSynchronize(); err != nil {
				return err
			}
			got := host[:n]
			if bytes.Equal(got, want[:n]) {
				continue
			}
			if mismatch == nil {
				mismatch = &MismatchError{Size: size}
			}
			for w := uint64(0); w < n; w += 4 {
				end := min(w+4, n)
				if !bytes.Equal(got[w:end], want[w:end]) {
					mismatch.add(off+w, got[w:end], want[w:end])
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return mismatch, nil
}

// VerifyPattern checks that node holds the pattern for seed over its first
// size bytes. A difference is returned as a *MismatchError.
func VerifyPattern(drv gpu.Driver, node Node, size uint64, seed uint32) error {
	mismatch, err := ComparePattern(drv, node.Buffer(), size, seed)
	if err != nil {
		return fmt.Errorf("failed to read back %s: %w", node, err)
	}
	if mismatch != nil {
		mismatch.Node = node.String()
		return mismatch
	}
	return nil
}
