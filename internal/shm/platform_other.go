//go:build !linux

package shm

import (
	"context"
	"fmt"
	"unsafe"
)

// MapRegion falls back to a heap allocation on platforms without a
// mapping implementation. The slice is backed by uint64 words so cells
// placed in it are 8-byte aligned.
func MapRegion(ctx context.Context, opts MapOptions) (*MappedRegion, error) {
	if opts.Size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, opts.Size)
	}
	words := make([]uint64, (opts.Size+7)/8)
	addr := unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), opts.Size)
	return &MappedRegion{Addr: addr, fd: -1}, nil
}

// UnmapRegion releases the region.
func UnmapRegion(ctx context.Context, region *MappedRegion) error {
	if region != nil {
		region.Addr = nil
	}
	return nil
}
