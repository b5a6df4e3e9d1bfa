//go:build linux

package shm

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/shirou/gopsutil/v3/disk"
	"golang.org/x/sys/unix"
)

const devShm = "/dev/shm"

// canCreate reports whether /dev/shm has room for size more bytes. A failed
// usage query does not block creation.
func canCreate(size uint64) bool {
	stat, err := disk.Usage(devShm)
	if err != nil {
		return true
	}
	return stat.Free >= size
}

// MapRegion maps or creates a shared memory region (Linux implementation).
// Named regions live under /dev/shm; an empty name maps anonymous shared
// memory.
func MapRegion(ctx context.Context, opts MapOptions) (*MappedRegion, error) {
	if opts.Size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, opts.Size)
	}
	if opts.Name == "" {
		addr, err := unix.Mmap(-1, 0, opts.Size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_ANON)
		if err != nil {
			return nil, fmt.Errorf("mmap: %w", err)
		}
		return &MappedRegion{Addr: addr, fd: -1, mapped: true}, nil
	}

	flags := unix.O_RDWR
	if opts.Create {
		if !canCreate(uint64(opts.Size)) {
			return nil, fmt.Errorf("%w: %d bytes on %s", ErrNoSpace, opts.Size, devShm)
		}
		flags |= unix.O_CREAT
	}
	shmPath := filepath.Join(devShm, opts.Name)
	fd, err := unix.Open(shmPath, flags, 0600)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	if opts.Create {
		if err := unix.Ftruncate(fd, int64(opts.Size)); err != nil {
			_ = unix.Close(fd)
			return nil, fmt.Errorf("ftruncate: %w", err)
		}
	}
	addr, err := unix.Mmap(fd, 0, opts.Size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("mmap: %w", err)
	}
	region := &MappedRegion{Addr: addr, fd: fd, mapped: true}
	if opts.Create {
		region.path = shmPath
	}
	return region, nil
}

// UnmapRegion unmaps the region, closes its descriptor and removes the
// object if this process created it.
func UnmapRegion(ctx context.Context, region *MappedRegion) error {
	if region == nil || region.Addr == nil {
		return nil
	}
	if err := unix.Munmap(region.Addr); err != nil {
		return fmt.Errorf("munmap: %w", err)
	}
	region.Addr = nil
	if region.fd >= 0 {
		if err := unix.Close(region.fd); err != nil {
			return fmt.Errorf("close: %w", err)
		}
		region.fd = -1
	}
	if region.path != "" {
		if err := unix.Unlink(region.path); err != nil {
			return fmt.Errorf("unlink: %w", err)
		}
		region.path = ""
	}
	return nil
}
