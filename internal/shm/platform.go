// Package shm maps memory regions that atomic cells can be placed in.
package shm

import "errors"

var (
	// ErrInvalidSize is returned when a region of zero or negative size is
	// requested.
	ErrInvalidSize = errors.New("shm: invalid region size")
	// ErrNoSpace is returned when the shared memory filesystem cannot hold
	// a new region.
	ErrNoSpace = errors.New("shm: not enough space left")
)

// MappedRegion represents a mapped memory region.
type MappedRegion struct {
	Addr []byte

	fd     int
	path   string
	mapped bool
}

// MapOptions defines options for mapping a region.
type MapOptions struct {
	// Name of the shared memory object. Empty maps an anonymous region.
	Name   string
	Size   int
	Create bool
}

// Mapped reports whether the region is backed by an OS mapping rather than
// the heap fallback.
func (r *MappedRegion) Mapped() bool { return r != nil && r.mapped }

// MapRegion and UnmapRegion are provided in platform_linux.go and
// platform_other.go.
