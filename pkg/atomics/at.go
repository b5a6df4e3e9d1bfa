package atomics

import (
	"errors"
	"fmt"
	"unsafe"
)

var (
	// ErrOutOfRange is returned when a cell would not fit in the memory.
	ErrOutOfRange = errors.New("atomics: cell out of range")
	// ErrMisaligned is returned when the cell address is not 8-byte aligned.
	ErrMisaligned = errors.New("atomics: cell misaligned")
)

// CellAt returns a cell that lives at mem[off:], such as a slot in a shared
// memory mapping. The memory must stay valid for as long as the cell is
// used, and must not hold Go pointers.
func CellAt[T Scalar](mem []byte, off int) (*Cell[T], error) {
	p, err := place[Cell[T]](mem, off)
	if err != nil {
		return nil, err
	}
	return (*Cell[T])(p), nil
}

// IntAt is CellAt for integer cells.
func IntAt[T Integer](mem []byte, off int) (*Int[T], error) {
	p, err := place[Int[T]](mem, off)
	if err != nil {
		return nil, err
	}
	return (*Int[T])(p), nil
}

func place[C any](mem []byte, off int) (unsafe.Pointer, error) {
	var c C
	size, align := int(unsafe.Sizeof(c)), uintptr(unsafe.Alignof(c))
	if off < 0 || off > len(mem)-size {
		return nil, fmt.Errorf("%w: offset %d size %d len %d", ErrOutOfRange, off, size, len(mem))
	}
	p := unsafe.Pointer(&mem[off])
	if uintptr(p)%align != 0 {
		return nil, fmt.Errorf("%w: offset %d address %#x", ErrMisaligned, off, uintptr(p))
	}
	return p, nil
}
