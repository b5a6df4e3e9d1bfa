package atomics

import (
	"unsafe"

	"github.com/srediag/atomics/internal/backend"
)

// Pointer is an atomically accessed *T. The cell does not own the pointee.
//
// A Pointer must not be copied after first use.
type Pointer[T any] struct {
	_ [0]*T
	v unsafe.Pointer
}

// NewPointer returns a pointer cell holding v.
func NewPointer[T any](v *T) *Pointer[T] {
	return &Pointer[T]{v: unsafe.Pointer(v)}
}

// Init sets the initial value before the cell is shared.
func (p *Pointer[T]) Init(v *T) { p.UnsafeStore(v) }

func (p *Pointer[T]) UnsafeLoad() *T {
	return (*T)(backend.LoadRelaxedPointer(&p.v))
}

func (p *Pointer[T]) UnsafeStore(v *T) {
	backend.StoreRelaxedPointer(&p.v, unsafe.Pointer(v))
}

func (p *Pointer[T]) Load() *T {
	return (*T)(backend.LoadPointer(&p.v))
}

func (p *Pointer[T]) Store(v *T) {
	backend.StorePointer(&p.v, unsafe.Pointer(v))
}

// Exchange stores v and returns the previous pointer.
func (p *Pointer[T]) Exchange(v *T) (old *T) {
	return (*T)(backend.SwapPointer(&p.v, unsafe.Pointer(v)))
}

// CompareExchange stores desired if the cell holds *expected. On failure
// *expected receives the pointer the cell held.
func (p *Pointer[T]) CompareExchange(expected **T, desired *T) bool {
	actual, ok := backend.CompareExchangePointer(&p.v, unsafe.Pointer(*expected), unsafe.Pointer(desired))
	if !ok {
		*expected = (*T)(actual)
	}
	return ok
}
