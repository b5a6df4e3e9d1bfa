package atomics

import (
	"sync/atomic"
	"unsafe"

	"github.com/srediag/atomics/internal/backend"
)

// Integer is the set of integer types a cell can hold. int, uint and
// uintptr are 4 or 8 bytes depending on the target.
type Integer interface {
	~int32 | ~uint32 | ~int64 | ~uint64 | ~int | ~uint | ~uintptr
}

// Scalar is the set of types a Cell can hold. Anything else, including
// 1- and 2-byte integers, fails to instantiate.
type Scalar interface {
	Integer | ~float32 | ~float64
}

// Cell is an atomically accessed value of type T.
//
// Floating-point values are stored and compared by bit pattern, so
// CompareExchange treats -0 and +0 as different and a NaN as equal to an
// identical NaN.
//
// A Cell must not be copied after first use.
type Cell[T Scalar] struct {
	// Forces 8-byte alignment on 32-bit targets and lets vet flag copies.
	_ [0]atomic.Uint64
	v T
}

// New returns a cell holding v.
func New[T Scalar](v T) *Cell[T] {
	c := new(Cell[T])
	c.v = v
	return c
}

// Init sets the initial value. It is an UnsafeStore and must happen before
// the cell is visible to other goroutines.
func (c *Cell[T]) Init(v T) { c.UnsafeStore(v) }

// UnsafeLoad reads the value with no ordering guarantee. Only use it while
// the caller has exclusive access to the cell.
func (c *Cell[T]) UnsafeLoad() T {
	if wide[T]() {
		return from64[T](backend.LoadRelaxed64(c.p64()))
	}
	return from32[T](backend.LoadRelaxed32(c.p32()))
}

// UnsafeStore writes the value with no ordering guarantee. Only use it
// while the caller has exclusive access to the cell.
func (c *Cell[T]) UnsafeStore(v T) {
	if wide[T]() {
		backend.StoreRelaxed64(c.p64(), bits64(v))
		return
	}
	backend.StoreRelaxed32(c.p32(), bits32(v))
}

// Load reads the value with at least acquire ordering.
func (c *Cell[T]) Load() T {
	if wide[T]() {
		return from64[T](backend.Load64(c.p64()))
	}
	return from32[T](backend.Load32(c.p32()))
}

// Store writes the value with at least release ordering.
func (c *Cell[T]) Store(v T) {
	if wide[T]() {
		backend.Store64(c.p64(), bits64(v))
		return
	}
	backend.Store32(c.p32(), bits32(v))
}

// Exchange stores v and returns the previous value.
func (c *Cell[T]) Exchange(v T) (old T) {
	if wide[T]() {
		return from64[T](backend.Swap64(c.p64(), bits64(v)))
	}
	return from32[T](backend.Swap32(c.p32(), bits32(v)))
}

// CompareExchange stores desired if the cell holds *expected and reports
// whether it did. On failure *expected is overwritten with the value the
// cell held, ready for the next attempt of a retry loop.
func (c *Cell[T]) CompareExchange(expected *T, desired T) bool {
	if wide[T]() {
		actual, ok := backend.CompareExchange64(c.p64(), bits64(*expected), bits64(desired))
		if !ok {
			*expected = from64[T](actual)
		}
		return ok
	}
	actual, ok := backend.CompareExchange32(c.p32(), bits32(*expected), bits32(desired))
	if !ok {
		*expected = from32[T](actual)
	}
	return ok
}

func (c *Cell[T]) p32() *uint32 { return (*uint32)(unsafe.Pointer(&c.v)) }
func (c *Cell[T]) p64() *uint64 { return (*uint64)(unsafe.Pointer(&c.v)) }

// Int is a Cell over an integer type with fetch-and-add and fetch-and-sub.
type Int[T Integer] struct {
	Cell[T]
}

// NewInt returns an integer cell holding v.
func NewInt[T Integer](v T) *Int[T] {
	c := new(Int[T])
	c.v = v
	return c
}

// FetchAdd adds delta and returns the value before the addition. Overflow
// wraps.
func (c *Int[T]) FetchAdd(delta T) (old T) {
	if wide[T]() {
		return T(backend.Add64(c.p64(), uint64(delta)))
	}
	return T(backend.Add32(c.p32(), uint32(delta)))
}

// FetchSub subtracts delta and returns the value before the subtraction.
func (c *Int[T]) FetchSub(delta T) (old T) {
	if wide[T]() {
		return T(backend.Add64(c.p64(), -uint64(delta)))
	}
	return T(backend.Add32(c.p32(), -uint32(delta)))
}

func wide[T Scalar]() bool {
	var v T
	return unsafe.Sizeof(v) == 8
}

func bits32[T Scalar](v T) uint32 { return *(*uint32)(unsafe.Pointer(&v)) }
func bits64[T Scalar](v T) uint64 { return *(*uint64)(unsafe.Pointer(&v)) }
func from32[T Scalar](u uint32) T { return *(*T)(unsafe.Pointer(&u)) }
func from64[T Scalar](u uint64) T { return *(*T)(unsafe.Pointer(&u)) }
