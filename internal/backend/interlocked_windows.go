//go:build atomics_interlocked && !atomics_intrinsic && !atomics_asm

package backend

import (
	"sync/atomic"
	"unsafe"
)

// Name identifies the compiled backend.
const Name = "interlocked"

const relaxedDistinct = true

var orders = [numOps]Order{
	OpUnsafeLoad:      Relaxed,
	OpUnsafeStore:     Relaxed,
	OpLoad:            SeqCst,
	OpStore:           SeqCst,
	OpFetchAdd:        SeqCst,
	OpExchange:        SeqCst,
	OpCompareExchange: SeqCst,
}

// The interlocked family works on signed LONG and LONGLONG operands and
// compare-exchange returns the initial destination value. The exported
// functions below cast those fixed-width operations onto the cell width.

func interlockedExchange(dest *int32, v int32) int32 { return atomic.SwapInt32(dest, v) }

func interlockedExchange64(dest *int64, v int64) int64 { return atomic.SwapInt64(dest, v) }

func interlockedExchangeAdd(dest *int32, v int32) int32 { return atomic.AddInt32(dest, v) - v }

func interlockedExchangeAdd64(dest *int64, v int64) int64 { return atomic.AddInt64(dest, v) - v }

func interlockedCompareExchange(dest *int32, exchange, comperand int32) int32 {
	for {
		if atomic.CompareAndSwapInt32(dest, comperand, exchange) {
			return comperand
		}
		if cur := atomic.LoadInt32(dest); cur != comperand {
			return cur
		}
	}
}

func interlockedCompareExchange64(dest *int64, exchange, comperand int64) int64 {
	for {
		if atomic.CompareAndSwapInt64(dest, comperand, exchange) {
			return comperand
		}
		if cur := atomic.LoadInt64(dest); cur != comperand {
			return cur
		}
	}
}

func long(p *uint32) *int32     { return (*int32)(unsafe.Pointer(p)) }
func longlong(p *uint64) *int64 { return (*int64)(unsafe.Pointer(p)) }

func LoadRelaxed32(p *uint32) uint32     { return *p }
func StoreRelaxed32(p *uint32, v uint32) { *p = v }
func LoadRelaxed64(p *uint64) uint64     { return *p }
func StoreRelaxed64(p *uint64, v uint64) { *p = v }

// Load32 is the interlocked read idiom: compare-exchange 0 with 0.
func Load32(p *uint32) uint32 {
	return uint32(interlockedCompareExchange(long(p), 0, 0))
}

func Store32(p *uint32, v uint32) { interlockedExchange(long(p), int32(v)) }

func Load64(p *uint64) uint64 {
	return uint64(interlockedCompareExchange64(longlong(p), 0, 0))
}

func Store64(p *uint64, v uint64) { interlockedExchange64(longlong(p), int64(v)) }

func Add32(p *uint32, delta uint32) (old uint32) {
	return uint32(interlockedExchangeAdd(long(p), int32(delta)))
}

func Add64(p *uint64, delta uint64) (old uint64) {
	return uint64(interlockedExchangeAdd64(longlong(p), int64(delta)))
}

func Swap32(p *uint32, v uint32) (old uint32) {
	return uint32(interlockedExchange(long(p), int32(v)))
}

func Swap64(p *uint64, v uint64) (old uint64) {
	return uint64(interlockedExchange64(longlong(p), int64(v)))
}

func CompareExchange32(p *uint32, old, new uint32) (actual uint32, swapped bool) {
	actual = uint32(interlockedCompareExchange(long(p), int32(new), int32(old)))
	return actual, actual == old
}

func CompareExchange64(p *uint64, old, new uint64) (actual uint64, swapped bool) {
	actual = uint64(interlockedCompareExchange64(longlong(p), int64(new), int64(old)))
	return actual, actual == old
}
