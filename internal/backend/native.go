//go:build !atomics_intrinsic && !atomics_asm && !atomics_interlocked

package backend

import "sync/atomic"

// Name identifies the compiled backend.
const Name = "native"

const relaxedDistinct = true

// sync/atomic operations are sequentially consistent; the relaxed
// accessors are plain memory accesses.
var orders = [numOps]Order{
	OpUnsafeLoad:      Relaxed,
	OpUnsafeStore:     Relaxed,
	OpLoad:            SeqCst,
	OpStore:           SeqCst,
	OpFetchAdd:        SeqCst,
	OpExchange:        SeqCst,
	OpCompareExchange: SeqCst,
}

func LoadRelaxed32(p *uint32) uint32     { return *p }
func StoreRelaxed32(p *uint32, v uint32) { *p = v }
func LoadRelaxed64(p *uint64) uint64     { return *p }
func StoreRelaxed64(p *uint64, v uint64) { *p = v }

func Load32(p *uint32) uint32     { return atomic.LoadUint32(p) }
func Store32(p *uint32, v uint32) { atomic.StoreUint32(p, v) }
func Load64(p *uint64) uint64     { return atomic.LoadUint64(p) }
func Store64(p *uint64, v uint64) { atomic.StoreUint64(p, v) }

// Add32 adds delta to *p and returns the previous value.
func Add32(p *uint32, delta uint32) (old uint32) {
	return atomic.AddUint32(p, delta) - delta
}

// Add64 adds delta to *p and returns the previous value.
func Add64(p *uint64, delta uint64) (old uint64) {
	return atomic.AddUint64(p, delta) - delta
}

func Swap32(p *uint32, v uint32) (old uint32) { return atomic.SwapUint32(p, v) }
func Swap64(p *uint64, v uint64) (old uint64) { return atomic.SwapUint64(p, v) }

// CompareExchange32 stores new into *p if it holds old. It returns the value
// the comparison saw, so a failed call doubles as a load.
func CompareExchange32(p *uint32, old, new uint32) (actual uint32, swapped bool) {
	for {
		if atomic.CompareAndSwapUint32(p, old, new) {
			return old, true
		}
		// Retry only if the value changed back to old between the CAS and
		// the load; reporting old as a mismatch would be a spurious failure.
		if cur := atomic.LoadUint32(p); cur != old {
			return cur, false
		}
	}
}

// CompareExchange64 is the 64-bit form of CompareExchange32.
func CompareExchange64(p *uint64, old, new uint64) (actual uint64, swapped bool) {
	for {
		if atomic.CompareAndSwapUint64(p, old, new) {
			return old, true
		}
		if cur := atomic.LoadUint64(p); cur != old {
			return cur, false
		}
	}
}
