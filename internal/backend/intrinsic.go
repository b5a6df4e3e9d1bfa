//go:build atomics_intrinsic && !atomics_asm && !atomics_interlocked

package backend

import "sync/atomic"

// Name identifies the compiled backend.
const Name = "intrinsic"

// Only exchange, compare-and-swap and fetch-add are used here. Each one is a
// full barrier, so there is no cheaper relaxed form to offer.
const relaxedDistinct = false

var orders = [numOps]Order{
	OpUnsafeLoad:      SeqCst,
	OpUnsafeStore:     SeqCst,
	OpLoad:            SeqCst,
	OpStore:           SeqCst,
	OpFetchAdd:        SeqCst,
	OpExchange:        SeqCst,
	OpCompareExchange: SeqCst,
}

func LoadRelaxed32(p *uint32) uint32     { return Load32(p) }
func StoreRelaxed32(p *uint32, v uint32) { Store32(p, v) }
func LoadRelaxed64(p *uint64) uint64     { return Load64(p) }
func StoreRelaxed64(p *uint64, v uint64) { Store64(p, v) }

// Load32 reads *p with a fetch-and-add of zero.
func Load32(p *uint32) uint32 { return atomic.AddUint32(p, 0) }

// Store32 writes *p with an exchange whose result is dropped.
func Store32(p *uint32, v uint32) { atomic.SwapUint32(p, v) }

func Load64(p *uint64) uint64     { return atomic.AddUint64(p, 0) }
func Store64(p *uint64, v uint64) { atomic.SwapUint64(p, v) }

func Add32(p *uint32, delta uint32) (old uint32) {
	return atomic.AddUint32(p, delta) - delta
}

func Add64(p *uint64, delta uint64) (old uint64) {
	return atomic.AddUint64(p, delta) - delta
}

func Swap32(p *uint32, v uint32) (old uint32) { return atomic.SwapUint32(p, v) }
func Swap64(p *uint64, v uint64) (old uint64) { return atomic.SwapUint64(p, v) }

// CompareExchange32 has value-compare-and-swap semantics: it returns the
// value it found in *p, which equals old exactly when the swap happened.
func CompareExchange32(p *uint32, old, new uint32) (actual uint32, swapped bool) {
	for {
		cur := atomic.AddUint32(p, 0)
		if cur != old {
			return cur, false
		}
		if atomic.CompareAndSwapUint32(p, old, new) {
			return old, true
		}
	}
}

func CompareExchange64(p *uint64, old, new uint64) (actual uint64, swapped bool) {
	for {
		cur := atomic.AddUint64(p, 0)
		if cur != old {
			return cur, false
		}
		if atomic.CompareAndSwapUint64(p, old, new) {
			return old, true
		}
	}
}
