package backend

import (
	"sync/atomic"
	"unsafe"
)

// Pointer-sized values that are Go pointers need the runtime's write
// barriers, which only the sync/atomic pointer functions emit. All backends
// share these.

func LoadRelaxedPointer(p *unsafe.Pointer) unsafe.Pointer     { return *p }
func StoreRelaxedPointer(p *unsafe.Pointer, v unsafe.Pointer) { *p = v }

func LoadPointer(p *unsafe.Pointer) unsafe.Pointer     { return atomic.LoadPointer(p) }
func StorePointer(p *unsafe.Pointer, v unsafe.Pointer) { atomic.StorePointer(p, v) }

func SwapPointer(p *unsafe.Pointer, v unsafe.Pointer) (old unsafe.Pointer) {
	return atomic.SwapPointer(p, v)
}

func CompareExchangePointer(p *unsafe.Pointer, old, new unsafe.Pointer) (actual unsafe.Pointer, swapped bool) {
	for {
		if atomic.CompareAndSwapPointer(p, old, new) {
			return old, true
		}
		if cur := atomic.LoadPointer(p); cur != old {
			return cur, false
		}
	}
}
