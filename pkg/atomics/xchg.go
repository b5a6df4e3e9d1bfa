package atomics

import (
	"unsafe"

	"github.com/srediag/atomics/internal/backend"
)

// ExchangeInt32 stores v into *p and returns the previous value.
func ExchangeInt32(p *int32, v int32) int32 {
	return int32(backend.Swap32((*uint32)(unsafe.Pointer(p)), uint32(v)))
}

// CompareExchangeInt32 stores new into *p if it holds old. It returns the
// value it found; the swap happened exactly when that value equals old.
func CompareExchangeInt32(p *int32, old, new int32) int32 {
	actual, _ := backend.CompareExchange32((*uint32)(unsafe.Pointer(p)), uint32(old), uint32(new))
	return int32(actual)
}

// ExchangePointer stores v into *p and returns the previous pointer.
func ExchangePointer(p *unsafe.Pointer, v unsafe.Pointer) unsafe.Pointer {
	return backend.SwapPointer(p, v)
}

// CompareExchangePointer is the pointer form of CompareExchangeInt32.
func CompareExchangePointer(p *unsafe.Pointer, old, new unsafe.Pointer) unsafe.Pointer {
	actual, _ := backend.CompareExchangePointer(p, old, new)
	return actual
}
