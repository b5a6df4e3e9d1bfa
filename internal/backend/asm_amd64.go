//go:build atomics_asm && !atomics_intrinsic && !atomics_interlocked

package backend

// Name identifies the compiled backend.
const Name = "asm"

const relaxedDistinct = true

// x86-64 is TSO: a plain MOV load is an acquire and a plain MOV store is a
// release. The assembly call itself keeps the compiler from moving memory
// accesses across it. LOCK-prefixed read-modify-writes are full barriers.
var orders = [numOps]Order{
	OpUnsafeLoad:      Relaxed,
	OpUnsafeStore:     Relaxed,
	OpLoad:            Acquire,
	OpStore:           Release,
	OpFetchAdd:        SeqCst,
	OpExchange:        SeqCst,
	OpCompareExchange: SeqCst,
}

func LoadRelaxed32(p *uint32) uint32     { return *p }
func StoreRelaxed32(p *uint32, v uint32) { *p = v }
func LoadRelaxed64(p *uint64) uint64     { return *p }
func StoreRelaxed64(p *uint64, v uint64) { *p = v }

//go:noescape
func Load32(p *uint32) uint32

//go:noescape
func Store32(p *uint32, v uint32)

//go:noescape
func Load64(p *uint64) uint64

//go:noescape
func Store64(p *uint64, v uint64)

// Add32 is LOCK XADDL.
//
//go:noescape
func Add32(p *uint32, delta uint32) (old uint32)

// Add64 is LOCK XADDQ.
//
//go:noescape
func Add64(p *uint64, delta uint64) (old uint64)

// Swap32 is XCHGL, which asserts LOCK implicitly.
//
//go:noescape
func Swap32(p *uint32, v uint32) (old uint32)

//go:noescape
func Swap64(p *uint64, v uint64) (old uint64)

// CompareExchange32 is LOCK CMPXCHGL. The instruction leaves the value it
// compared against in AX, which is returned as actual.
//
//go:noescape
func CompareExchange32(p *uint32, old, new uint32) (actual uint32, swapped bool)

//go:noescape
func CompareExchange64(p *uint64, old, new uint64) (actual uint64, swapped bool)
