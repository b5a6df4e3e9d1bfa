package atomics

import "github.com/srediag/atomics/internal/backend"

type (
	// Order is the memory ordering an operation provides.
	Order = backend.Order
	// Op names a cell operation.
	Op = backend.Op
	// BackendInfo describes the backend compiled into the binary.
	BackendInfo = backend.Info
)

const (
	Relaxed = backend.Relaxed
	Acquire = backend.Acquire
	Release = backend.Release
	AcqRel  = backend.AcqRel
	SeqCst  = backend.SeqCst
)

const (
	OpUnsafeLoad      = backend.OpUnsafeLoad
	OpUnsafeStore     = backend.OpUnsafeStore
	OpLoad            = backend.OpLoad
	OpStore           = backend.OpStore
	OpFetchAdd        = backend.OpFetchAdd
	OpExchange        = backend.OpExchange
	OpCompareExchange = backend.OpCompareExchange
)

// Backend describes the atomic backend selected at build time.
func Backend() BackendInfo { return backend.Describe() }

// Ops lists every cell operation.
func Ops() []Op { return backend.Ops() }
