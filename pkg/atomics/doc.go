// Package atomics provides atomic cells over 4- and 8-byte scalars and
// pointers, built on whichever atomic backend the binary was compiled with.
//
// Select a backend with build tags; the default is sync/atomic:
//
//	go build                            # native
//	go build -tags atomics_intrinsic    # exchange/CAS/fetch-add only
//	go build -tags atomics_asm          # amd64 LOCK-prefixed assembly
//	go build -tags atomics_interlocked  # windows interlocked adapters
//
// A cell must be given its initial value before it is shared:
//
//	var hits atomics.Int[uint64]
//	hits.Init(0)
//	// publish &hits to other goroutines
//	prev := hits.FetchAdd(1)
//
// Exchange, FetchAdd and FetchSub return the value held before the
// operation. CompareExchange is the strong form: it never fails when the
// values match, and on failure it writes the value it observed back into
// the caller's expected slot.
package atomics
