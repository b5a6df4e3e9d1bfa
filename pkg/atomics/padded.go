package atomics

import "golang.org/x/sys/cpu"

// PaddedInt is an Int that fills its own cache line, for counters that sit
// next to each other in a slice and are written by different goroutines.
type PaddedInt[T Integer] struct {
	Int[T]
	_ cpu.CacheLinePad
}
