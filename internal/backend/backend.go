// Package backend contains the fixed-width atomic primitives the cell types
// are built on.
//
// Exactly one implementation is compiled into a build, picked by build tags:
//
//	(none)               native      sync/atomic
//	atomics_intrinsic    intrinsic   exchange, CAS and fetch-add only
//	atomics_asm          asm         LOCK-prefixed amd64 instructions
//	atomics_interlocked  interlocked LONG/LONGLONG interlocked adapters (windows)
//
// Every implementation provides the same functions with the same results:
// Add and Swap return the value held before the operation, and
// CompareExchange returns the value the comparison observed.
package backend

import "fmt"

// Order is the memory ordering an operation provides.
type Order uint8

const (
	Relaxed Order = iota
	Acquire
	Release
	AcqRel
	SeqCst
)

func (o Order) String() string {
	switch o {
	case Relaxed:
		return "relaxed"
	case Acquire:
		return "acquire"
	case Release:
		return "release"
	case AcqRel:
		return "acq_rel"
	case SeqCst:
		return "seq_cst"
	}
	return fmt.Sprintf("Order(%d)", uint8(o))
}

// Op names a primitive operation.
type Op uint8

const (
	OpUnsafeLoad Op = iota
	OpUnsafeStore
	OpLoad
	OpStore
	OpFetchAdd
	OpExchange
	OpCompareExchange
	numOps
)

var opNames = [numOps]string{
	OpUnsafeLoad:      "unsafe-load",
	OpUnsafeStore:     "unsafe-store",
	OpLoad:            "load",
	OpStore:           "store",
	OpFetchAdd:        "fetch-add",
	OpExchange:        "exchange",
	OpCompareExchange: "compare-exchange",
}

func (op Op) String() string {
	if op < numOps {
		return opNames[op]
	}
	return fmt.Sprintf("Op(%d)", uint8(op))
}

// Ops lists every operation in declaration order.
func Ops() []Op {
	ops := make([]Op, 0, numOps)
	for op := Op(0); op < numOps; op++ {
		ops = append(ops, op)
	}
	return ops
}

// Info describes the backend compiled into this build.
type Info struct {
	Name string
	// RelaxedDistinct is false when the unsafe accessors are the ordered
	// accessors under another name.
	RelaxedDistinct bool
	// Widths lists the operand sizes in bytes every operation accepts.
	Widths []int
	Orders [numOps]Order
}

// OrderOf returns the ordering op provides under this backend.
func (i Info) OrderOf(op Op) Order {
	if op >= numOps {
		return Relaxed
	}
	return i.Orders[op]
}

// Describe returns the description of the compiled backend.
func Describe() Info {
	return Info{
		Name:            Name,
		RelaxedDistinct: relaxedDistinct,
		Widths:          []int{4, 8},
		Orders:          orders,
	}
}
