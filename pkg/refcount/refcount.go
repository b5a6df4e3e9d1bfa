// Package refcount provides an atomic reference count for shared-ownership
// lifetime tracking.
package refcount

import "github.com/srediag/atomics/pkg/atomics"

// RefCount counts the live owners of a resource defined by the caller.
//
// The owner whose Decrement returns 0 is the only one that may destroy the
// resource. Decrementing a count that is already 0 is a caller bug and is
// not detected.
type RefCount struct {
	c atomics.Int[uint32]
}

// New returns a count initialized to v.
func New(v uint32) *RefCount {
	r := new(RefCount)
	r.Init(v)
	return r
}

// Init sets the count before any other goroutine can observe it.
func (r *RefCount) Init(v uint32) { r.c.UnsafeStore(v) }

// Read returns the current count.
func (r *RefCount) Read() uint32 { return r.c.Load() }

// Increment adds an owner and returns the new count; 1 means the caller is
// the first owner.
func (r *RefCount) Increment() uint32 { return r.c.FetchAdd(1) + 1 }

// Decrement drops an owner and returns the new count; 0 means the caller was
// the last owner.
func (r *RefCount) Decrement() uint32 { return r.c.FetchSub(1) - 1 }

// Exchange replaces the count and returns the previous one.
func (r *RefCount) Exchange(v uint32) uint32 { return r.c.Exchange(v) }

// CompareExchange sets the count to new if it is old. It returns the count
// it found, which equals old exactly when the swap happened.
func (r *RefCount) CompareExchange(old, new uint32) uint32 {
	r.c.CompareExchange(&old, new)
	return old
}

// IncrementIfNonZero adds an owner unless the count has already reached 0,
// in which case the resource may be mid-destruction and must not be
// revived. It returns the new count and whether an owner was added.
func (r *RefCount) IncrementIfNonZero() (uint32, bool) {
	cur := r.c.Load()
	for cur != 0 {
		if r.c.CompareExchange(&cur, cur+1) {
			return cur + 1, true
		}
	}
	return 0, false
}
