package backend

import (
	"math"
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type BackendTestSuite struct {
	suite.Suite
}

func (s *BackendTestSuite) TestAddReturnsPrevious() {
	var v32 uint32 = 5
	s.Equal(uint32(5), Add32(&v32, 3))
	s.Equal(uint32(8), Load32(&v32))
	s.Equal(uint32(8), Add32(&v32, ^uint32(0)))
	s.Equal(uint32(7), Load32(&v32))

	var v64 uint64 = math.MaxUint32
	s.Equal(uint64(math.MaxUint32), Add64(&v64, 1))
	s.Equal(uint64(math.MaxUint32+1), Load64(&v64))
}

func (s *BackendTestSuite) TestSwapReturnsPrevious() {
	var v32 uint32 = 1
	s.Equal(uint32(1), Swap32(&v32, 2))
	s.Equal(uint32(2), Load32(&v32))

	var v64 uint64 = 1 << 40
	s.Equal(uint64(1<<40), Swap64(&v64, 7))
	s.Equal(uint64(7), Load64(&v64))
}

func (s *BackendTestSuite) TestCompareExchange() {
	var v32 uint32 = 10
	actual, ok := CompareExchange32(&v32, 10, 11)
	s.True(ok)
	s.Equal(uint32(10), actual)
	s.Equal(uint32(11), Load32(&v32))

	actual, ok = CompareExchange32(&v32, 10, 12)
	s.False(ok)
	s.Equal(uint32(11), actual)
	s.Equal(uint32(11), Load32(&v32))

	var v64 uint64 = 1 << 50
	actual64, ok := CompareExchange64(&v64, 3, 4)
	s.False(ok)
	s.Equal(uint64(1<<50), actual64)
	actual64, ok = CompareExchange64(&v64, 1<<50, 4)
	s.True(ok)
	s.Equal(uint64(1<<50), actual64)
	s.Equal(uint64(4), Load64(&v64))
}

func (s *BackendTestSuite) TestStoreAndRelaxed() {
	var v32 uint32
	StoreRelaxed32(&v32, 9)
	s.Equal(uint32(9), LoadRelaxed32(&v32))
	Store32(&v32, 10)
	s.Equal(uint32(10), Load32(&v32))

	var v64 uint64
	StoreRelaxed64(&v64, 1<<63)
	s.Equal(uint64(1<<63), LoadRelaxed64(&v64))
	Store64(&v64, 2)
	s.Equal(uint64(2), Load64(&v64))
}

func (s *BackendTestSuite) TestPointer() {
	a, b := new(int), new(int)
	var p unsafe.Pointer
	StoreRelaxedPointer(&p, unsafe.Pointer(a))
	s.Equal(unsafe.Pointer(a), LoadRelaxedPointer(&p))

	s.Equal(unsafe.Pointer(a), SwapPointer(&p, unsafe.Pointer(b)))
	s.Equal(unsafe.Pointer(b), LoadPointer(&p))

	actual, ok := CompareExchangePointer(&p, unsafe.Pointer(a), nil)
	s.False(ok)
	s.Equal(unsafe.Pointer(b), actual)

	actual, ok = CompareExchangePointer(&p, unsafe.Pointer(b), nil)
	s.True(ok)
	s.Equal(unsafe.Pointer(b), actual)
	s.Nil(LoadPointer(&p))

	StorePointer(&p, unsafe.Pointer(a))
	s.Equal(unsafe.Pointer(a), LoadPointer(&p))
}

func (s *BackendTestSuite) TestConcurrentAdd() {
	const workers, iterations = 8, 10000
	var v32 uint32
	var v64 uint64
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				Add32(&v32, 1)
				Add64(&v64, 1)
			}
		}()
	}
	wg.Wait()
	s.Equal(uint32(workers*iterations), Load32(&v32))
	s.Equal(uint64(workers*iterations), Load64(&v64))
}

func (s *BackendTestSuite) TestConcurrentCompareExchangeCounter() {
	const workers, iterations = 8, 2000
	var v uint32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				cur := Load32(&v)
				for {
					actual, ok := CompareExchange32(&v, cur, cur+1)
					if ok {
						break
					}
					cur = actual
				}
			}
		}()
	}
	wg.Wait()
	s.Equal(uint32(workers*iterations), Load32(&v))
}

func TestBackendTestSuite(t *testing.T) {
	suite.Run(t, new(BackendTestSuite))
}

func TestDescribe(t *testing.T) {
	info := Describe()
	assert.Equal(t, Name, info.Name)
	assert.Equal(t, []int{4, 8}, info.Widths)
	for _, op := range []Op{OpFetchAdd, OpExchange, OpCompareExchange} {
		assert.Equal(t, SeqCst, info.OrderOf(op), op.String())
	}
	assert.GreaterOrEqual(t, info.OrderOf(OpLoad), Acquire)
	assert.NotEqual(t, Relaxed, info.OrderOf(OpStore))
	if !info.RelaxedDistinct {
		assert.Equal(t, info.OrderOf(OpLoad), info.OrderOf(OpUnsafeLoad))
	}
	assert.Len(t, Ops(), int(numOps))
	assert.Equal(t, "compare-exchange", OpCompareExchange.String())
	assert.Equal(t, "seq_cst", SeqCst.String())
	assert.Equal(t, "Order(42)", Order(42).String())
}
