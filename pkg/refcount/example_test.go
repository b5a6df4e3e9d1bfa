package refcount_test

import (
	"fmt"
	"sync"

	"github.com/srediag/atomics/pkg/refcount"
)

func ExampleRefCount_Decrement() {
	const owners = 8
	var (
		wg   sync.WaitGroup
		rc   refcount.RefCount
		last = make(chan int, owners)
	)
	rc.Init(owners)
	for i := 0; i < owners; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rc.Decrement() == 0 {
				last <- i
			}
		}()
	}
	wg.Wait()
	close(last)
	fmt.Println(len(last), rc.Read())
	// Output: 1 0
}

func ExampleRefCount_IncrementIfNonZero() {
	rc := refcount.New(1)
	fmt.Println(rc.IncrementIfNonZero())
	rc.Decrement()
	rc.Decrement()
	fmt.Println(rc.IncrementIfNonZero())
	// Output:
	// 2 true
	// 0 false
}
