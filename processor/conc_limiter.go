package processor

import (
	"sync"
)

// ConcLimiter bounds the number of goroutines a pipeline stage or
// a concurrent transformation run keeps in flight.
type ConcLimiter struct {
	*sync.WaitGroup
	Pool chan struct{}
}

func (c *ConcLimiter) Increase() {
	c.Add(1)
	c.Pool <- struct{}{}
}

func (c *ConcLimiter) Decrease() {
	select {
	case <-c.Pool:
		c.Done()
	default:
	}
}

// Go runs f on its own goroutine once a slot frees up and releases
// the slot when f returns.
func (c *ConcLimiter) Go(f func()) {
	c.Increase()
	go func() {
		defer c.Decrease()
		f()
	}()
}

func NewConcLimiter(cLevel int) *ConcLimiter {
	var wg sync.WaitGroup
	return &ConcLimiter{&wg, make(chan struct{}, cLevel)}
}
