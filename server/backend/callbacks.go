package backend

import "sync"

// callbacks runs operation callbacks on their own goroutines and lets Close
// wait for them. Unlike a sync.WaitGroup it may be started from while wait
// is blocked, and wait then also waits for the new goroutine.
type callbacks struct {
	mu      sync.Mutex
	idle    *sync.Cond
	running int
}

func newCallbacks() *callbacks {
	c := &callbacks{}
	c.idle = sync.NewCond(&c.mu)

	return c
}

func (c *callbacks) goFunc(fn func()) {
	c.mu.Lock()
	c.running++
	c.mu.Unlock()

	go func() {
		defer c.done()
		fn()
	}()
}

func (c *callbacks) done() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.running--

	if c.running == 0 {
		c.idle.Broadcast()
	}
}

// wait blocks until no callback goroutine is running.
func (c *callbacks) wait() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for c.running > 0 {
		c.idle.Wait()
	}
}
