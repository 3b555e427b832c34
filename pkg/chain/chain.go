// Package chain runs an ordered list of steps one at a time. Each step decides
// when the next one starts by calling Next, which keeps multi-step operations
// (lookup, hash, persist) flat instead of nested.
//
// Several goroutines may call Next for the same step. Pause(n) absorbs the next
// n calls, so a step that fans out n+1 branches continues exactly once, after
// the last branch reports in.
package chain

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrChainExhausted is reported when Next is called after the last step.
var ErrChainExhausted = errors.New("chain: next called after the last step")

// Step is a single link of a chain. The arguments are whatever the previous
// step passed to Next.
type Step func(args ...any)

// PanicError wraps a value recovered from a panicking step.
type PanicError struct {
	Step  int
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("chain: step %d panicked: %v", e.Step, e.Value)
}

// Chain sequences steps. The zero value is not usable, use New.
type Chain struct {
	mu       sync.Mutex
	steps    []Step
	index    int
	pauseAmt int

	once   sync.Once
	done   chan struct{}
	result any
	err    error
}

// New returns an empty chain with the cursor before the first step.
func New() *Chain {
	return &Chain{
		index: -1,
		done:  make(chan struct{}),
	}
}

// Run installs steps, starts the first one and blocks until a step calls
// Succeed or Fail, or until ctx is done.
func (c *Chain) Run(ctx context.Context, steps ...Step) (any, error) {
	c.mu.Lock()
	c.steps = steps
	c.mu.Unlock()

	if len(steps) == 0 {
		c.Succeed(nil)
	} else {
		c.Next()
	}

	select {
	case <-c.done:
		return c.result, c.err
	case <-ctx.Done():
		c.Fail(ctx.Err())
		<-c.done
		return c.result, c.err
	}
}

// Pause makes the next amt calls to Next return without progressing.
func (c *Chain) Pause(amt int) {
	c.mu.Lock()
	c.pauseAmt += amt
	c.mu.Unlock()
}

// Resume removes any pending pauses.
func (c *Chain) Resume() {
	c.mu.Lock()
	c.pauseAmt = 0
	c.mu.Unlock()
}

// Next proceeds to the following step, passing args to it. While paused it
// only decrements the pause counter and returns the remaining amount; it
// returns 0 when it actually advanced.
func (c *Chain) Next(args ...any) int {
	c.mu.Lock()
	if c.Finished() {
		c.mu.Unlock()
		return 0
	}
	if c.pauseAmt > 0 {
		c.pauseAmt--
		remaining := c.pauseAmt
		c.mu.Unlock()
		return remaining
	}

	c.index++
	if c.index >= len(c.steps) {
		c.mu.Unlock()
		c.Fail(ErrChainExhausted)
		return 0
	}
	index, step := c.index, c.steps[c.index]
	c.mu.Unlock()

	c.invoke(index, step, args)
	return 0
}

// Index reports the cursor position, -1 before the first step.
func (c *Chain) Index() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

// Paused reports the current pause counter.
func (c *Chain) Paused() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pauseAmt
}

// Succeed ends the chain with result. Only the first outcome is kept.
func (c *Chain) Succeed(result any) {
	c.once.Do(func() {
		c.result = result
		close(c.done)
	})
}

// Fail ends the chain with err. Only the first outcome is kept.
func (c *Chain) Fail(err error) {
	c.once.Do(func() {
		c.err = err
		close(c.done)
	})
}

// Finished reports whether an outcome has been recorded.
func (c *Chain) Finished() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *Chain) invoke(index int, step Step, args []any) {
	defer func() {
		if r := recover(); r != nil {
			c.Fail(&PanicError{Step: index, Value: r})
		}
	}()
	step(args...)
}
