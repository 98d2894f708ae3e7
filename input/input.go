// Package input delivers the operator's button presses to the state machine.
package input

import (
	"context"
	"fmt"
	"sync"
)

// Event is a debounced rising edge of one of the controls.
type Event int

const (
	RecordToggle Event = iota
	ReplayStart
	ScanStart
	AttackStart
	// ShutdownGesture is a source side detected SCAN+RECORD combination.
	// Sources reporting raw edges send ScanStart, RecordToggle instead.
	ShutdownGesture
	// Abort cancels the running radio phase
	Abort
)

func (e Event) String() string {
	switch e {
	case RecordToggle:
		return "RECORD"
	case ReplayStart:
		return "REPLAY"
	case ScanStart:
		return "SCAN"
	case AttackStart:
		return "ATTACK"
	case ShutdownGesture:
		return "SHUTDOWN"
	case Abort:
		return "ABORT"
	default:
		return fmt.Sprintf("EVENT(%d)", int(e))
	}
}

// Source produces events until it is closed. The channel returned by Events
// is closed by Close.
type Source interface {
	Events() <-chan Event
	Close() error
}

// Chan is a Source fed by Send.
type Chan struct {
	ch   chan Event
	done chan struct{}

	mu      sync.Mutex
	closed  bool
	senders sync.WaitGroup
}

func NewChan(size int) *Chan {
	return &Chan{ch: make(chan Event, size), done: make(chan struct{})}
}

func (c *Chan) Events() <-chan Event {
	return c.ch
}

// Send queues ev, blocking while the buffer is full. It reports false if the
// source is closed before ev could be queued.
func (c *Chan) Send(ev Event) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	c.senders.Add(1)
	c.mu.Unlock()
	defer c.senders.Done()

	select {
	case c.ch <- ev:
		return true
	case <-c.done:
		return false
	}
}

// Close releases blocked senders, then closes the event channel. Events
// already buffered can still be read.
func (c *Chan) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	c.mu.Unlock()

	c.senders.Wait()
	close(c.ch)
	return nil
}

// closeOnDone closes c once ctx is done.
func (c *Chan) closeOnDone(ctx context.Context) {
	go func() {
		select {
		case <-ctx.Done():
			c.Close()
		case <-c.done:
		}
	}()
}
