package main

import (
	"net/http"
	"sync"
)

type CounterSnapshot struct {
	Total   uint64
	Success uint64
	Failed  uint64
	Post    uint64
}

// RequestCounters tallies every request the APIClient sends. A request is
// counted exactly once as success or failed, so Total == Success + Failed
// holds for every snapshot.
type RequestCounters struct {
	mu        sync.Mutex
	snap      CounterSnapshot
	observers map[int]func(CounterSnapshot)
	nextID    int
}

func NewRequestCounters() *RequestCounters {
	return &RequestCounters{observers: make(map[int]func(CounterSnapshot))}
}

func (c *RequestCounters) Record(method string, ok bool) {
	c.mu.Lock()
	c.snap.Total++
	if ok {
		c.snap.Success++
	} else {
		c.snap.Failed++
	}
	if isMutating(method) {
		c.snap.Post++
	}
	snap := c.snap
	observers := make([]func(CounterSnapshot), 0, len(c.observers))
	for _, fn := range c.observers {
		observers = append(observers, fn)
	}
	c.mu.Unlock()

	for _, fn := range observers {
		fn(snap)
	}
}

func (c *RequestCounters) Snapshot() CounterSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// Subscribe registers fn to receive every new snapshot and immediately
// delivers the current one. The returned func removes the subscription.
func (c *RequestCounters) Subscribe(fn func(CounterSnapshot)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.observers[id] = fn
	snap := c.snap
	c.mu.Unlock()

	fn(snap)

	return func() {
		c.mu.Lock()
		delete(c.observers, id)
		c.mu.Unlock()
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}
