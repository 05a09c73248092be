package main

import (
	"net/http"
	"sync"
	"testing"
)

func TestRequestCounters_Record(t *testing.T) {
	c := NewRequestCounters()

	c.Record(http.MethodGet, true)
	c.Record(http.MethodPost, false)
	c.Record(http.MethodPut, true)
	c.Record(http.MethodGet, false)

	got := c.Snapshot()
	want := CounterSnapshot{Total: 4, Success: 2, Failed: 2, Post: 2}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestRequestCounters_SubscribeDeliversCurrentAndUpdates(t *testing.T) {
	c := NewRequestCounters()
	c.Record(http.MethodGet, true)

	var seen []CounterSnapshot
	unsubscribe := c.Subscribe(func(s CounterSnapshot) { seen = append(seen, s) })

	c.Record(http.MethodPost, true)
	unsubscribe()
	c.Record(http.MethodPost, true)

	if len(seen) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(seen))
	}
	if seen[0].Total != 1 || seen[1].Total != 2 || seen[1].Post != 1 {
		t.Fatalf("unexpected deliveries %+v", seen)
	}
}

func TestRequestCounters_ConcurrentRecordsBalance(t *testing.T) {
	c := NewRequestCounters()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Record(http.MethodGet, i%3 != 0)
		}(i)
	}
	wg.Wait()

	s := c.Snapshot()
	if s.Total != 50 || s.Total != s.Success+s.Failed {
		t.Fatalf("unbalanced counters %+v", s)
	}
}
