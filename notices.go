package main

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"
)

// notices disappear this long after being shown
const noticeTTL = 5 * time.Second

type NoticeKind int

const (
	NoticeSuccess NoticeKind = iota
	NoticeError
)

type Notice struct {
	Slot    string
	Kind    NoticeKind
	Text    string
	ShownAt time.Time
}

func (n Notice) Visible(now time.Time) bool {
	return now.Sub(n.ShownAt) < noticeTTL
}

// Notices keeps the latest message per slot (e.g. "logHoursError") and
// echoes each one to out as it is shown.
type Notices struct {
	mu    sync.Mutex
	items map[string]Notice
	clock func() time.Time
	out   io.Writer
}

func NewNotices(out io.Writer, clock func() time.Time) *Notices {
	return &Notices{items: make(map[string]Notice), clock: clock, out: out}
}

func (n *Notices) Success(slot, text string) {
	n.show(slot, NoticeSuccess, text)
}

func (n *Notices) Error(slot, text string) {
	n.show(slot, NoticeError, text)
}

func (n *Notices) show(slot string, kind NoticeKind, text string) {
	n.mu.Lock()
	n.items[slot] = Notice{Slot: slot, Kind: kind, Text: text, ShownAt: n.clock()}
	n.mu.Unlock()

	mark := "✔"
	if kind == NoticeError {
		mark = "✖"
	}
	fmt.Fprintf(n.out, "%s %s\n", mark, text)
}

// Visible returns the notices still inside their display window, by slot.
func (n *Notices) Visible() []Notice {
	now := n.clock()

	n.mu.Lock()
	defer n.mu.Unlock()

	var visible []Notice
	for slot, item := range n.items {
		if item.Visible(now) {
			visible = append(visible, item)
		} else {
			delete(n.items, slot)
		}
	}
	sort.Slice(visible, func(i, j int) bool { return visible[i].Slot < visible[j].Slot })
	return visible
}
