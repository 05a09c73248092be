package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

type TabID string

const (
	TabLogHours     TabID = "log-hours"
	TabCreateUser   TabID = "create-user"
	TabViewHours    TabID = "view-hours"
	TabUserStats    TabID = "user-stats"
	TabRules        TabID = "rules"
	TabConfirmation TabID = "registration-confirmation"
)

// tabOrder drives transition direction; position matters.
var tabOrder = []TabID{
	TabLogHours,
	TabCreateUser,
	TabViewHours,
	TabUserStats,
	TabRules,
	TabConfirmation,
}

var tabTitles = map[TabID]string{
	TabLogHours:     "Log Hours",
	TabCreateUser:   "New Volunteer",
	TabViewHours:    "View Hours",
	TabUserStats:    "Volunteer Stats",
	TabRules:        "Rules",
	TabConfirmation: "Registration Confirmed",
}

var (
	ErrNoControl  = errors.New("tab has no navigation control")
	ErrUnknownTab = errors.New("unknown tab")
)

type Direction int

const (
	DirectionNone Direction = iota
	DirectionForward
	DirectionBackward
)

func (d Direction) String() string {
	switch d {
	case DirectionForward:
		return "forward"
	case DirectionBackward:
		return "backward"
	default:
		return "none"
	}
}

type Transition struct {
	From      TabID
	To        TabID
	Direction Direction
}

// TabLoader fills a tab with content each time it becomes active.
type TabLoader func(ctx context.Context) error

// Fragment remembers the active tab outside the process.
type Fragment interface {
	SetActiveTab(ctx context.Context, id TabID) error
}

type TabManager struct {
	order    []TabID
	controls map[TabID]bool
	loaders  map[TabID]TabLoader
	onChange []func(Transition)
	fragment Fragment
	log      *slog.Logger

	current  TabID
	previous TabID
}

func NewTabManager(fragment Fragment, log *slog.Logger) *TabManager {
	m := &TabManager{
		order:    tabOrder,
		controls: make(map[TabID]bool),
		loaders:  make(map[TabID]TabLoader),
		fragment: fragment,
		log:      log,
	}
	for _, id := range tabOrder {
		// the confirmation tab is only ever shown after a registration
		m.controls[id] = id != TabConfirmation
	}
	return m
}

func (m *TabManager) Handle(id TabID, loader TabLoader) {
	m.loaders[id] = loader
}

func (m *TabManager) OnTransition(fn func(Transition)) {
	m.onChange = append(m.onChange, fn)
}

func (m *TabManager) Current() TabID  { return m.current }
func (m *TabManager) Previous() TabID { return m.previous }

func (m *TabManager) Index(id TabID) int {
	for i, t := range m.order {
		if t == id {
			return i
		}
	}
	return -1
}

// Navigable reports whether id can be reached from a navigation control.
func (m *TabManager) Navigable(id TabID) bool {
	return m.controls[id]
}

// Initial picks the tab to open with: the fragment when it names a
// navigable tab, log-hours otherwise.
func (m *TabManager) Initial(fragment string) TabID {
	if id := TabID(fragment); m.Navigable(id) {
		return id
	}
	return TabLogHours
}

// Activate navigates to target as if its control was clicked.
func (m *TabManager) Activate(ctx context.Context, target TabID) (Transition, error) {
	if !m.Navigable(target) {
		m.log.Warn("no navigation control for tab", "tab", target)
		return Transition{}, fmt.Errorf("%w: %s", ErrNoControl, target)
	}
	return m.transition(ctx, target)
}

// Show switches to any known tab, including ones without a control.
func (m *TabManager) Show(ctx context.Context, target TabID) (Transition, error) {
	if m.Index(target) < 0 {
		m.log.Warn("unknown tab", "tab", target)
		return Transition{}, fmt.Errorf("%w: %s", ErrUnknownTab, target)
	}
	return m.transition(ctx, target)
}

func (m *TabManager) transition(ctx context.Context, target TabID) (Transition, error) {
	t := Transition{From: m.current, To: target, Direction: DirectionBackward}
	if m.Index(target) > m.Index(m.current) {
		t.Direction = DirectionForward
	}

	m.previous, m.current = m.current, target

	for _, fn := range m.onChange {
		fn(t)
	}

	if m.fragment != nil {
		if err := m.fragment.SetActiveTab(ctx, target); err != nil {
			m.log.Warn("failed to remember active tab", "tab", target, "err", err)
		}
	}

	m.log.Debug("tab activated", "from", t.From, "to", t.To, "direction", t.Direction)

	if loader := m.loaders[target]; loader != nil {
		if err := loader(ctx); err != nil {
			return t, fmt.Errorf("load %s: %w", target, err)
		}
	}
	return t, nil
}
