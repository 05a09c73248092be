package main

import (
	"context"
	"errors"
	"testing"
)

type recordingFragment struct {
	ids []TabID
	err error
}

func (f *recordingFragment) SetActiveTab(ctx context.Context, id TabID) error {
	f.ids = append(f.ids, id)
	return f.err
}

func TestTabManager_Direction(t *testing.T) {
	tests := []struct {
		name string
		from TabID
		to   TabID
		want Direction
	}{
		{name: "first activation", from: "", to: TabViewHours, want: DirectionForward},
		{name: "later tab", from: TabLogHours, to: TabUserStats, want: DirectionForward},
		{name: "earlier tab", from: TabRules, to: TabCreateUser, want: DirectionBackward},
		{name: "same tab", from: TabRules, to: TabRules, want: DirectionBackward},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewTabManager(nil, discardLogger())
			ctx := context.Background()
			if tt.from != "" {
				if _, err := m.Activate(ctx, tt.from); err != nil {
					t.Fatalf("Activate(%s) error: %v", tt.from, err)
				}
			}

			tr, err := m.Activate(ctx, tt.to)
			if err != nil {
				t.Fatalf("Activate(%s) error: %v", tt.to, err)
			}
			if tr.Direction != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, tr.Direction)
			}
			if m.Current() != tt.to || m.Previous() != tt.from {
				t.Fatalf("expected %s <- %s, got %s <- %s", tt.to, tt.from, m.Current(), m.Previous())
			}
		})
	}
}

func TestTabManager_ConfirmationHasNoControl(t *testing.T) {
	frag := &recordingFragment{}
	m := NewTabManager(frag, discardLogger())
	ctx := context.Background()
	_, _ = m.Activate(ctx, TabLogHours)

	if _, err := m.Activate(ctx, TabConfirmation); !errors.Is(err, ErrNoControl) {
		t.Fatalf("expected ErrNoControl, got %v", err)
	}
	if m.Current() != TabLogHours {
		t.Fatalf("expected no-op, current is %s", m.Current())
	}

	tr, err := m.Show(ctx, TabConfirmation)
	if err != nil {
		t.Fatalf("Show error: %v", err)
	}
	if tr.Direction != DirectionForward || m.Current() != TabConfirmation {
		t.Fatalf("unexpected transition %+v", tr)
	}
}

func TestTabManager_UnknownTab(t *testing.T) {
	m := NewTabManager(nil, discardLogger())

	if _, err := m.Activate(context.Background(), "settings"); !errors.Is(err, ErrNoControl) {
		t.Fatalf("expected ErrNoControl, got %v", err)
	}
	if _, err := m.Show(context.Background(), "settings"); !errors.Is(err, ErrUnknownTab) {
		t.Fatalf("expected ErrUnknownTab, got %v", err)
	}
}

func TestTabManager_PersistsAndLoads(t *testing.T) {
	frag := &recordingFragment{}
	m := NewTabManager(frag, discardLogger())

	var loaded []TabID
	m.Handle(TabViewHours, func(ctx context.Context) error {
		loaded = append(loaded, TabViewHours)
		return nil
	})
	var seen []Transition
	m.OnTransition(func(tr Transition) { seen = append(seen, tr) })

	_, _ = m.Activate(context.Background(), TabViewHours)
	_, _ = m.Activate(context.Background(), TabRules)

	if len(frag.ids) != 2 || frag.ids[0] != TabViewHours || frag.ids[1] != TabRules {
		t.Fatalf("expected both tabs persisted, got %v", frag.ids)
	}
	if len(loaded) != 1 {
		t.Fatalf("expected view-hours loader once, got %d", len(loaded))
	}
	if len(seen) != 2 || seen[1].From != TabViewHours {
		t.Fatalf("unexpected transitions %+v", seen)
	}
}

func TestTabManager_FragmentErrorIsNotFatal(t *testing.T) {
	m := NewTabManager(&recordingFragment{err: errors.New("disk full")}, discardLogger())

	if _, err := m.Activate(context.Background(), TabRules); err != nil {
		t.Fatalf("expected persist failure to be ignored, got %v", err)
	}
}

func TestTabManager_LoaderErrorIsWrapped(t *testing.T) {
	m := NewTabManager(nil, discardLogger())
	boom := errors.New("boom")
	m.Handle(TabUserStats, func(ctx context.Context) error { return boom })

	_, err := m.Activate(context.Background(), TabUserStats)
	if !errors.Is(err, boom) {
		t.Fatalf("expected loader error, got %v", err)
	}
	if m.Current() != TabUserStats {
		t.Fatalf("expected tab switched even when loading fails")
	}
}

func TestTabManager_Initial(t *testing.T) {
	m := NewTabManager(nil, discardLogger())

	tests := map[string]TabID{
		"":                          TabLogHours,
		"view-hours":                TabViewHours,
		"registration-confirmation": TabLogHours,
		"bogus":                     TabLogHours,
	}
	for fragment, want := range tests {
		if got := m.Initial(fragment); got != want {
			t.Fatalf("Initial(%q): expected %s, got %s", fragment, want, got)
		}
	}
}
