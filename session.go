package main

import (
	"context"
	"fmt"
	"log/slog"

	"vhours/internal/config"
)

// StateStore is a flat string key/value store. Repo (sqlite) and
// RedisStore implement it.
type StateStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

const (
	stateSchemaVersion = "v1"

	keySchemaVersion     = "schema_version"
	keyRulesShown        = "v1.rules_shown"
	keySelectedVolunteer = "v1.selected_volunteer"
	keyActiveTab         = "v1.active_tab"
)

// keys written before the store was versioned
var legacyKeys = map[string]string{
	"rulesShown":            keyRulesShown,
	"lastSelectedVolunteer": keySelectedVolunteer,
}

// Session holds the values that survive between runs: the rules flag, the
// selected volunteer (shared by every volunteer dropdown) and the active tab.
type Session struct {
	store StateStore
	log   *slog.Logger
}

func OpenStateStore(ctx context.Context, cfg config.State) (StateStore, error) {
	switch cfg.Backend {
	case "redis":
		store, err := NewRedisStore(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "sqlite", "":
		repo, err := NewRepo(cfg.Path)
		if err != nil {
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown state backend %q", cfg.Backend)
	}
}

func NewSession(ctx context.Context, store StateStore, log *slog.Logger) (*Session, error) {
	s := &Session{store: store, log: log}
	if err := s.migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to migrate session store: %w", err)
	}
	return s, nil
}

// migrate copies legacy unversioned keys to their v1 names once.
func (s *Session) migrate(ctx context.Context) error {
	version, _, err := s.store.Get(ctx, keySchemaVersion)
	if err != nil {
		return err
	}
	if version == stateSchemaVersion {
		return nil
	}

	for legacy, current := range legacyKeys {
		value, ok, err := s.store.Get(ctx, legacy)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if _, exists, err := s.store.Get(ctx, current); err != nil {
			return err
		} else if !exists {
			if err := s.store.Set(ctx, current, value); err != nil {
				return err
			}
		}
		if err := s.store.Delete(ctx, legacy); err != nil {
			return err
		}
		s.log.Debug("migrated legacy session key", "from", legacy, "to", current)
	}

	return s.store.Set(ctx, keySchemaVersion, stateSchemaVersion)
}

func (s *Session) RulesShown(ctx context.Context) (bool, error) {
	value, _, err := s.store.Get(ctx, keyRulesShown)
	if err != nil {
		return false, err
	}
	return value == "true", nil
}

func (s *Session) MarkRulesShown(ctx context.Context) error {
	return s.store.Set(ctx, keyRulesShown, "true")
}

func (s *Session) SelectedVolunteer(ctx context.Context) (string, error) {
	value, _, err := s.store.Get(ctx, keySelectedVolunteer)
	return value, err
}

// SetSelectedVolunteer stores id; an empty id clears the selection.
func (s *Session) SetSelectedVolunteer(ctx context.Context, id string) error {
	if id == "" {
		return s.store.Delete(ctx, keySelectedVolunteer)
	}
	return s.store.Set(ctx, keySelectedVolunteer, id)
}

func (s *Session) ActiveTab(ctx context.Context) (TabID, error) {
	value, _, err := s.store.Get(ctx, keyActiveTab)
	return TabID(value), err
}

func (s *Session) SetActiveTab(ctx context.Context, id TabID) error {
	return s.store.Set(ctx, keyActiveTab, string(id))
}
