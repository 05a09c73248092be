package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"vhours/internal/config"
)

var fixedNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memStore is an in-memory StateStore.
type memStore struct {
	mu     sync.Mutex
	values map[string]string
	setErr error
}

func newMemStore(seed map[string]string) *memStore {
	s := &memStore{values: make(map[string]string)}
	for k, v := range seed {
		s.values[k] = v
	}
	return s
}

func (s *memStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *memStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.values[key] = value
	return nil
}

func (s *memStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

func (s *memStore) Close() error { return nil }

func (s *memStore) value(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// fakeBackend serves the volunteer hours REST surface from memory.
type fakeBackend struct {
	mu      sync.Mutex
	users   []Volunteer
	entries []HoursEntry
	stats   map[string]VolunteerStats
	health  HealthReport

	// failWith maps "METHOD /path" to a status answered with {"error": "boom"}
	failWith map[string]int
	hits     map[string]int
	headers  []http.Header
	nextID   int64
}

func newFakeBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	t.Helper()

	b := &fakeBackend{
		stats:    make(map[string]VolunteerStats),
		failWith: make(map[string]int),
		hits:     make(map[string]int),
		nextID:   100,
		health:   HealthReport{Status: HealthHealthy, Version: "1.2.3", Environment: "test", Timestamp: fixedNow.Format(time.RFC3339)},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /volunteer_hours/users", b.listUsers)
	mux.HandleFunc("POST /volunteer_hours/users", b.createUser)
	mux.HandleFunc("POST /volunteer_hours/{$}", b.logHours)
	mux.HandleFunc("GET /volunteer_hours/all", b.listEntries)
	mux.HandleFunc("GET /volunteer_hours/view/{id}", b.viewStats)
	mux.HandleFunc("PUT /volunteer_hours/edit/{id}", b.editEntry)
	mux.HandleFunc("POST /volunteer_hours/delete/{id}", b.deleteEntry)
	mux.HandleFunc("GET /healthcheck", b.healthcheck)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path

		b.mu.Lock()
		b.hits[key]++
		b.headers = append(b.headers, r.Header.Clone())
		status, fail := b.failWith[key]
		b.mu.Unlock()

		if fail {
			writeJSON(w, status, map[string]string{"error": "boom"})
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	return b, srv
}

func (b *fakeBackend) hitCount(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[key]
}

func (b *fakeBackend) header(i int) http.Header {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.headers[i]
}

func (b *fakeBackend) listUsers(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	users := make([]Volunteer, 0, len(b.users))
	for _, u := range b.users {
		users = append(users, Volunteer{ID: u.ID, Name: u.Name})
	}
	writeJSON(w, http.StatusOK, users)
}

func (b *fakeBackend) createUser(w http.ResponseWriter, r *http.Request) {
	var req CreateVolunteerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad json"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	v := Volunteer{ID: b.nextID, Name: req.Name, Email: req.Email, Phone: req.Phone}
	b.users = append(b.users, v)
	writeJSON(w, http.StatusCreated, v)
}

func (b *fakeBackend) logHours(w http.ResponseWriter, r *http.Request) {
	var req LogHoursRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad json"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	e := HoursEntry{ID: b.nextID, UserID: req.UserID, Date: req.Date, Hours: req.Hours, Notes: req.Notes}
	for _, u := range b.users {
		if u.ID == req.UserID {
			e.Name = u.Name
		}
	}
	b.entries = append(b.entries, e)
	writeJSON(w, http.StatusCreated, e)
}

func (b *fakeBackend) listEntries(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, append([]HoursEntry{}, b.entries...))
}

func (b *fakeBackend) viewStats(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	stats, ok := b.stats[r.PathValue("id")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Volunteer not found"})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (b *fakeBackend) editEntry(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	var req UpdateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad json"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for i, e := range b.entries {
		if e.ID == id {
			b.entries[i].Date = req.Date
			b.entries[i].Hours = req.Hours
			b.entries[i].Notes = req.Notes
			writeJSON(w, http.StatusOK, b.entries[i])
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "Entry not found"})
}

func (b *fakeBackend) deleteEntry(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)

	b.mu.Lock()
	defer b.mu.Unlock()
	for i, e := range b.entries {
		if e.ID == id {
			b.entries = append(b.entries[:i], b.entries[i+1:]...)
			writeJSON(w, http.StatusOK, MessageResponse{Message: "Entry deleted"})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "Entry not found"})
}

func (b *fakeBackend) healthcheck(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	w.Header().Set("X-Cache", "MISS")
	writeJSON(w, http.StatusOK, b.health)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type testApp struct {
	*App
	out   *bytes.Buffer
	store *memStore
}

type testAppOption func(*AppOptions)

func newTestApp(t *testing.T, backendURL string, store *memStore, opts ...testAppOption) *testApp {
	t.Helper()

	if store == nil {
		store = newMemStore(nil)
	}
	out := &bytes.Buffer{}
	o := AppOptions{
		Config: config.Config{
			Env:                "dev",
			BackendURL:         backendURL,
			HTTPTimeout:        5 * time.Second,
			HealthInterval:     time.Minute,
			StatusPageInterval: 30 * time.Second,
		},
		Logger:   discardLogger(),
		Store:    store,
		In:       bytes.NewReader(nil),
		Out:      out,
		Clock:    fixedClock,
		Registry: prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	a, err := NewApp(context.Background(), o)
	if err != nil {
		t.Fatalf("NewApp error: %v", err)
	}
	t.Cleanup(a.Close)

	return &testApp{App: a, out: out, store: store}
}
