package testutil

import (
	"context"
	"sync"
	"time"

	"storekit-relay/internal/models"
)

// FakeKV is an in-memory key-value store with a controllable clock, so
// tests can cross TTL boundaries without sleeping.
type FakeKV struct {
	mu      sync.Mutex
	now     time.Time
	entries map[string]fakeEntry

	// Err, when set, fails every operation.
	Err error
	// SetCalls counts unconditional Set operations.
	SetCalls int
}

type fakeEntry struct {
	value     string
	expiresAt time.Time
}

// NewFakeKV creates an empty store anchored at the current time.
func NewFakeKV() *FakeKV {
	return &FakeKV{
		now:     time.Now(),
		entries: make(map[string]fakeEntry),
	}
}

// Advance moves the store's clock forward.
func (f *FakeKV) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// Len returns the number of live keys.
func (f *FakeKV) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, entry := range f.entries {
		if entry.expiresAt.After(f.now) {
			count++
		}
	}
	return count
}

func (f *FakeKV) SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return false, f.Err
	}
	if entry, exists := f.entries[key]; exists && entry.expiresAt.After(f.now) {
		return false, nil
	}
	f.entries[key] = fakeEntry{value: value, expiresAt: f.now.Add(ttl)}
	return true, nil
}

func (f *FakeKV) Get(ctx context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return "", false, f.Err
	}
	entry, exists := f.entries[key]
	if !exists || !entry.expiresAt.After(f.now) {
		return "", false, nil
	}
	return entry.value, true, nil
}

func (f *FakeKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.SetCalls++
	f.entries[key] = fakeEntry{value: value, expiresAt: f.now.Add(ttl)}
	return nil
}

// SentAlert is one captured push delivery.
type SentAlert struct {
	Title   string
	Body    string
	Routing models.RoutingOverrides
}

// FakeNotifier captures deliveries instead of sending them.
type FakeNotifier struct {
	mu sync.Mutex

	// Err, when set, fails every send.
	Err  error
	Sent []SentAlert
}

func (f *FakeNotifier) Send(ctx context.Context, title, body string, routing models.RoutingOverrides) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.Sent = append(f.Sent, SentAlert{Title: title, Body: body, Routing: routing})
	return nil
}

// Count returns the number of captured deliveries.
func (f *FakeNotifier) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Sent)
}
