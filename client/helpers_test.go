package client

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/habedi/rentdesk/db"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory SessionStore.
type memStore struct {
	mu    sync.Mutex
	slots map[string]string
}

func newMemStore(kv ...string) *memStore {
	s := &memStore{slots: make(map[string]string)}
	for i := 0; i+1 < len(kv); i += 2 {
		s.slots[kv[i]] = kv[i+1]
	}
	return s
}

func (s *memStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slots[key], nil
}

func (s *memStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[key] = value
	return nil
}

func (s *memStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.slots, k)
	}
	return nil
}

func (s *memStore) value(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slots[key]
}

func (s *memStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.slots[key]
	return ok
}

// fakeRefresher returns a fixed pair or error and counts its calls. When gate
// is set, every call blocks until the gate is closed.
type fakeRefresher struct {
	pair  TokenPair
	err   error
	gate  chan struct{}
	calls atomic.Int32
	seen  atomic.Value
}

func (f *fakeRefresher) PerformTokenRefresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	f.calls.Add(1)
	f.seen.Store(refreshToken)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return TokenPair{}, ctx.Err()
		}
	}
	if f.err != nil {
		return TokenPair{}, f.err
	}
	return f.pair, nil
}

func loggedInStore(access, refresh string) *memStore {
	return newMemStore(db.SlotAccessToken, access, db.SlotRefreshToken, refresh, db.SlotUsername, "maria")
}

func newTestClient(t *testing.T, baseURL string, store SessionStore, r Refresher) *Client {
	t.Helper()
	c, err := New(baseURL, store, WithRefresher(r))
	require.NoError(t, err)
	return c
}
