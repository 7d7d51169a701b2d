// Package prefs persists per-view UI preferences as namespaced JSON values.
// Reads never fail: missing or corrupt values fall back to the caller's
// default.
package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// ErrNotFound is returned by a Backend when a key has no value.
var ErrNotFound = errors.New("preference not found")

// Backend stores raw JSON values for one owner.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Key builds the namespaced key of a preference of a view.
func Key(viewID, name string) string {
	return "view:" + viewID + ":" + name
}

// ValidKey reports whether key is a namespaced preference key.
func ValidKey(key string) bool {
	parts := strings.SplitN(key, ":", 3)
	return len(parts) == 3 && parts[0] == "view" && parts[1] != "" && parts[2] != ""
}

// Store reads and writes typed preferences and announces writes on a Hub.
type Store struct {
	backend Backend
	owner   string
	hub     *Hub
	logger  *zap.Logger
}

// NewStore creates a store for owner. hub may be nil.
func NewStore(backend Backend, owner string, hub *Hub, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{backend: backend, owner: owner, hub: hub, logger: logger}
}

func (s *Store) Owner() string { return s.owner }

func (s *Store) Hub() *Hub { return s.hub }

// Load decodes the value stored under key over a deep copy of def, so fields
// missing from the stored value keep their defaults. Any read or decode
// failure yields def.
func Load[T any](ctx context.Context, s *Store, key string, def T) T {
	raw, err := s.backend.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Debug("preference read failed, using default", zap.String("key", key), zap.Error(err))
		}
		return def
	}
	v, err := clone(def)
	if err != nil {
		s.logger.Debug("default preference is not encodable", zap.String("key", key), zap.Error(err))
	}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		s.logger.Debug("preference is corrupt, using default", zap.String("key", key), zap.Error(err))
		return def
	}
	return v
}

// clone deep-copies v through its JSON form so that decoding over the copy
// never writes into slices or maps shared with v.
func clone[T any](v T) (T, error) {
	var out T
	raw, err := json.Marshal(v)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Save encodes v under key and publishes the change.
func Save[T any](ctx context.Context, s *Store, key string, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode preference %s: %w", key, err)
	}
	if err := s.backend.Set(ctx, key, string(raw)); err != nil {
		return fmt.Errorf("save preference %s: %w", key, err)
	}
	if s.hub != nil {
		s.hub.Publish(Change{Owner: s.owner, Key: key, Value: string(raw)})
	}
	return nil
}

// MemoryBackend keeps values in a map.
type MemoryBackend struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: make(map[string]string)}
}

func (m *MemoryBackend) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *MemoryBackend) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}
