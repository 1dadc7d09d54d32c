// internal/client/favorites/store.go

package favorites

import (
	"context"
	"fmt"
	"sync"

	"github.com/goccy/go-json"
)

// Keys in the local store
const (
	FavoritesKey = "favs"
	InterestsKey = "interests"
)

// KV is the persistent key/value store backing favorites
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Store keeps the favorite place ids and the chosen interest categories. It
// is independent of the result cache and never derived from search results.
type Store struct {
	kv KV
	mu sync.Mutex
}

// NewStore creates a favorites store over kv
func NewStore(kv KV) *Store {
	return &Store{kv: kv}
}

// Toggle adds id when absent and removes it otherwise. It returns whether id
// is a favorite afterwards.
func (s *Store) Toggle(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.load(ctx, FavoritesKey)
	if err != nil {
		return false, err
	}

	updated := make([]string, 0, len(ids)+1)
	removed := false
	for _, existing := range ids {
		if existing == id {
			removed = true
			continue
		}
		updated = append(updated, existing)
	}
	if !removed {
		updated = append(updated, id)
	}

	if err := s.save(ctx, FavoritesKey, updated); err != nil {
		return false, err
	}
	return !removed, nil
}

// IsFavorite reports whether id is a favorite
func (s *Store) IsFavorite(ctx context.Context, id string) (bool, error) {
	ids, err := s.List(ctx)
	if err != nil {
		return false, err
	}
	for _, existing := range ids {
		if existing == id {
			return true, nil
		}
	}
	return false, nil
}

// List returns favorite ids in the order they were added
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx, FavoritesKey)
}

// Interests returns the stored interest categories
func (s *Store) Interests(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx, InterestsKey)
}

// SetInterests replaces the interest categories
func (s *Store) SetInterests(ctx context.Context, interests []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(interests))
	unique := make([]string, 0, len(interests))
	for _, i := range interests {
		if i == "" || seen[i] {
			continue
		}
		seen[i] = true
		unique = append(unique, i)
	}
	return s.save(ctx, InterestsKey, unique)
}

func (s *Store) load(ctx context.Context, key string) ([]string, error) {
	data, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", key, err)
	}
	values := []string{}
	if !ok {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("error decoding %s: %w", key, err)
	}
	return values, nil
}

func (s *Store) save(ctx context.Context, key string, values []string) error {
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("error encoding %s: %w", key, err)
	}
	if err := s.kv.Set(ctx, key, data); err != nil {
		return fmt.Errorf("error writing %s: %w", key, err)
	}
	return nil
}
