// Package credential holds the single bearer token that grants write access
// to the CuraQ service.
package credential

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/irfansharif/curaq/pkg/kv"
)

// Key is the store key the token lives under.
const Key = "curaq.token"

// ErrEmpty is returned by Set for empty or whitespace-only input. Nothing
// is persisted in that case.
var ErrEmpty = errors.New("credential: token is empty")

// Store reads and writes the token. The token's shape is never validated
// here; only the remote service can tell whether it is valid.
type Store struct {
	kv kv.Store
}

func New(store kv.Store) *Store {
	return &Store{kv: store}
}

// Get returns the token and whether one is present.
func (s *Store) Get(ctx context.Context) (string, bool, error) {
	v, err := s.kv.Get(ctx, Key)
	if errors.Is(err, kv.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading credential: %w", err)
	}
	if strings.TrimSpace(v) == "" {
		return "", false, nil
	}
	return v, true, nil
}

// Set stores value, trimmed.
func (s *Store) Set(ctx context.Context, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return ErrEmpty
	}
	if err := s.kv.Set(ctx, Key, value); err != nil {
		return fmt.Errorf("writing credential: %w", err)
	}
	return nil
}

// Clear removes the token.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.Remove(ctx, Key); err != nil {
		return fmt.Errorf("clearing credential: %w", err)
	}
	return nil
}
