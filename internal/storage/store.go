// Package storage provides the persistent keyed store used by the agents.
// Values are opaque bytes; typed records go through LoadJSON/SaveJSON.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
)

// KeyedStore is a get/set-by-key store. Absence is reported with ok=false,
// never as an error.
type KeyedStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Backend is a KeyedStore holding external resources
type Backend interface {
	KeyedStore
	Close() error
}

type scoped struct {
	store KeyedStore
	scope string
}

// Scoped returns a view of store whose keys are prefixed with scope, so each
// actor owns a separate namespace on a shared backend
func Scoped(store KeyedStore, scope string) KeyedStore {
	return &scoped{store: store, scope: scope}
}

func (s *scoped) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return s.store.Get(ctx, s.scope+":"+key)
}

func (s *scoped) Set(ctx context.Context, key string, value []byte) error {
	return s.store.Set(ctx, s.scope+":"+key, value)
}

// LoadJSON decodes the record stored under key into dest.
// It returns false when the key is absent.
func LoadJSON(ctx context.Context, store KeyedStore, key string, dest any) (bool, error) {
	data, ok, err := store.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("decoding %s: %w", key, err)
	}
	return true, nil
}

// SaveJSON encodes v and stores it under key
func SaveJSON(ctx context.Context, store KeyedStore, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if err := store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}
