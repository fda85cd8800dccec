// Package persist implements the durable local storage the stores persist
// their state to: a small key-value layer that survives restarts and is
// independent of the remote API.
package persist

import (
	"context"
	"encoding/json"
	"fmt"
)

// Keys of the persisted records.
const (
	AuthKey   = "auth-storage"
	BudgetKey = "budget-storage"
)

// Storage is a namespaced key-value store holding serialized state.
type Storage interface {
	// GetItem returns the value for key; ok is false when nothing is stored.
	GetItem(ctx context.Context, key string) (value []byte, ok bool, err error)
	SetItem(ctx context.Context, key string, value []byte) error
	RemoveItem(ctx context.Context, key string) error
	Close() error
}

// Envelope is the on-disk layout of a persisted record.
type Envelope[T any] struct {
	State   T   `json:"state"`
	Version int `json:"version"`
}

// Encode wraps state in an Envelope and serializes it.
func Encode[T any](state T, version int) ([]byte, error) {
	data, err := json.Marshal(Envelope[T]{State: state, Version: version})
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return data, nil
}

// Decode parses a record written by Encode.
func Decode[T any](data []byte) (Envelope[T], error) {
	var env Envelope[T]
	if err := json.Unmarshal(data, &env); err != nil {
		return env, fmt.Errorf("decode state: %w", err)
	}
	return env, nil
}
