// Package state holds the per-device stores: brightness snapshots,
// fade windows and adaptive-lighting state.
package state

import (
	"encoding/json"
	"fmt"

	"github.com/woodyard/duskd/internal/kv"
)

// TypedStore wraps a kv.Bucket with JSON marshaling for a specific type.
// Values are stored as JSON strings so persistent and in-memory buckets
// round-trip identically.
type TypedStore[T any] struct {
	bucket kv.Bucket
}

// NewTypedStore creates a new typed store over the given bucket.
func NewTypedStore[T any](bucket kv.Bucket) *TypedStore[T] {
	return &TypedStore[T]{bucket: bucket}
}

// Get retrieves and unmarshals the value for an ID.
// The second return is false if the ID has no entry.
func (s *TypedStore[T]) Get(id string) (value T, ok bool, err error) {
	raw, err := s.bucket.Get(id)
	if err != nil {
		return value, false, err
	}
	if raw == nil {
		return value, false, nil
	}

	str, isStr := raw.(string)
	if !isStr {
		return value, false, fmt.Errorf("unexpected payload type %T for key %s", raw, id)
	}

	if err := json.Unmarshal([]byte(str), &value); err != nil {
		return value, false, fmt.Errorf("failed to unmarshal state: %w", err)
	}

	return value, true, nil
}

// Set marshals and stores the value for an ID, overwriting any previous entry.
func (s *TypedStore[T]) Set(id string, value T) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	return s.bucket.Store(id, string(payload))
}

// Update applies a modification function to the current value.
// If the ID doesn't exist, the modify function receives the zero value.
func (s *TypedStore[T]) Update(id string, modify func(current T) T) error {
	current, _, err := s.Get(id)
	if err != nil {
		return err
	}

	return s.Set(id, modify(current))
}

// Keys returns all IDs with an entry.
func (s *TypedStore[T]) Keys() ([]string, error) {
	return s.bucket.Keys()
}

// GetAll retrieves all entries keyed by ID.
func (s *TypedStore[T]) GetAll() (map[string]T, error) {
	keys, err := s.bucket.Keys()
	if err != nil {
		return nil, err
	}

	values := make(map[string]T, len(keys))
	for _, id := range keys {
		value, ok, err := s.Get(id)
		if err != nil {
			return nil, err
		}
		if ok {
			values[id] = value
		}
	}

	return values, nil
}
