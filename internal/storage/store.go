// Package storage persists shop state as JSON documents in a key/value store.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Keys under which the shop persists its collections.
const (
	KeyUsers       = "users"
	KeyProducts    = "products"
	KeyCart        = "cart"
	KeyCurrentUser = "currentUser"
)

var (
	ErrMalformed     = errors.New("malformed stored value")
	ErrUnknownDriver = errors.New("unknown storage driver")
)

// Store reads and writes JSON encoded values by key.
//
// Load decodes the stored value into dst and reports whether the key exists.
// A value that cannot be decoded yields an error wrapping ErrMalformed.
type Store interface {
	Load(ctx context.Context, key string, dst any) (bool, error)
	Save(ctx context.Context, key string, value any) error
	Close() error
}

func encode(key string, value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode %q: %w", key, err)
	}
	return data, nil
}

func decode(key string, data []byte, dst any) error {
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%w: key %q: %v", ErrMalformed, key, err)
	}
	return nil
}
