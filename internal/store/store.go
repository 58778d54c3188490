// Package store provides the typed key/value persistence used by daylog.
//
// Every record lives under a string key and is encoded as JSON. Backends only
// move bytes; Get and Set add the typing on top so callers never touch raw
// payloads.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
)

// Store is a byte-level key/value backend.
type Store interface {
	// Read returns the raw record for key. ok is false when the key is absent.
	Read(ctx context.Context, key string) (data []byte, ok bool, err error)
	// Write replaces the record for key.
	Write(ctx context.Context, key string, data []byte) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
	// Keys lists all keys that start with prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)
	// Close releases the backend.
	Close() error
}

// Driver names accepted by Open.
const (
	DriverSQLite = "sqlite"
	DriverDiskv  = "diskv"
)

// ErrUnknownDriver is returned by Open for an unsupported driver name.
var ErrUnknownDriver = errors.New("unknown store driver")

// Open creates the backend named by driver rooted at path.
func Open(driver, path string) (Store, error) {
	switch driver {
	case DriverSQLite, "":
		return New(path)
	case DriverDiskv:
		return NewDiskv(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

// Get decodes the record at key into T. A missing or malformed record yields
// the zero value of T; only backend failures are returned as errors.
func Get[T any](ctx context.Context, s Store, key string) (T, error) {
	v, _, err := Lookup[T](ctx, s, key)
	return v, err
}

// Lookup is Get that also reports whether a well-formed record was found.
func Lookup[T any](ctx context.Context, s Store, key string) (T, bool, error) {
	var v T
	data, ok, err := s.Read(ctx, key)
	if err != nil {
		return v, false, fmt.Errorf("read %s: %w", key, err)
	}
	if !ok || len(data) == 0 {
		return v, false, nil
	}
	if err := json.Unmarshal(data, &v); err != nil {
		log.Printf("store: discarding malformed record %s: %v", key, err)
		var zero T
		return zero, false, nil
	}
	return v, true, nil
}

// Set encodes v as JSON and writes it at key.
func Set[T any](ctx context.Context, s Store, key string, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.Write(ctx, key, data); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
