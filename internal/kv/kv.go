// Package kv provides the string key-value store that daybook persists into.
//
// The store is deliberately dumb: Get/Set/Remove of whole string values, no
// transactions and no migrations. Three backends are available:
//
//   - memory: process-local map, used by tests and `--store memory` runs
//   - dir:    one file per key under a directory, written atomically
//   - sqlite: a single `kv` table in a SQLite database (modernc.org/sqlite)
package kv

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Store is a synchronous string key-value store.
type Store interface {
	// Get returns the value for key and whether it exists.
	Get(key string) (string, bool, error)
	// Set stores value under key, replacing any existing value.
	Set(key, value string) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(key string) error
}

const (
	DriverMemory = "memory"
	DriverDir    = "dir"
	DriverSQLite = "sqlite"
)

var (
	ErrClosed     = errors.New("kv: store is closed")
	ErrInvalidKey = errors.New("kv: invalid key")
)

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

func validateKey(key string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// Open opens a store for the given driver. path is ignored for memory.
func Open(driver, path string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverMemory:
		return NewMemory(), nil
	case DriverDir, "":
		return OpenDir(path)
	case DriverSQLite:
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("kv: unknown driver %q", driver)
	}
}

// Close closes s if the backend holds resources.
func Close(s Store) error {
	if c, ok := s.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
