// Package store holds the small key-value slots the viewer persists between
// runs, such as the saved camera view.
package store

import (
	"errors"
	"fmt"
	"strings"
)

// Drivers understood by Open.
const (
	DriverMemory  = "memory"
	DriverSQLite3 = "sqlite3" // github.com/mattn/go-sqlite3 (cgo)
	DriverSQLite  = "sqlite"  // modernc.org/sqlite (pure Go)
)

var (
	// ErrUnknownDriver is returned by Open for an unrecognized driver name
	ErrUnknownDriver = errors.New("unknown store driver")
	// ErrClosed is returned by operations on a closed store
	ErrClosed = errors.New("store is closed")
)

// Store is a durable key-value slot.
type Store interface {
	// Get returns the value for key. A missing key is ok=false with a nil error.
	Get(key string) (value []byte, ok bool, err error)
	Put(key string, value []byte) error
	Delete(key string) error
	Close() error
}

// Config selects and locates a store.
type Config struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

// Open creates the store described by cfg. An empty driver means sqlite3.
func Open(cfg Config) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case DriverMemory:
		return NewMemory(), nil
	case "", DriverSQLite3, DriverSQLite:
		if driver == "" {
			driver = DriverSQLite3
		}
		s, err := OpenSQLite(cfg.Path, driver)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
