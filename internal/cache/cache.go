// Package cache stores fetched resource bytes keyed by the reference they
// were fetched from.
//
// Every backend persists an entry under Slugify(key). The transform is lossy,
// so two keys with the same slug share one entry and the last writer wins.
package cache

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

// ErrEmptyKey is returned by Set when a key slugifies to the empty string.
var ErrEmptyKey = errors.New("cache key is empty after slugify")

// Cache is a key/value byte store with no expiry and no capacity bound.
type Cache interface {
	// Get returns the value stored under the slug of key.
	// A miss is reported as (nil, false, nil); err is reserved for backend failures.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under the slug of key, overwriting any prior value.
	Set(ctx context.Context, key string, value []byte) error
}

// Pinger is implemented by backends that talk to a remote store.
type Pinger interface {
	Ping(ctx context.Context) error
}

var (
	disallowed = regexp.MustCompile(`[^A-Za-z0-9_\s-]`)
	separators = regexp.MustCompile(`[-\s]+`)
)

// Slugify turns an arbitrary key into a filesystem-safe name.
func Slugify(key string) string {
	key = strings.ReplaceAll(key, "/", "_")
	key = strings.ReplaceAll(key, ".", "_")
	key = disallowed.ReplaceAllString(key, "")
	return separators.ReplaceAllString(key, "-")
}
