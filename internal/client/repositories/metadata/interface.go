// Package metadata stores small client-level key/value facts, such as the
// generated client id, next to the pins table.
package metadata

import (
	"context"
)

type Repository interface {
	// Get returns (nil, nil) for an unknown key.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Well-known keys.
const (
	KeyClientID = "client_id"
	KeyLastPull = "last_pull"
)
