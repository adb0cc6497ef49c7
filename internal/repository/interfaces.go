package repository

import (
	"context"
	"time"

	"github.com/pashinov/nexus/internal/domain"
)

// StateStore is the ephemeral TTL-capable key/value capability backing the
// CSRF state family and the token deny list. Implementations own connection
// pooling and reconnection; callers never see individual connection drops.
// Any store failure surfaces as a non-nil error, never as a "not found"
// result.
type StateStore interface {
	// Put writes key if absent with the given TTL.
	Put(ctx context.Context, key, value string, ttl time.Duration) error
	// Delete removes key atomically and reports whether it existed.
	Delete(ctx context.Context, key string) (bool, error)
	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)
}

// UserRepository persists identities received from the provider.
type UserRepository interface {
	// Upsert inserts or refreshes the user identified by the provider
	// subject and returns the stored row with its internal id.
	Upsert(ctx context.Context, subject, email, name string) (domain.User, error)
}
