package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/pashinov/nexus/internal/jwt"
	"github.com/pashinov/nexus/internal/repository"
)

// revokedPrefix namespaces deny-list keys alongside other families in a
// shared store.
const revokedPrefix = "jwt:revoked:"

// RevocationList is the deny list of token ids invalidated before their
// natural expiry. Entries carry a TTL equal to the token's remaining
// lifetime, so the list self-cleans: once the token would have expired
// anyway, the store may drop the entry without loss of correctness.
type RevocationList struct {
	store repository.StateStore
	now   func() time.Time
}

// NewRevocationList constructs the deny list over the given store.
func NewRevocationList(store repository.StateStore) *RevocationList {
	return &RevocationList{store: store, now: time.Now}
}

// Revoke blacklists the token id for its remaining lifetime. A token that
// has already expired needs no entry: this is an idempotent no-op, avoiding
// zero-TTL keys that would never be collected.
func (r *RevocationList) Revoke(ctx context.Context, claims *jwt.Claims) error {
	remaining := claims.Remaining(r.now())
	if remaining == 0 {
		return nil
	}
	// Once a logout is accepted the deny-list write must land even if the
	// client disconnects mid-request.
	if err := r.store.Put(context.WithoutCancel(ctx), revokedPrefix+claims.TokenID, "1", remaining); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether the token id is on the deny list. A store
// failure is an error, never "not revoked": callers must fail closed.
func (r *RevocationList) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	exists, err := r.store.Exists(ctx, revokedPrefix+tokenID)
	if err != nil {
		return false, fmt.Errorf("check revocation: %w", err)
	}
	return exists, nil
}
