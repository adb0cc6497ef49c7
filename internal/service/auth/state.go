package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/pashinov/nexus/internal/repository"
)

// statePrefix namespaces CSRF state keys so the family cannot collide with
// other key families in a shared store.
const statePrefix = "oauth:state:"

const defaultStateTTL = 5 * time.Minute

// StateManager issues and consumes single-use CSRF state tokens. The
// backing store's atomic delete-and-report is the sole correctness anchor:
// no in-process locking is used, so the guarantee holds across multiple
// gateway instances.
type StateManager struct {
	store repository.StateStore
	ttl   time.Duration
}

// NewStateManager constructs a state manager with the given TTL. A
// non-positive TTL falls back to five minutes.
func NewStateManager(store repository.StateStore, ttl time.Duration) *StateManager {
	if ttl <= 0 {
		ttl = defaultStateTTL
	}
	return &StateManager{store: store, ttl: ttl}
}

// Issue generates an opaque random state and persists it with the
// configured TTL. An abandoned flow simply ages out of the store.
func (m *StateManager) Issue(ctx context.Context) (string, error) {
	state, err := secureRandomString(32)
	if err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	// The write must complete even if the client aborts the login request;
	// a half-issued state would otherwise linger unconsumable on the client
	// side while the server never recorded it.
	if err := m.store.Put(context.WithoutCancel(ctx), statePrefix+state, "1", m.ttl); err != nil {
		return "", fmt.Errorf("persist state: %w", err)
	}
	return state, nil
}

// Consume deletes the state and reports whether it existed. Missing or
// expired states return false rather than an error: the callback must be
// rejected, whether the cause is forgery, replay, or timeout. Store
// failures surface as errors and are never folded into false.
func (m *StateManager) Consume(ctx context.Context, state string) (bool, error) {
	if strings.TrimSpace(state) == "" {
		return false, nil
	}
	existed, err := m.store.Delete(ctx, statePrefix+state)
	if err != nil {
		return false, fmt.Errorf("consume state: %w", err)
	}
	return existed, nil
}

func secureRandomString(size int) (string, error) {
	if size <= 0 {
		size = 32
	}
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
