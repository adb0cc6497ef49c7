package oauth

import "errors"

var (
	// ErrInvalidRequest indicates caller input validation errors.
	ErrInvalidRequest = errors.New("oauth: invalid request")
	// ErrInvalidState indicates the CSRF state is missing, expired, or was
	// already consumed. The callback must be rejected and the flow restarted.
	ErrInvalidState = errors.New("oauth: invalid state")
	// ErrTokenInvalid indicates malformed, tampered, or expired tokens.
	ErrTokenInvalid = errors.New("oauth: token invalid")
	// ErrTokenRevoked indicates a token whose id is on the deny list.
	ErrTokenRevoked = errors.New("oauth: token revoked")
	// ErrUpstream indicates a provider call failed. Surfaced to clients as a
	// generic server error, logged separately for triage.
	ErrUpstream = errors.New("oauth: upstream provider failure")
)
