package jwt

import (
	"fmt"
	"time"

	gojose "github.com/go-jose/go-jose/v4"
	gojwt "github.com/go-jose/go-jose/v4/jwt"
	"github.com/google/uuid"
)

// Claims is the verified session token payload. Timestamps are whole-second
// Unix values; TokenID is unique per issuance and keys the deny list.
type Claims struct {
	Subject   string `json:"sub"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	ExpiresAt int64  `json:"exp"`
	IssuedAt  int64  `json:"iat"`
	TokenID   string `json:"jti"`
}

// Remaining returns the time left until the token's natural expiry,
// clamped at zero.
func (c *Claims) Remaining(now time.Time) time.Duration {
	remaining := time.Unix(c.ExpiresAt, 0).Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// profileClaims are the non-registered claims carried alongside the
// standard set.
type profileClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Generator signs and verifies session tokens with a process-wide
// symmetric secret. Both operations are offline; neither touches the store.
type Generator struct {
	secret []byte
	ttl    time.Duration
}

// NewGenerator constructs a token generator. The secret is shared with the
// verifier side by construction; ttl bounds each token's lifetime.
func NewGenerator(secret []byte, ttl time.Duration) *Generator {
	return &Generator{secret: secret, ttl: ttl}
}

// Issue mints a signed token for the given identity. Every call produces a
// fresh jti, so two tokens for the same subject remain independently
// revocable.
func (g *Generator) Issue(subject, email, name string) (string, error) {
	signer, err := gojose.NewSigner(
		gojose.SigningKey{Algorithm: gojose.HS256, Key: g.secret},
		(&gojose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return "", fmt.Errorf("new signer: %w", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	std := gojwt.Claims{
		Subject:  subject,
		ID:       uuid.NewString(),
		IssuedAt: gojwt.NewNumericDate(now),
		Expiry:   gojwt.NewNumericDate(now.Add(g.ttl)),
	}
	custom := profileClaims{Email: email, Name: name}

	token, err := gojwt.Signed(signer).Claims(std).Claims(custom).Serialize()
	if err != nil {
		return "", fmt.Errorf("serialize jwt: %w", err)
	}
	return token, nil
}

// Verify checks the signature and expiry and returns the parsed claims.
// Revocation status is out of scope here; callers consult the deny list
// separately.
func (g *Generator) Verify(token string) (*Claims, error) {
	parsed, err := gojwt.ParseSigned(token, []gojose.SignatureAlgorithm{gojose.HS256})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	var std gojwt.Claims
	var custom profileClaims
	if err := parsed.Claims(g.secret, &std, &custom); err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}

	if std.Expiry == nil || std.ID == "" {
		return nil, fmt.Errorf("validate claims: required claim missing")
	}
	if err := std.ValidateWithLeeway(gojwt.Expected{Time: time.Now()}, 0); err != nil {
		return nil, fmt.Errorf("validate claims: %w", err)
	}

	claims := &Claims{
		Subject: std.Subject,
		Email:   custom.Email,
		Name:    custom.Name,
		TokenID: std.ID,
	}
	if std.Expiry != nil {
		claims.ExpiresAt = std.Expiry.Time().Unix()
	}
	if std.IssuedAt != nil {
		claims.IssuedAt = std.IssuedAt.Time().Unix()
	}
	return claims, nil
}
