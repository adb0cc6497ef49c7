package auth

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pashinov/nexus/internal/config"
	"github.com/pashinov/nexus/internal/domain"
	domainoauth "github.com/pashinov/nexus/internal/domain/oauth"
	"github.com/pashinov/nexus/internal/jwt"
)

func TestService_StartLogin(t *testing.T) {
	h := newServiceHarness(t)
	ctx := context.Background()

	out, err := h.service.StartLogin(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, out.State)

	parsed, err := url.Parse(out.AuthorizationURL)
	require.NoError(t, err)
	params := parsed.Query()
	require.Equal(t, "test-client", params.Get("client_id"))
	require.Equal(t, "code", params.Get("response_type"))
	require.Equal(t, "openid email profile", params.Get("scope"))
	require.Equal(t, out.State, params.Get("state"))
	require.Equal(t, "http://localhost:8000/auth/callback", params.Get("redirect_uri"))

	ok, err := h.service.states.Consume(ctx, out.State)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestService_HandleCallback(t *testing.T) {
	h := newServiceHarness(t)
	ctx := context.Background()

	out, err := h.service.StartLogin(ctx)
	require.NoError(t, err)

	h.provider.token = &domainoauth.TokenResponse{AccessToken: "provider-access", TokenType: "Bearer"}
	h.provider.userinfo = &domainoauth.UserInfo{Subject: "sub-123", Email: "User@Example.com", Name: "OAuth User"}

	token, err := h.service.HandleCallback(ctx, "auth-code", out.State)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := h.tokens.Verify(token)
	require.NoError(t, err)

	user, ok := h.users.bySubject("sub-123")
	require.True(t, ok)
	require.Equal(t, strconv.FormatInt(user.ID, 10), claims.Subject)
	require.Equal(t, "user@example.com", claims.Email)
	require.Equal(t, "OAuth User", claims.Name)
	require.NotEmpty(t, claims.TokenID)
	require.Greater(t, claims.ExpiresAt, time.Now().Unix())
}

func TestService_HandleCallbackReplayRejected(t *testing.T) {
	h := newServiceHarness(t)
	ctx := context.Background()

	out, err := h.service.StartLogin(ctx)
	require.NoError(t, err)

	h.provider.token = &domainoauth.TokenResponse{AccessToken: "provider-access"}
	h.provider.userinfo = &domainoauth.UserInfo{Subject: "sub-1", Email: "a@b.c"}

	_, err = h.service.HandleCallback(ctx, "code", out.State)
	require.NoError(t, err)

	_, err = h.service.HandleCallback(ctx, "code", out.State)
	require.ErrorIs(t, err, domainoauth.ErrInvalidState)
}

func TestService_HandleCallbackValidation(t *testing.T) {
	h := newServiceHarness(t)
	ctx := context.Background()

	_, err := h.service.HandleCallback(ctx, "", "some-state")
	require.ErrorIs(t, err, domainoauth.ErrInvalidRequest)

	_, err = h.service.HandleCallback(ctx, "code", "forged-state")
	require.ErrorIs(t, err, domainoauth.ErrInvalidState)
}

func TestService_HandleCallbackUpstreamFailure(t *testing.T) {
	h := newServiceHarness(t)
	ctx := context.Background()

	out, err := h.service.StartLogin(ctx)
	require.NoError(t, err)

	h.provider.exchangeErr = fmt.Errorf("%w: token exchange status=502", domainoauth.ErrUpstream)

	_, err = h.service.HandleCallback(ctx, "code", out.State)
	require.ErrorIs(t, err, domainoauth.ErrUpstream)

	// The state was consumed before the exchange: even a failed callback
	// burns it, so a retry must restart at login.
	ok, err := h.service.states.Consume(ctx, out.State)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestService_Logout(t *testing.T) {
	h := newServiceHarness(t)
	ctx := context.Background()

	out, err := h.service.StartLogin(ctx)
	require.NoError(t, err)
	h.provider.token = &domainoauth.TokenResponse{AccessToken: "provider-access"}
	h.provider.userinfo = &domainoauth.UserInfo{Subject: "sub-1", Email: "a@b.c"}

	token, err := h.service.HandleCallback(ctx, "code", out.State)
	require.NoError(t, err)

	claims, err := h.tokens.Verify(token)
	require.NoError(t, err)

	require.NoError(t, h.service.Logout(ctx, claims))

	revoked, err := h.service.revocations.IsRevoked(ctx, claims.TokenID)
	require.NoError(t, err)
	require.True(t, revoked)
}

// ---- Test harness and fakes ----

type serviceHarness struct {
	service  *Service
	tokens   *jwt.Generator
	provider *fakeProviderClient
	users    *fakeUserRepo
	redis    *miniredis.Miniredis
}

func newServiceHarness(t *testing.T) *serviceHarness {
	t.Helper()

	store, mr := newRedisStateStore(t)
	tokens := jwt.NewGenerator([]byte("0123456789abcdef0123456789abcdef"), time.Hour)
	provider := &fakeProviderClient{}
	users := newFakeUserRepo()

	oauthCfg := config.OAuthConfig{
		BaseURL:     "http://localhost:8000",
		AuthURL:     "https://accounts.google.com/o/oauth2/v2/auth",
		TokenURL:    "https://oauth2.googleapis.com/token",
		UserInfoURL: "https://www.googleapis.com/oauth2/v3/userinfo",
		Scopes:      []string{"openid", "email", "profile"},
	}
	secrets := &config.Secrets{
		JWTSecret:    []byte("0123456789abcdef0123456789abcdef"),
		ClientID:     []byte("test-client"),
		ClientSecret: []byte("test-secret"),
	}

	states := NewStateManager(store, time.Minute)
	revocations := NewRevocationList(store)
	service := NewService(states, revocations, provider, users, tokens, oauthCfg, secrets, zap.NewNop())

	return &serviceHarness{
		service:  service,
		tokens:   tokens,
		provider: provider,
		users:    users,
		redis:    mr,
	}
}

type fakeProviderClient struct {
	token       *domainoauth.TokenResponse
	userinfo    *domainoauth.UserInfo
	exchangeErr error
	userinfoErr error
}

func (f *fakeProviderClient) ExchangeCode(_ context.Context, _, _ string) (*domainoauth.TokenResponse, error) {
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	if f.token == nil {
		return nil, fmt.Errorf("%w: no token configured", domainoauth.ErrUpstream)
	}
	return f.token, nil
}

func (f *fakeProviderClient) FetchUserInfo(_ context.Context, _ string) (*domainoauth.UserInfo, error) {
	if f.userinfoErr != nil {
		return nil, f.userinfoErr
	}
	if f.userinfo == nil {
		return nil, fmt.Errorf("%w: no userinfo configured", domainoauth.ErrUpstream)
	}
	return f.userinfo, nil
}

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[string]domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, users: make(map[string]domain.User)}
}

func (f *fakeUserRepo) Upsert(_ context.Context, subject, email, name string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.users[subject]; ok {
		existing.Email = email
		existing.Name = name
		existing.UpdatedAt = time.Now()
		f.users[subject] = existing
		return existing, nil
	}
	user := domain.User{
		ID:        f.nextID,
		Subject:   subject,
		Email:     email,
		Name:      name,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	f.nextID++
	f.users[subject] = user
	return user, nil
}

func (f *fakeUserRepo) bySubject(subject string) (domain.User, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[subject]
	return user, ok
}
