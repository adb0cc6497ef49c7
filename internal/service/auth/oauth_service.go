package auth

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	oauthadapter "github.com/pashinov/nexus/internal/adapter/oauth"
	"github.com/pashinov/nexus/internal/config"
	domainoauth "github.com/pashinov/nexus/internal/domain/oauth"
	"github.com/pashinov/nexus/internal/jwt"
	"github.com/pashinov/nexus/internal/repository"
)

// Service orchestrates the provider handshake and session issuance:
// login builds the redirect, callback turns an authorization code into a
// signed session token, logout puts the token id on the deny list.
type Service struct {
	states      *StateManager
	revocations *RevocationList
	provider    oauthadapter.ProviderClient
	users       repository.UserRepository
	tokens      *jwt.Generator
	oauthCfg    config.OAuthConfig
	secrets     *config.Secrets
	logger      *zap.Logger
}

// NewService wires the authentication service.
func NewService(
	states *StateManager,
	revocations *RevocationList,
	provider oauthadapter.ProviderClient,
	users repository.UserRepository,
	tokens *jwt.Generator,
	oauthCfg config.OAuthConfig,
	secrets *config.Secrets,
	logger *zap.Logger,
) *Service {
	return &Service{
		states:      states,
		revocations: revocations,
		provider:    provider,
		users:       users,
		tokens:      tokens,
		oauthCfg:    oauthCfg,
		secrets:     secrets,
		logger:      logger,
	}
}

// LoginOutput carries the prepared provider redirect.
type LoginOutput struct {
	AuthorizationURL string
	State            string
}

// StartLogin issues a CSRF state and builds the provider authorization URL
// embedding it.
func (s *Service) StartLogin(ctx context.Context) (*LoginOutput, error) {
	state, err := s.states.Issue(ctx)
	if err != nil {
		return nil, err
	}

	authURL, err := url.Parse(s.oauthCfg.AuthURL)
	if err != nil {
		return nil, fmt.Errorf("parse auth url: %w", err)
	}

	params := authURL.Query()
	params.Set("client_id", string(s.secrets.ClientID))
	params.Set("redirect_uri", s.oauthCfg.RedirectURI())
	params.Set("response_type", "code")
	params.Set("scope", strings.Join(s.oauthCfg.Scopes, " "))
	params.Set("state", state)
	authURL.RawQuery = params.Encode()

	return &LoginOutput{AuthorizationURL: authURL.String(), State: state}, nil
}

// HandleCallback consumes the CSRF state, exchanges the authorization code,
// upserts the user, and returns a freshly signed session token.
//
// The upsert commits before token issuance. A mint failure after the commit
// leaves an orphaned-but-harmless user row; the client restarts at /auth/
// and the upsert is idempotent.
func (s *Service) HandleCallback(ctx context.Context, code, state string) (string, error) {
	if strings.TrimSpace(code) == "" {
		return "", domainoauth.ErrInvalidRequest
	}

	ok, err := s.states.Consume(ctx, state)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", domainoauth.ErrInvalidState
	}

	tokenResp, err := s.provider.ExchangeCode(ctx, code, s.oauthCfg.RedirectURI())
	if err != nil {
		return "", fmt.Errorf("exchange code: %w", err)
	}
	if strings.TrimSpace(tokenResp.AccessToken) == "" {
		return "", fmt.Errorf("%w: empty access token", domainoauth.ErrUpstream)
	}

	info, err := s.provider.FetchUserInfo(ctx, tokenResp.AccessToken)
	if err != nil {
		return "", fmt.Errorf("fetch userinfo: %w", err)
	}
	if strings.TrimSpace(info.Subject) == "" || strings.TrimSpace(info.Email) == "" {
		return "", fmt.Errorf("%w: incomplete profile", domainoauth.ErrUpstream)
	}

	user, err := s.users.Upsert(ctx, info.Subject, strings.ToLower(strings.TrimSpace(info.Email)), strings.TrimSpace(info.Name))
	if err != nil {
		return "", fmt.Errorf("upsert user: %w", err)
	}

	token, err := s.tokens.Issue(strconv.FormatInt(user.ID, 10), user.Email, user.Name)
	if err != nil {
		return "", fmt.Errorf("issue session token: %w", err)
	}

	s.log().Info("session issued",
		zap.Int64("user_id", user.ID),
		zap.String("subject", info.Subject),
	)
	return token, nil
}

// Logout blacklists the token id for the token's remaining lifetime.
func (s *Service) Logout(ctx context.Context, claims *jwt.Claims) error {
	if err := s.revocations.Revoke(ctx, claims); err != nil {
		return err
	}
	s.log().Info("session revoked",
		zap.String("jti", claims.TokenID),
		zap.String("sub", claims.Subject),
	)
	return nil
}

func (s *Service) log() *zap.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return zap.L()
}
