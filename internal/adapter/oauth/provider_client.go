package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pashinov/nexus/internal/config"
	domainoauth "github.com/pashinov/nexus/internal/domain/oauth"
)

// ProviderClient encapsulates outbound HTTP calls to the identity provider.
type ProviderClient interface {
	ExchangeCode(ctx context.Context, code, redirectURI string) (*domainoauth.TokenResponse, error)
	FetchUserInfo(ctx context.Context, accessToken string) (*domainoauth.UserInfo, error)
}

// HTTPProviderClient is the default HTTP implementation.
type HTTPProviderClient struct {
	httpClient *http.Client
	cfg        config.OAuthConfig
	secrets    *config.Secrets
}

var _ ProviderClient = (*HTTPProviderClient)(nil)

// NewHTTPProviderClient constructs the default ProviderClient. A nil http
// client falls back to one with a 10s timeout.
func NewHTTPProviderClient(client *http.Client, cfg config.OAuthConfig, secrets *config.Secrets) *HTTPProviderClient {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPProviderClient{httpClient: client, cfg: cfg, secrets: secrets}
}

// ExchangeCode swaps an authorization code for the provider's access token.
func (c *HTTPProviderClient) ExchangeCode(ctx context.Context, code, redirectURI string) (*domainoauth.TokenResponse, error) {
	if strings.TrimSpace(c.cfg.TokenURL) == "" {
		return nil, fmt.Errorf("token url missing")
	}
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	data.Set("redirect_uri", redirectURI)
	data.Set("client_id", string(c.secrets.ClientID))
	data.Set("client_secret", string(c.secrets.ClientSecret))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: token exchange request: %v", domainoauth.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read token response: %v", domainoauth.ErrUpstream, err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: token exchange status=%d", domainoauth.ErrUpstream, resp.StatusCode)
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode token response: %v", domainoauth.ErrUpstream, err)
	}

	token := &domainoauth.TokenResponse{
		AccessToken:  stringValue(raw["access_token"]),
		RefreshToken: stringValue(raw["refresh_token"]),
		TokenType:    stringValue(raw["token_type"]),
		IDToken:      stringValue(raw["id_token"]),
		Scope:        stringValue(raw["scope"]),
		Raw:          raw,
	}
	if exp := raw["expires_in"]; exp != nil {
		token.ExpiresIn = int64Value(exp)
	}
	return token, nil
}

// FetchUserInfo loads the provider's userinfo profile.
func (c *HTTPProviderClient) FetchUserInfo(ctx context.Context, accessToken string) (*domainoauth.UserInfo, error) {
	if strings.TrimSpace(c.cfg.UserInfoURL) == "" {
		return nil, fmt.Errorf("userinfo url missing")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.UserInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: userinfo request: %v", domainoauth.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read userinfo: %v", domainoauth.ErrUpstream, err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: userinfo status=%d", domainoauth.ErrUpstream, resp.StatusCode)
	}

	var info domainoauth.UserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("%w: decode userinfo: %v", domainoauth.ErrUpstream, err)
	}
	return &info, nil
}

func stringValue(input any) string {
	switch v := input.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

func int64Value(input any) int64 {
	switch v := input.(type) {
	case float64:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return 0
}
