// Package oauth2 fetches OAuth2 access tokens for command-line requests.
package oauth2

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/abdul-hamid-achik/hitreq/packages/http"
)

// GrantType represents the OAuth2 grant type
type GrantType string

const (
	// ClientCredentials is the client_credentials grant type
	ClientCredentials GrantType = "client_credentials"
	// Password is the password (resource owner) grant type
	Password GrantType = "password"
)

// expiryLeeway treats tokens as expired slightly early to absorb clock skew
const expiryLeeway = 30 * time.Second

// Config holds OAuth2 configuration
type Config struct {
	TokenURL     string    `json:"tokenURL" yaml:"tokenURL"`
	ClientID     string    `json:"clientID,omitempty" yaml:"clientID,omitempty"`
	ClientSecret string    `json:"clientSecret,omitempty" yaml:"clientSecret,omitempty"`
	Scopes       []string  `json:"scopes,omitempty" yaml:"scopes,omitempty"`
	Username     string    `json:"username,omitempty" yaml:"username,omitempty"` // password grant
	Password     string    `json:"password,omitempty" yaml:"password,omitempty"` // password grant
	GrantType    GrantType `json:"grantType,omitempty" yaml:"grantType,omitempty"`
}

// Validate checks that the config can request a token
func (c *Config) Validate() error {
	if c.TokenURL == "" {
		return errors.New("oauth2: tokenURL is required")
	}
	switch c.GrantType {
	case "", ClientCredentials:
		if c.ClientID == "" {
			return errors.New("oauth2: clientID is required for client_credentials")
		}
	case Password:
		if c.Username == "" {
			return errors.New("oauth2: username is required for password grant")
		}
	default:
		return fmt.Errorf("oauth2: unsupported grant type %q", c.GrantType)
	}
	return nil
}

// Token represents an OAuth2 access token
type Token struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Scope        string    `json:"scope,omitempty"`
	ExpiresAt    time.Time `json:"-"`
}

// IsExpired checks if the token is expired
func (t *Token) IsExpired() bool {
	if t.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().Add(expiryLeeway).After(t.ExpiresAt)
}

// Provider fetches tokens and reuses them until they expire. It is safe for
// concurrent use.
type Provider struct {
	config *Config
	client http.Requester

	mu    sync.Mutex
	token *Token
}

// NewProvider creates a provider that talks to the token endpoint through client
func NewProvider(config *Config, client http.Requester) *Provider {
	return &Provider{
		config: config,
		client: client,
	}
}

// Token returns a valid access token, fetching a new one if necessary
func (p *Provider) Token(ctx context.Context) (*Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != nil && !p.token.IsExpired() {
		return p.token, nil
	}

	var (
		token *Token
		err   error
	)
	if p.token != nil && p.token.RefreshToken != "" {
		token, err = p.Refresh(ctx, p.token.RefreshToken)
	}
	if token == nil || err != nil {
		token, err = p.fetchToken(ctx)
	}
	if err != nil {
		return nil, err
	}

	p.token = token
	return token, nil
}

// Auth returns the bearer credentials for the current token
func (p *Provider) Auth(ctx context.Context) (*http.Auth, error) {
	token, err := p.Token(ctx)
	if err != nil {
		return nil, err
	}
	return http.BearerAuth(token.AccessToken), nil
}

func (p *Provider) fetchToken(ctx context.Context) (*Token, error) {
	var form http.Params
	switch p.config.GrantType {
	case Password:
		form = http.P("grant_type", string(Password), "username", p.config.Username, "password", p.config.Password)
	default:
		form = http.P("grant_type", string(ClientCredentials))
	}
	if len(p.config.Scopes) > 0 {
		form = form.Add("scope", strings.Join(p.config.Scopes, " "))
	}
	return p.doTokenRequest(ctx, form)
}

// Refresh exchanges a refresh token for a new access token
func (p *Provider) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	return p.doTokenRequest(ctx, http.P("grant_type", "refresh_token", "refresh_token", refreshToken))
}

func (p *Provider) doTokenRequest(ctx context.Context, form http.Params) (*Token, error) {
	cfg := &http.Config{Form: form}

	// Client authentication: HTTP Basic when a secret is set, form field otherwise
	if p.config.ClientID != "" && p.config.ClientSecret != "" {
		cfg.Auth = http.BasicAuth(p.config.ClientID, p.config.ClientSecret)
	} else if p.config.ClientID != "" {
		cfg.Form = cfg.Form.Add("client_id", p.config.ClientID)
	}

	resp, err := p.client.PostResponse(ctx, p.config.TokenURL, cfg)
	if err != nil {
		var clientErr *http.ClientError
		if errors.As(err, &clientErr) {
			var errResp struct {
				Error            string `json:"error"`
				ErrorDescription string `json:"error_description"`
			}
			if clientErr.Response != nil && clientErr.Response.Decode(&errResp) == nil && errResp.Error != "" {
				return nil, fmt.Errorf("token request failed: %s - %s", errResp.Error, errResp.ErrorDescription)
			}
		}
		return nil, fmt.Errorf("token request failed: %w", err)
	}

	var token Token
	if err := resp.Decode(&token); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}
	if token.AccessToken == "" {
		return nil, errors.New("token response has no access_token")
	}

	if token.ExpiresIn > 0 {
		token.ExpiresAt = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	}

	return &token, nil
}
