package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/hitreq/packages/auth/oauth2"
	"github.com/abdul-hamid-achik/hitreq/packages/core/config"
	"github.com/abdul-hamid-achik/hitreq/packages/http"
	"github.com/abdul-hamid-achik/hitreq/packages/log"
)

// authorize fetches an OAuth2 token when the config has an oauth2 section and
// no Authorization header was given. The token is fetched once per command.
func (o *requestOptions) authorize(ctx context.Context, client http.Requester, cfg *config.Config, reqCfg *http.Config) error {
	if cfg.OAuth2 == nil || hasAuthorization(cfg.Headers) || hasAuthorization(reqCfg.Headers) {
		return nil
	}

	resolver, err := o.resolver()
	if err != nil {
		return configError(err)
	}

	// Secrets are usually kept out of the config file as {{$ENV}} references
	oauthCfg := *cfg.OAuth2
	oauthCfg.TokenURL = resolve(resolver, oauthCfg.TokenURL)
	oauthCfg.ClientID = resolve(resolver, oauthCfg.ClientID)
	oauthCfg.ClientSecret = resolve(resolver, oauthCfg.ClientSecret)
	oauthCfg.Username = resolve(resolver, oauthCfg.Username)
	oauthCfg.Password = resolve(resolver, oauthCfg.Password)
	if err := oauthCfg.Validate(); err != nil {
		return configError(err)
	}

	auth, err := oauth2.NewProvider(&oauthCfg, client).Auth(ctx)
	if err != nil {
		err = fmt.Errorf("oauth2: %w", err)
		var (
			transportErr *http.TransportError
			timeoutErr   *http.TimeoutError
		)
		if errors.As(err, &transportErr) || errors.As(err, &timeoutErr) {
			return err
		}
		return configError(err)
	}

	log.Debug().Str("tokenURL", oauthCfg.TokenURL).Msg("fetched oauth2 token")
	reqCfg.Auth = auth
	return nil
}

func hasAuthorization(headers map[string]string) bool {
	for k := range headers {
		if strings.EqualFold(k, "Authorization") {
			return true
		}
	}
	return false
}
