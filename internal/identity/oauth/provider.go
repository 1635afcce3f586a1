// Package oauth signs users in against the external identity provider using
// the authorization code flow with PKCE.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"

	"onboarding/internal/onboarding/models"
)

// Config describes the identity provider.
type Config struct {
	ClientID              string
	ClientSecret          string
	AuthURL               string
	TokenURL              string
	UserInfoURL           string
	LogoutURL             string
	RedirectURL           string
	PostLogoutRedirectURL string
	Scopes                []string
}

// Identity is the signed-in user as reported by the provider's userinfo
// endpoint.
type Identity struct {
	Subject string
	Profile models.ExternalProfile
}

type userInfo struct {
	Sub         string `json:"sub"`
	ID          string `json:"id"`
	GivenName   string `json:"given_name"`
	FamilyName  string `json:"family_name"`
	Email       string `json:"email"`
	Picture     string `json:"picture"`
	LinkedInURL string `json:"linkedin_url"`
}

// Provider talks to the identity provider.
type Provider struct {
	oauth                 *oauth2.Config
	userInfoURL           string
	logoutURL             string
	postLogoutRedirectURL string
	httpClient            *http.Client
}

// NewProvider builds a provider client from cfg.
func NewProvider(cfg Config) *Provider {
	return &Provider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
		},
		userInfoURL:           cfg.UserInfoURL,
		logoutURL:             cfg.LogoutURL,
		postLogoutRedirectURL: cfg.PostLogoutRedirectURL,
	}
}

// WithHTTPClient makes every provider call go through client.
func (p *Provider) WithHTTPClient(client *http.Client) *Provider {
	p.httpClient = client
	return p
}

func (p *Provider) context(ctx context.Context) context.Context {
	if p.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
}

// AuthCodeURL returns the authorize URL carrying state and the S256 challenge
// for verifier.
func (p *Provider) AuthCodeURL(state, verifier string) string {
	return p.oauth.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
}

// Exchange trades the authorization code for a token.
func (p *Provider) Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error) {
	tok, err := p.oauth.Exchange(p.context(ctx), code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	return tok, nil
}

// FetchIdentity reads the userinfo endpoint with tok.
func (p *Provider) FetchIdentity(ctx context.Context, tok *oauth2.Token) (Identity, error) {
	ctx = p.context(ctx)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return Identity{}, fmt.Errorf("build userinfo request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.oauth.Client(ctx, tok).Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Identity{}, fmt.Errorf("fetch userinfo: unexpected status %d", resp.StatusCode)
	}

	var info userInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return Identity{}, fmt.Errorf("decode userinfo: %w", err)
	}
	subject := info.Sub
	if subject == "" {
		subject = info.ID
	}
	if subject == "" {
		return Identity{}, fmt.Errorf("userinfo missing subject")
	}
	return Identity{
		Subject: subject,
		Profile: models.ExternalProfile{
			GivenName:   info.GivenName,
			FamilyName:  info.FamilyName,
			Email:       info.Email,
			Picture:     info.Picture,
			LinkedInURL: info.LinkedInURL,
		},
	}, nil
}

// EndSessionURL is where the browser goes after local logout. Without a
// provider logout URL the user returns to the post-logout page directly.
func (p *Provider) EndSessionURL() string {
	if p.logoutURL == "" {
		if p.postLogoutRedirectURL == "" {
			return "/"
		}
		return p.postLogoutRedirectURL
	}
	u, err := url.Parse(p.logoutURL)
	if err != nil {
		return "/"
	}
	if p.postLogoutRedirectURL != "" {
		q := u.Query()
		q.Set("redirect", p.postLogoutRedirectURL)
		u.RawQuery = q.Encode()
	}
	return u.String()
}
