// Package oauth wraps the authorization-code flow for the social login
// providers and normalizes their user profiles.
package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	"golang.org/x/oauth2/google"

	"github.com/jongrhanrhao/reservation-backend/internal/config"
)

const (
	Google   = "google"
	Facebook = "facebook"
)

const (
	googleProfileURL   = "https://www.googleapis.com/oauth2/v3/userinfo"
	facebookProfileURL = "https://graph.facebook.com/me?fields=id,name,email,picture.type(large)"
)

// ErrNoEmail is returned when the provider did not share an email address.
var ErrNoEmail = errors.New("provider did not return an email address")

// Profile is the subset of the provider's user info we keep.
type Profile struct {
	ID      string
	Email   string
	Name    string
	Picture string
}

// Provider is one configured OAuth2 identity provider.
type Provider struct {
	name       string
	cfg        *oauth2.Config
	profileURL string
	decode     func([]byte) (Profile, error)
}

// Name returns the provider name used in routes and user columns.
func (p *Provider) Name() string { return p.name }

// AuthCodeURL returns the consent page URL carrying state.
func (p *Provider) AuthCodeURL(state string) string {
	return p.cfg.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades code for a token and fetches the user's profile.
func (p *Provider) Exchange(ctx context.Context, code string) (Profile, error) {
	tok, err := p.cfg.Exchange(ctx, code)
	if err != nil {
		return Profile{}, fmt.Errorf("%s token exchange: %w", p.name, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.profileURL, nil)
	if err != nil {
		return Profile{}, err
	}
	resp, err := p.cfg.Client(ctx, tok).Do(req)
	if err != nil {
		return Profile{}, fmt.Errorf("%s profile: %w", p.name, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Profile{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return Profile{}, fmt.Errorf("%s profile: status %d", p.name, resp.StatusCode)
	}
	prof, err := p.decode(body)
	if err != nil {
		return Profile{}, err
	}
	if prof.ID == "" {
		return Profile{}, fmt.Errorf("%s profile: missing id", p.name)
	}
	if prof.Email == "" {
		return Profile{}, ErrNoEmail
	}
	return prof, nil
}

// Providers builds the providers that have a client id configured.
func Providers(cfg config.OAuthConfig) map[string]*Provider {
	out := map[string]*Provider{}
	if cfg.GoogleClientID != "" {
		out[Google] = &Provider{
			name: Google,
			cfg: &oauth2.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				RedirectURL:  cfg.GoogleCallbackURL,
				Scopes:       []string{"openid", "profile", "email"},
				Endpoint:     google.Endpoint,
			},
			profileURL: googleProfileURL,
			decode:     decodeGoogle,
		}
	}
	if cfg.FacebookClientID != "" {
		out[Facebook] = &Provider{
			name: Facebook,
			cfg: &oauth2.Config{
				ClientID:     cfg.FacebookClientID,
				ClientSecret: cfg.FacebookClientSecret,
				RedirectURL:  cfg.FacebookCallbackURL,
				Scopes:       []string{"email", "public_profile"},
				Endpoint:     facebook.Endpoint,
			},
			profileURL: facebookProfileURL,
			decode:     decodeFacebook,
		}
	}
	return out
}

func decodeGoogle(body []byte) (Profile, error) {
	var v struct {
		Sub     string `json:"sub"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return Profile{}, fmt.Errorf("decode google profile: %w", err)
	}
	return Profile{ID: v.Sub, Email: v.Email, Name: v.Name, Picture: v.Picture}, nil
}

func decodeFacebook(body []byte) (Profile, error) {
	var v struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture struct {
			Data struct {
				URL string `json:"url"`
			} `json:"data"`
		} `json:"picture"`
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return Profile{}, fmt.Errorf("decode facebook profile: %w", err)
	}
	return Profile{ID: v.ID, Email: v.Email, Name: v.Name, Picture: v.Picture.Data.URL}, nil
}

// NewState returns a random value for the state parameter.
func NewState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
