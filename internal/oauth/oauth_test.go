package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/jongrhanrhao/reservation-backend/internal/config"
)

func fakeProvider(t *testing.T, profile string, decode func([]byte) (Profile, error)) *Provider {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/profile", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(profile))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &Provider{
		name: "fake",
		cfg: &oauth2.Config{
			ClientID:     "id",
			ClientSecret: "secret",
			RedirectURL:  "http://localhost/callback",
			Endpoint:     oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"},
		},
		profileURL: srv.URL + "/profile",
		decode:     decode,
	}
}

func TestExchangeGoogleProfile(t *testing.T) {
	p := fakeProvider(t, `{"sub":"g-1","email":"a@example.com","name":"A","picture":"http://img/a.png"}`, decodeGoogle)

	prof, err := p.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, Profile{ID: "g-1", Email: "a@example.com", Name: "A", Picture: "http://img/a.png"}, prof)

	_, err = p.Exchange(context.Background(), "bad-code")
	assert.Error(t, err)
}

func TestExchangeFacebookProfile(t *testing.T) {
	p := fakeProvider(t, `{"id":"fb-1","email":"b@example.com","name":"B","picture":{"data":{"url":"http://img/b.png"}}}`, decodeFacebook)

	prof, err := p.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, "fb-1", prof.ID)
	assert.Equal(t, "http://img/b.png", prof.Picture)
}

func TestExchangeRequiresEmail(t *testing.T) {
	p := fakeProvider(t, `{"sub":"g-1","name":"A"}`, decodeGoogle)
	_, err := p.Exchange(context.Background(), "good-code")
	assert.ErrorIs(t, err, ErrNoEmail)
}

func TestProvidersAndAuthURL(t *testing.T) {
	assert.Empty(t, Providers(config.OAuthConfig{}))

	ps := Providers(config.OAuthConfig{GoogleClientID: "gid", GoogleCallbackURL: "http://localhost/cb", FacebookClientID: "fid"})
	require.Len(t, ps, 2)

	u, err := url.Parse(ps[Google].AuthCodeURL("xyz"))
	require.NoError(t, err)
	assert.Equal(t, "xyz", u.Query().Get("state"))
	assert.Equal(t, "gid", u.Query().Get("client_id"))
	assert.Equal(t, "http://localhost/cb", u.Query().Get("redirect_uri"))

	s1, err := NewState()
	require.NoError(t, err)
	s2, err := NewState()
	require.NoError(t, err)
	assert.NotEqual(t, s1, s2)
}
