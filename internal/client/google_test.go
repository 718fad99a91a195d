package client

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const testIssuer = "https://issuer.test"

func newTestGoogleClient(t *testing.T, tokenHandler http.HandlerFunc, key *rsa.PrivateKey) *GoogleClient {
	t.Helper()
	srv := httptest.NewServer(tokenHandler)
	t.Cleanup(srv.Close)

	keySet := &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&key.PublicKey}}
	return &GoogleClient{
		oauth: &oauth2.Config{
			ClientID:     "client-1",
			ClientSecret: "secret-1",
			RedirectURL:  "http://localhost/api/v1/auth/google/callback",
			Endpoint:     oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"},
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		},
		verifier:   oidc.NewVerifier(testIssuer, keySet, &oidc.Config{ClientID: "client-1"}),
		httpClient: srv.Client(),
	}
}

func signIDToken(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return signed
}

func tokenResponse(idToken string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":"at","token_type":"Bearer","expires_in":3600,"id_token":%q}`, idToken)
	}
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"iss":            testIssuer,
		"aud":            "client-1",
		"sub":            "google-123",
		"exp":            time.Now().Add(time.Hour).Unix(),
		"iat":            time.Now().Unix(),
		"email":          "jane@example.com",
		"email_verified": true,
		"name":           "Jane Doe",
	}
}

func TestGoogleAuthCodeURL(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	g := newTestGoogleClient(t, tokenResponse(""), key)

	u, err := url.Parse(g.AuthCodeURL("state-1"))
	require.NoError(t, err)
	q := u.Query()
	require.Equal(t, "code", q.Get("response_type"))
	require.Equal(t, "client-1", q.Get("client_id"))
	require.Equal(t, "state-1", q.Get("state"))
	require.Equal(t, "offline", q.Get("access_type"))
	require.Equal(t, "consent", q.Get("prompt"))
	require.Equal(t, "openid email profile", q.Get("scope"))
}

func TestGoogleExchange(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	g := newTestGoogleClient(t, tokenResponse(signIDToken(t, key, validClaims())), key)

	identity, err := g.Exchange(context.Background(), "code-1")
	require.NoError(t, err)
	require.Equal(t, "jane@example.com", identity.Email)
	require.Equal(t, "google-123", identity.Subject)
	require.Equal(t, "Jane Doe", identity.Name)
}

func TestGoogleExchangeRejectsForeignSignature(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	g := newTestGoogleClient(t, tokenResponse(signIDToken(t, other, validClaims())), key)

	_, err = g.Exchange(context.Background(), "code-1")
	require.ErrorContains(t, err, "invalid ID token")
}

func TestGoogleExchangeRejectsUnverifiedEmail(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	claims := validClaims()
	claims["email_verified"] = false
	g := newTestGoogleClient(t, tokenResponse(signIDToken(t, key, claims)), key)

	_, err = g.Exchange(context.Background(), "code-1")
	require.ErrorContains(t, err, "email not verified")
}

func TestGoogleExchangeProviderError(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	g := newTestGoogleClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"invalid_grant"}`)
	}, key)

	_, err = g.Exchange(context.Background(), "bad-code")
	require.ErrorContains(t, err, "failed to get token from Google")
	require.ErrorContains(t, err, "invalid_grant")
}

func TestGoogleExchangeMissingIDToken(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	g := newTestGoogleClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"at","token_type":"Bearer"}`)
	}, key)

	_, err = g.Exchange(context.Background(), "code-1")
	require.ErrorContains(t, err, "ID token not found")
}
