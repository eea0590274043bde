package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(tokenURL string) Config {
	return Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "https://example.com/callback",
		Scopes:       []string{"com.intuit.quickbooks.accounting", "app-foundations.custom-field-definitions"},
		AuthURL:      "https://appcenter.intuit.com/connect/oauth2",
		TokenURL:     tokenURL,
	}
}

func TestAuthorizationURL(t *testing.T) {
	s := NewService(testConfig("https://token.example"), zap.NewNop())

	u, err := url.Parse(s.AuthorizationURL("state-123"))
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "https://example.com/callback", q.Get("redirect_uri"))
	assert.Equal(t, "com.intuit.quickbooks.accounting app-foundations.custom-field-definitions", q.Get("scope"))
	assert.Equal(t, "state-123", q.Get("state"))
}

func TestGenerateState_Unique(t *testing.T) {
	a, err := GenerateState()
	require.NoError(t, err)
	b, err := GenerateState()
	require.NoError(t, err)

	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}

func TestValidateCallback(t *testing.T) {
	tests := []struct {
		name    string
		params  url.Values
		wantErr bool
	}{
		{"valid", url.Values{"code": {"abc"}, "realmId": {"999"}}, false},
		{"missing code", url.Values{"realmId": {"999"}}, true},
		{"missing realmId", url.Values{"code": {"abc"}}, true},
		{"empty", url.Values{}, true},
		{"provider error", url.Values{"code": {"abc"}, "realmId": {"999"}, "error": {"access_denied"}, "error_description": {"user declined"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCallback(tt.params)
			if tt.wantErr {
				var cbErr *CallbackError
				require.ErrorAs(t, err, &cbErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateCallback_IncludesProviderDescription(t *testing.T) {
	err := ValidateCallback(url.Values{
		"error":             {"access_denied"},
		"error_description": {"user declined"},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "access_denied")
	assert.Contains(t, err.Error(), "user declined")
}

func TestExchange_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "client-id", user)
		assert.Equal(t, "client-secret", pass)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostFormValue("grant_type"))
		assert.Equal(t, "the-code", r.PostFormValue("code"))
		assert.Equal(t, "https://example.com/callback", r.PostFormValue("redirect_uri"))

		fmt.Fprint(w, `{"access_token":"at","refresh_token":"rt","id_token":"idt","expires_in":3600}`)
	}))
	defer ts.Close()

	s := NewService(testConfig(ts.URL), zap.NewNop())
	token, err := s.Exchange(context.Background(), "the-code")

	require.NoError(t, err)
	assert.Equal(t, "at", token.AccessToken)
	assert.Equal(t, "rt", token.RefreshToken)
	assert.Equal(t, "idt", token.IDToken)
	assert.Equal(t, 3600, token.ExpiresIn)
}

func TestExchange_MissingFieldsAreNotFatal(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"access_token":"at"}`)
	}))
	defer ts.Close()

	s := NewService(testConfig(ts.URL), zap.NewNop())
	token, err := s.Exchange(context.Background(), "the-code")

	require.NoError(t, err)
	assert.Equal(t, "at", token.AccessToken)
	assert.Empty(t, token.RefreshToken)
	assert.Empty(t, token.IDToken)
}

func TestExchange_Non200IsTokenExchangeError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"invalid_grant"}`)
	}))
	defer ts.Close()

	s := NewService(testConfig(ts.URL), zap.NewNop())
	_, err := s.Exchange(context.Background(), "stale-code")

	var exchErr *TokenExchangeError
	require.ErrorAs(t, err, &exchErr)
	assert.Equal(t, http.StatusBadRequest, exchErr.StatusCode)
	assert.Contains(t, exchErr.Body, "invalid_grant")
}

func TestExchange_TransportFaultIsNetworkError(t *testing.T) {
	// Closed server: connection refused.
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close()

	s := NewService(testConfig(ts.URL), zap.NewNop())
	_, err := s.Exchange(context.Background(), "the-code")

	assert.ErrorIs(t, err, ErrNetwork)
}
