// auth/service.go
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eGGnogSC/qbfields/internal/session"
)

// Config holds OAuth 2.0 configuration for the QuickBooks app.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string
	AuthURL      string
	TokenURL     string
}

// Service handles the OAuth 2.0 authorization-code flow.
type Service struct {
	config     Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewService creates a new auth service.
func NewService(config Config, logger *zap.Logger) *Service {
	return &Service{
		config:     config,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// AuthorizationURL builds the QuickBooks authorization redirect URL for the
// given per-flow state value.
func (s *Service) AuthorizationURL(state string) string {
	u, _ := url.Parse(s.config.AuthURL)
	q := u.Query()

	q.Set("client_id", s.config.ClientID)
	q.Set("response_type", "code")
	q.Set("scope", strings.Join(s.config.Scopes, " "))
	q.Set("redirect_uri", s.config.RedirectURI)
	q.Set("state", state)

	u.RawQuery = q.Encode()
	return u.String()
}

// GenerateState creates a secure random state value for one OAuth flow.
func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// ValidateCallback checks the provider redirect parameters before any token
// exchange. It fails if the provider reported an error or if code/realmId
// are missing.
func ValidateCallback(params url.Values) error {
	if errCode := params.Get("error"); errCode != "" {
		msg := errCode
		if desc := params.Get("error_description"); desc != "" {
			msg = fmt.Sprintf("%s: %s", errCode, desc)
		}
		return &CallbackError{Reason: "provider reported error " + msg}
	}
	if params.Get("code") == "" || params.Get("realmId") == "" {
		return &CallbackError{Reason: "missing code or realmId in callback"}
	}
	return nil
}

// Exchange trades an authorization code for tokens via a POST to the token
// endpoint using HTTP Basic client authentication. Missing token fields in a
// 200 response are left zero-valued, not treated as failures.
func (s *Service) Exchange(ctx context.Context, code string) (*session.OAuthToken, error) {
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	data.Set("redirect_uri", s.config.RedirectURI)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}

	req.Header.Add("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Add("Accept", "application/json")
	req.SetBasicAuth(s.config.ClientID, s.config.ClientSecret)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &TokenExchangeError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var token session.OAuthToken
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}

	s.logger.Info("token exchange completed", zap.Int("expires_in", token.ExpiresIn))
	return &token, nil
}
