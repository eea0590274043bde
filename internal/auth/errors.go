// auth/errors.go
package auth

import (
	"errors"
	"fmt"
)

// ErrNetwork marks a transport-level failure talking to the token endpoint.
var ErrNetwork = errors.New("network error")

// CallbackError is an invalid or provider-rejected OAuth redirect: a
// reported error parameter, or a missing code/realmId.
type CallbackError struct {
	Reason string
}

func (e *CallbackError) Error() string {
	return "oauth callback failed: " + e.Reason
}

// TokenExchangeError is a non-200 response from the token endpoint. Status
// and raw body are kept for diagnostics.
type TokenExchangeError struct {
	StatusCode int
	Body       string
}

func (e *TokenExchangeError) Error() string {
	return fmt.Sprintf("token request failed with status %d: %s", e.StatusCode, e.Body)
}
