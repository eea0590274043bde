// auth/identity.go
package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/eGGnogSC/qbfields/internal/session"
)

// IdentityFromIDToken extracts display-only claims from the id_token. The
// signature is not verified: these claims drive nothing but the UI, and the
// token arrived over the Basic-authenticated token exchange. Returns nil on
// any parse problem or when no id_token was issued.
func IdentityFromIDToken(idToken string) *session.Identity {
	if idToken == "" {
		return nil
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(idToken, claims); err != nil {
		return nil
	}

	identity := &session.Identity{}
	if sub, ok := claims["sub"].(string); ok {
		identity.Subject = sub
	}
	if email, ok := claims["email"].(string); ok {
		identity.Email = email
	}
	if identity.Subject == "" && identity.Email == "" {
		return nil
	}
	return identity
}
