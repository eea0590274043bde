// session/state.go
package session

import (
	"encoding/json"

	"github.com/eGGnogSC/qbfields/internal/customfield"
)

// OAuthToken represents token data from the QuickBooks token endpoint.
// Tokens are immutable once stored; there is no refresh flow, so a session
// either holds the token from its code exchange or nothing.
type OAuthToken struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	IDToken      string `json:"id_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// Identity holds display-only claims pulled from the id_token.
type Identity struct {
	Subject string `json:"subject"`
	Email   string `json:"email"`
}

// State is the per-session domain cache: the authenticated token and realm,
// plus the last-fetched provider data. Handlers read it, mutate it and save
// it back wholesale.
type State struct {
	Token    *OAuthToken `json:"token,omitempty"`
	RealmID  string      `json:"realm_id,omitempty"`
	Identity *Identity   `json:"identity,omitempty"`

	Customers    []json.RawMessage        `json:"customers,omitempty"`
	Items        []json.RawMessage        `json:"items,omitempty"`
	CustomFields []customfield.Definition `json:"custom_fields,omitempty"`

	InvoiceID       string `json:"invoice_id,omitempty"`
	InvoiceDeepLink string `json:"invoice_deep_link,omitempty"`
}

// Authenticated reports whether the session holds both a token and a realm.
// The two are always set and cleared together; every operation other than
// login and callback requires this to be true.
func (s *State) Authenticated() bool {
	return s.Token != nil && s.Token.AccessToken != "" && s.RealmID != ""
}

// Establish sets the token and realm together, dropping any stale cache
// from a previous connection.
func (s *State) Establish(token *OAuthToken, realmID string) {
	*s = State{Token: token, RealmID: realmID}
}

// Clear resets the session to its unauthenticated zero state.
func (s *State) Clear() {
	*s = State{}
}
