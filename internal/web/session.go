// web/session.go
package web

import (
	"encoding/gob"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

const (
	cookieName       = "qbfields-session"
	sessionIDKey     = "sid"
	oauthStateKey    = "oauth_state"
	oauthStateExpiry = "oauth_state_expiry"

	stateLifetime = 10 * time.Minute
)

// Flash is a one-shot user-facing message. Categories follow the usual
// bootstrap-ish palette: success, danger, warning, info.
type Flash struct {
	Category string
	Message  string
}

func init() {
	gob.Register(Flash{})
}

// NewCookieStore builds the browser cookie store. The cookie carries only
// the session ID, the in-flight OAuth state and flash messages; domain data
// stays server-side.
func NewCookieStore(secret []byte) *sessions.CookieStore {
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

func (h *Handler) cookieSession(r *http.Request) *sessions.Session {
	s, _ := h.cookies.Get(r, cookieName)
	return s
}

// sessionID returns the browser's session ID, minting one on first contact.
func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request, cs *sessions.Session) string {
	if sid, ok := cs.Values[sessionIDKey].(string); ok && sid != "" {
		return sid
	}
	sid := uuid.NewString()
	cs.Values[sessionIDKey] = sid
	_ = cs.Save(r, w)
	return sid
}

func (h *Handler) addFlash(w http.ResponseWriter, r *http.Request, category, message string) {
	cs := h.cookieSession(r)
	cs.AddFlash(Flash{Category: category, Message: message})
	_ = cs.Save(r, w)
}

// takeFlashes drains pending flash messages.
func (h *Handler) takeFlashes(w http.ResponseWriter, r *http.Request) []Flash {
	cs := h.cookieSession(r)
	raw := cs.Flashes()
	if len(raw) > 0 {
		_ = cs.Save(r, w)
	}
	flashes := make([]Flash, 0, len(raw))
	for _, v := range raw {
		if f, ok := v.(Flash); ok {
			flashes = append(flashes, f)
		}
	}
	return flashes
}

// setOAuthState stores the per-flow state value with its expiry.
func (h *Handler) setOAuthState(w http.ResponseWriter, r *http.Request, state string) error {
	cs := h.cookieSession(r)
	cs.Values[oauthStateKey] = state
	cs.Values[oauthStateExpiry] = time.Now().Add(stateLifetime).Unix()
	return cs.Save(r, w)
}

// consumeOAuthState verifies the callback's state against the stored value
// and clears it. Missing, mismatched or expired state all fail.
func (h *Handler) consumeOAuthState(w http.ResponseWriter, r *http.Request, got string) bool {
	cs := h.cookieSession(r)
	saved, ok := cs.Values[oauthStateKey].(string)
	expiry, okExp := cs.Values[oauthStateExpiry].(int64)

	delete(cs.Values, oauthStateKey)
	delete(cs.Values, oauthStateExpiry)
	_ = cs.Save(r, w)

	if !ok || saved == "" || saved != got {
		return false
	}
	if !okExp || time.Now().Unix() > expiry {
		return false
	}
	return true
}
