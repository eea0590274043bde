// web/handler.go
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"github.com/eGGnogSC/qbfields/internal/auth"
	"github.com/eGGnogSC/qbfields/internal/customer"
	"github.com/eGGnogSC/qbfields/internal/customfield"
	"github.com/eGGnogSC/qbfields/internal/invoice"
	"github.com/eGGnogSC/qbfields/internal/item"
	"github.com/eGGnogSC/qbfields/internal/session"
	"github.com/eGGnogSC/qbfields/pkg/qbclient"
)

// Handler serves the browser-facing routes. Each handler loads the session
// state, performs its synchronous provider calls, saves the state back
// wholesale and redirects to the index.
type Handler struct {
	store        session.Store
	cookies      *sessions.CookieStore
	authService  *auth.Service
	customers    *customer.Service
	items        *item.Service
	customFields *customfield.Service
	invoices     *invoice.Service
	redisHealth  func() bool
	logger       *zap.Logger
}

// NewHandler creates the web handler.
func NewHandler(
	store session.Store,
	cookies *sessions.CookieStore,
	authService *auth.Service,
	customers *customer.Service,
	items *item.Service,
	customFields *customfield.Service,
	invoices *invoice.Service,
	redisHealth func() bool,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		store:        store,
		cookies:      cookies,
		authService:  authService,
		customers:    customers,
		items:        items,
		customFields: customFields,
		invoices:     invoices,
		redisHealth:  redisHealth,
		logger:       logger,
	}
}

// loadState fetches the session state, returning a fresh one for new
// sessions.
func (h *Handler) loadState(ctx context.Context, sid string) *session.State {
	state, err := h.store.Get(ctx, sid)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			h.logger.Warn("failed to load session state", zap.Error(err))
		}
		return &session.State{}
	}
	return state
}

func (h *Handler) saveState(ctx context.Context, w http.ResponseWriter, r *http.Request, sid string, state *session.State) {
	if err := h.store.Save(ctx, sid, state); err != nil {
		h.logger.Error("failed to save session state", zap.Error(err))
		h.addFlash(w, r, "danger", "Failed to save session state.")
	}
}

// requireAuth loads the session and enforces the token+realm invariant.
// Unauthenticated requests get a flash and a redirect home.
func (h *Handler) requireAuth(w http.ResponseWriter, r *http.Request) (string, *session.State, bool) {
	cs := h.cookieSession(r)
	sid := h.sessionID(w, r, cs)
	state := h.loadState(r.Context(), sid)
	if !state.Authenticated() {
		h.addFlash(w, r, "danger", "Please connect to QuickBooks first.")
		http.Redirect(w, r, "/", http.StatusFound)
		return "", nil, false
	}
	return sid, state, true
}

// Index renders the current session state.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	cs := h.cookieSession(r)
	sid := h.sessionID(w, r, cs)
	state := h.loadState(r.Context(), sid)
	h.renderIndex(w, r, state, false)
}

// Login starts the OAuth flow: a per-flow random state goes into the cookie
// session, then the browser is sent to the authorization endpoint.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	state, err := auth.GenerateState()
	if err != nil {
		h.logger.Error("failed to generate oauth state", zap.Error(err))
		h.addFlash(w, r, "danger", "Failed to start authorization.")
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	if err := h.setOAuthState(w, r, state); err != nil {
		h.logger.Error("failed to save oauth state", zap.Error(err))
		h.addFlash(w, r, "danger", "Failed to start authorization.")
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	http.Redirect(w, r, h.authService.AuthorizationURL(state), http.StatusFound)
}

// Callback handles the provider redirect: validate parameters and state,
// exchange the code, establish the session, then eagerly fetch customers,
// items and custom fields. Each fetch failure is non-fatal and only warns.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	if err := auth.ValidateCallback(params); err != nil {
		h.addFlash(w, r, "danger", err.Error())
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	if !h.consumeOAuthState(w, r, params.Get("state")) {
		h.addFlash(w, r, "danger", "Invalid or expired state parameter.")
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	token, err := h.authService.Exchange(r.Context(), params.Get("code"))
	if err != nil {
		var exchErr *auth.TokenExchangeError
		if errors.As(err, &exchErr) {
			h.addFlash(w, r, "danger", fmt.Sprintf("Failed to get tokens: %s", exchErr.Body))
		} else {
			h.addFlash(w, r, "danger", "Failed to get tokens: "+err.Error())
		}
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	cs := h.cookieSession(r)
	sid := h.sessionID(w, r, cs)
	state := &session.State{}
	state.Establish(token, params.Get("realmId"))
	state.Identity = auth.IdentityFromIDToken(token.IDToken)

	h.refreshCustomers(w, r, state)
	h.refreshItems(w, r, state)
	h.refreshCustomFields(w, r, state)

	h.saveState(r.Context(), w, r, sid, state)
	h.addFlash(w, r, "success", "Successfully authenticated with QuickBooks!")
	http.Redirect(w, r, "/", http.StatusFound)
}

// Logout drops the session state.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	cs := h.cookieSession(r)
	sid := h.sessionID(w, r, cs)
	if err := h.store.Delete(r.Context(), sid); err != nil {
		h.logger.Warn("failed to delete session state", zap.Error(err))
	}
	h.addFlash(w, r, "info", "Disconnected from QuickBooks.")
	http.Redirect(w, r, "/", http.StatusFound)
}

// CreateCustomField creates a new STRING field and re-fetches the full
// definition list into the session; no optimistic update.
func (h *Handler) CreateCustomField(w http.ResponseWriter, r *http.Request) {
	sid, state, ok := h.requireAuth(w, r)
	if !ok {
		return
	}

	label := r.PostFormValue("custom_field_name")
	if label == "" {
		h.addFlash(w, r, "danger", "Custom field name is required.")
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	err := h.customFields.Create(r.Context(), state.Token.AccessToken, label)
	switch {
	case err == nil:
	case errors.Is(err, customfield.ErrEntityLimitExceeded):
		h.addFlash(w, r, "danger", "You've exceeded the maximum number of associated entities for custom fields.")
		http.Redirect(w, r, "/", http.StatusFound)
		return
	case errors.Is(err, customfield.ErrLabelExists):
		h.addFlash(w, r, "danger", fmt.Sprintf("A custom field named %q already exists.", label))
		http.Redirect(w, r, "/", http.StatusFound)
		return
	default:
		h.addFlash(w, r, "danger", "Failed to create custom field: "+err.Error())
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	h.refreshCustomFields(w, r, state)
	h.saveState(r.Context(), w, r, sid, state)
	h.addFlash(w, r, "success", "Custom field created successfully.")
	http.Redirect(w, r, "/", http.StatusFound)
}

// ReadCustomFields renders the field-selection view.
func (h *Handler) ReadCustomFields(w http.ResponseWriter, r *http.Request) {
	_, state, ok := h.requireAuth(w, r)
	if !ok {
		return
	}

	if len(state.CustomFields) == 0 {
		h.addFlash(w, r, "info", "You do not have any active custom fields")
		h.renderIndex(w, r, state, false)
		return
	}
	h.renderIndex(w, r, state, true)
}

// DeactivateCustomFields reconciles active flags against the submitted
// selection. Each per-field failure gets its own flash; the success flash
// only appears when every mutation went through.
func (h *Handler) DeactivateCustomFields(w http.ResponseWriter, r *http.Request) {
	sid, state, ok := h.requireAuth(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		h.addFlash(w, r, "danger", "Invalid form submission.")
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	selected := make(map[string]bool)
	for _, id := range r.PostForm["selected_custom_fields"] {
		selected[id] = true
	}

	failures, err := h.customFields.SetActiveStates(r.Context(), state.Token.AccessToken, selected)
	if err != nil {
		h.addFlash(w, r, "danger", "Failed to update custom fields: "+err.Error())
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	for _, f := range failures {
		h.addFlash(w, r, "danger", fmt.Sprintf("Failed to update %s: %s", f.Label, f.Err))
	}

	h.refreshCustomFields(w, r, state)
	h.saveState(r.Context(), w, r, sid, state)

	if len(failures) == 0 {
		h.addFlash(w, r, "success", "Custom fields updated successfully.")
	} else {
		h.addFlash(w, r, "warning", fmt.Sprintf("Custom fields updated with %d failure(s).", len(failures)))
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// CreateInvoice submits a single-line invoice referencing one customer, one
// item and one custom field value.
func (h *Handler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	sid, state, ok := h.requireAuth(w, r)
	if !ok {
		return
	}

	params := invoice.CreateParams{
		Amount:           r.PostFormValue("amount"),
		CustomerID:       r.PostFormValue("customer_id"),
		ItemID:           r.PostFormValue("item_id"),
		ItemName:         r.PostFormValue("item_name"),
		CustomFieldID:    r.PostFormValue("custom_field_id"),
		CustomFieldValue: r.PostFormValue("custom_field_value"),
	}

	ref, err := h.invoices.Create(r.Context(), state.Token.AccessToken, state.RealmID, params)
	if err != nil {
		var validationErr *invoice.ValidationError
		var apiErr *qbclient.APIError
		switch {
		case errors.As(err, &validationErr):
			h.addFlash(w, r, "danger", "Connect to QuickBooks and select all required fields.")
		case errors.Is(err, invoice.ErrInvalidAmount):
			h.addFlash(w, r, "danger", "Amount must be a number.")
		case errors.Is(err, invoice.ErrAmbiguousResponse):
			h.addFlash(w, r, "warning", "Invoice created but ID not found in response")
		case errors.As(err, &apiErr):
			state.InvoiceID = ""
			state.InvoiceDeepLink = ""
			h.saveState(r.Context(), w, r, sid, state)
			h.addFlash(w, r, "danger", "Failed to create invoice: "+apiErr.Body)
		default:
			h.addFlash(w, r, "danger", "Error creating invoice: "+err.Error())
		}
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	state.InvoiceID = ref.ID
	state.InvoiceDeepLink = ref.DeepLink
	h.saveState(r.Context(), w, r, sid, state)
	h.addFlash(w, r, "success", fmt.Sprintf("Success! Invoice created with ID: %s", ref.ID))
	http.Redirect(w, r, "/", http.StatusFound)
}

// Healthz reports process liveness and, when configured, Redis health.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok", "redis": "disabled"}
	if h.redisHealth != nil {
		if h.redisHealth() {
			status["redis"] = "healthy"
		} else {
			status["redis"] = "unhealthy"
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(status)
}

// Fetch helpers: errors degrade to an empty cached list plus a warning
// flash, never aborting the enclosing flow.

func (h *Handler) refreshCustomers(w http.ResponseWriter, r *http.Request, state *session.State) {
	records, err := h.customers.Fetch(r.Context(), state.Token.AccessToken, state.RealmID)
	if err != nil {
		h.logger.Warn("failed to fetch customers", zap.Error(err))
		h.addFlash(w, r, "warning", "Error fetching customers.")
		state.Customers = nil
		return
	}
	state.Customers = records
}

func (h *Handler) refreshItems(w http.ResponseWriter, r *http.Request, state *session.State) {
	records, err := h.items.Fetch(r.Context(), state.Token.AccessToken, state.RealmID)
	if err != nil {
		h.logger.Warn("failed to fetch items", zap.Error(err))
		h.addFlash(w, r, "warning", "Error fetching items.")
		state.Items = nil
		return
	}
	state.Items = records
}

func (h *Handler) refreshCustomFields(w http.ResponseWriter, r *http.Request, state *session.State) {
	defs, err := h.customFields.List(r.Context(), state.Token.AccessToken)
	if err != nil {
		h.logger.Warn("failed to fetch custom fields", zap.Error(err))
		h.addFlash(w, r, "warning", "Error fetching custom fields.")
		state.CustomFields = nil
		return
	}
	state.CustomFields = defs
}
