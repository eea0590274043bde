// web/render.go
package web

import (
	"embed"
	"encoding/json"
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"github.com/eGGnogSC/qbfields/internal/customfield"
	"github.com/eGGnogSC/qbfields/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// entityView is the little we show per provider record: its ID and the best
// available display name.
type entityView struct {
	ID   string
	Name string
}

type indexView struct {
	Flashes            []Flash
	Authenticated      bool
	Identity           *session.Identity
	RealmID            string
	Customers          []entityView
	Items              []entityView
	CustomFields       []customfield.Definition
	InvoiceID          string
	InvoiceDeepLink    string
	ShowFieldSelection bool
}

func entityViews(records []json.RawMessage) []entityView {
	views := make([]entityView, 0, len(records))
	for _, raw := range records {
		var rec struct {
			ID          string `json:"Id"`
			DisplayName string `json:"DisplayName"`
			Name        string `json:"Name"`
		}
		if err := json.Unmarshal(raw, &rec); err != nil {
			continue
		}
		name := rec.DisplayName
		if name == "" {
			name = rec.Name
		}
		views = append(views, entityView{ID: rec.ID, Name: name})
	}
	return views
}

func (h *Handler) renderIndex(w http.ResponseWriter, r *http.Request, state *session.State, showSelection bool) {
	view := indexView{
		Flashes:            h.takeFlashes(w, r),
		Authenticated:      state.Authenticated(),
		Identity:           state.Identity,
		RealmID:            state.RealmID,
		Customers:          entityViews(state.Customers),
		Items:              entityViews(state.Items),
		CustomFields:       state.CustomFields,
		InvoiceID:          state.InvoiceID,
		InvoiceDeepLink:    state.InvoiceDeepLink,
		ShowFieldSelection: showSelection,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, view); err != nil {
		h.logger.Error("failed to render index", zap.Error(err))
	}
}
