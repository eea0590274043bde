// routes/auth.go
package routes

import (
	"github.com/gorilla/mux"

	"github.com/eGGnogSC/qbfields/internal/web"
)

// RegisterAuthRoutes registers the OAuth flow routes.
func RegisterAuthRoutes(router *mux.Router, h *web.Handler) {
	router.HandleFunc("/login", h.Login).Methods("GET")
	router.HandleFunc("/callback", h.Callback).Methods("GET")
	router.HandleFunc("/logout", h.Logout).Methods("POST")
}
