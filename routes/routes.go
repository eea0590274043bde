// routes/routes.go
package routes

import (
	"github.com/gorilla/mux"

	"github.com/eGGnogSC/qbfields/internal/metrics"
	"github.com/eGGnogSC/qbfields/internal/web"
)

// SetupRoutes configures all application routes.
func SetupRoutes(router *mux.Router, h *web.Handler, m *metrics.Metrics) {
	router.Use(m.Middleware)

	RegisterAuthRoutes(router, h)

	router.HandleFunc("/", h.Index).Methods("GET")
	router.HandleFunc("/create_custom_field", h.CreateCustomField).Methods("POST")
	router.HandleFunc("/read_custom_fields", h.ReadCustomFields).Methods("GET")
	router.HandleFunc("/deactivate_custom_fields", h.DeactivateCustomFields).Methods("POST")
	router.HandleFunc("/create_invoice", h.CreateInvoice).Methods("POST")

	router.HandleFunc("/healthz", h.Healthz).Methods("GET")
	router.Handle("/metrics", m.Handler()).Methods("GET")
}
