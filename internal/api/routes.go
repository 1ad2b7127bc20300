package api

import (
	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()

	// Security catalog (read-only reference data)
	api.HandleFunc("/securities", handler.ListSecurities).Methods("GET")

	// Price store
	api.HandleFunc("/prices", handler.UpsertPrice).Methods("POST")
	api.HandleFunc("/prices/batch", handler.UpsertPriceBatch).Methods("POST")
	api.HandleFunc("/prices/{ticker}", handler.GetPrices).Methods("GET")

	// Portfolio registry
	api.HandleFunc("/portfolios", handler.ListPortfolios).Methods("GET")
	api.HandleFunc("/portfolios", handler.CreatePortfolio).Methods("POST")
	api.HandleFunc("/portfolios/{name}", handler.DeletePortfolio).Methods("DELETE")

	// Position ledger
	api.HandleFunc("/portfolios/{name}/positions", handler.ListPositions).Methods("GET")
	api.HandleFunc("/portfolios/{name}/positions", handler.AddPosition).Methods("POST")
	api.HandleFunc("/portfolios/{name}/positions/{ticker}", handler.UpdatePosition).Methods("PUT")
	api.HandleFunc("/portfolios/{name}/positions/{ticker}", handler.DeletePosition).Methods("DELETE")

	return r
}
