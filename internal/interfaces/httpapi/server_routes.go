package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, swaggerEnabled bool) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if !swaggerEnabled {
		return
	}

	mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
	mux.HandleFunc("GET /docs", handler.SwaggerUI)
	mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

func registerPublicDomainRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/matches", handler.ListMatches)
	mux.HandleFunc("GET /v1/matches/{externalID}", handler.GetMatch)
	mux.HandleFunc("POST /v1/wagers", handler.PlaceWager)
	mux.HandleFunc("GET /v1/wagers", handler.ListWagers)
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/jobs/sync-odds", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunSyncOddsJob)))
	mux.Handle("POST /v1/internal/jobs/sync-scores", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunSyncScoresJob)))
	mux.Handle("POST /v1/internal/jobs/settle", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunSettleJob)))
	mux.Handle("POST /v1/internal/jobs/full-sync", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunFullSyncJob)))
}
