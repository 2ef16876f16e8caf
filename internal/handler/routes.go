package handler

import (
	"net/http"
)

// Routes registers every HTTP endpoint on a new mux. guard wraps the routes
// that start or stop matches; nil leaves them open.
func Routes(health *HealthHandler, matches *MatchHandler, ws *WSHandler, guard func(http.Handler) http.Handler) *http.ServeMux {
	if guard == nil {
		guard = func(h http.Handler) http.Handler { return h }
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", health.Healthz)

	api := http.NewServeMux()
	api.Handle("POST /matches", guard(http.HandlerFunc(matches.CreateMatch)))
	api.HandleFunc("GET /matches", matches.ListMatches)
	api.HandleFunc("GET /matches/{id}", matches.GetMatch)
	api.HandleFunc("GET /matches/{id}/turns", matches.ListTurns)
	api.Handle("POST /matches/{id}/stop", guard(http.HandlerFunc(matches.StopMatch)))
	api.HandleFunc("GET /leaderboard", matches.Leaderboard)
	mux.Handle("/api/v1/", http.StripPrefix("/api/v1", api))

	mux.HandleFunc("GET /api/v1/ws", ws.ServeWS)
	return mux
}
