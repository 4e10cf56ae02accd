package routes

import (
	"net/http"

	"github.com/courtside/match-scoring/handlers"
	"github.com/courtside/match-scoring/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes wires the scoring surface. Reads are public; mutations
// require a verified coach token issued by the surrounding account system.
func SetupRoutes(
	router *chi.Mux,
	scoreHandler *handlers.ScoreHandler,
	webSocketHandler *handlers.WebSocketHandler,
	jwtSecret []byte,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	router.Route("/matches/{matchID}", func(r chi.Router) {
		r.Get("/score", scoreHandler.GetScoreHandler)
		r.Get("/sets/{setNumber}/games/{gameNumber}/points", scoreHandler.ListGamePointsHandler)
		r.Get("/sets/{setNumber}/games/{gameNumber}/audit", scoreHandler.AuditGameHandler)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(jwtSecret))
			r.Use(middleware.RequireRole(middleware.RoleCoach))

			r.Post("/start", scoreHandler.StartMatchHandler)
			r.Post("/points", scoreHandler.RecordPointHandler)
			r.Post("/cancel", scoreHandler.CancelMatchHandler)
		})
	})

	router.Get("/ws/matches/{matchID}", webSocketHandler.ServeWs)
}
